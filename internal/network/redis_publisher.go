/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package network

import (
	"context"
	"time"

	"dmcore/internal/nlog"

	"github.com/go-redis/redis/v8"
)

// A RedisPublisher pushes live events with PUBLISH on channel <prefix><connection-id>
type RedisPublisher struct {
	client  *redis.Client
	prefix  string
	timeout time.Duration
	logger  nlog.Logger
}

func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 2 * time.Second,
	})
}

func NewRedisPublisher(client *redis.Client, prefix string, logger nlog.Logger) *RedisPublisher {
	return &RedisPublisher{
		client:  client,
		prefix:  prefix,
		timeout: time.Second,
		logger:  logger,
	}
}

// Ping checks that the server answers
func (r *RedisPublisher) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisPublisher) Channel(connectionID string) string {
	return r.prefix + connectionID
}

// Push publishes payload for connectionID. Nobody listening is not an error.
func (r *RedisPublisher) Push(connectionID string, payload []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	receivers, err := r.client.Publish(ctx, r.Channel(connectionID), payload).Result()
	if err != nil {
		return err
	}
	if receivers == 0 {
		r.logger.Logf("No gateway is listening on %s", r.Channel(connectionID))
	}
	return nil
}

func (r *RedisPublisher) Close() error {
	return r.client.Close()
}
