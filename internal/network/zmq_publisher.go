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
	"errors"
	"fmt"
	"strings"

	"dmcore/internal/nlog"

	zmq "github.com/pebbe/zmq4"
)

// Prepends the prefix `tcp://` to address, unless it already carries a transport
func getFullAddress(address string) string {
	if strings.Contains(address, "://") {
		return address
	}
	return fmt.Sprintf("tcp://%s", address)
}

var (
	ErrPublisherClosed = errors.New("The publisher is closed")
	ErrPublishBacklog  = errors.New("The publisher backlog is full, event dropped")
)

type frame struct {
	topic   string
	payload []byte
}

// A ZMQPublisher pushes live events on a PUB socket, for socket gateways running in other processes.
// Every event is a two part message: <prefix><connection-id>, payload. Gateways subscribe to the ids they hold.
// The socket is owned by Run: Push only queues.
type ZMQPublisher struct {
	ctx    *zmq.Context
	socket *zmq.Socket
	prefix string
	logger nlog.Logger

	outbox chan frame
	done   chan struct{}
}

// Creates the publisher, binding the PUB socket on address
func NewZMQPublisher(address, prefix string, logger nlog.Logger) (*ZMQPublisher, error) {

	zctx, err := zmq.NewContext()
	if err != nil {
		return nil, err
	}

	s, err := zctx.NewSocket(zmq.Type(zmq.PUB))
	if err != nil {
		zctx.Term()
		return nil, fmt.Errorf("Error during the creation of the publisher ZMQ4 socket")
	}
	s.SetLinger(0)
	s.SetSndhwm(10000)

	if err := s.Bind(getFullAddress(address)); err != nil {
		s.Close()
		zctx.Term()
		return nil, fmt.Errorf("Could not bind the publisher on %s", address)
	}

	return &ZMQPublisher{
		ctx:    zctx,
		socket: s,
		prefix: prefix,
		logger: logger,
		outbox: make(chan frame, 1024),
		done:   make(chan struct{}),
	}, nil
}

// Endpoint returns the address the socket is bound to, with any wildcard port resolved
func (p *ZMQPublisher) Endpoint() string {
	e, _ := p.socket.GetLastEndpoint()
	return e
}

// Topic is the first frame of every event sent to connectionID
func (p *ZMQPublisher) Topic(connectionID string) string {
	return p.prefix + connectionID
}

// Push queues payload for connectionID. It never blocks.
func (p *ZMQPublisher) Push(connectionID string, payload []byte) error {
	select {
	case <-p.done:
		return ErrPublisherClosed
	default:
	}

	select {
	case p.outbox <- frame{p.Topic(connectionID), payload}:
		return nil
	default:
		return ErrPublishBacklog
	}
}

// Run sends the queued events until ctx is done, then closes the socket
func (p *ZMQPublisher) Run(ctx context.Context) {
	defer p.destroy()
	for {
		select {
		case <-ctx.Done():
			close(p.done)
			return
		case f := <-p.outbox:
			if _, err := p.socket.SendMessage(f.topic, f.payload); err != nil {
				p.logger.Logf("Error during publish on %s {%v}", f.topic, err)
			}
		}
	}
}

// destroy closes the current socket
func (p *ZMQPublisher) destroy() {
	p.socket.Close()
	p.ctx.Term()
}
