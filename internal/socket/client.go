/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package socket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"dmcore/internal/hub"
	"dmcore/internal/nlog"

	"github.com/gofiber/contrib/websocket"
)

var ErrSlowClient = errors.New("The client is not reading fast enough, event dropped")

// ConnLike is the part of a websocket connection a Client uses
type ConnLike interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(int, []byte) error
	Close() error
}

// Frame sent by clients
type incomingFrame struct {
	Content string `json:"content"`
}

// A Client is one live session of Username on the conversation with Other
type Client struct {
	ID       string
	Username string
	Other    string
	Conn     ConnLike

	lock   sync.Mutex
	closed bool
	send   chan []byte
	done   chan struct{} // Closed when WritePump returns
}

func NewClient(id, username, other string, conn ConnLike) *Client {
	return &Client{
		ID:       id,
		Username: username,
		Other:    other,
		Conn:     conn,
		send:     make(chan []byte, 64),
		done:     make(chan struct{}),
	}
}

// enqueue hands payload to WritePump without blocking
func (c *Client) enqueue(payload []byte) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.closed {
		return nil
	}
	select {
	case c.send <- payload:
		return nil
	default:
		return ErrSlowClient
	}
}

// close stops WritePump once the queued frames are written
func (c *Client) close() {
	c.lock.Lock()
	defer c.lock.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// ReadPump forwards every frame to the hub as a message to Other, until the connection fails
func (c *Client) ReadPump(ctx context.Context, sessions Session, logger nlog.Logger) {
	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			return
		}
		var frame incomingFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.replyError("frames must be {\"content\": \"...\"}")
			continue
		}
		if _, err := sessions.Send(ctx, c.ID, c.Username, c.Other, frame.Content); err != nil {
			logger.Logf("Message of %s on %s refused {%v}", c.Username, c.ID, err)
			c.replyError(err.Error())
		}
	}
}

// WritePump writes queued frames until close is called.
// The first failed write closes the connection, so ReadPump ends the session too.
func (c *Client) WritePump(logger nlog.Logger) {
	defer close(c.done)
	for data := range c.send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
			logger.Logf("Could not write to connection %s of %s, closing it {%v}", c.ID, c.Username, err)
			c.Conn.Close()
			return
		}
	}
}

func (c *Client) replyError(reason string) {
	payload, err := hub.Event{Type: hub.EventError, Error: reason}.Encode()
	if err == nil {
		c.enqueue(payload)
	}
}
