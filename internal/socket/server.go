/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

// Package socket is the in process websocket transport: one fiber app accepting a session per conversation.
package socket

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"dmcore/internal/entity"
	"dmcore/internal/nlog"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Session is what the transport needs from the hub
type Session interface {
	Connect(ctx context.Context, connectionID, username, other string) (string, error)
	Disconnect(connectionID string)
	Send(ctx context.Context, fromConnectionID, sender, recipient, content string) (*entity.Message, error)
}

// TokenVerifier turns an access token into the username it was issued to
type TokenVerifier interface {
	Verify(token string) (string, error)
}

type Server struct {
	app      *fiber.App
	sessions Session
	verifier TokenVerifier
	logger   nlog.Logger

	base    context.Context
	clients sync.Map // Connection id -> *Client
}

func NewServer(sessions Session, verifier TokenVerifier, logger nlog.Logger) *Server {
	s := &Server{
		app:      fiber.New(fiber.Config{DisableStartupMessage: true}),
		sessions: sessions,
		verifier: verifier,
		logger:   logger,
		base:     context.Background(),
	}

	s.app.Get("/ws/messages/:username", s.upgrade, websocket.New(func(conn *websocket.Conn) {
		username, _ := conn.Locals("username").(string)
		other := conn.Params("username")
		s.Serve(NewClient(uuid.NewString(), username, other, conn))
	}))
	return s
}

func (s *Server) App() *fiber.App {
	return s.app
}

// upgrade lets through only authenticated websocket upgrades on a conversation with someone else
func (s *Server) upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	token := c.Query("access_token")
	if token == "" {
		token = c.Get(fiber.HeaderAuthorization)
	}
	username, err := s.verifier.Verify(token)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	if strings.EqualFold(c.Params("username"), username) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "you cannot open a conversation with yourself"})
	}

	c.Locals("username", username)
	return c.Next()
}

// Serve runs the client's session: it blocks until the connection is gone
func (s *Server) Serve(client *Client) {
	s.clients.Store(client.ID, client)
	go client.WritePump(s.logger)

	s.logger.Logf("Connection %s opened by %s towards %s", client.ID, client.Username, client.Other)
	if _, err := s.sessions.Connect(s.base, client.ID, client.Username, client.Other); err != nil {
		s.logger.Logf("Connection %s started without its thread {%v}", client.ID, err)
	}

	client.ReadPump(s.base, s.sessions, s.logger)

	s.sessions.Disconnect(client.ID)
	s.clients.Delete(client.ID)
	client.close()
	<-client.done
	s.logger.Logf("Connection %s closed", client.ID)
}

// Push delivers payload to the connection, if it is held by this server
func (s *Server) Push(connectionID string, payload []byte) error {
	value, ok := s.clients.Load(connectionID)
	if !ok {
		return nil
	}
	return value.(*Client).enqueue(payload)
}

// Listen serves on port until ctx is done
func (s *Server) Listen(ctx context.Context, port uint16) error {
	s.base = ctx
	go func() {
		<-ctx.Done()
		if err := s.app.Shutdown(); err != nil {
			s.logger.Logf("Error during shutdown... %v", err)
		}
	}()
	return s.app.Listen(fmt.Sprintf(":%d", port))
}
