/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

// Package hub drives live delivery: it keeps the presence registry in sync with transport
// sessions and fans stored messages out to every open device of both parties.
package hub

import (
	"context"
	"slices"
	"sync"

	"dmcore/internal/entity"
	"dmcore/internal/nlog"
	"dmcore/internal/presence"
	"dmcore/internal/service"
)

// Pusher delivers a payload to one live connection. Connections a pusher does not know are ignored.
type Pusher interface {
	Push(connectionID string, payload []byte) error
}

type Hub struct {
	registry *presence.Registry
	messages service.MessageService
	pushers  []Pusher
	logger   nlog.Logger

	lock  sync.Mutex
	peers map[string]string // Connection id -> the other party of its conversation
}

func NewHub(registry *presence.Registry, messages service.MessageService, logger nlog.Logger, pushers ...Pusher) *Hub {
	h := &Hub{
		registry: registry,
		messages: messages,
		pushers:  pushers,
		logger:   logger,
		peers:    make(map[string]string),
	}
	return h
}

// AddPusher registers another delivery path. Must be called before the hub is used.
func (h *Hub) AddPusher(p Pusher) {
	h.pushers = append(h.pushers, p)
}

func (h *Hub) Logf(format string, v ...any) {
	h.logger.Logf(format, v...)
}

func (h *Hub) setPeer(connectionID, other string) {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.peers[connectionID] = other
}

func (h *Hub) takePeer(connectionID string) (string, bool) {
	h.lock.Lock()
	defer h.lock.Unlock()
	other, ok := h.peers[connectionID]
	delete(h.peers, connectionID)
	return other, ok
}

// Connect registers a session of username on the conversation with other.
// The counterpart learns that username is online, the group learns its new membership
// and the connection itself receives the thread, which marks it as read.
func (h *Hub) Connect(ctx context.Context, connectionID, username, other string) (string, error) {
	wasOnline := h.registry.IsOnline(username)
	name := h.registry.JoinGroup(connectionID, username, other)
	h.setPeer(connectionID, other)
	h.Logf("Connection %s of %s joined %s", connectionID, username, name)

	if !wasOnline {
		h.broadcast(h.registry.ConnectionsForUser(other), Event{Type: EventUserOnline, Username: username})
	}
	h.groupUpdated(name)

	thread, err := h.messages.GetThread(ctx, username, other)
	if thread != nil {
		h.push([]string{connectionID}, Event{Type: EventMessageThread, Messages: thread})
	}
	if err != nil {
		h.Logf("Thread for %s on %s could not be completed {%v}", connectionID, name, err)
		if thread == nil {
			h.push([]string{connectionID}, Event{Type: EventError, Error: err.Error()})
		}
		return name, err
	}
	return name, nil
}

// Disconnect removes the session. Unknown connections are ignored.
func (h *Hub) Disconnect(connectionID string) {
	other, _ := h.takePeer(connectionID)
	connection, name, ok := h.registry.LeaveGroup(connectionID)
	if !ok {
		return
	}
	h.Logf("Connection %s of %s left %s", connectionID, connection.Username, name)

	h.groupUpdated(name)
	if other != "" && !h.registry.IsOnline(connection.Username) {
		h.broadcast(h.registry.ConnectionsForUser(other), Event{Type: EventUserOffline, Username: connection.Username})
	}
}

// Send stores the message and delivers it to every connection of the recipient,
// and to the sender's connections except fromConnectionID (empty when the message did not come from a live session).
func (h *Hub) Send(ctx context.Context, fromConnectionID, sender, recipient, content string) (*entity.Message, error) {
	message, err := h.messages.Send(ctx, sender, recipient, content)
	if err != nil {
		return nil, err
	}

	targets := h.registry.ConnectionsForUser(message.RecipientUsername)
	for _, id := range h.registry.ConnectionsForUser(message.SenderUsername) {
		if id != fromConnectionID {
			targets = append(targets, id)
		}
	}
	h.broadcast(targets, Event{Type: EventNewMessage, Message: message})
	return message, nil
}

// OnlineUsers lists the users holding at least one live connection
func (h *Hub) OnlineUsers() []string {
	return h.registry.OnlineUsers()
}

func (h *Hub) groupUpdated(name string) {
	group, ok := h.registry.Group(name)
	if !ok {
		return
	}
	ids := make([]string, 0, len(group.Connections))
	for _, c := range group.Connections {
		ids = append(ids, c.ConnectionID)
	}
	h.broadcast(ids, Event{Type: EventGroupUpdated, Group: &group})
}

func (h *Hub) broadcast(connectionIDs []string, event Event) {
	if len(connectionIDs) == 0 {
		return
	}
	slices.Sort(connectionIDs)
	h.push(slices.Compact(connectionIDs), event)
}

func (h *Hub) push(connectionIDs []string, event Event) {
	payload, err := event.Encode()
	if err != nil {
		h.Logf("Could not encode %s event {%v}", event.Type, err)
		return
	}
	for _, id := range connectionIDs {
		for _, p := range h.pushers {
			if err := p.Push(id, payload); err != nil {
				h.Logf("Push of %s to %s failed {%v}", event.Type, id, err)
			}
		}
	}
}
