/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package hub

import (
	"encoding/json"

	"dmcore/internal/entity"
)

type EventType string

const (
	EventMessageThread EventType = "message-thread" // The whole conversation, sent to a connection when it joins
	EventNewMessage    EventType = "new-message"    // A message was stored
	EventUserOnline    EventType = "user-online"    // First connection of a user appeared
	EventUserOffline   EventType = "user-offline"   // Last connection of a user went away
	EventGroupUpdated  EventType = "group-updated"  // Membership of the conversation changed
	EventError         EventType = "error"
)

// Event is the JSON frame pushed to live connections
type Event struct {
	Type     EventType             `json:"type"`
	Message  *entity.Message       `json:"message,omitempty"`
	Messages []*entity.Message     `json:"messages,omitempty"`
	Username string                `json:"username,omitempty"`
	Group    *entity.GroupSnapshot `json:"group,omitempty"`
	Error    string                `json:"error,omitempty"`
}

func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

func DecodeEvent(payload []byte) (Event, error) {
	var e Event
	err := json.Unmarshal(payload, &e)
	return e, err
}
