/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package entity

import "time"

// Represents a message sent from one user to another.
// Usernames are a snapshot taken when the message is sent: renaming a user does not rewrite history.
type Message struct {
	UUID              string     `gorm:"primaryKey" json:"uuid"`                          // Unique identifier
	SenderUUID        string     `gorm:"not null;index" json:"sender-uuid"`               // UUID of the user that sent the message
	SenderUsername    string     `gorm:"not null" json:"sender-username"`                 // Sender's username at send time
	RecipientUUID     string     `gorm:"not null;index" json:"recipient-uuid"`            // UUID of the user that received it
	RecipientUsername string     `gorm:"not null" json:"recipient-username"`              // Recipient's username at send time
	Content           string     `gorm:"not null" json:"content"`                         // Actual content of the message
	SentAt            time.Time  `gorm:"not null;index" json:"sent-at"`                   // Time of creation, UTC
	ReadAt            *time.Time `gorm:"index" json:"read-at,omitempty"`                  // Set once, the first time the recipient opens the thread
	SenderDeleted     bool       `gorm:"not null;default:false" json:"sender-deleted"`    // Hidden for the sender
	RecipientDeleted  bool       `gorm:"not null;default:false" json:"recipient-deleted"` // Hidden for the recipient
	Epoch             uint64     `gorm:"not null;default:0;index" json:"epoch"`           // Write sequence at creation, breaks ties on SentAt
}

// IsParticipant tells if userUUID sent or received the message
func (m *Message) IsParticipant(userUUID string) bool {
	return m.SenderUUID == userUUID || m.RecipientUUID == userUUID
}

// DeletionColumn names the column holding userUUID's deletion flag, empty if userUUID is not a participant.
// A message to oneself cannot exist, so each participant owns exactly one flag.
func (m *Message) DeletionColumn(userUUID string) string {
	switch userUUID {
	case m.SenderUUID:
		return "sender_deleted"
	case m.RecipientUUID:
		return "recipient_deleted"
	}
	return ""
}

// VisibleTo tells if userUUID can still see the message
func (m *Message) VisibleTo(userUUID string) bool {
	switch userUUID {
	case m.SenderUUID:
		return !m.SenderDeleted
	case m.RecipientUUID:
		return !m.RecipientDeleted
	}
	return false
}
