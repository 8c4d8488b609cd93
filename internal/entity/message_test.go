/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseContainer(t *testing.T) {
	for name, want := range map[string]Container{
		"":        ContainerUnread,
		"unread":  ContainerUnread,
		"INBOX":   ContainerInbox,
		" Outbox": ContainerOutbox,
	} {
		got, ok := ParseContainer(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}

	_, ok := ParseContainer("trash")
	assert.False(t, ok)
}

func TestDeletionColumn(t *testing.T) {
	m := &Message{SenderUUID: "a", RecipientUUID: "b"}

	assert.Equal(t, "sender_deleted", m.DeletionColumn("a"))
	assert.Equal(t, "recipient_deleted", m.DeletionColumn("b"))
	assert.Empty(t, m.DeletionColumn("c"))

	m.SenderDeleted = true
	assert.False(t, m.VisibleTo("a"))
	assert.True(t, m.VisibleTo("b"))
}

func TestVisibleToStranger(t *testing.T) {
	m := &Message{SenderUUID: "a", RecipientUUID: "b"}
	assert.False(t, m.VisibleTo("c"))
	assert.True(t, m.IsParticipant("b"))
	assert.False(t, m.IsParticipant("c"))
}
