/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package entity

import "strings"

// Container is a named view over a user's messages
type Container string

const (
	ContainerInbox  Container = "Inbox"  // Received and not deleted
	ContainerOutbox Container = "Outbox" // Sent and not deleted
	ContainerUnread Container = "Unread" // Received, not deleted, never read
)

// ParseContainer matches name case-insensitively. An empty name is Unread.
func ParseContainer(name string) (Container, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "unread":
		return ContainerUnread, true
	case "inbox":
		return ContainerInbox, true
	case "outbox":
		return ContainerOutbox, true
	}
	return "", false
}
