/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package entity

import "time"

// A user of the directory. Identities are issued elsewhere, this table only maps usernames to stable UUIDs.
type User struct {
	UUID      string    `gorm:"primaryKey" json:"uuid"`               // Unique identifier
	Username  string    `gorm:"not null;uniqueIndex" json:"username"` // Stored lowercase, lookups are case-insensitive
	KnownAs   string    `gorm:"not null;default:''" json:"known-as"`  // Display name, as typed by the identity provider
	CreatedAt time.Time `gorm:"not null;index" json:"created-at"`     // Time of creation
}
