/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package apperr

var (
	ErrUserNotFound     = NotFound("user not found")
	ErrSelfMessage      = InvalidArgument("you cannot send messages to yourself")
	ErrEmptyContent     = InvalidArgument("message content cannot be empty")
	ErrInvalidPage      = InvalidArgument("page number must be a positive integer")
	ErrInvalidPageSize  = InvalidArgument("page size must be a positive integer")
	ErrInvalidContainer = InvalidArgument("container must be one of Inbox, Outbox, Unread")
	ErrNotParticipant   = Unauthorized("only the sender or the recipient can delete a message")
	ErrUnauthenticated  = Unauthorized("missing or invalid credentials")
)
