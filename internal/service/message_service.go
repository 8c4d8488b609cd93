/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package service

import (
	"context"
	"strings"
	"time"

	"dmcore/internal/apperr"
	"dmcore/internal/entity"
	"dmcore/internal/nlog"
	"dmcore/internal/pagination"
	"dmcore/internal/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Service used to send, list, read and delete direct messages.
// Every operation is a single transaction on the repository: nothing is retried here.
type MessageService interface {
	Send(ctx context.Context, sender, recipient, content string) (*entity.Message, error) // Stores a message from sender to recipient. No live delivery happens here

	// Retrieves one page of the user's container, newest first
	ListForUser(ctx context.Context, user string, container entity.Container, params pagination.Params) (*pagination.Page[*entity.Message], error)

	// Retrieves the conversation between user and other, oldest first, marking as read what user received.
	// If only the read receipts fail to commit, the thread is returned together with a PersistenceFailure.
	GetThread(ctx context.Context, user, other string) ([]*entity.Message, error)

	Delete(ctx context.Context, uuid, requester string) (repository.DeleteOutcome, error) // Hides the message for requester, destroying it when both parties did
}

type localMessageService struct {
	logger            nlog.Logger                  // Logs a format string
	users             UserService                  // Resolves usernames
	messageRepository repository.MessageRepository // Repository for messages

	now     func() time.Time
	newUUID func() string
}

// Option customizes a message service
type Option func(*localMessageService)

// WithClock replaces the clock used for sent and read timestamps
func WithClock(now func() time.Time) Option {
	return func(m *localMessageService) { m.now = now }
}

// WithUUIDs replaces the generator of message identifiers
func WithUUIDs(newUUID func() string) Option {
	return func(m *localMessageService) { m.newUUID = newUUID }
}

func NewLocalMessageService(users UserService, messageRepo repository.MessageRepository, logger nlog.Logger, opts ...Option) MessageService {
	m := &localMessageService{
		logger:            logger,
		users:             users,
		messageRepository: messageRepo,
		now:               time.Now,
		newUUID:           uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *localMessageService) Logf(format string, v ...any) {
	m.logger.Logf(format, v...)
}

// persistence turns a storage error into a PersistenceFailure, leaving AppErrors untouched
func persistence(message string, err error) error {
	if apperr.CodeOf(err) != apperr.CodeUnknown {
		return err
	}
	return apperr.Persistence(message, err)
}

func (m *localMessageService) Send(ctx context.Context, sender, recipient, content string) (*entity.Message, error) {
	if strings.EqualFold(strings.TrimSpace(sender), strings.TrimSpace(recipient)) {
		return nil, apperr.ErrSelfMessage
	}
	if strings.TrimSpace(content) == "" {
		return nil, apperr.ErrEmptyContent
	}

	from, err := m.users.ResolveUser(ctx, sender)
	if err != nil {
		return nil, err
	}
	to, err := m.users.ResolveUser(ctx, recipient)
	if err != nil {
		return nil, err
	}
	if from.UUID == to.UUID {
		return nil, apperr.ErrSelfMessage
	}

	message := &entity.Message{
		UUID:              m.newUUID(),
		SenderUUID:        from.UUID,
		SenderUsername:    from.Username,
		RecipientUUID:     to.UUID,
		RecipientUsername: to.Username,
		Content:           content,
		SentAt:            m.now().UTC(),
	}
	epoch, err := m.messageRepository.Create(ctx, message)
	if err != nil {
		m.Logf("Message from %s to %s was not stored {%v}", from.Username, to.Username, err)
		return nil, persistence("could not save the message", err)
	}

	m.Logf("Message %s stored at epoch %d", message.UUID, epoch)
	return message, nil
}

func (m *localMessageService) ListForUser(ctx context.Context, user string, container entity.Container, params pagination.Params) (*pagination.Page[*entity.Message], error) {
	owner, err := m.users.ResolveUser(ctx, user)
	if err != nil {
		return nil, err
	}

	page, err := m.messageRepository.ListForUser(ctx, owner.UUID, container, params)
	if err != nil {
		return nil, persistence("could not list the messages", err)
	}
	return page, nil
}

func (m *localMessageService) GetThread(ctx context.Context, user, other string) ([]*entity.Message, error) {
	caller, err := m.users.ResolveUser(ctx, user)
	if err != nil {
		return nil, err
	}
	counterpart, err := m.users.ResolveUser(ctx, other)
	if err != nil {
		return nil, err
	}

	messages, err := m.messageRepository.GetThread(ctx, caller.UUID, counterpart.UUID, m.now().UTC())
	if err != nil {
		m.Logf("Thread %s <-> %s failed {%v}", caller.Username, counterpart.Username, err)
		return messages, persistence("could not mark the thread as read", err)
	}
	return messages, nil
}

func (m *localMessageService) Delete(ctx context.Context, uuid, requester string) (repository.DeleteOutcome, error) {
	user, err := m.users.ResolveUser(ctx, requester)
	if err != nil {
		return repository.DeleteAbsent, err
	}

	outcome, err := m.messageRepository.Delete(ctx, uuid, user.UUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return repository.DeleteAbsent, nil
		}
		return repository.DeleteAbsent, persistence("could not delete the message", err)
	}

	switch outcome {
	case repository.DeleteDestroyed:
		m.Logf("Message %s destroyed, both parties deleted it", uuid)
	case repository.DeleteHidden:
		m.Logf("Message %s hidden for %s", uuid, user.Username)
	}
	return outcome, nil
}
