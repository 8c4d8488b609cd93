/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package repository

import (
	"context"
	"time"

	"dmcore/internal/apperr"
	"dmcore/internal/entity"
	"dmcore/internal/pagination"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	newestFirst = "sent_at DESC, epoch DESC"
	oldestFirst = "sent_at ASC, epoch ASC"
)

// Result of a per-user deletion
type DeleteOutcome int

const (
	DeleteAbsent    DeleteOutcome = iota // The message did not exist (anymore)
	DeleteHidden                         // Hidden for the requester, still visible to the other party
	DeleteDestroyed                      // Both parties deleted it, the row is gone
)

// This repository is used to manipulate the messages in the system.
// Every write happens in a single transaction, that also advances the system epoch.
type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) (uint64, error) // Inserts a message, stamping its epoch
	GetByUUID(ctx context.Context, uuid string) (*entity.Message, error) // Retrieves the message with the given uuid

	// Retrieves one page of the container's messages for the given user, newest first
	ListForUser(ctx context.Context, userUUID string, container entity.Container, params pagination.Params) (*pagination.Page[*entity.Message], error)

	// Retrieves the conversation between caller and other, oldest first, as seen by caller.
	// Every message received by caller and still unread gets readAt, in the same transaction.
	// When only the commit fails, the messages are returned anyway along with the error.
	GetThread(ctx context.Context, callerUUID, otherUUID string, readAt time.Time) ([]*entity.Message, error)

	// Hides the message for requester, destroying it once both parties did so
	Delete(ctx context.Context, uuid, requesterUUID string) (DeleteOutcome, error)
}

// Implementation of the repository over a gorm DB (SQLite or PostgreSQL)
type SQLMessageRepository struct {
	db *gorm.DB
}

func NewSQLMessageRepository(db *gorm.DB) MessageRepository {
	return &SQLMessageRepository{db}
}

func (repo *SQLMessageRepository) Create(ctx context.Context, message *entity.Message) (uint64, error) {

	var epoch uint64 = 0
	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := advanceEpoch(tx)
		if err != nil {
			return err
		}

		message.Epoch = current
		epoch = current

		return errors.Wrap(tx.Create(message).Error, "create message")
	})

	return epoch, err
}

func (repo *SQLMessageRepository) GetByUUID(ctx context.Context, uuid string) (*entity.Message, error) {
	var message entity.Message
	if err := repo.db.WithContext(ctx).Where("uuid = ?", uuid).First(&message).Error; err != nil {
		return nil, errors.Wrapf(err, "get message %s", uuid)
	}
	return &message, nil
}

func (repo *SQLMessageRepository) ListForUser(ctx context.Context, userUUID string, container entity.Container, params pagination.Params) (*pagination.Page[*entity.Message], error) {
	query := repo.db.WithContext(ctx).Model(&entity.Message{})

	switch container {
	case entity.ContainerInbox:
		query = query.Where("recipient_uuid = ? AND recipient_deleted = ?", userUUID, false)
	case entity.ContainerOutbox:
		query = query.Where("sender_uuid = ? AND sender_deleted = ?", userUUID, false)
	case entity.ContainerUnread:
		query = query.Where("recipient_uuid = ? AND recipient_deleted = ? AND read_at IS NULL", userUUID, false)
	default:
		return nil, apperr.ErrInvalidContainer
	}

	page, err := pagination.Paginate[*entity.Message](query, newestFirst, params)
	if err != nil && apperr.CodeOf(err) == apperr.CodeUnknown {
		return nil, errors.Wrapf(err, "list %s of %s", container, userUUID)
	}
	return page, err
}

func (repo *SQLMessageRepository) GetThread(ctx context.Context, callerUUID, otherUUID string, readAt time.Time) ([]*entity.Message, error) {
	var messages []*entity.Message
	loaded := false

	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.
			Where("sender_uuid = ? AND recipient_uuid = ? AND sender_deleted = ?", callerUUID, otherUUID, false).
			Or("sender_uuid = ? AND recipient_uuid = ? AND recipient_deleted = ?", otherUUID, callerUUID, false).
			Order(oldestFirst).
			Find(&messages).Error
		if err != nil {
			return errors.Wrap(err, "load thread")
		}
		loaded = true

		// The returned view carries the stamps even if storing them fails below
		var unread []string
		for _, m := range messages {
			if m.RecipientUUID == callerUUID && m.ReadAt == nil {
				unread = append(unread, m.UUID)
				stamp := readAt
				m.ReadAt = &stamp
			}
		}
		if len(unread) == 0 {
			return nil
		}

		if _, err := advanceEpoch(tx); err != nil {
			return err
		}
		// read_at IS NULL keeps the first stamp if a concurrent call got there before us
		err = tx.Model(&entity.Message{}).
			Where("uuid IN ? AND read_at IS NULL", unread).
			Update("read_at", readAt).Error
		return errors.Wrap(err, "stamp read receipts")
	})

	if err != nil && !loaded {
		return nil, err
	}
	return messages, err
}

func (repo *SQLMessageRepository) Delete(ctx context.Context, uuid, requesterUUID string) (DeleteOutcome, error) {
	outcome := DeleteAbsent

	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var message entity.Message
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("uuid = ?", uuid).First(&message).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "lock message %s", uuid)
		}

		if !message.IsParticipant(requesterUUID) {
			return apperr.ErrNotParticipant
		}

		if !message.VisibleTo(requesterUUID) {
			// Already hidden for the requester, nothing changes
			outcome = DeleteHidden
			return nil
		}
		column := message.DeletionColumn(requesterUUID)

		if _, err := advanceEpoch(tx); err != nil {
			return err
		}

		// Only the requester's flag is written, the other side's flag is whatever is stored now
		err = tx.Model(&entity.Message{}).Where("uuid = ?", uuid).Update(column, true).Error
		if err != nil {
			return errors.Wrapf(err, "hide message %s", uuid)
		}
		res := tx.Where("uuid = ? AND sender_deleted = ? AND recipient_deleted = ?", uuid, true, true).Delete(&entity.Message{})
		if res.Error != nil {
			return errors.Wrapf(res.Error, "destroy message %s", uuid)
		}
		outcome = DeleteHidden
		if res.RowsAffected > 0 {
			outcome = DeleteDestroyed
		}
		return nil
	})

	if err != nil {
		return DeleteAbsent, err
	}
	return outcome, nil
}
