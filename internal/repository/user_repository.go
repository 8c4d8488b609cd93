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
	"strings"

	"dmcore/internal/apperr"
	"dmcore/internal/entity"
	"dmcore/internal/pagination"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// This repository is the identity directory: it maps usernames, issued by an external provider, to stable UUIDs.
// Usernames are stored lowercase, every lookup is case-insensitive.
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) (uint64, error)              // Inserts a user in the repository
	Ensure(ctx context.Context, username, knownAs string) (*entity.User, error) // Retrieves the user, creating it if missing

	GetByUUID(ctx context.Context, uuid string) (*entity.User, error)         // Retrieves the user with the given uuid.
	GetByUsername(ctx context.Context, username string) (*entity.User, error) // Retrieves the user with the given username, ignoring case.

	// Retrieves one page of the directory, ordered by username
	List(ctx context.Context, params pagination.Params) (*pagination.Page[*entity.User], error)
}

// Implementation of the repository over a gorm DB (SQLite or PostgreSQL)
type SQLUserRepository struct {
	db      *gorm.DB
	newUUID func() string
}

func NewSQLUserRepository(db *gorm.DB, newUUID func() string) UserRepository {
	return &SQLUserRepository{db, newUUID}
}

func normalize(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func (repo *SQLUserRepository) Create(ctx context.Context, user *entity.User) (uint64, error) {
	if user.UUID == "" {
		user.UUID = repo.newUUID()
	}
	if user.KnownAs == "" {
		user.KnownAs = strings.TrimSpace(user.Username)
	}
	user.Username = normalize(user.Username)

	var epoch uint64 = 0
	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := advanceEpoch(tx)
		if err != nil {
			return err
		}
		epoch = current
		return errors.Wrapf(tx.Create(user).Error, "create user %s", user.Username)
	})
	return epoch, err
}

func (repo *SQLUserRepository) Ensure(ctx context.Context, username, knownAs string) (*entity.User, error) {
	user, err := repo.GetByUsername(ctx, username)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user = &entity.User{Username: username, KnownAs: knownAs}
	if _, err := repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (repo *SQLUserRepository) GetByUUID(ctx context.Context, uuid string) (*entity.User, error) {
	var user entity.User
	if err := repo.db.WithContext(ctx).Where("uuid = ?", uuid).First(&user).Error; err != nil {
		return nil, errors.Wrapf(err, "get user %s", uuid)
	}
	return &user, nil
}

func (repo *SQLUserRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	var user entity.User
	if err := repo.db.WithContext(ctx).Where("LOWER(username) = ?", normalize(username)).First(&user).Error; err != nil {
		return nil, errors.Wrapf(err, "get user %s", username)
	}
	return &user, nil
}

func (repo *SQLUserRepository) List(ctx context.Context, params pagination.Params) (*pagination.Page[*entity.User], error) {
	page, err := pagination.Paginate[*entity.User](repo.db.WithContext(ctx).Model(&entity.User{}), "username ASC", params)
	if err != nil && apperr.CodeOf(err) == apperr.CodeUnknown {
		return nil, errors.Wrap(err, "list users")
	}
	return page, err
}
