/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package data

import (
	"context"
	"sync/atomic"

	"dmcore/internal/entity"
	"dmcore/internal/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Storage manager gathers all the repositories needed for the messaging core in a single container.
type StorageManager struct {
	db *gorm.DB

	cacheEpoch atomic.Uint64 // Epoch of the system, stored in cache, to speed up reads without accessing the DB each time

	// Repositories
	systemRepo  repository.GlobalRepository
	userRepo    repository.UserRepository
	messageRepo repository.MessageRepository
}

// NewStorageManager builds the repositories over db, creating the system state on first start
func NewStorageManager(ctx context.Context, db *gorm.DB) (*StorageManager, error) {
	s := &StorageManager{
		db:         db,
		cacheEpoch: atomic.Uint64{},
	}

	s.systemRepo = repository.NewSQLGlobalRepository(db)
	s.userRepo = repository.NewSQLUserRepository(db, uuid.NewString)
	s.messageRepo = repository.NewSQLMessageRepository(db)

	state, err := s.systemRepo.GetSystemState(ctx)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		newState := entity.SystemState{ID: 1, CurrentEpoch: 0}
		if err := s.systemRepo.Create(ctx, &newState); err != nil {
			return nil, err
		}
		s.cacheEpoch.Store(0)
	case err != nil:
		return nil, err
	default:
		s.cacheEpoch.Store(state.CurrentEpoch)
	}

	return s, nil
}

// SeedUsers makes sure every username exists in the directory
func (s *StorageManager) SeedUsers(ctx context.Context, usernames []string) error {
	for _, username := range usernames {
		if _, err := s.userRepo.Ensure(ctx, username, username); err != nil {
			return err
		}
	}
	return s.RefreshEpochCache(ctx)
}

// RefreshEpochCache reloads the cached epoch from the system state
func (s *StorageManager) RefreshEpochCache(ctx context.Context) error {
	epoch, err := s.systemRepo.GetCurrentEpoch(ctx)
	if err != nil {
		return err
	}
	s.cacheEpoch.Store(epoch)
	return nil
}

func (s *StorageManager) GetCachedEpoch() uint64 {
	return s.cacheEpoch.Load()
}

func (s *StorageManager) GetGlobalRepository() repository.GlobalRepository {
	return s.systemRepo
}

func (s *StorageManager) GetUserRepository() repository.UserRepository {
	return s.userRepo
}

func (s *StorageManager) GetMessageRepository() repository.MessageRepository {
	return s.messageRepo
}

func (s *StorageManager) Close() error {
	return CloseDatabase(s.db)
}
