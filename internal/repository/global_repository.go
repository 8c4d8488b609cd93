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

	"dmcore/internal/entity"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// This repository holds the system Epoch, that is, a counter that is used to trace where we are in time.
// Each write means incrementing the epoch, so it traces how many changes the system has endured.
// Messages store the epoch of their creation, which orders two messages sent in the same instant.
type GlobalRepository interface {
	Create(ctx context.Context, state *entity.SystemState) error     // Creates a system state
	GetSystemState(ctx context.Context) (*entity.SystemState, error) // Retrieves the system state
	GetCurrentEpoch(ctx context.Context) (uint64, error)             // Retrieves the epoch from the system state
}

// Implementation of the repository over a gorm DB (SQLite or PostgreSQL)
type SQLGlobalRepository struct {
	db *gorm.DB
}

func NewSQLGlobalRepository(db *gorm.DB) GlobalRepository {
	return &SQLGlobalRepository{db}
}

func (g *SQLGlobalRepository) Create(ctx context.Context, e *entity.SystemState) error {
	return errors.Wrap(g.db.WithContext(ctx).Create(e).Error, "create system state")
}

func (g *SQLGlobalRepository) GetSystemState(ctx context.Context) (*entity.SystemState, error) {
	var state entity.SystemState
	if err := g.db.WithContext(ctx).First(&state, 1).Error; err != nil {
		return nil, errors.Wrap(err, "get system state")
	}
	return &state, nil
}

func (g *SQLGlobalRepository) GetCurrentEpoch(ctx context.Context) (uint64, error) {
	state, err := g.GetSystemState(ctx)
	if err != nil {
		return 0, err
	}
	return state.CurrentEpoch, nil
}

// advanceEpoch locks the system state and increments it. Must run inside tx.
func advanceEpoch(tx *gorm.DB) (uint64, error) {
	var state entity.SystemState
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&state, 1).Error; err != nil {
		return 0, errors.Wrap(err, "lock system state")
	}
	state.CurrentEpoch++
	if err := tx.Save(&state).Error; err != nil {
		return 0, errors.Wrap(err, "advance epoch")
	}
	return state.CurrentEpoch, nil
}
