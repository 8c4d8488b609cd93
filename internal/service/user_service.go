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

	"dmcore/internal/apperr"
	"dmcore/internal/entity"
	"dmcore/internal/nlog"
	"dmcore/internal/pagination"
	"dmcore/internal/repository"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Service used to resolve usernames into identities. Identities are issued by an external provider,
// the directory only knows their username.
type UserService interface {
	ResolveUser(ctx context.Context, name string) (*entity.User, error)                              // Retrieves the user with the given username, NotFound if unknown
	ListUsers(ctx context.Context, params pagination.Params) (*pagination.Page[*entity.User], error) // Retrieves a page of the directory, ordered by username
}

type localUserService struct {
	logger         nlog.Logger               // Logs a format string
	userRepository repository.UserRepository // Repository for users
}

func NewLocalUserService(userRepo repository.UserRepository, logger nlog.Logger) UserService {
	return &localUserService{
		logger:         logger,
		userRepository: userRepo,
	}
}

func (u *localUserService) ResolveUser(ctx context.Context, name string) (*entity.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.ErrUserNotFound
	}

	user, err := u.userRepository.GetByUsername(ctx, name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrUserNotFound
	}
	if err != nil {
		u.logger.Logf("Could not resolve user %s {%v}", name, err)
		return nil, apperr.Persistence("could not resolve the user", err)
	}
	return user, nil
}

func (u *localUserService) ListUsers(ctx context.Context, params pagination.Params) (*pagination.Page[*entity.User], error) {
	page, err := u.userRepository.List(ctx, params)
	if err != nil {
		if apperr.CodeOf(err) != apperr.CodeUnknown {
			return nil, err
		}
		u.logger.Logf("Could not list users {%v}", err)
		return nil, apperr.Persistence("could not list users", err)
	}
	return page, nil
}
