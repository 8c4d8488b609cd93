/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"dmcore/internal/apperr"
	"dmcore/internal/entity"
	"dmcore/internal/pagination"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type directory []*entity.User

func (d directory) ResolveUser(_ context.Context, name string) (*entity.User, error) {
	for _, user := range d {
		if user.Username == name {
			return user, nil
		}
	}
	return nil, apperr.ErrUserNotFound
}

func (d directory) ListUsers(_ context.Context, params pagination.Params) (*pagination.Page[*entity.User], error) {
	return pagination.Slice([]*entity.User(d), params)
}

func newUserRouter(username string) http.Handler {
	r := mux.NewRouter()
	NewUserHandler(directory{
		{UUID: "u-alice", Username: "alice"},
		{UUID: "u-bob", Username: "bob"},
		{UUID: "u-carol", Username: "carol"},
	}).Register(r)
	return as(username, r)
}

func TestGetUser(t *testing.T) {
	h := newUserRouter("alice")

	rec := do(h, http.MethodGet, "/users/bob", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var user entity.User
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&user))
	assert.Equal(t, "u-bob", user.UUID)

	rec = do(h, http.MethodGet, "/users/mallory", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetUsersPaged(t *testing.T) {
	h := newUserRouter("alice")

	rec := do(h, http.MethodGet, "/users?pageNumber=1&pageSize=2", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var users []entity.User
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&users))
	assert.Len(t, users, 2)

	meta, err := pagination.ParseHeader(rec.Header().Get(pagination.HeaderName))
	require.NoError(t, err)
	assert.Equal(t, int64(3), meta.TotalItems)
	assert.Equal(t, 2, meta.TotalPages)

	rec = do(h, http.MethodGet, "/users?pageNumber=4611686018427387903&pageSize=4", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&users))
	assert.Empty(t, users)

	rec = do(h, http.MethodGet, "/users?pageSize=ten", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUsersRequireAuthentication(t *testing.T) {
	rec := do(newUserRouter(""), http.MethodGet, "/users", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
