/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package handler

import (
	"net/http"

	"dmcore/internal/apperr"
	"dmcore/internal/pagination"
	"dmcore/internal/service"

	"github.com/gorilla/mux"
)

// UserHandler is used for the directory routes. Registration and login belong to the identity provider.
type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService}
}

func (u *UserHandler) Register(r *mux.Router) {
	r.HandleFunc("/users", u.GetUsers).Methods(http.MethodGet)
	r.HandleFunc("/users/{username}", u.GetUser).Methods(http.MethodGet)
}

// Searches for a particular user, case-insensitively
func (u *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(r); !ok {
		writeError(w, apperr.ErrUnauthenticated)
		return
	}

	user, err := u.userService.ResolveUser(r.Context(), mux.Vars(r)["username"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Lists a page of the directory, metadata in the Pagination header
func (u *UserHandler) GetUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(r); !ok {
		writeError(w, apperr.ErrUnauthenticated)
		return
	}

	pageNumber, err := queryInt(r, "pageNumber", pagination.DefaultPageNumber)
	if err != nil {
		writeError(w, apperr.ErrInvalidPage)
		return
	}
	pageSize, err := queryInt(r, "pageSize", pagination.DefaultPageSize)
	if err != nil {
		writeError(w, apperr.ErrInvalidPageSize)
		return
	}

	page, err := u.userService.ListUsers(r.Context(), pagination.Params{PageNumber: pageNumber, PageSize: pageSize})
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set(pagination.HeaderName, page.Metadata.Header())
	writeJSON(w, http.StatusOK, page.Items)
}
