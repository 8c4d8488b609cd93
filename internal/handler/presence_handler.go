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

	"github.com/gorilla/mux"
)

// OnlineLister knows who holds a live connection
type OnlineLister interface {
	OnlineUsers() []string
}

type PresenceHandler struct {
	presence OnlineLister
}

func NewPresenceHandler(presence OnlineLister) *PresenceHandler {
	return &PresenceHandler{presence}
}

func (p *PresenceHandler) Register(r *mux.Router) {
	r.HandleFunc("/presence/online", p.GetOnlineUsers).Methods(http.MethodGet)
}

// Lists the usernames with at least one live connection
func (p *PresenceHandler) GetOnlineUsers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, p.presence.OnlineUsers())
}
