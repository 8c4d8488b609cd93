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

	"dmcore/internal/apperr"
	"dmcore/internal/entity"
	"dmcore/internal/nlog"
	"dmcore/internal/pagination"
	"dmcore/internal/repository"
	"dmcore/internal/service"

	"github.com/gorilla/mux"
)

// Sender stores a message and delivers it live
type Sender interface {
	Send(ctx context.Context, fromConnectionID, sender, recipient, content string) (*entity.Message, error)
}

type createMessageRequest struct {
	RecipientUsername string `json:"recipient-username"`
	Content           string `json:"content"`
}

var outcomes = map[repository.DeleteOutcome]string{
	repository.DeleteAbsent:    "absent",
	repository.DeleteHidden:    "hidden",
	repository.DeleteDestroyed: "destroyed",
}

// MessageHandler is used to handle all message-related routes
type MessageHandler struct {
	messageService service.MessageService
	sender         Sender
	logger         nlog.Logger
}

func NewMessageHandler(messageService service.MessageService, sender Sender, logger nlog.Logger) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		sender:         sender,
		logger:         logger,
	}
}

// Register mounts the routes on r
func (m *MessageHandler) Register(r *mux.Router) {
	r.HandleFunc("/messages", m.CreateMessage).Methods(http.MethodPost)
	r.HandleFunc("/messages", m.GetMessagesForUser).Methods(http.MethodGet)
	r.HandleFunc("/messages/thread/{username}", m.GetMessageThread).Methods(http.MethodGet)
	r.HandleFunc("/messages/{uuid}", m.DeleteMessage).Methods(http.MethodDelete)
}

// Used to send a message to another user. It's delivered live too, like the ones sent over a socket.
func (m *MessageHandler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	username, ok := currentUser(r)
	if !ok {
		writeError(w, apperr.ErrUnauthenticated)
		return
	}

	var body createMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperr.InvalidArgument("body must be {\"recipient-username\", \"content\"}"))
		return
	}

	message, err := m.sender.Send(r.Context(), "", username, body.RecipientUsername, body.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, message)
}

// Lists a page of the user's Inbox, Outbox or Unread (default) messages.
// Pagination metadata travels in the Pagination header.
func (m *MessageHandler) GetMessagesForUser(w http.ResponseWriter, r *http.Request) {
	username, ok := currentUser(r)
	if !ok {
		writeError(w, apperr.ErrUnauthenticated)
		return
	}

	container, ok := entity.ParseContainer(r.URL.Query().Get("container"))
	if !ok {
		writeError(w, apperr.ErrInvalidContainer)
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

	page, err := m.messageService.ListForUser(r.Context(), username, container, pagination.Params{PageNumber: pageNumber, PageSize: pageSize})
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set(pagination.HeaderName, page.Metadata.Header())
	writeJSON(w, http.StatusOK, page.Items)
}

// Retrieves the conversation with {username}, marking as read what was received
func (m *MessageHandler) GetMessageThread(w http.ResponseWriter, r *http.Request) {
	username, ok := currentUser(r)
	if !ok {
		writeError(w, apperr.ErrUnauthenticated)
		return
	}
	other := mux.Vars(r)["username"]

	thread, err := m.messageService.GetThread(r.Context(), username, other)
	if err != nil {
		m.logger.Logf("Thread %s <-> %s failed {%v}", username, other, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, thread)
}

// Deletes the message for the current user
func (m *MessageHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	username, ok := currentUser(r)
	if !ok {
		writeError(w, apperr.ErrUnauthenticated)
		return
	}
	id := mux.Vars(r)["uuid"]

	outcome, err := m.messageService.Delete(r.Context(), id, username)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"uuid": id, "outcome": outcomes[outcome]})
}
