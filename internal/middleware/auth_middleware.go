/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"dmcore/internal/apperr"

	"github.com/gorilla/sessions"
)

const SessionName = "auth-session"

type contextKey string

const usernameKey contextKey = "username"

// TokenVerifier turns a bearer token into the username it was issued to
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// WithUsername stores the authenticated username in ctx
func WithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, usernameKey, username)
}

// UsernameFrom retrieves the username stored by AuthMiddleware
func UsernameFrom(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(usernameKey).(string)
	return username, ok && username != ""
}

// AuthMiddleware accepts either an Authorization: Bearer token or the session cookie set by the identity provider.
// Requests carrying neither are answered 401.
func AuthMiddleware(verifier TokenVerifier, store sessions.Store, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if header := r.Header.Get("Authorization"); header != "" {
			username, err := verifier.Verify(header)
			if err != nil {
				unauthorized(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUsername(r.Context(), username)))
			return
		}

		session, err := store.Get(r, SessionName)
		if err != nil {
			unauthorized(w, apperr.ErrUnauthenticated)
			return
		}
		username, ok := session.Values["username"].(string)
		if !ok || username == "" {
			unauthorized(w, apperr.ErrUnauthenticated)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUsername(r.Context(), username)))
	})
}

func unauthorized(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
