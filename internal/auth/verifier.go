/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

// Package auth verifies the bearer tokens of identities issued by the external provider.
// Tokens are HS256 JWTs whose subject is the username.
package auth

import (
	"strings"
	"time"

	"dmcore/internal/apperr"

	"github.com/golang-jwt/jwt/v5"
)

type Verifier struct {
	key []byte
	now func() time.Time
}

func NewVerifier(key string) *Verifier {
	return &Verifier{key: []byte(key), now: time.Now}
}

// Issue signs a token for username, valid for ttl. Used by tooling and tests.
func (v *Verifier) Issue(username string, ttl time.Duration) (string, error) {
	now := v.now()
	claims := jwt.RegisteredClaims{
		Subject:   strings.ToLower(username),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.key)
}

// Verify checks the token's signature and expiry, returning the username it was issued to
func (v *Verifier) Verify(token string) (string, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return "", apperr.ErrUnauthenticated
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(v.now), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return "", apperr.Wrap(apperr.CodeUnauthorized, "invalid token", err)
	}
	if claims.Subject == "" {
		return "", apperr.Unauthorized("token has no subject")
	}
	return claims.Subject, nil
}
