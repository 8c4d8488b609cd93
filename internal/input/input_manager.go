/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package input

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"dmcore/internal/middleware"
	"dmcore/internal/nlog"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
)

type IptConfig struct {
	ServerPort   uint16
	ReadTimeout  int64
	WriteTimeout int64
	SecretKey    string
}

// Routes is anything that can mount its endpoints on a router
type Routes interface {
	Register(r *mux.Router)
}

type InputManager struct { // Manages the HTTP surface of the service
	running atomic.Bool
	paused  atomic.Bool

	logger nlog.Logger
	server *http.Server

	stopFromOutsideChan chan struct{}
	doneFromInsideChan  chan struct{}

	verifier middleware.TokenVerifier
	routes   []Routes
}

func NewInputManager() *InputManager {
	return &InputManager{
		running:             atomic.Bool{},
		paused:              atomic.Bool{},
		stopFromOutsideChan: make(chan struct{}),
		doneFromInsideChan:  make(chan struct{}),
	}
}

func (i *InputManager) IsReady() bool {
	return i.logger != nil && i.verifier != nil && len(i.routes) > 0
}

func (i *InputManager) IsRunning() bool {
	return i.running.Load()
}

func (i *InputManager) SetLogger(l nlog.Logger) {
	i.logger = l
}

func (i *InputManager) SetVerifier(v middleware.TokenVerifier) {
	i.verifier = v
}

// AddRoutes appends handlers mounted behind authentication
func (i *InputManager) AddRoutes(routes ...Routes) {
	i.routes = append(i.routes, routes...)
}

func (i *InputManager) Logf(format string, a ...any) {
	if i.logger != nil {
		i.logger.Logf(format, a...)
	}
}

func (i *InputManager) SetPause(paused bool) {
	i.paused.Store(paused)
}

func (i *InputManager) IsPaused() bool {
	return i.paused.Load()
}

// PauseMiddleware answers 503 while the manager is paused
func (i *InputManager) PauseMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if i.IsPaused() {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "5")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"error": "service temporarily unavailable"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func newCookieStore(secretKey string) *sessions.CookieStore {
	cookieStore := sessions.NewCookieStore([]byte(secretKey))
	cookieStore.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   false,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(7 * 24 * time.Hour.Seconds()),
	}
	return cookieStore
}

// Router builds the mux with every registered route, behind the pause and auth middlewares
func (i *InputManager) Router(cfg *IptConfig) *mux.Router {
	cookieStore := newCookieStore(cfg.SecretKey)

	r := mux.NewRouter()
	r.Use(i.PauseMiddleware)
	r.Use(func(next http.Handler) http.Handler {
		return middleware.AuthMiddleware(i.verifier, cookieStore, next)
	})

	for _, routes := range i.routes {
		routes.Register(r)
	}
	return r
}

func (i *InputManager) Run(ctx context.Context, cfg *IptConfig) error {
	i.Logf("Input service started...")

	if !i.IsReady() {
		return fmt.Errorf("The Input manager is not ready... Missing components")
	}

	i.server = &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:        i.Router(cfg),
		ReadTimeout:    time.Duration(cfg.ReadTimeout * int64(time.Second)),
		WriteTimeout:   time.Duration(cfg.WriteTimeout * int64(time.Second)),
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		select {
		case <-ctx.Done():
			i.Logf("Received stop signal. Shutting down...")
		case <-i.stopFromOutsideChan:
			i.Logf("Server was asked to stop. Shutting down...")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := i.server.Shutdown(shutdownCtx); err != nil {
			i.Logf("Error during shutdown... %v", err)
		}
		i.running.Store(false)
		close(i.doneFromInsideChan)
	}()

	i.Logf("Http server starting on port {%d}", cfg.ServerPort)
	i.running.Store(true)

	if err := i.server.ListenAndServe(); err != http.ErrServerClosed {
		i.running.Store(false)
		i.Logf("FATAL: HTTP Server error{%v}", err)
		return err
	}
	return nil
}

// Stop asks a running server to shut down and waits for it
func (i *InputManager) Stop() {
	select {
	case <-i.stopFromOutsideChan:
	default:
		close(i.stopFromOutsideChan)
	}
	<-i.doneFromInsideChan
}
