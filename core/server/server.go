// Package server exposes the chat pipeline over HTTP. Identity arrives in
// trusted headers set by the fronting auth proxy; the server resolves the
// caller's employee record itself and never trusts identifiers in the body.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/pulsehq/pulse/core/conversation"
	"github.com/pulsehq/pulse/core/llm"
	"github.com/pulsehq/pulse/core/orchestrator"
	"github.com/pulsehq/pulse/core/store"
)

// Identity headers set by the auth proxy.
const (
	headerUserID = "X-User-Id"
	headerRole   = "X-User-Role"
)

// Server is the HTTP front for the orchestrator.
type Server struct {
	orch     *orchestrator.Orchestrator
	sessions *conversation.Manager
	store    store.DataStore
	router   *llm.Router
	logger   *slog.Logger

	http *http.Server
}

// Config holds server construction options.
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Logger       *slog.Logger // Optional, uses slog.Default() if nil
}

// New builds the server and its route table.
func New(orch *orchestrator.Orchestrator, sessions *conversation.Manager, ds store.DataStore, router *llm.Router, cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}

	s := &Server{
		orch:     orch,
		sessions: sessions,
		store:    ds,
		router:   router,
		logger:   cfg.Logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", s.withIdentity(s.handleChat))
	mux.HandleFunc("POST /api/chat/confirm", s.withIdentity(s.handleConfirm))
	mux.HandleFunc("GET /healthz", s.handleHealth)

	s.http = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler exposes the route table, used directly by tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// ListenAndServe blocks serving requests until Shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.Info("listening", "addr", s.http.Addr)
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// withIdentity resolves the caller's conversation context from the identity
// headers. Requests without a resolvable identity are rejected.
func (s *Server) withIdentity(next func(http.ResponseWriter, *http.Request, *conversation.Context)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(headerUserID)
		if userID == "" {
			writeError(w, http.StatusUnauthorized, "missing identity")
			return
		}

		employee, err := s.store.Employees().GetByUserID(r.Context(), userID)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unknown identity")
			return
		}

		conv := &conversation.Context{
			UserID:      userID,
			Role:        conversation.ParseRole(r.Header.Get(headerRole)),
			Department:  employee.Department,
			TerritoryID: employee.TerritoryID,
			EmployeeID:  employee.ID,
		}
		next(w, r, conv)
	}
}

// resolveSession returns the named live session or starts a new one. A
// session belongs to the identity that created it.
func (s *Server) resolveSession(sessionID string, conv *conversation.Context) (*conversation.Session, error) {
	if sessionID == "" {
		return s.sessions.Start(conv), nil
	}

	sess, ok := s.sessions.Get(sessionID)
	if !ok {
		return s.sessions.Start(conv), nil
	}
	if sess.Ctx.UserID != conv.UserID {
		return nil, fmt.Errorf("session does not belong to caller")
	}
	return sess, nil
}
