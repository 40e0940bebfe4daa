// Package webchat exposes support chat sessions over HTTP and WebSocket.
package webchat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/connectcom-support/internal/auth"
	"github.com/wolfman30/connectcom-support/internal/chat"
	"github.com/wolfman30/connectcom-support/internal/session"
	"github.com/wolfman30/connectcom-support/pkg/logging"
)

// LoginPath is where clients send users whose credential is missing.
const LoginPath = "/login"

// defaultRevocationTTL covers tokens whose expiry we cannot read.
const defaultRevocationTTL = 24 * time.Hour

// Handler serves the chat surface for a session registry.
type Handler struct {
	sessions *session.Registry
	revoked  auth.RevocationStore
	verifier *auth.Verifier
	logger   *logging.Logger
}

// NewHandler creates a web chat handler. revoked and verifier may be nil.
func NewHandler(sessions *session.Registry, revoked auth.RevocationStore, verifier *auth.Verifier, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		sessions: sessions,
		revoked:  revoked,
		verifier: verifier,
		logger:   logger,
	}
}

// Routes mounts the session endpoints under /support.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/support", func(r chi.Router) {
		r.Get("/ws", h.HandleWebSocket)
		r.Post("/sessions", h.HandleCreate)
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", h.HandleSnapshot)
			r.Delete("/", h.HandleEnd)
			r.Post("/messages", h.HandleMessage)
			r.Post("/options/{key}", h.HandleOption)
			r.Post("/reset", h.HandleReset)
			r.Delete("/error", h.HandleDismissError)
		})
	})
	r.Post("/auth/logout", h.HandleLogout)
}

type sessionResponse struct {
	SessionID string `json:"session_id"`
	chat.Snapshot
}

type errorResponse struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps controller and registry errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, chat.ErrAuthenticationRequired):
		return http.StatusUnauthorized
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, chat.ErrEmptyMessage):
		return http.StatusBadRequest
	case errors.Is(err, chat.ErrBusy), errors.Is(err, chat.ErrConversationEnded), errors.Is(err, chat.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, chat.ErrUnknownOption):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: err.Error()}
	if errors.Is(err, chat.ErrAuthenticationRequired) {
		resp.Redirect = LoginPath
	}
	writeJSON(w, statusFor(err), resp)
}

func (h *Handler) controller(w http.ResponseWriter, r *http.Request) (string, *chat.Controller, bool) {
	id := chi.URLParam(r, "sessionID")
	c, err := h.sessions.Get(id)
	if err != nil {
		writeError(w, err)
		return "", nil, false
	}
	return id, c, true
}

// HandleCreate starts a session at its welcome turn.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	id, c := h.sessions.Create()
	writeJSON(w, http.StatusCreated, sessionResponse{SessionID: id, Snapshot: c.Snapshot()})
}

func (h *Handler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	id, c, ok := h.controller(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{SessionID: id, Snapshot: c.Snapshot()})
}

// exchangeContext keeps the request's values (the bearer token) but not its
// cancellation: an exchange runs to completion or exhaustion even when the
// client goes away, and its result stays in the session.
func exchangeContext(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

// HandleMessage submits one user turn and responds once the reply (or the
// failure turn) is in the transcript.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	id, c, ok := h.controller(w, r)
	if !ok {
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := c.Submit(exchangeContext(r.Context()), req.Text); err != nil {
		h.logger.Debug("webchat: message rejected", "session_id", id, "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{SessionID: id, Snapshot: c.Snapshot()})
}

// HandleOption selects an option from the menu currently shown.
func (h *Handler) HandleOption(w http.ResponseWriter, r *http.Request) {
	id, c, ok := h.controller(w, r)
	if !ok {
		return
	}
	if err := c.SelectKey(exchangeContext(r.Context()), chi.URLParam(r, "key")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{SessionID: id, Snapshot: c.Snapshot()})
}

func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	c, err := h.sessions.Reset(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{SessionID: id, Snapshot: c.Snapshot()})
}

func (h *Handler) HandleDismissError(w http.ResponseWriter, r *http.Request) {
	id, c, ok := h.controller(w, r)
	if !ok {
		return
	}
	c.DismissError()
	writeJSON(w, http.StatusOK, sessionResponse{SessionID: id, Snapshot: c.Snapshot()})
}

func (h *Handler) HandleEnd(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.End(chi.URLParam(r, "sessionID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleLogout revokes the caller's token so later exchanges carrying it
// are treated as unauthenticated.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	token, ok := auth.TokenFromContext(r.Context())
	if !ok {
		writeError(w, chat.ErrAuthenticationRequired)
		return
	}
	if h.revoked == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	ttl := defaultRevocationTTL
	if h.verifier != nil {
		if claims, err := h.verifier.Verify(token); err == nil {
			ttl = auth.RemainingLifetime(claims, defaultRevocationTTL)
		}
	}
	if err := h.revoked.Revoke(r.Context(), token, ttl); err != nil {
		h.logger.Error("webchat: logout failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "logout failed"})
		return
	}
	h.logger.Info("webchat: token revoked")
	w.WriteHeader(http.StatusNoContent)
}
