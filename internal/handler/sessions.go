package handler

import (
	"net/http"

	"branchline/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// SessionHandler handles play session requests
type SessionHandler struct {
	svc      *service.SessionService
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewSessionHandler creates a new session handler. allowedOrigins limits
// which browser origins may open play sockets; empty allows any.
func NewSessionHandler(svc *service.SessionService, logger *zap.Logger, allowedOrigins []string) *SessionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionHandler{
		svc:      svc,
		logger:   logger,
		upgrader: newUpgrader(allowedOrigins),
	}
}

// StartSession opens a session on a stored graph and returns its first state
func (h *SessionHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req StartSessionRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeError(w, h.logger, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	info, err := h.svc.Start(r.Context(), req.Graph)
	if err != nil {
		writeServiceError(w, h.logger, "Failed to start session", err)
		return
	}

	w.Header().Set("Location", "/api/sessions/"+info.ID)
	writeJSON(w, h.logger, info, http.StatusCreated)
}

// ListSessions returns every held session
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.logger, h.svc.List(), http.StatusOK)
}

// GetSession returns the current state of a session
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	info, err := h.svc.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.logger, "Failed to get session", err)
		return
	}

	writeJSON(w, h.logger, info, http.StatusOK)
}

// Proceed follows one of the offered choices
func (h *SessionHandler) Proceed(w http.ResponseWriter, r *http.Request) {
	var req ProceedRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeError(w, h.logger, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	info, err := h.svc.Proceed(chi.URLParam(r, "id"), req.Target)
	if err != nil {
		writeServiceError(w, h.logger, "Failed to proceed", err)
		return
	}

	writeJSON(w, h.logger, info, http.StatusOK)
}

// SetProperty changes a property of the session's own graph copy
func (h *SessionHandler) SetProperty(w http.ResponseWriter, r *http.Request) {
	var req PropertyRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeError(w, h.logger, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	info, err := h.svc.SetProperty(chi.URLParam(r, "id"), chi.URLParam(r, "prop"), *req.Value)
	if err != nil {
		writeServiceError(w, h.logger, "Failed to set property", err)
		return
	}

	writeJSON(w, h.logger, info, http.StatusOK)
}

// EndSession drops a session
func (h *SessionHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.End(chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, h.logger, "Failed to end session", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
