package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"branchline/internal/engine"
	"branchline/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	wsWriteWait      = 10 * time.Second
	wsMaxMessageSize = 4096
)

func newUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return originAllowed(allowedOrigins, r.Header.Get("Origin"))
		},
	}
}

// originAllowed reports whether a browser origin may open a play socket.
// An empty list or "*" allows any origin; requests without an Origin
// header do not come from a browser page and are allowed.
func originAllowed(allowed []string, origin string) bool {
	if origin == "" || len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(a, origin) {
			return true
		}
	}
	return false
}

// playMessage is a client frame on the play socket
type playMessage struct {
	Target string `json:"target" validate:"required"`
}

// playFrame is a server frame: the session state after each step, plus
// the reason a step was refused
type playFrame struct {
	State engine.State `json:"state"`
	Error string       `json:"error,omitempty"`
}

// Play runs a session over a websocket. The current state is sent on
// connect; each {"target": ...} frame is answered with the next state.
func (h *SessionHandler) Play(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	info, err := h.svc.Get(id)
	if err != nil {
		writeServiceError(w, h.logger, "Failed to get session", err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.String("session_id", id), zap.Error(err))
		return
	}
	defer conn.Close()

	conn.SetReadLimit(wsMaxMessageSize)
	logger := h.logger.With(zap.String("session_id", id))
	logger.Debug("play socket connected")

	if err := writeFrame(conn, playFrame{State: info.State}); err != nil {
		return
	}

	for {
		var msg playMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("play socket closed", zap.Error(err))
			}
			return
		}

		frame := playFrame{}
		if err := validateStruct(&msg); err != nil {
			frame.State = info.State
			frame.Error = err.Error()
		} else {
			info, err = h.svc.Proceed(id, msg.Target)
			frame.State = info.State
			if err != nil {
				frame.Error = err.Error()
			}
			if errors.Is(err, service.ErrSessionNotFound) {
				_ = writeFrame(conn, frame)
				return
			}
		}

		if err := writeFrame(conn, frame); err != nil {
			logger.Debug("play socket write failed", zap.Error(err))
			return
		}
	}
}

func writeFrame(conn *websocket.Conn, frame playFrame) error {
	if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
		return err
	}
	return conn.WriteJSON(frame)
}
