package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"branchline/internal/codec"
	"branchline/internal/domain"
	"branchline/internal/engine"
	"branchline/internal/service"

	"go.uber.org/zap"
)

// maxBodyBytes caps request bodies, graph documents included
const maxBodyBytes = 4 << 20

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Warn("failed to encode JSON", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, logger *zap.Logger, error, details string, statusCode int) {
	writeJSON(w, logger, ErrorResponse{
		Error:   error,
		Details: details,
	}, statusCode)
}

// writeServiceError maps err to a status code. Server faults are logged as
// errors, request faults at debug level.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, action string, err error) {
	if service.IsClientError(err) {
		logger.Debug(action, zap.Error(err))
	} else {
		logger.Error(action, zap.Error(err))
	}
	writeError(w, logger, action, err.Error(), statusFor(err))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrGraphNotFound),
		errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, domain.ErrPropertyNotFound):
		return http.StatusNotFound

	case errors.Is(err, service.ErrInvalidGraphName),
		errors.Is(err, service.ErrInvalidGraph),
		errors.Is(err, codec.ErrUnknownFormat):
		return http.StatusBadRequest

	case errors.Is(err, engine.ErrNotStarted),
		errors.Is(err, engine.ErrSessionEnded):
		return http.StatusConflict

	case errors.Is(err, engine.ErrInvalidChoice),
		errors.Is(err, engine.ErrNoEntry):
		return http.StatusUnprocessableEntity

	case errors.Is(err, service.ErrTooManySessions):
		return http.StatusTooManyRequests

	default:
		return http.StatusInternalServerError
	}
}
