package handler

import (
	"bytes"
	"net/http"
	"strings"

	"branchline/internal/codec"
	"branchline/internal/domain"
	"branchline/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// GraphHandler handles stored graph requests
type GraphHandler struct {
	svc    *service.GraphService
	logger *zap.Logger
}

// NewGraphHandler creates a new graph handler
func NewGraphHandler(svc *service.GraphService, logger *zap.Logger) *GraphHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GraphHandler{svc: svc, logger: logger}
}

// ListGraphs returns a summary of every stored graph
func (h *GraphHandler) ListGraphs(w http.ResponseWriter, r *http.Request) {
	graphs, err := h.svc.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, "Failed to list graphs", err)
		return
	}

	writeJSON(w, h.logger, graphs, http.StatusOK)
}

// GetGraph exports a stored graph as JSON or YAML (?format=)
func (h *GraphHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	cd, err := codec.ForFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeServiceError(w, h.logger, "Failed to export graph", err)
		return
	}

	var buf bytes.Buffer
	if err := h.svc.Export(r.Context(), name, cd.Format(), &buf); err != nil {
		writeServiceError(w, h.logger, "Failed to export graph", err)
		return
	}

	w.Header().Set("Content-Type", contentType(cd.Format()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("failed to write graph", zap.String("graph", name), zap.Error(err))
	}
}

// PutGraph imports the request body as the named graph. The format comes
// from ?format= or, failing that, the Content-Type header.
func (h *GraphHandler) PutGraph(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	format := r.URL.Query().Get("format")
	if format == "" {
		format = formatFromContentType(r.Header.Get("Content-Type"))
	}

	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	result, err := h.svc.Import(r.Context(), name, format, body)
	if err != nil {
		writeServiceError(w, h.logger, "Failed to import graph", err)
		return
	}

	writeJSON(w, h.logger, result, http.StatusOK)
}

// DeleteGraph removes a stored graph
func (h *GraphHandler) DeleteGraph(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		writeServiceError(w, h.logger, "Failed to delete graph", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ValidateGraph lints a stored graph
func (h *GraphHandler) ValidateGraph(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	warnings, err := h.svc.Validate(r.Context(), name)
	if err != nil {
		writeServiceError(w, h.logger, "Failed to validate graph", err)
		return
	}

	writeJSON(w, h.logger, map[string]interface{}{
		"name":     name,
		"valid":    len(warnings) == 0,
		"warnings": warnings,
	}, http.StatusOK)
}

// SetProperty changes the stored default value of a graph property
func (h *GraphHandler) SetProperty(w http.ResponseWriter, r *http.Request) {
	var req PropertyRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeError(w, h.logger, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	name := chi.URLParam(r, "name")
	prop := chi.URLParam(r, "prop")
	if err := h.svc.SetProperty(r.Context(), name, prop, *req.Value); err != nil {
		writeServiceError(w, h.logger, "Failed to set property", err)
		return
	}

	writeJSON(w, h.logger, domain.Property{Name: prop, Value: *req.Value}, http.StatusOK)
}

func contentType(format string) string {
	if format == codec.FormatYAML {
		return "application/yaml"
	}
	return "application/json"
}

func formatFromContentType(ct string) string {
	if strings.Contains(ct, "yaml") {
		return codec.FormatYAML
	}
	return codec.FormatJSON
}
