package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alanyoungcy/marketsim/internal/domain"
)

// RunArchive reads runs archived to object storage.
type RunArchive interface {
	ListRuns(ctx context.Context) ([]string, error)
	Open(ctx context.Context, runID, name string) (io.ReadCloser, error)
}

// ArchiveHandler serves archived run files.
type ArchiveHandler struct {
	archive RunArchive
	logger  *slog.Logger
}

// NewArchiveHandler creates an ArchiveHandler. A nil archive answers 503.
func NewArchiveHandler(archive RunArchive, logger *slog.Logger) *ArchiveHandler {
	return &ArchiveHandler{archive: archive, logger: logger.With(slog.String("handler", "archive"))}
}

// ListArchived GET /api/archive
func (h *ArchiveHandler) ListArchived(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		writeError(w, http.StatusServiceUnavailable, "archive is not configured")
		return
	}
	ids, err := h.archive.ListRuns(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list archive failed", slog.String("error", err.Error()))
		writeDomainError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": ids})
}

// GetArchived streams one archived file.
// GET /api/archive/{id}/{file}
func (h *ArchiveHandler) GetArchived(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		writeError(w, http.StatusServiceUnavailable, "archive is not configured")
		return
	}
	file := r.PathValue("file")
	body, err := h.archive.Open(r.Context(), r.PathValue("id"), file)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			h.logger.ErrorContext(r.Context(), "open archive failed", slog.String("error", err.Error()))
		}
		writeDomainError(w, err)
		return
	}
	defer body.Close()

	ct := "application/json"
	if strings.HasSuffix(file, ".jsonl") {
		ct = "application/x-ndjson"
	}
	w.Header().Set("Content-Type", ct)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		h.logger.WarnContext(r.Context(), "stream archive failed", slog.String("error", err.Error()))
	}
}
