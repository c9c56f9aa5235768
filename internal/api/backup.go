package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"echo/internal/apperr"
	"echo/internal/backup"

	"github.com/go-chi/chi/v5"
)

// maxImportBytes bounds the accepted backup document size.
const maxImportBytes = 16 << 20

// BackupHandler exposes backup export and merge-import.
type BackupHandler struct {
	*Handler
}

// NewBackupHandler creates a backup handler on top of the base handler.
func NewBackupHandler(base *Handler) *BackupHandler {
	return &BackupHandler{Handler: base}
}

// RegisterRoutes registers the backup routes.
func (h *BackupHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/backup", func(r chi.Router) {
		r.Get("/export", h.Export)
		r.Post("/import", h.Import)
	})
}

// Export serializes all collections into one downloadable backup document.
func (h *BackupHandler) Export(w http.ResponseWriter, r *http.Request) {
	now := h.records.Now()
	data, count, err := backup.Export(r.Context(), h.records, now)
	if err != nil {
		slog.Error("backup: export failed", "error", err)
		Fail(w, apperr.Internal(apperr.CodeUnknown, "failed to build backup document"))
		return
	}

	filename := fmt.Sprintf("echo-backup-%s.json", now.UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("X-Record-Count", strconv.Itoa(count))
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, data); err != nil {
		slog.Warn("backup: export write failed", "error", err)
	}
}

// Import merges a backup document into the store. A malformed document
// produces zero writes; records whose id already exists are skipped.
func (h *BackupHandler) Import(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		Fail(w, apperr.BadRequest(apperr.CodeInvalidBody, "failed to read request body"))
		return
	}
	defer r.Body.Close()

	result := backup.ImportMerge(r.Context(), h.records, string(body))
	if !result.Success {
		JSON(w, http.StatusBadRequest, result)
		return
	}
	slog.Info("backup: import merged",
		"journal", result.JournalAdded, "praise", result.PraiseAdded,
		"capsules", result.CapsulesAdded, "cards", result.CardsAdded)
	JSON(w, http.StatusOK, result)
}
