package snapshot

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/fdg312/nutrition-ledger/internal/datekey"
	"github.com/fdg312/nutrition-ledger/internal/ledger"
)

// EntryFinder resolves an entry id on a day.
type EntryFinder interface {
	Entry(ctx context.Context, date datekey.Key, id string) (ledger.Entry, bool, error)
}

type Handler struct {
	entries EntryFinder
}

func NewHandler(entries EntryFinder) *Handler {
	return &Handler{entries: entries}
}

// HandleGetSnapshot handles GET /v1/ledger/days/{date}/entries/{id}/snapshot
func (h *Handler) HandleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	date, err := datekey.ParseLoose(r.PathValue("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "date must be DD.MM.YYYY or YYYY-MM-DD")
		return
	}
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "entry id is required")
		return
	}

	entry, found, err := h.entries.Entry(r.Context(), date, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to load entry")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "entry_not_found", "no single entry matches id")
		return
	}

	snap := Reconstruct(entry)
	if snap.IsFallback() {
		w.Header().Set("X-Snapshot-Fallback", "true")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(snap.Data())
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
