package reports

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

// Handlers handles HTTP requests for reports
type Handlers struct {
	service *Service
}

// NewHandlers creates new handlers
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// HandleExport handles GET /v1/reports/export?from=&to=&format=
func (h *Handlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := ExportRequest{
		From:   q.Get("from"),
		To:     q.Get("to"),
		Format: q.Get("format"),
	}
	if req.From == "" || req.To == "" {
		writeError(w, http.StatusBadRequest, "missing_range", "from and to are required")
		return
	}

	export, err := h.service.Export(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", export.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(export.Data)))
	w.Write(export.Data)
}

// HandlePublish handles POST /v1/reports/publish
func (h *Handlers) HandlePublish(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON")
		return
	}

	resp, err := h.service.Publish(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

func (h *Handlers) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidFormat):
		writeError(w, http.StatusBadRequest, "invalid_format", "Format must be 'pdf' or 'csv'")
	case errors.Is(err, ErrInvalidDate):
		writeError(w, http.StatusBadRequest, "invalid_date", "Invalid date format, use DD.MM.YYYY or YYYY-MM-DD")
	case errors.Is(err, ErrInvalidDateRange):
		writeError(w, http.StatusBadRequest, "invalid_range", "From date must be before to date")
	case errors.Is(err, ErrRangeTooLarge):
		writeError(w, http.StatusBadRequest, "range_too_large", fmt.Sprintf("Date range exceeds maximum of %d days", h.service.MaxRangeDays()))
	case errors.Is(err, ErrPublishingDisabled):
		writeError(w, http.StatusServiceUnavailable, "publishing_disabled", "Object storage is not configured")
	case errors.Is(err, ErrGoalUnavailable):
		writeError(w, http.StatusServiceUnavailable, "storage_unavailable", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
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
