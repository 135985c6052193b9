package nutrition

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// Handler handles HTTP requests for nutrition targets.
type Handler struct {
	service *Service
}

// NewHandler creates a new nutrition handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleGetTargets handles GET /v1/nutrition/targets
func (h *Handler) HandleGetTargets(w http.ResponseWriter, r *http.Request) {
	targets, isDefault, err := h.service.GetOrDefault(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to get nutrition targets")
		return
	}

	response := GetTargetsResponse{
		Targets:   targets,
		IsDefault: isDefault,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// HandleUpsertTargets handles PUT /v1/nutrition/targets
func (h *Handler) HandleUpsertTargets(w http.ResponseWriter, r *http.Request) {
	var req UpsertTargetsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "Invalid request body")
		return
	}

	targets, err := h.service.Upsert(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidRequest) {
			msg := strings.TrimPrefix(err.Error(), ErrInvalidRequest.Error()+": ")
			writeError(w, http.StatusBadRequest, "invalid_request", msg)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to upsert nutrition targets")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(targets)
}

// writeError writes an error response in the standard format.
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
