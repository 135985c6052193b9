package ledger

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/fdg312/nutrition-ledger/internal/datekey"
	"github.com/fdg312/nutrition-ledger/internal/nutrition"
)

type Handlers struct {
	service *Service
}

func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// DayResponse — день с записями в порядке добавления
type DayResponse struct {
	Date       datekey.Key         `json:"date"`
	Entries    []Entry             `json:"entries"`
	Totals     nutrition.Nutrients `json:"totals"`
	EntryCount int                 `json:"entry_count"`
}

type DaysResponse struct {
	Days []DayLedger `json:"days"`
}

type AppendResponse struct {
	Day   DayResponse `json:"day"`
	Entry Entry       `json:"entry"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func toDayResponse(d DayLedger) DayResponse {
	return DayResponse{
		Date:       d.Date,
		Entries:    d.Ordered(),
		Totals:     d.Totals,
		EntryCount: len(d.Entries),
	}
}

// HandleListDays handles GET /v1/ledger/days
func (h *Handlers) HandleListDays(w http.ResponseWriter, r *http.Request) {
	days := h.service.ListAll(r.Context())
	if days == nil {
		days = []DayLedger{}
	}
	writeJSON(w, http.StatusOK, DaysResponse{Days: days})
}

// HandleGetDay handles GET /v1/ledger/days/{date}
func (h *Handlers) HandleGetDay(w http.ResponseWriter, r *http.Request) {
	date, ok := pathDate(w, r)
	if !ok {
		return
	}

	day, err := h.service.GetOrCreate(r.Context(), date)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDayResponse(day))
}

// HandleAppendEntry handles POST /v1/ledger/days/{date}/entries
func (h *Handlers) HandleAppendEntry(w http.ResponseWriter, r *http.Request) {
	date, ok := pathDate(w, r)
	if !ok {
		return
	}

	var req AppendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "invalid JSON body")
		return
	}

	day, entry, err := h.service.Append(r.Context(), date, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, AppendResponse{Day: toDayResponse(day), Entry: entry})
}

// HandleRemoveEntry handles DELETE /v1/ledger/days/{date}/entries/{id}
func (h *Handlers) HandleRemoveEntry(w http.ResponseWriter, r *http.Request) {
	date, ok := pathDate(w, r)
	if !ok {
		return
	}

	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "entry id is required")
		return
	}

	day, removed, err := h.service.Remove(r.Context(), date, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "entry_not_found", "no single entry matches id")
		return
	}

	writeJSON(w, http.StatusOK, toDayResponse(day))
}

func pathDate(w http.ResponseWriter, r *http.Request) (datekey.Key, bool) {
	date, err := datekey.ParseLoose(r.PathValue("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "date must be DD.MM.YYYY or YYYY-MM-DD")
		return "", false
	}
	return date, true
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidDate):
		writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
	case errors.Is(err, ErrInvalidProduct), errors.Is(err, ErrInvalidMultiplier):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, ErrDayNotFound):
		writeError(w, http.StatusNotFound, "day_not_found", err.Error())
	case errors.Is(err, ErrStoreRead), errors.Is(err, ErrStoreWrite):
		writeError(w, http.StatusServiceUnavailable, "storage_unavailable", "ledger storage is unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Error: ErrorDetail{Code: code, Message: message},
	})
}
