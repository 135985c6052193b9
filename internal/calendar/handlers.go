package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/fdg312/nutrition-ledger/internal/datekey"
)

// GoalSource supplies the stored daily calorie goal.
type GoalSource interface {
	CalorieGoal(ctx context.Context) (float64, error)
}

// WindowConfig bounds the window served by GET /v1/calendar.
type WindowConfig struct {
	DaysBack    int
	DaysForward int
	MaxSpan     int
}

type Handler struct {
	projector *Projector
	goals     GoalSource
	window    WindowConfig
	now       func() time.Time
}

func NewHandler(projector *Projector, goals GoalSource, window WindowConfig) *Handler {
	if window.MaxSpan <= 0 {
		window.MaxSpan = 93
	}
	return &Handler{
		projector: projector,
		goals:     goals,
		window:    window,
		now:       time.Now,
	}
}

type Response struct {
	Center datekey.Key `json:"center"`
	Goal   float64     `json:"goal"`
	Days   []DayStat   `json:"days"`
}

// HandleCalendar handles GET /v1/calendar
func (h *Handler) HandleCalendar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	now := h.now()

	center := datekey.Today(now, h.projector.loc)
	if raw := q.Get("center"); raw != "" {
		k, err := datekey.ParseLoose(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "center must be DD.MM.YYYY or YYYY-MM-DD")
			return
		}
		center = k
	}

	back, ok := intParam(w, q.Get("back"), h.window.DaysBack, "back")
	if !ok {
		return
	}
	forward, ok := intParam(w, q.Get("forward"), h.window.DaysForward, "forward")
	if !ok {
		return
	}
	// each side is bounded first so the sum cannot overflow
	if back > h.window.MaxSpan || forward > h.window.MaxSpan || back+forward+1 > h.window.MaxSpan {
		writeError(w, http.StatusBadRequest, "invalid_request", "calendar window too large")
		return
	}

	var goal float64
	if raw := q.Get("goal"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_goal", "goal must be a number")
			return
		}
		goal = v
	} else {
		v, err := h.goals.CalorieGoal(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", "Failed to load calorie goal")
			return
		}
		goal = v
	}

	window, err := datekey.Window(center, back, forward)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
		return
	}

	stats, err := h.projector.Project(r.Context(), window, goal, now)
	if err != nil {
		if errors.Is(err, ErrInvalidGoal) {
			writeError(w, http.StatusBadRequest, "invalid_goal", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to project calendar")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(Response{Center: center, Goal: goal, Days: stats})
}

func intParam(w http.ResponseWriter, raw string, def int, name string) (int, bool) {
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", name+" must be a non-negative integer")
		return 0, false
	}
	return v, true
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
