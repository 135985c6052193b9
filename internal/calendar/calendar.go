// Package calendar projects per-day consumption and status over a window of
// dates around a center day.
package calendar

import (
	"context"
	"errors"
	"time"

	"github.com/fdg312/nutrition-ledger/internal/datekey"
	"github.com/fdg312/nutrition-ledger/internal/ledger"
	"github.com/fdg312/nutrition-ledger/internal/nutrition"
	"github.com/fdg312/nutrition-ledger/internal/status"
)

var ErrInvalidGoal = errors.New("calorie goal must be positive")

// DayReader is the read side of the ledger service.
type DayReader interface {
	GetOrCreate(ctx context.Context, date datekey.Key) (ledger.DayLedger, error)
}

// DayStat is one projected calendar cell.
type DayStat struct {
	Date      datekey.Key   `json:"date"`
	Consumed  float64       `json:"consumed"`
	Goal      float64       `json:"goal"`
	Status    status.Status `json:"status"`
	Remaining float64       `json:"remaining"`
	IsToday   bool          `json:"is_today"`
	IsFuture  bool          `json:"is_future"`
}

type Projector struct {
	days DayReader
	loc  *time.Location
}

// NewProjector creates a Projector; loc decides which day is today.
func NewProjector(days DayReader, loc *time.Location) *Projector {
	if loc == nil {
		loc = time.Local
	}
	return &Projector{days: days, loc: loc}
}

// Project returns one DayStat per key, in window order. Days after today are
// reported empty whatever the store holds.
func (p *Projector) Project(ctx context.Context, window []datekey.Key, goal float64, now time.Time) ([]DayStat, error) {
	if !(goal > 0) {
		return nil, ErrInvalidGoal
	}

	today := datekey.Today(now, p.loc)
	stats := make([]DayStat, 0, len(window))
	for _, date := range window {
		stat := DayStat{
			Date:    date,
			Goal:    goal,
			IsToday: date == today,
		}

		if date.After(today) {
			stat.IsFuture = true
			stat.Status = status.Empty
			stat.Remaining = goal
			stats = append(stats, stat)
			continue
		}

		day, err := p.days.GetOrCreate(ctx, date)
		if err != nil {
			return nil, err
		}

		stat.Consumed = day.Totals.Calories
		stat.Status = status.Classify(stat.Consumed, goal)
		stat.Remaining = nutrition.RoundCalories(goal - stat.Consumed)
		stats = append(stats, stat)
	}

	return stats, nil
}
