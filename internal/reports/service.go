package reports

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fdg312/nutrition-ledger/internal/blob"
	"github.com/fdg312/nutrition-ledger/internal/datekey"
	"github.com/fdg312/nutrition-ledger/internal/ledger"
	"github.com/fdg312/nutrition-ledger/internal/status"
)

// Errors
var (
	ErrInvalidFormat      = errors.New("invalid format")
	ErrInvalidDate        = errors.New("invalid date format")
	ErrInvalidDateRange   = errors.New("from date must be before to date")
	ErrRangeTooLarge      = errors.New("date range too large")
	ErrGoalUnavailable    = errors.New("calorie goal unavailable")
	ErrPublishingDisabled = errors.New("publishing requires an object store")
)

// DayRanger — источник дней дневника (ledger.Service)
type DayRanger interface {
	Range(ctx context.Context, from, to datekey.Key) ([]ledger.DayLedger, error)
}

// GoalSource — дневная цель по калориям (nutrition.Service)
type GoalSource interface {
	CalorieGoal(ctx context.Context) (float64, error)
}

// Config — параметры экспорта
type Config struct {
	MaxRangeDays int
	PresignTTL   int
	Prefix       string
	Location     *time.Location // решает, какой день "сегодня"
}

// Service handles reports business logic
type Service struct {
	days      DayRanger
	goals     GoalSource
	generator *Generator
	blobStore blob.Store
	cfg       Config
	localMode bool // true if no object store configured
	now       func() time.Time
}

// NewService creates a new reports service. blobStore may be nil: export
// still works, publishing does not.
func NewService(days DayRanger, goals GoalSource, blobStore blob.Store, cfg Config) *Service {
	if cfg.MaxRangeDays <= 0 {
		cfg.MaxRangeDays = 366
	}
	if cfg.PresignTTL <= 0 {
		cfg.PresignTTL = 900
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}

	return &Service{
		days:      days,
		goals:     goals,
		generator: NewGenerator(),
		blobStore: blobStore,
		cfg:       cfg,
		localMode: blobStore == nil,
		now:       time.Now,
	}
}

// WithClock overrides the clock used to tell past days from future ones.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// MaxRangeDays is the longest exportable span, inclusive.
func (s *Service) MaxRangeDays() int {
	return s.cfg.MaxRangeDays
}

// Rows builds one row per day of the inclusive range, oldest first. Days
// after today are empty whatever the store holds, as in the calendar.
func (s *Service) Rows(ctx context.Context, from, to datekey.Key) ([]DayRow, error) {
	keys, err := s.span(from, to)
	if err != nil {
		return nil, err
	}

	goal, err := s.goals.CalorieGoal(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGoalUnavailable, err)
	}
	if goal <= 0 {
		return nil, ErrGoalUnavailable
	}

	days, err := s.days.Range(ctx, from, to)
	if err != nil {
		return nil, err
	}
	byDate := make(map[datekey.Key]ledger.DayLedger, len(days))
	for _, d := range days {
		byDate[d.Date] = d
	}

	today := datekey.Today(s.now(), s.cfg.Location)
	rows := make([]DayRow, 0, len(keys))
	for _, key := range keys {
		row := DayRow{Date: key, Goal: goal}
		if d, ok := byDate[key]; ok && !key.After(today) {
			t := d.Totals
			row.Calories = t.Calories
			row.Protein = t.Protein
			row.Fat = t.Fat
			row.Carbs = t.Carbs
			row.Sugar = t.Sugar
			row.Fiber = t.Fiber
			row.SaturatedFat = t.SaturatedFat
			row.EntryCount = len(d.Entries)
		}
		row.Status = status.Classify(row.Calories, goal)
		rows = append(rows, row)
	}
	return rows, nil
}

// Export renders the requested range.
func (s *Service) Export(ctx context.Context, req ExportRequest) (*Export, error) {
	req.Format = strings.ToLower(strings.TrimSpace(req.Format))
	if req.Format == "" {
		req.Format = FormatCSV
	}
	if req.Format != FormatPDF && req.Format != FormatCSV {
		return nil, ErrInvalidFormat
	}

	from, err := datekey.ParseLoose(req.From)
	if err != nil {
		return nil, ErrInvalidDate
	}
	to, err := datekey.ParseLoose(req.To)
	if err != nil {
		return nil, ErrInvalidDate
	}

	rows, err := s.Rows(ctx, from, to)
	if err != nil {
		return nil, err
	}

	data, err := s.generator.Render(req, rows)
	if err != nil {
		return nil, fmt.Errorf("failed to generate report: %w", err)
	}

	return &Export{
		Format:      req.Format,
		From:        from,
		To:          to,
		Data:        data,
		ContentType: contentTypeFor(req.Format),
		Filename:    fmt.Sprintf("nutrition_%s_%s.%s", from.ISO(), to.ISO(), req.Format),
	}, nil
}

// Publish renders the range, uploads it and returns a presigned download URL.
func (s *Service) Publish(ctx context.Context, req ExportRequest) (*PublishResponse, error) {
	if s.localMode {
		return nil, ErrPublishingDisabled
	}

	export, err := s.Export(ctx, req)
	if err != nil {
		return nil, err
	}

	objectKey := fmt.Sprintf("exports/%s_%s_%s.%s",
		export.From.ISO(),
		export.To.ISO(),
		uuid.New().String(),
		export.Format,
	)
	if s.cfg.Prefix != "" {
		objectKey = s.cfg.Prefix + "/" + objectKey
	}

	size, err := s.blobStore.PutObject(ctx, objectKey, export.Data, export.ContentType)
	if err != nil {
		return nil, fmt.Errorf("failed to upload export: %w", err)
	}

	url, err := s.blobStore.PresignGet(ctx, objectKey, s.cfg.PresignTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return &PublishResponse{
		Format:      export.Format,
		From:        string(export.From),
		To:          string(export.To),
		ObjectKey:   objectKey,
		DownloadURL: url,
		SizeBytes:   size,
		ExpiresIn:   s.cfg.PresignTTL,
	}, nil
}

func (s *Service) span(from, to datekey.Key) ([]datekey.Key, error) {
	if from.After(to) {
		return nil, ErrInvalidDateRange
	}
	days, err := datekey.DaysBetween(from, to)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if days+1 > s.cfg.MaxRangeDays {
		return nil, ErrRangeTooLarge
	}
	keys, err := datekey.Between(from, to)
	if err != nil {
		return nil, ErrRangeTooLarge
	}
	return keys, nil
}
