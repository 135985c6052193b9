package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/fdg312/nutrition-ledger/internal/datekey"
	"github.com/fdg312/nutrition-ledger/internal/nutrition"
	"github.com/fdg312/nutrition-ledger/internal/portion"
	"github.com/fdg312/nutrition-ledger/internal/userctx"
)

var (
	ErrStoreRead         = errors.New("ledger store read failed")
	ErrStoreWrite        = errors.New("ledger store write failed")
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidProduct    = errors.New("product name is required")
	ErrInvalidMultiplier = errors.New("multiplier must be a positive number")
	ErrDayNotFound       = errors.New("day not found")
)

// Logger — минимальный интерфейс логгера (совместим с *log.Logger)
type Logger interface {
	Printf(format string, v ...any)
}

// Service owns the ledger collection. Every mutation runs
// load-modify-save under one mutex so concurrent appends and removals are
// applied one after another against the latest persisted state.
type Service struct {
	store  *Store
	logger Logger
	now    func() time.Time
	ids    *idSource

	mu sync.Mutex
}

// NewService creates a Service. A nil logger falls back to the standard logger.
func NewService(store *Store, logger Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		store:  store,
		logger: logger,
		now:    time.Now,
		ids:    newIDSource(time.Now),
	}
}

// WithClock overrides the time source (tests).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	s.ids = newIDSource(now)
	return s
}

// GetOrCreate returns the ledger for date, or an empty unsaved one. Storage
// problems are logged and served as an empty day.
func (s *Service) GetOrCreate(ctx context.Context, date datekey.Key) (DayLedger, error) {
	if !date.Valid() {
		return DayLedger{}, ErrInvalidDate
	}

	coll := s.loadForRead(ctx)
	if day, i := coll.Find(date); i >= 0 {
		return day, nil
	}
	return NewDayLedger(date), nil
}

// ListAll returns every stored day, newest first.
func (s *Service) ListAll(ctx context.Context) []DayLedger {
	return s.loadForRead(ctx).SortedDesc()
}

// Range returns the stored days between from and to inclusive, oldest first.
func (s *Service) Range(ctx context.Context, from, to datekey.Key) ([]DayLedger, error) {
	if !from.Valid() || !to.Valid() {
		return nil, ErrInvalidDate
	}

	all := s.loadForRead(ctx).SortedDesc()
	out := make([]DayLedger, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		d := all[i]
		if datekey.Compare(d.Date, from) >= 0 && datekey.Compare(d.Date, to) <= 0 {
			out = append(out, d)
		}
	}
	return out, nil
}

// Entry returns the entry id resolves to on date.
func (s *Service) Entry(ctx context.Context, date datekey.Key, id string) (Entry, bool, error) {
	day, err := s.GetOrCreate(ctx, date)
	if err != nil {
		return Entry{}, false, err
	}
	i, ok := matchEntry(day.Entries, id)
	if !ok {
		return Entry{}, false, nil
	}
	return day.Entries[i], true, nil
}

// Append scales the product by the portion (or plain multiplier), records it
// as a new entry on date and persists the updated collection.
func (s *Service) Append(ctx context.Context, date datekey.Key, req AppendRequest) (DayLedger, Entry, error) {
	if !date.Valid() {
		return DayLedger{}, Entry{}, ErrInvalidDate
	}
	if strings.TrimSpace(req.Product.Name) == "" {
		return DayLedger{}, Entry{}, ErrInvalidProduct
	}

	multiplier := req.Multiplier
	var delta nutrition.Nutrients
	if req.Portion != nil {
		multiplier = portion.Multiplier(*req.Portion)
		delta = portion.AddonDelta(req.Portion.Addons)
	}
	if math.IsNaN(multiplier) || math.IsInf(multiplier, 0) || multiplier < 0 {
		return DayLedger{}, Entry{}, ErrInvalidMultiplier
	}
	if multiplier == 0 {
		multiplier = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	coll, err := s.loadForWrite(ctx)
	if err != nil {
		return DayLedger{}, Entry{}, err
	}

	entry := s.buildEntry(req, multiplier, delta)

	day, i := coll.Find(date)
	if i < 0 {
		day = NewDayLedger(date)
	}
	entries := make([]Entry, 0, len(day.Entries)+1)
	entries = append(entries, day.Entries...)
	day.Entries = append(entries, entry)
	day.Recompute()

	if err := s.store.Save(ctx, coll.Upsert(day)); err != nil {
		s.logger.Printf("WARN ledger: save after append failed sub=%s: %v", userctx.UserIDOr(ctx, "-"), err)
		return DayLedger{}, Entry{}, fmt.Errorf("%w: %v", ErrStoreWrite, err)
	}

	return day, entry, nil
}

// Remove deletes the entry id resolves to. removed is false, and nothing is
// written, when no entry or more than one entry matches.
func (s *Service) Remove(ctx context.Context, date datekey.Key, id string) (DayLedger, bool, error) {
	if !date.Valid() {
		return DayLedger{}, false, ErrInvalidDate
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	coll, err := s.loadForWrite(ctx)
	if err != nil {
		return DayLedger{}, false, err
	}

	day, i := coll.Find(date)
	if i < 0 {
		return DayLedger{}, false, ErrDayNotFound
	}

	idx, ok := matchEntry(day.Entries, id)
	if !ok {
		return day, false, nil
	}

	entries := make([]Entry, 0, len(day.Entries)-1)
	entries = append(entries, day.Entries[:idx]...)
	entries = append(entries, day.Entries[idx+1:]...)
	day.Entries = entries
	day.Recompute()

	if err := s.store.Save(ctx, coll.Upsert(day)); err != nil {
		s.logger.Printf("WARN ledger: save after remove failed sub=%s: %v", userctx.UserIDOr(ctx, "-"), err)
		return DayLedger{}, false, fmt.Errorf("%w: %v", ErrStoreWrite, err)
	}

	return day, true, nil
}

func (s *Service) loadForRead(ctx context.Context) Collection {
	coll, err := s.store.Load(ctx)
	if err != nil {
		s.logger.Printf("WARN ledger: load failed, serving empty ledger: %v", err)
		return Collection{}
	}
	return coll
}

// loadForWrite refuses to continue on a failed read; saving over an
// unreadable value would replace every stored day.
func (s *Service) loadForWrite(ctx context.Context) (Collection, error) {
	coll, err := s.store.Load(ctx)
	if err != nil {
		s.logger.Printf("WARN ledger: load before mutation failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrStoreRead, err)
	}
	return coll, nil
}

func (s *Service) buildEntry(req AppendRequest, multiplier float64, delta nutrition.Nutrients) Entry {
	p := req.Product
	ref := p.Nutrients()
	scaled := ref.Scale(multiplier).Add(delta).Rounded()

	effective := multiplier
	if ref.Calories > 0 {
		effective = (ref.Calories*multiplier + delta.Calories) / ref.Calories
	}

	id, createdAt := s.ids.next()

	var spec *portion.Spec
	if req.Portion != nil {
		cp := *req.Portion
		spec = &cp
	}

	return Entry{
		ID:                  id,
		ProductID:           p.ID,
		Name:                strings.TrimSpace(p.Name),
		ServingMultiplier:   decimal.NewFromFloat(effective).Round(4).InexactFloat64(),
		BaseReferenceWeight: ReferenceWeight(string(p.FullData)),
		Calories:            scaled.Calories,
		Protein:             scaled.Protein,
		Fat:                 scaled.Fat,
		Carbs:               scaled.Carbs,
		Sugar:               scaled.Sugar,
		Fiber:               scaled.Fiber,
		SaturatedFat:        scaled.SaturatedFat,
		Portion:             spec,
		ImageRef:            p.Image,
		CreatedAt:           createdAt,
		FullSnapshotRef:     p.FullData,
	}
}

// ReferenceWeight reads foodData.portionInfo.estimatedWeight from a stored
// product snapshot. Strings such as "150g" contribute their numeric prefix.
func ReferenceWeight(fullData string) float64 {
	if fullData == "" || !gjson.Valid(fullData) {
		return DefaultReferenceWeight
	}

	v := gjson.Get(fullData, "foodData.portionInfo.estimatedWeight")
	switch v.Type {
	case gjson.Number:
		if w := v.Float(); w > 0 && !math.IsInf(w, 0) {
			return w
		}
	case gjson.String:
		if w, ok := numericPrefix(v.String()); ok && w > 0 {
			return w
		}
	}
	return DefaultReferenceWeight
}

func numericPrefix(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || s[end] == '.') {
		end++
	}
	if end == 0 {
		return 0, false
	}
	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
