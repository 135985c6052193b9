package nutrition

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fdg312/nutrition-ledger/internal/storage"
)

// TargetsKey is the KV slot holding the serialized targets.
const TargetsKey = "nutrition_targets"

var ErrInvalidRequest = errors.New("invalid_request")

// Service handles nutrition targets business logic.
type Service struct {
	kv          storage.KV
	calorieGoal int
	now         func() time.Time
}

// NewService creates a new nutrition service. defaultCalories is the goal
// reported while no targets have been saved.
func NewService(kv storage.KV, defaultCalories int) *Service {
	return &Service{
		kv:          kv,
		calorieGoal: defaultCalories,
		now:         time.Now,
	}
}

// GetOrDefault returns saved targets or the defaults if none are stored.
func (s *Service) GetOrDefault(ctx context.Context) (TargetsDTO, bool, error) {
	raw, found, err := s.kv.Get(ctx, TargetsKey)
	if err != nil {
		return TargetsDTO{}, false, fmt.Errorf("failed to get nutrition targets: %w", err)
	}
	if !found {
		return GetDefaultTargets(s.calorieGoal), true, nil
	}

	var targets TargetsDTO
	if err := json.Unmarshal(raw, &targets); err != nil || targets.CaloriesKcal <= 0 {
		// Unreadable targets are not worth failing the caller for.
		return GetDefaultTargets(s.calorieGoal), true, nil
	}

	return targets, false, nil
}

// CalorieGoal returns the effective daily calorie goal.
func (s *Service) CalorieGoal(ctx context.Context) (float64, error) {
	targets, _, err := s.GetOrDefault(ctx)
	if err != nil {
		return 0, err
	}
	return float64(targets.CaloriesKcal), nil
}

// Upsert validates and stores targets.
func (s *Service) Upsert(ctx context.Context, req UpsertTargetsRequest) (TargetsDTO, error) {
	if err := req.Validate(); err != nil {
		return TargetsDTO{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	targets := TargetsDTO{
		CaloriesKcal: req.CaloriesKcal,
		ProteinG:     req.ProteinG,
		FatG:         req.FatG,
		CarbsG:       req.CarbsG,
		UpdatedAt:    s.now().UTC(),
	}

	raw, err := json.Marshal(targets)
	if err != nil {
		return TargetsDTO{}, fmt.Errorf("failed to encode nutrition targets: %w", err)
	}

	if err := s.kv.Put(ctx, TargetsKey, raw); err != nil {
		return TargetsDTO{}, fmt.Errorf("failed to upsert nutrition targets: %w", err)
	}

	return targets, nil
}
