package nutrition

import (
	"fmt"
	"time"
)

// TargetsDTO represents the daily nutrition goals of the ledger owner.
type TargetsDTO struct {
	CaloriesKcal int       `json:"calories_kcal"`
	ProteinG     int       `json:"protein_g"`
	FatG         int       `json:"fat_g"`
	CarbsG       int       `json:"carbs_g"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// GetTargetsResponse contains targets and a flag indicating if they are defaults.
type GetTargetsResponse struct {
	Targets   TargetsDTO `json:"targets"`
	IsDefault bool       `json:"is_default"`
}

// UpsertTargetsRequest is the request body for PUT /v1/nutrition/targets.
type UpsertTargetsRequest struct {
	CaloriesKcal int `json:"calories_kcal"`
	ProteinG     int `json:"protein_g"`
	FatG         int `json:"fat_g"`
	CarbsG       int `json:"carbs_g"`
}

// Validate validates the upsert request.
func (r *UpsertTargetsRequest) Validate() error {
	if r.CaloriesKcal < 800 || r.CaloriesKcal > 6000 {
		return fmt.Errorf("calories_kcal must be between 800 and 6000")
	}

	if r.ProteinG < 0 || r.ProteinG > 400 {
		return fmt.Errorf("protein_g must be between 0 and 400")
	}

	if r.FatG < 0 || r.FatG > 400 {
		return fmt.Errorf("fat_g must be between 0 and 400")
	}

	if r.CarbsG < 0 || r.CarbsG > 400 {
		return fmt.Errorf("carbs_g must be between 0 and 400")
	}

	return nil
}

// GetDefaultTargets returns reasonable default nutrition targets.
// A positive calorieGoal overrides the default 2200 kcal.
func GetDefaultTargets(calorieGoal int) TargetsDTO {
	if calorieGoal <= 0 {
		calorieGoal = 2200
	}
	return TargetsDTO{
		CaloriesKcal: calorieGoal,
		ProteinG:     120,
		FatG:         70,
		CarbsG:       250,
	}
}
