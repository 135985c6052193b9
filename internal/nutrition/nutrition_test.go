package nutrition

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fdg312/nutrition-ledger/internal/storage/memory"
)

func TestRounding(t *testing.T) {
	tests := []struct {
		name string
		fn   func(float64) float64
		in   float64
		want float64
	}{
		{"kcal half up", RoundCalories, 149.5, 150},
		{"kcal down", RoundCalories, 149.49, 149},
		{"grams binary edge", RoundGrams, 0.15, 0.2},
		{"grams keep", RoundGrams, 12.3, 12.3},
		{"grams two decimals", RoundGrams, 7.04, 7.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.in); got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNutrientsScaleAddRounded(t *testing.T) {
	ref := Nutrients{Calories: 250, Protein: 10, Fat: 5.55, Carbs: 40, Sugar: 3}
	got := ref.Scale(1.5).Add(Nutrients{Calories: 30, Protein: 1, Fat: 1, Carbs: 3}).Rounded()

	want := Nutrients{Calories: 405, Protein: 16, Fat: 9.3, Carbs: 63, Sugar: 4.5}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestTargetsService(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewKV(), 1800)

	targets, isDefault, err := svc.GetOrDefault(ctx)
	if err != nil {
		t.Fatalf("GetOrDefault: %v", err)
	}
	if !isDefault || targets.CaloriesKcal != 1800 {
		t.Fatalf("expected default 1800 kcal, got %+v default=%v", targets, isDefault)
	}

	if _, err := svc.Upsert(ctx, UpsertTargetsRequest{CaloriesKcal: 500}); err == nil {
		t.Fatal("expected validation error for 500 kcal")
	}

	if _, err := svc.Upsert(ctx, UpsertTargetsRequest{CaloriesKcal: 2500, ProteinG: 150, FatG: 80, CarbsG: 300}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	goal, err := svc.CalorieGoal(ctx)
	if err != nil {
		t.Fatalf("CalorieGoal: %v", err)
	}
	if goal != 2500 {
		t.Fatalf("expected goal 2500, got %v", goal)
	}
}

func TestTargetsHandlers(t *testing.T) {
	handler := NewHandler(NewService(memory.NewKV(), 0))

	t.Run("get defaults", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/v1/nutrition/targets", nil)
		w := httptest.NewRecorder()
		handler.HandleGetTargets(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", w.Code)
		}

		var resp GetTargetsResponse
		json.NewDecoder(w.Body).Decode(&resp)
		if !resp.IsDefault || resp.Targets.CaloriesKcal != 2200 {
			t.Fatalf("expected default 2200 kcal, got %+v", resp)
		}
	})

	t.Run("invalid upsert", func(t *testing.T) {
		body, _ := json.Marshal(UpsertTargetsRequest{CaloriesKcal: 9000})
		req := httptest.NewRequest("PUT", "/v1/nutrition/targets", bytes.NewReader(body))
		w := httptest.NewRecorder()
		handler.HandleUpsertTargets(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d. Body: %s", w.Code, w.Body.String())
		}
	})

	t.Run("upsert then get", func(t *testing.T) {
		body, _ := json.Marshal(UpsertTargetsRequest{CaloriesKcal: 2000, ProteinG: 100, FatG: 60, CarbsG: 220})
		req := httptest.NewRequest("PUT", "/v1/nutrition/targets", bytes.NewReader(body))
		w := httptest.NewRecorder()
		handler.HandleUpsertTargets(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d. Body: %s", w.Code, w.Body.String())
		}

		getW := httptest.NewRecorder()
		handler.HandleGetTargets(getW, httptest.NewRequest("GET", "/v1/nutrition/targets", nil))

		var resp GetTargetsResponse
		json.NewDecoder(getW.Body).Decode(&resp)
		if resp.IsDefault || resp.Targets.CaloriesKcal != 2000 {
			t.Fatalf("expected stored 2000 kcal, got %+v", resp)
		}
	})
}
