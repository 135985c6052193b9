package portion

import (
	"math"
	"testing"

	"github.com/fdg312/nutrition-ledger/internal/nutrition"
)

func TestMultiplier(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
		want float64
	}{
		{"large half two", Spec{Size: SizeLarge, Eaten: EatenHalf, Quantity: 2}, 1.5},
		{"regular all one", Spec{Size: SizeRegular, Eaten: EatenAll, Quantity: 1}, 1.0},
		{"small third", Spec{Size: SizeSmall, Eaten: EatenThird, Quantity: 1}, 0.7 * 0.33},
		{"sip of three", Spec{Size: SizeRegular, Eaten: EatenSip, Quantity: 3}, 0.15},
		{"unknown size and fraction", Spec{Size: "huge", Eaten: "most", Quantity: 2}, 2.0},
		{"zero quantity counts as one", Spec{Size: SizeLarge, Eaten: EatenAll}, 1.5},
		{"empty spec", Spec{}, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Multiplier(tt.spec)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("Multiplier(%+v)=%v, want %v", tt.spec, got, tt.want)
			}
			if got <= 0 {
				t.Fatalf("multiplier must be positive, got %v", got)
			}
		})
	}
}

func TestAddonDelta(t *testing.T) {
	got := AddonDelta(Addons{Sauce: 2, Sugar: 1, Oil: 1})
	want := nutrition.Nutrients{Calories: 117, Protein: 2, Fat: 7, Carbs: 9, Sugar: 3}
	if got.Rounded() != want {
		t.Fatalf("got %+v, want %+v", got.Rounded(), want)
	}

	if !AddonDelta(Addons{}).IsZero() {
		t.Fatal("expected zero delta without add-ons")
	}

	if !AddonDelta(Addons{Cheese: -3}).IsZero() {
		t.Fatal("expected negative counts to be ignored")
	}
}

func TestAddonDeltaEveryType(t *testing.T) {
	got := AddonDelta(Addons{Cream: 1, Cheese: 1, Nuts: 1}).Rounded()
	if got.Calories != 150 {
		t.Fatalf("expected 150 kcal, got %v", got.Calories)
	}
	if got.Fat != 13.2 {
		t.Fatalf("expected 13.2 g fat, got %v", got.Fat)
	}
}
