// Package portion turns a user's portion selection into the scalar applied to
// a product's reference nutrient values and the nutrients contributed by
// add-ons.
package portion

import (
	"github.com/fdg312/nutrition-ledger/internal/nutrition"
)

type Size string

const (
	SizeSmall   Size = "small"
	SizeRegular Size = "regular"
	SizeLarge   Size = "large"
)

type Eaten string

const (
	EatenAll           Eaten = "all"
	EatenThreeQuarters Eaten = "three_quarters"
	EatenHalf          Eaten = "half"
	EatenThird         Eaten = "third"
	EatenQuarter       Eaten = "quarter"
	EatenTenth         Eaten = "tenth"
	EatenSip           Eaten = "sip"
)

type Preparation string

const (
	PreparationRaw     Preparation = "raw"
	PreparationFried   Preparation = "fried"
	PreparationBaked   Preparation = "baked"
	PreparationBoiled  Preparation = "boiled"
	PreparationGrilled Preparation = "grilled"
	PreparationSteamed Preparation = "steamed"
)

// Addons counts extra units added on top of the product.
type Addons struct {
	Sauce  int `json:"sauce,omitempty"`
	Sugar  int `json:"sugar,omitempty"`
	Oil    int `json:"oil,omitempty"`
	Cream  int `json:"cream,omitempty"`
	Cheese int `json:"cheese,omitempty"`
	Nuts   int `json:"nuts,omitempty"`
}

// Spec is the transient portion selection made when logging a product.
type Spec struct {
	Size        Size        `json:"portionSize"`
	Quantity    int         `json:"quantity"`
	Eaten       Eaten       `json:"quantityEaten"`
	Addons      Addons      `json:"addons"`
	Preparation Preparation `json:"preparationMethod,omitempty"`
}

var sizeFactors = map[Size]float64{
	SizeSmall:   0.7,
	SizeRegular: 1.0,
	SizeLarge:   1.5,
}

var eatenFactors = map[Eaten]float64{
	EatenAll:           1.0,
	EatenThreeQuarters: 0.75,
	EatenHalf:          0.5,
	EatenThird:         0.33,
	EatenQuarter:       0.25,
	EatenTenth:         0.1,
	EatenSip:           0.05,
}

// Per-unit add-on contributions.
var (
	sauceUnit  = nutrition.Nutrients{Calories: 30, Protein: 1, Fat: 1, Carbs: 3}
	sugarUnit  = nutrition.Nutrients{Calories: 12, Carbs: 3, Sugar: 3}
	oilUnit    = nutrition.Nutrients{Calories: 45, Fat: 5}
	creamUnit  = nutrition.Nutrients{Calories: 50, Protein: 0.5, Fat: 5, Carbs: 0.5, Sugar: 0.5}
	cheeseUnit = nutrition.Nutrients{Calories: 40, Protein: 2.5, Fat: 3.2, Carbs: 0.2}
	nutsUnit   = nutrition.Nutrients{Calories: 60, Protein: 2, Fat: 5, Carbs: 2, Sugar: 0.5}
)

// SizeFactor maps a portion size to its factor; unknown sizes count as regular.
func SizeFactor(s Size) float64 {
	if f, ok := sizeFactors[s]; ok {
		return f
	}
	return 1.0
}

// EatenFactor maps the eaten fraction to its factor; unknown values count as all.
func EatenFactor(e Eaten) float64 {
	if f, ok := eatenFactors[e]; ok {
		return f
	}
	return 1.0
}

// Multiplier returns size * eaten * quantity. A non-positive quantity counts
// as one item so the result is always positive.
func Multiplier(spec Spec) float64 {
	quantity := spec.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	return SizeFactor(spec.Size) * EatenFactor(spec.Eaten) * float64(quantity)
}

// AddonDelta sums the fixed per-unit contribution of every add-on.
func AddonDelta(a Addons) nutrition.Nutrients {
	var total nutrition.Nutrients
	total = total.Add(sauceUnit.Scale(units(a.Sauce)))
	total = total.Add(sugarUnit.Scale(units(a.Sugar)))
	total = total.Add(oilUnit.Scale(units(a.Oil)))
	total = total.Add(creamUnit.Scale(units(a.Cream)))
	total = total.Add(cheeseUnit.Scale(units(a.Cheese)))
	total = total.Add(nutsUnit.Scale(units(a.Nuts)))
	return total
}

func units(n int) float64 {
	if n < 0 {
		return 0
	}
	return float64(n)
}
