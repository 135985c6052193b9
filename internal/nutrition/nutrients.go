package nutrition

import (
	"math"

	"github.com/shopspring/decimal"
)

// Nutrients is the bundle of tracked nutrient values. Calories are kcal,
// every other field is grams.
type Nutrients struct {
	Calories     float64 `json:"calories"`
	Protein      float64 `json:"protein"`
	Fat          float64 `json:"fat"`
	Carbs        float64 `json:"carbs"`
	Sugar        float64 `json:"sugar"`
	Fiber        float64 `json:"fiber"`
	SaturatedFat float64 `json:"saturatedFat"`
}

// Add returns the field-wise sum of n and o.
func (n Nutrients) Add(o Nutrients) Nutrients {
	return Nutrients{
		Calories:     n.Calories + o.Calories,
		Protein:      n.Protein + o.Protein,
		Fat:          n.Fat + o.Fat,
		Carbs:        n.Carbs + o.Carbs,
		Sugar:        n.Sugar + o.Sugar,
		Fiber:        n.Fiber + o.Fiber,
		SaturatedFat: n.SaturatedFat + o.SaturatedFat,
	}
}

// Scale multiplies every field by factor.
func (n Nutrients) Scale(factor float64) Nutrients {
	return Nutrients{
		Calories:     n.Calories * factor,
		Protein:      n.Protein * factor,
		Fat:          n.Fat * factor,
		Carbs:        n.Carbs * factor,
		Sugar:        n.Sugar * factor,
		Fiber:        n.Fiber * factor,
		SaturatedFat: n.SaturatedFat * factor,
	}
}

// Rounded applies the storage precision: whole kcal, one decimal for grams.
func (n Nutrients) Rounded() Nutrients {
	return Nutrients{
		Calories:     RoundCalories(n.Calories),
		Protein:      RoundGrams(n.Protein),
		Fat:          RoundGrams(n.Fat),
		Carbs:        RoundGrams(n.Carbs),
		Sugar:        RoundGrams(n.Sugar),
		Fiber:        RoundGrams(n.Fiber),
		SaturatedFat: RoundGrams(n.SaturatedFat),
	}
}

// IsZero reports whether every field is zero.
func (n Nutrients) IsZero() bool {
	return n == Nutrients{}
}

// RoundCalories rounds half away from zero to a whole kcal.
func RoundCalories(v float64) float64 {
	return roundPlaces(v, 0)
}

// RoundGrams rounds half away from zero to one decimal.
func RoundGrams(v float64) float64 {
	return roundPlaces(v, 1)
}

// roundPlaces goes through decimal so that values such as 0.15 round to 0.2
// rather than to the binary neighbour 0.1.
func roundPlaces(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
