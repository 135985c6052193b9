// Package snapshot returns the full nutrition analysis stored with a ledger
// entry, or synthesizes a minimal one when the stored text is missing or
// unusable.
package snapshot

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/fdg312/nutrition-ledger/internal/ledger"
)

const (
	FallbackHealthScore = 50
	FallbackPortionText = "Standard portion (estimated)"
)

// Snapshot is a full nutrition analysis document. Stored documents are kept
// verbatim so fields this service does not model survive the round trip.
type Snapshot struct {
	data     json.RawMessage
	fallback bool
}

// Data returns the JSON document.
func (s Snapshot) Data() json.RawMessage {
	return s.data
}

// IsFallback reports whether the document was synthesized.
func (s Snapshot) IsFallback() bool {
	return s.fallback
}

// Name returns foodData.name.
func (s Snapshot) Name() string {
	return gjson.GetBytes(s.data, "foodData.name").String()
}

// HealthScore returns foodData.healthScore, 0 when absent.
func (s Snapshot) HealthScore() float64 {
	return gjson.GetBytes(s.data, "foodData.healthScore").Float()
}

// EstimatedWeight returns foodData.portionInfo.estimatedWeight.
func (s Snapshot) EstimatedWeight() float64 {
	return gjson.GetBytes(s.data, "foodData.portionInfo.estimatedWeight").Float()
}

func (s Snapshot) MarshalJSON() ([]byte, error) {
	if len(s.data) == 0 {
		return []byte("null"), nil
	}
	return s.data, nil
}

type document struct {
	FoodData   foodData `json:"foodData"`
	IsFallback bool     `json:"isFallback"`
}

type foodData struct {
	Name         string      `json:"name"`
	Calories     float64     `json:"calories"`
	Protein      float64     `json:"protein"`
	Fat          float64     `json:"fat"`
	Carbs        float64     `json:"carbs"`
	Sugar        float64     `json:"sugar"`
	Fiber        float64     `json:"fiber,omitempty"`
	SaturatedFat float64     `json:"saturatedFat,omitempty"`
	HealthScore  int         `json:"healthScore"`
	PortionInfo  portionInfo `json:"portionInfo"`
	Vitamins     []string    `json:"vitamins"`
	Minerals     []string    `json:"minerals"`
	Ingredients  []string    `json:"ingredients"`
	Allergens    []string    `json:"allergens"`
}

type portionInfo struct {
	Description     string  `json:"description"`
	EstimatedWeight float64 `json:"estimatedWeight"`
}

// Valid reports whether raw is a JSON object carrying a foodData object with
// a non-empty name.
func Valid(raw string) bool {
	if strings.TrimSpace(raw) == "" || !gjson.Valid(raw) {
		return false
	}
	root := gjson.Parse(raw)
	if !root.IsObject() {
		return false
	}
	food := root.Get("foodData")
	if !food.IsObject() {
		return false
	}
	name := food.Get("name")
	return name.Type == gjson.String && strings.TrimSpace(name.String()) != ""
}

// Reconstruct never fails: an invalid stored snapshot yields the fallback.
func Reconstruct(e ledger.Entry) Snapshot {
	raw := string(e.FullSnapshotRef)
	if Valid(raw) {
		return Snapshot{data: json.RawMessage(raw)}
	}
	return Fallback(e)
}

// Fallback synthesizes a schema-complete snapshot from the entry's summary
// fields.
func Fallback(e ledger.Entry) Snapshot {
	weight := e.BaseReferenceWeight
	if weight <= 0 {
		weight = ledger.DefaultReferenceWeight
	}

	doc := document{
		FoodData: foodData{
			Name:         e.Name,
			Calories:     e.Calories,
			Protein:      e.Protein,
			Fat:          e.Fat,
			Carbs:        e.Carbs,
			Sugar:        e.Sugar,
			Fiber:        e.Fiber,
			SaturatedFat: e.SaturatedFat,
			HealthScore:  FallbackHealthScore,
			PortionInfo: portionInfo{
				Description:     FallbackPortionText,
				EstimatedWeight: weight,
			},
			Vitamins:    []string{},
			Minerals:    []string{},
			Ingredients: []string{},
			Allergens:   []string{},
		},
		IsFallback: true,
	}

	// document has only plain fields; Marshal cannot fail here.
	data, _ := json.Marshal(doc)
	return Snapshot{data: data, fallback: true}
}
