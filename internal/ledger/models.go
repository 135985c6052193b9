package ledger

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fdg312/nutrition-ledger/internal/datekey"
	"github.com/fdg312/nutrition-ledger/internal/nutrition"
	"github.com/fdg312/nutrition-ledger/internal/portion"
)

// DefaultReferenceWeight is the basis, in the product's natural unit, that
// unscaled nutrient values refer to.
const DefaultReferenceWeight = 100

// RawText holds serialized JSON. It decodes from either a JSON string or an
// inline JSON value and always encodes as a string.
type RawText string

func (r *RawText) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*r = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = RawText(s)
		return nil
	}
	*r = RawText(b)
	return nil
}

// ProductSnapshot is the product as delivered by the scan/recognition side.
// Nutrient values are per reference weight (100 units unless fullData says
// otherwise).
type ProductSnapshot struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Calories     float64 `json:"calories"`
	Protein      float64 `json:"protein"`
	Fat          float64 `json:"fat"`
	Carbs        float64 `json:"carbs"`
	Sugar        float64 `json:"sugar,omitempty"`
	Fiber        float64 `json:"fiber,omitempty"`
	SaturatedFat float64 `json:"saturatedFat,omitempty"`
	Image        string  `json:"image,omitempty"`
	FullData     RawText `json:"fullData,omitempty"`
}

// Nutrients returns the unscaled reference values.
func (p ProductSnapshot) Nutrients() nutrition.Nutrients {
	return nutrition.Nutrients{
		Calories:     p.Calories,
		Protein:      p.Protein,
		Fat:          p.Fat,
		Carbs:        p.Carbs,
		Sugar:        p.Sugar,
		Fiber:        p.Fiber,
		SaturatedFat: p.SaturatedFat,
	}
}

// AppendRequest describes one consumption to record. Portion takes
// precedence over Multiplier; with neither set the product counts once.
type AppendRequest struct {
	Product    ProductSnapshot `json:"product"`
	Portion    *portion.Spec   `json:"portion,omitempty"`
	Multiplier float64         `json:"multiplier,omitempty"`
}

// Entry is one recorded, already scaled consumption event.
type Entry struct {
	ID                  string        `json:"id"`
	ProductID           string        `json:"productId,omitempty"`
	Name                string        `json:"name"`
	ServingMultiplier   float64       `json:"servingMultiplier"`
	BaseReferenceWeight float64       `json:"baseReferenceWeight"`
	Calories            float64       `json:"calories"`
	Protein             float64       `json:"protein"`
	Fat                 float64       `json:"fat"`
	Carbs               float64       `json:"carbs"`
	Sugar               float64       `json:"sugar"`
	Fiber               float64       `json:"fiber"`
	SaturatedFat        float64       `json:"saturatedFat"`
	Portion             *portion.Spec `json:"portion,omitempty"`
	ImageRef            string        `json:"image,omitempty"`
	CreatedAt           int64         `json:"createdAt,omitempty"` // epoch ms, 0 for legacy entries
	FullSnapshotRef     RawText       `json:"fullData,omitempty"`
}

// Nutrients returns the scaled values recorded on the entry.
func (e Entry) Nutrients() nutrition.Nutrients {
	return nutrition.Nutrients{
		Calories:     e.Calories,
		Protein:      e.Protein,
		Fat:          e.Fat,
		Carbs:        e.Carbs,
		Sugar:        e.Sugar,
		Fiber:        e.Fiber,
		SaturatedFat: e.SaturatedFat,
	}
}

// UnmarshalJSON reconciles the record shapes written by older clients:
// renamed fields, numbers stored as strings, second/ISO timestamps.
func (e *Entry) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	*e = Entry{
		ID:                  firstString(raw, "id", "entryId"),
		ProductID:           firstString(raw, "productId"),
		Name:                firstString(raw, "name"),
		ServingMultiplier:   firstNumber(raw, "servingMultiplier", "servings", "multiplier"),
		BaseReferenceWeight: firstNumber(raw, "baseReferenceWeight"),
		Calories:            firstNumber(raw, "calories", "kcal"),
		Protein:             firstNumber(raw, "protein"),
		Fat:                 firstNumber(raw, "fat"),
		Carbs:               firstNumber(raw, "carbs"),
		Sugar:               firstNumber(raw, "sugar"),
		Fiber:               firstNumber(raw, "fiber"),
		SaturatedFat:        firstNumber(raw, "saturatedFat"),
		ImageRef:            firstString(raw, "image", "imageUri"),
		CreatedAt:           firstTimestamp(raw, "createdAt", "timestamp"),
	}

	if e.ServingMultiplier <= 0 {
		e.ServingMultiplier = 1
	}
	if e.BaseReferenceWeight <= 0 {
		e.BaseReferenceWeight = DefaultReferenceWeight
	}

	if v, ok := raw["fullData"]; ok {
		var text RawText
		if err := json.Unmarshal(v, &text); err == nil {
			e.FullSnapshotRef = text
		}
	}

	if v, ok := raw["portion"]; ok {
		var spec portion.Spec
		if err := json.Unmarshal(v, &spec); err == nil {
			e.Portion = &spec
		}
	}

	return nil
}

// DayLedger is the entry list and totals of one calendar day.
type DayLedger struct {
	Date    datekey.Key         `json:"date"`
	Entries []Entry             `json:"entries"`
	Totals  nutrition.Nutrients `json:"totals"`
}

// NewDayLedger returns an empty ledger for date.
func NewDayLedger(date datekey.Key) DayLedger {
	return DayLedger{
		Date:    date,
		Entries: []Entry{},
	}
}

func (d *DayLedger) UnmarshalJSON(b []byte) error {
	var raw struct {
		Date    string               `json:"date"`
		Entries []Entry              `json:"entries"`
		Items   []Entry              `json:"items"`
		Totals  *nutrition.Nutrients `json:"totals"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	date := datekey.Key(strings.TrimSpace(raw.Date))
	if k, err := datekey.ParseLoose(raw.Date); err == nil {
		date = k
	}

	entries := raw.Entries
	if entries == nil {
		entries = raw.Items
	}
	if entries == nil {
		entries = []Entry{}
	}

	*d = DayLedger{Date: date, Entries: entries}
	if raw.Totals != nil {
		d.Totals = *raw.Totals
	} else {
		d.Totals = SumEntries(entries)
	}

	return nil
}

// SumEntries is the authoritative totals computation: a full resum over
// entries with storage precision applied.
func SumEntries(entries []Entry) nutrition.Nutrients {
	var total nutrition.Nutrients
	for _, e := range entries {
		total = total.Add(e.Nutrients())
	}
	return total.Rounded()
}

// Recompute replaces Totals with the resum of Entries.
func (d *DayLedger) Recompute() {
	d.Totals = SumEntries(d.Entries)
}

// Ordered returns entries by creation time. When any entry lacks a
// timestamp the stored order is kept.
func (d DayLedger) Ordered() []Entry {
	out := make([]Entry, len(d.Entries))
	copy(out, d.Entries)
	for _, e := range out {
		if e.CreatedAt == 0 {
			return out
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt < out[j].CreatedAt
	})
	return out
}

// Collection is the full persisted state: one DayLedger per date.
type Collection []DayLedger

// Find returns the ledger for date and its index, or -1.
func (c Collection) Find(date datekey.Key) (DayLedger, int) {
	for i, d := range c {
		if d.Date == date {
			return d, i
		}
	}
	return DayLedger{}, -1
}

// Upsert returns a collection with day replacing the ledger of the same date.
func (c Collection) Upsert(day DayLedger) Collection {
	out := make(Collection, len(c), len(c)+1)
	copy(out, c)
	if _, i := out.Find(day.Date); i >= 0 {
		out[i] = day
		return out
	}
	return append(out, day)
}

// mergeDuplicates folds days sharing a date into the first one, entries
// appended in stored order and totals recomputed. Legacy ISO dates decode to
// the same key as their canonical form.
func (c Collection) mergeDuplicates() Collection {
	out := make(Collection, 0, len(c))
	index := make(map[datekey.Key]int, len(c))
	for _, d := range c {
		i, seen := index[d.Date]
		if !seen {
			index[d.Date] = len(out)
			out = append(out, d)
			continue
		}
		entries := make([]Entry, 0, len(out[i].Entries)+len(d.Entries))
		entries = append(entries, out[i].Entries...)
		entries = append(entries, d.Entries...)
		out[i].Entries = entries
		out[i].Recompute()
	}
	return out
}

// SortedDesc returns a copy sorted newest date first.
func (c Collection) SortedDesc() Collection {
	out := make(Collection, len(c))
	copy(out, c)
	sort.SliceStable(out, func(i, j int) bool {
		return datekey.Compare(out[i].Date, out[j].Date) > 0
	})
	return out
}

func firstString(raw map[string]json.RawMessage, keys ...string) string {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			return s
		}
		var n json.Number
		if err := json.Unmarshal(v, &n); err == nil {
			return n.String()
		}
	}
	return ""
}

func firstNumber(raw map[string]json.RawMessage, keys ...string) float64 {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok {
			continue
		}
		var f float64
		if err := json.Unmarshal(v, &f); err == nil {
			return f
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
				return f
			}
		}
	}
	return 0
}

// Timestamps below this are taken as epoch seconds.
const secondsCutoff = 100_000_000_000

func firstTimestamp(raw map[string]json.RawMessage, keys ...string) int64 {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok {
			continue
		}
		var f float64
		if err := json.Unmarshal(v, &f); err == nil && f > 0 {
			if f < secondsCutoff {
				return int64(f * 1000)
			}
			return int64(f)
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			s = strings.TrimSpace(s)
			if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
				return t.UnixMilli()
			}
			if n, err := strconv.ParseInt(s, 10, 64); err == nil && n > 0 {
				if n < secondsCutoff {
					return n * 1000
				}
				return n
			}
		}
	}
	return 0
}
