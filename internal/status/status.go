// Package status classifies a day's calorie consumption against a goal.
package status

// Status is the calorie status of one day.
type Status string

const (
	Empty  Status = "empty"
	Under  Status = "under"
	Normal Status = "normal"
	Over   Status = "over"
)

// Tolerance around the goal that still counts as normal.
const (
	lowerBound = 0.95
	upperBound = 1.05
)

// Classify maps consumed kcal against goal kcal. Callers must pass goal > 0.
func Classify(consumed, goal float64) Status {
	switch {
	case consumed <= 0:
		return Empty
	case consumed > goal*upperBound:
		return Over
	case consumed >= goal*lowerBound:
		return Normal
	default:
		return Under
	}
}
