package domain

import (
	"fmt"
	"strings"
)

const kgToLb = 2.2046226218

// Display units. Weights are always stored and fetched in kilograms.
const (
	UnitKg = "kg"
	UnitLb = "lb"
)

// ConvertWeight converts a weight value between "kg" and "lb".
// Returns v unchanged if from == to or if the units are unrecognised.
func ConvertWeight(v float64, from, to string) float64 {
	if from == to {
		return v
	}
	if from == UnitKg && to == UnitLb {
		return v * kgToLb
	}
	if from == UnitLb && to == UnitKg {
		return v / kgToLb
	}
	return v
}

// ParseUnit normalizes a display unit name. Empty means kilograms.
func ParseUnit(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "kg", "kgs", "kilograms":
		return UnitKg, nil
	case "lb", "lbs", "pounds":
		return UnitLb, nil
	default:
		return "", fmt.Errorf("unit must be %q or %q, got %q", UnitKg, UnitLb, s)
	}
}
