package domain

import "encoding/json"

// TrendSummary is the backend-computed aggregate for the current user. Every
// field is optional so an absent value is distinct from zero.
type TrendSummary struct {
	AverageWeight     *float64 `json:"average_weight"`
	BMI               *float64 `json:"bmi"`
	Slope             *float64 `json:"slope"`
	TotalMeasurements *int     `json:"total_measurements"`
	CurrentStreak     *int     `json:"current_streak"`
	StartDate         *Date    `json:"start_date"`
	EndDate           *Date    `json:"end_date"`
}

// Unavailable is the JSON marker emitted for a value the backend did not
// provide.
const Unavailable = "unavailable"

// Field is a value that may be unavailable.
type Field[T any] struct {
	Value     T
	Available bool
}

// Known wraps v as an available field.
func Known[T any](v T) Field[T] {
	return Field[T]{Value: v, Available: true}
}

// FieldOf converts an optional pointer into a Field.
func FieldOf[T any](p *T) Field[T] {
	if p == nil {
		return Field[T]{}
	}
	return Known(*p)
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.Available {
		return json.Marshal(Unavailable)
	}
	return json.Marshal(f.Value)
}

func (f *Field[T]) UnmarshalJSON(b []byte) error {
	var marker string
	if json.Unmarshal(b, &marker) == nil && marker == Unavailable {
		*f = Field[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = Known(v)
	return nil
}
