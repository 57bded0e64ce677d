// Package domain contains the core entities, derived view types and ports of
// the weight tracker client.
package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire and display format of calendar dates.
const DateLayout = "2006-01-02"

// Date is a calendar day without a time component.
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar day.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts "2006-01-02" or a timestamp whose first ten characters
// are a date (the backend may serialize dates as datetimes).
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(DateLayout) {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return NewDate(t), nil
		}
		if c := s[len(DateLayout)]; c != 'T' && c != ' ' {
			return Date{}, fmt.Errorf("invalid date %q", s)
		}
		s = s[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MarshalJSON encodes the date as "YYYY-MM-DD", or null when unset.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts null, a date or a timestamp string.
func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Measurement is a single weigh-in as returned by the backend. Weight is in
// kilograms.
type Measurement struct {
	ID     int64   `json:"id,omitempty"`
	UserID int64   `json:"user_id,omitempty"`
	Name   string  `json:"name,omitempty"`
	Date   Date    `json:"measurement_date"`
	Weight float64 `json:"weight"`
	Notes  string  `json:"notes,omitempty"`
}

// MeasurementInput is the payload of a new measurement.
type MeasurementInput struct {
	UserID int64   `json:"user_id,omitempty"`
	Date   Date    `json:"measurement_date"`
	Weight float64 `json:"weight"`
	Notes  string  `json:"notes"`
}

// MeasurementPatch is a partial update; nil fields are left untouched.
type MeasurementPatch struct {
	Date   *Date    `json:"measurement_date,omitempty"`
	Weight *float64 `json:"weight,omitempty"`
	Notes  *string  `json:"notes,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p MeasurementPatch) Empty() bool {
	return p.Date == nil && p.Weight == nil && p.Notes == nil
}
