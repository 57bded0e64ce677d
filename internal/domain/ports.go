package domain

import (
	"context"
	"io"
)

// ResourceReader is the read side fanned out on every refresh epoch.
type ResourceReader interface {
	FetchMeasurements(ctx context.Context) ([]Measurement, error)
	FetchGoals(ctx context.Context) ([]Goal, error)
	FetchTrends(ctx context.Context) (*TrendSummary, error)
}

// MeasurementWriter is the port for measurement mutations.
type MeasurementWriter interface {
	CreateMeasurement(ctx context.Context, in MeasurementInput) error
	UpdateMeasurement(ctx context.Context, id int64, patch MeasurementPatch) error
	DeleteMeasurement(ctx context.Context, id int64) error
}

// GoalWriter is the port for goal creation.
type GoalWriter interface {
	CreateGoal(ctx context.Context, in GoalInput) (*Goal, error)
}

// Transfer is the port for CSV import and export.
type Transfer interface {
	ImportCSV(ctx context.Context, filename string, r io.Reader) error
	ExportCSV(ctx context.Context) ([]byte, error)
}

// AuthAPI is the port for the backend's auth endpoints.
type AuthAPI interface {
	Login(ctx context.Context, c Credentials) (string, error)
	// Register returns the new user and, when the backend issues one, an
	// access token.
	Register(ctx context.Context, r Registration) (*User, string, error)
	Me(ctx context.Context) (*User, error)
	UpdateMe(ctx context.Context, u ProfileUpdate) (*User, error)
}

// Invalidator is signalled after every successful mutation.
type Invalidator interface {
	Invalidate()
}

// Resetter supersedes any in-flight refresh, used when the session changes.
type Resetter interface {
	Reset()
}
