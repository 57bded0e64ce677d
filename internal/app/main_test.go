package app_test

import (
	"context"
	"io"
	"testing"

	"go.uber.org/goleak"

	"github.com/lesniewskii/weight-tracker/internal/domain"
)

// TestMain will run goleak after all tests have been run in the package
// to detect any goroutine leaks
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// ---------------------------------------------------------------------------
// Fakes (function-fields pattern)
// ---------------------------------------------------------------------------

type fakeReader struct {
	measurementsFn func(ctx context.Context) ([]domain.Measurement, error)
	goalsFn        func(ctx context.Context) ([]domain.Goal, error)
	trendsFn       func(ctx context.Context) (*domain.TrendSummary, error)
}

func (f *fakeReader) FetchMeasurements(ctx context.Context) ([]domain.Measurement, error) {
	if f.measurementsFn != nil {
		return f.measurementsFn(ctx)
	}
	return nil, nil
}

func (f *fakeReader) FetchGoals(ctx context.Context) ([]domain.Goal, error) {
	if f.goalsFn != nil {
		return f.goalsFn(ctx)
	}
	return nil, nil
}

func (f *fakeReader) FetchTrends(ctx context.Context) (*domain.TrendSummary, error) {
	if f.trendsFn != nil {
		return f.trendsFn(ctx)
	}
	return &domain.TrendSummary{}, nil
}

type fakeMeasurementWriter struct {
	createFn func(ctx context.Context, in domain.MeasurementInput) error
	updateFn func(ctx context.Context, id int64, patch domain.MeasurementPatch) error
	deleteFn func(ctx context.Context, id int64) error
}

func (f *fakeMeasurementWriter) CreateMeasurement(ctx context.Context, in domain.MeasurementInput) error {
	if f.createFn != nil {
		return f.createFn(ctx, in)
	}
	return nil
}

func (f *fakeMeasurementWriter) UpdateMeasurement(ctx context.Context, id int64, patch domain.MeasurementPatch) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, id, patch)
	}
	return nil
}

func (f *fakeMeasurementWriter) DeleteMeasurement(ctx context.Context, id int64) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return nil
}

type fakeGoalWriter struct {
	createFn func(ctx context.Context, in domain.GoalInput) (*domain.Goal, error)
}

func (f *fakeGoalWriter) CreateGoal(ctx context.Context, in domain.GoalInput) (*domain.Goal, error) {
	if f.createFn != nil {
		return f.createFn(ctx, in)
	}
	return &domain.Goal{ID: 1, StartWeight: in.StartWeight, TargetWeight: in.TargetWeight, TargetDate: in.TargetDate}, nil
}

type fakeTransfer struct {
	importFn func(ctx context.Context, name string, r io.Reader) error
	exportFn func(ctx context.Context) ([]byte, error)
}

func (f *fakeTransfer) ImportCSV(ctx context.Context, name string, r io.Reader) error {
	if f.importFn != nil {
		return f.importFn(ctx, name, r)
	}
	return nil
}

func (f *fakeTransfer) ExportCSV(ctx context.Context) ([]byte, error) {
	if f.exportFn != nil {
		return f.exportFn(ctx)
	}
	return []byte("measurement_date,weight,notes\n"), nil
}

type countingInvalidator struct {
	n int
}

func (c *countingInvalidator) Invalidate() { c.n++ }
