package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lesniewskii/weight-tracker/internal/app"
	"github.com/lesniewskii/weight-tracker/internal/domain"
)

func TestGoalCreate_Validation(t *testing.T) {
	inv := &countingInvalidator{}
	svc := app.NewGoalService(&fakeGoalWriter{
		createFn: func(_ context.Context, _ domain.GoalInput) (*domain.Goal, error) {
			t.Fatal("backend must not be called")
			return nil, nil
		},
	}, &fakeReader{}, inv, nil)

	tests := []struct {
		name          string
		start, target float64
		day           string
	}{
		{"zero start", 0, 70, "2024-06-01"},
		{"negative target", 80, -1, "2024-06-01"},
		{"bad date", 80, 70, "june"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.start, tc.target, tc.day)
			assert.Error(t, err)
		})
	}
	assert.Zero(t, inv.n)
}

func TestGoalCreate_Success(t *testing.T) {
	inv := &countingInvalidator{}
	svc := app.NewGoalService(&fakeGoalWriter{}, &fakeReader{}, inv, nil)

	g, err := svc.Create(context.Background(), 85, 75, "2024-12-31")
	require.NoError(t, err)
	assert.Equal(t, 75.0, g.TargetWeight)
	assert.Equal(t, 85.0, g.StartWeight)
	assert.Equal(t, "2024-12-31", g.TargetDate.String())
	assert.Equal(t, 1, inv.n)
}

func TestGoalCreate_BackendError(t *testing.T) {
	inv := &countingInvalidator{}
	svc := app.NewGoalService(&fakeGoalWriter{
		createFn: func(_ context.Context, _ domain.GoalInput) (*domain.Goal, error) {
			return nil, errors.New("Goal creation failed")
		},
	}, &fakeReader{}, inv, nil)

	_, err := svc.Create(context.Background(), 85, 75, "2024-12-31")
	assert.EqualError(t, err, "Goal creation failed")
	assert.Zero(t, inv.n)
}

func TestGoalList(t *testing.T) {
	reader := &fakeReader{
		goalsFn: func(_ context.Context) ([]domain.Goal, error) {
			return []domain.Goal{
				{ID: 1, TargetDate: date(t, "2024-03-01")},
				{ID: 2, TargetDate: date(t, "2025-01-01")},
			}, nil
		},
	}
	svc := app.NewGoalService(&fakeGoalWriter{}, reader, &countingInvalidator{}, nil)

	goals, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, goals, 2)
	assert.Equal(t, int64(2), goals[0].ID)
}
