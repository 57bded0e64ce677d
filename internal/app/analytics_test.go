package app_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lesniewskii/weight-tracker/internal/app"
	"github.com/lesniewskii/weight-tracker/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func TestMerge_GoalOverlayIgnoresSeriesRange(t *testing.T) {
	series, deltas := app.BuildSeries([]domain.Measurement{
		measurement(t, 1, "2024-01-01", 80),
		measurement(t, 2, "2024-01-08", 78.5),
	})
	goals := []domain.Goal{
		{ID: 7, TargetWeight: 70, TargetDate: date(t, "2030-06-01"), StartWeight: 80},
		{ID: 8, TargetWeight: 75, TargetDate: date(t, "2010-01-01"), StartWeight: 90},
	}

	vm := app.Merge(series, deltas, nil, goals, domain.UnitKg)

	require.Len(t, vm.Overlays, 2)
	assert.Equal(t, 70.0, vm.Overlays[0].Y)
	assert.Equal(t, int64(7), vm.Overlays[0].GoalID)
	assert.Equal(t, "Goal: 70.0 kg by 2030-06-01", vm.Overlays[0].Label)
	assert.Equal(t, 75.0, vm.Overlays[1].Y)
	assert.Equal(t, goals, vm.Goals)
}

func TestMerge_OverlayWithoutSeries(t *testing.T) {
	vm := app.Merge(nil, nil, nil, []domain.Goal{{ID: 1, TargetWeight: 70}}, "")
	require.Len(t, vm.Overlays, 1)
	assert.Equal(t, 70.0, vm.Overlays[0].Y)
	assert.Equal(t, "Goal: 70.0 kg", vm.Overlays[0].Label)
	assert.Equal(t, domain.UnitKg, vm.Unit)
	assert.NotNil(t, vm.Series)
	assert.NotNil(t, vm.Deltas)
}

func TestMerge_TrendAvailability(t *testing.T) {
	trend := &domain.TrendSummary{
		AverageWeight:     ptr(79.25),
		Slope:             ptr(0.0),
		TotalMeasurements: ptr(2),
		StartDate:         ptr(date(t, "2024-01-01")),
	}
	vm := app.Merge(nil, nil, trend, nil, domain.UnitKg)

	assert.Equal(t, domain.Known(79.25), vm.Trend.AverageWeight)
	assert.Equal(t, domain.Known(0.0), vm.Trend.Slope, "zero is a value, not unavailable")
	assert.Equal(t, domain.Known(2), vm.Trend.TotalMeasurements)
	assert.False(t, vm.Trend.BMI.Available)
	assert.False(t, vm.Trend.CurrentStreak.Available)
	assert.False(t, vm.Trend.EndDate.Available)

	b, err := json.Marshal(vm.Trend)
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.Equal(t, "unavailable", raw["bmi"])
	assert.Equal(t, 0.0, raw["slope"])
}

func TestMerge_NilTrendIsUnavailable(t *testing.T) {
	vm := app.Merge(nil, nil, nil, nil, domain.UnitKg)
	assert.Equal(t, domain.TrendView{}, vm.Trend)
}

func TestMerge_DisplayUnit(t *testing.T) {
	series, deltas := app.BuildSeries([]domain.Measurement{
		measurement(t, 1, "2024-01-01", 100),
		measurement(t, 2, "2024-01-02", 99),
	})
	trend := &domain.TrendSummary{AverageWeight: ptr(100.0), BMI: ptr(24.1)}
	goals := []domain.Goal{{ID: 1, TargetWeight: 90}}

	vm := app.Merge(series, deltas, trend, goals, domain.UnitLb)

	assert.Equal(t, domain.UnitLb, vm.Unit)
	assert.Equal(t, 220.46, vm.Series[0].Weight)
	assert.Equal(t, -2.2, vm.Deltas[0].Change)
	assert.Equal(t, 198.42, vm.Overlays[0].Y)
	assert.Equal(t, domain.Known(220.46), vm.Trend.AverageWeight)
	assert.Equal(t, domain.Known(24.1), vm.Trend.BMI)
	assert.Equal(t, 90.0, vm.Goals[0].TargetWeight)
	assert.Equal(t, 100.0, series[0].Weight, "input series must not be converted in place")
}

func TestMerge_DisplayUnitDeltasFollowSeries(t *testing.T) {
	series, deltas := app.BuildSeries([]domain.Measurement{
		measurement(t, 1, "2024-01-01", 80.004),
		measurement(t, 2, "2024-01-02", 80.01),
		measurement(t, 3, "2024-01-03", 79.333),
		measurement(t, 4, "2024-01-04", 81.777),
	})

	vm := app.Merge(series, deltas, nil, nil, domain.UnitLb)

	assert.Equal(t, 176.38, vm.Series[0].Weight)
	assert.Equal(t, 176.39, vm.Series[1].Weight)
	require.Len(t, vm.Deltas, len(vm.Series)-1)
	assert.Equal(t, 0.01, vm.Deltas[0].Change)
	for i, d := range vm.Deltas {
		want := math.Round((vm.Series[i+1].Weight-vm.Series[i].Weight)*100) / 100
		assert.InDelta(t, want, d.Change, 1e-9, "delta %d", i)
		assert.Equal(t, vm.Series[i+1].Date, d.Date)
	}
}
