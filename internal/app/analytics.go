package app

import (
	"fmt"

	"github.com/lesniewskii/weight-tracker/internal/domain"
)

// Merge combines one epoch's series, trend summary and goals into a
// ViewModel. A nil trend, or nil fields within it, are marked unavailable.
// Weights are converted from kilograms to unit; goals keep their backend
// values while their overlays follow the display unit.
func Merge(series []domain.SeriesPoint, deltas []domain.DeltaPoint, trend *domain.TrendSummary, goals []domain.Goal, unit string) domain.ViewModel {
	if unit == "" {
		unit = domain.UnitKg
	}
	vm := domain.ViewModel{
		Unit:     unit,
		Series:   make([]domain.SeriesPoint, len(series)),
		Deltas:   make([]domain.DeltaPoint, len(deltas)),
		Trend:    trendView(trend, unit),
		Goals:    make([]domain.Goal, len(goals)),
		Overlays: make([]domain.GoalOverlay, 0, len(goals)),
	}
	for i, p := range series {
		vm.Series[i] = domain.SeriesPoint{Date: p.Date, Weight: convert(p.Weight, unit)}
	}
	// changes are taken between the converted points so they agree with
	// the displayed series
	for i, d := range deltas {
		if unit != domain.UnitKg && i+1 < len(vm.Series) {
			d.Change = round2(vm.Series[i+1].Weight - vm.Series[i].Weight)
		}
		vm.Deltas[i] = d
	}
	copy(vm.Goals, goals)
	for _, g := range goals {
		vm.Overlays = append(vm.Overlays, goalOverlay(g, unit))
	}
	return vm
}

// goalOverlay projects a goal onto a horizontal line. The target date only
// labels the line, so goals outside the plotted range are still drawn.
func goalOverlay(g domain.Goal, unit string) domain.GoalOverlay {
	y := convert(g.TargetWeight, unit)
	label := fmt.Sprintf("Goal: %.1f %s", y, unit)
	if !g.TargetDate.IsZero() {
		label += " by " + g.TargetDate.String()
	}
	return domain.GoalOverlay{
		GoalID:     g.ID,
		Y:          y,
		TargetDate: g.TargetDate,
		Label:      label,
	}
}

func trendView(t *domain.TrendSummary, unit string) domain.TrendView {
	if t == nil {
		return domain.TrendView{}
	}
	v := domain.TrendView{
		BMI:               domain.FieldOf(t.BMI),
		TotalMeasurements: domain.FieldOf(t.TotalMeasurements),
		CurrentStreak:     domain.FieldOf(t.CurrentStreak),
		StartDate:         domain.FieldOf(t.StartDate),
		EndDate:           domain.FieldOf(t.EndDate),
	}
	if t.AverageWeight != nil {
		v.AverageWeight = domain.Known(convert(*t.AverageWeight, unit))
	}
	if t.Slope != nil {
		v.Slope = domain.Known(domain.ConvertWeight(*t.Slope, domain.UnitKg, unit))
	}
	return v
}

func convert(kg float64, unit string) float64 {
	if unit == domain.UnitKg {
		return kg
	}
	return round2(domain.ConvertWeight(kg, domain.UnitKg, unit))
}
