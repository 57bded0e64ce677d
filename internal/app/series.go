package app

import (
	"math"
	"sort"

	"github.com/lesniewskii/weight-tracker/internal/domain"
)

// BuildSeries orders measurements by date and derives the change between
// each pair of adjacent points. Ties keep their input order. The input slice
// is not modified.
func BuildSeries(ms []domain.Measurement) ([]domain.SeriesPoint, []domain.DeltaPoint) {
	series := make([]domain.SeriesPoint, len(ms))
	for i, m := range ms {
		series[i] = domain.SeriesPoint{Date: m.Date, Weight: m.Weight}
	}
	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Date.Before(series[j].Date.Time)
	})

	if len(series) < 2 {
		return series, []domain.DeltaPoint{}
	}
	deltas := make([]domain.DeltaPoint, 0, len(series)-1)
	for i := 0; i+1 < len(series); i++ {
		from, to := series[i], series[i+1]
		deltas = append(deltas, domain.DeltaPoint{
			Date:        to.Date,
			Change:      round2(to.Weight - from.Weight),
			PeriodLabel: periodLabel(from.Date, to.Date),
		})
	}
	return series, deltas
}

func periodLabel(from, to domain.Date) string {
	return from.String() + " - " + to.String()
}

func round2(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 {
		// avoid "-0" in output
		return 0
	}
	return r
}
