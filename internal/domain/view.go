package domain

// SeriesPoint is one chronological sample derived from a Measurement.
type SeriesPoint struct {
	Date   Date    `json:"date"`
	Weight float64 `json:"weight"`
}

// DeltaPoint is the signed change between two adjacent series points. Date
// is the later of the two.
type DeltaPoint struct {
	Date        Date    `json:"date"`
	Change      float64 `json:"change"`
	PeriodLabel string  `json:"period_label"`
}

// GoalOverlay is a flat horizontal reference line at a goal's target weight.
type GoalOverlay struct {
	GoalID     int64   `json:"goal_id"`
	Y          float64 `json:"y"`
	TargetDate Date    `json:"target_date"`
	Label      string  `json:"label"`
}

// TrendView is a TrendSummary with every absent value marked unavailable.
type TrendView struct {
	AverageWeight     Field[float64] `json:"average_weight"`
	BMI               Field[float64] `json:"bmi"`
	Slope             Field[float64] `json:"slope"`
	TotalMeasurements Field[int]     `json:"total_measurements"`
	CurrentStreak     Field[int]     `json:"current_streak"`
	StartDate         Field[Date]    `json:"start_date"`
	EndDate           Field[Date]    `json:"end_date"`
}

// Section names one of the three resources fetched per refresh epoch.
type Section string

const (
	SectionMeasurements Section = "measurements"
	SectionGoals        Section = "goals"
	SectionTrends       Section = "trends"
)

// Sections lists every section in fan-out order.
var Sections = []Section{SectionMeasurements, SectionGoals, SectionTrends}

// Notice is an inline message shown in place of a section that failed to
// load.
type Notice struct {
	Section Section `json:"section"`
	Message string  `json:"message"`
}

// ViewModel is the render-ready result of one refresh epoch. All sections
// come from the same epoch.
type ViewModel struct {
	Epoch    uint64        `json:"epoch"`
	Unit     string        `json:"unit"`
	Series   []SeriesPoint `json:"series"`
	Deltas   []DeltaPoint  `json:"deltas"`
	Trend    TrendView     `json:"trend"`
	Goals    []Goal        `json:"goals"`
	Overlays []GoalOverlay `json:"overlays"`
	Notices  []Notice      `json:"notices,omitempty"`
}

// Notice returns the notice for section s, if any.
func (v *ViewModel) Notice(s Section) (Notice, bool) {
	for _, n := range v.Notices {
		if n.Section == s {
			return n, true
		}
	}
	return Notice{}, false
}
