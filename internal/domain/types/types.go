// Package types contains the result types shared by the engine and the adapters.
package types

import (
	"time"

	"github.com/okian/forceplate/internal/domain/metric"
	"github.com/okian/forceplate/internal/domain/model"
	"github.com/okian/forceplate/internal/domain/rules"
	"github.com/okian/forceplate/internal/domain/severity"
)

// DateLayout is the day format used in every result field.
const DateLayout = "2006-01-02"

// FormatDate renders a day, or "" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(DateLayout)
}

// Result is the full output of one engine run. It holds no wall-clock
// values so identical inputs encode identically.
type Result struct {
	Window     Window           `json:"window"`
	Parameters Parameters       `json:"parameters"`
	Summary    Summary          `json:"summary"`
	Categories []CategoryReport `json:"categories"`
	Athletes   []AthleteReport  `json:"athletes"`
	QC         QCSummary        `json:"qc"`
}

// Window is the analysed date range.
type Window struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// Parameters echoes the analysis settings the run used.
type Parameters struct {
	SplitRatio         float64             `json:"baseline_split_ratio"`
	SWCMultiplier      float64             `json:"swc_multiplier"`
	MinBaselineSamples int                 `json:"min_baseline_samples"`
	MinTestsPerAthlete int                 `json:"min_tests_per_athlete"`
	Aggregation        string              `json:"current_aggregation"`
	Thresholds         severity.Thresholds `json:"severity_thresholds"`
}

// Summary holds run totals.
type Summary struct {
	TotalAthletes     int        `json:"total_athletes"`
	AthletesAnalyzed  int        `json:"athletes_analyzed"`
	AthletesFlagged   int        `json:"athletes_flagged"`
	CategoriesFlagged int        `json:"categories_flagged"`
	Assignments       TierCounts `json:"assignments"`
}

// FlaggedPercent is the share of all athletes with at least one assignment.
func (s Summary) FlaggedPercent() float64 {
	if s.TotalAthletes == 0 {
		return 0
	}
	return float64(s.AthletesFlagged) / float64(s.TotalAthletes) * 100
}

// TierCounts counts flagged tiers.
type TierCounts struct {
	Critical int `json:"critical"`
	Warning  int `json:"warning"`
	Caution  int `json:"caution"`
}

// Add counts one occurrence of t. Normal is ignored.
func (c *TierCounts) Add(t severity.Tier) {
	switch t {
	case severity.Critical:
		c.Critical++
	case severity.Warning:
		c.Warning++
	case severity.Caution:
		c.Caution++
	}
}

// Total is the sum over all tiers.
func (c TierCounts) Total() int { return c.Critical + c.Warning + c.Caution }

// CategoryReport lists the athletes assigned to one category, grouped by tier.
type CategoryReport struct {
	Number           int            `json:"number"`
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Kind             rules.Kind     `json:"kind"`
	TrendDescription string         `json:"trend_description"`
	WeightRoom       []string       `json:"weight_room"`
	Field            []string       `json:"field"`
	Interpretation   string         `json:"interpretation"`
	ExecutionNote    string         `json:"execution_note"`
	ReevalDays       int            `json:"reeval_days"`
	Counts           TierCounts     `json:"counts"`
	Critical         []AthleteEntry `json:"critical"`
	Warning          []AthleteEntry `json:"warning"`
	Caution          []AthleteEntry `json:"caution"`
}

// Flagged reports whether anyone was assigned.
func (c CategoryReport) Flagged() bool { return c.Counts.Total() > 0 }

// Entries returns the athletes of tier t.
func (c CategoryReport) Entries(t severity.Tier) []AthleteEntry {
	switch t {
	case severity.Critical:
		return c.Critical
	case severity.Warning:
		return c.Warning
	case severity.Caution:
		return c.Caution
	}
	return nil
}

// Athletes returns every entry, most severe tier first.
func (c CategoryReport) Athletes() []AthleteEntry {
	out := make([]AthleteEntry, 0, c.Counts.Total())
	for _, t := range severity.Tiers() {
		out = append(out, c.Entries(t)...)
	}
	return out
}

// AthleteEntry is one athlete inside a category listing.
type AthleteEntry struct {
	Name       string        `json:"name"`
	Position   string        `json:"position,omitempty"`
	Sport      string        `json:"sport,omitempty"`
	Number     string        `json:"number,omitempty"`
	Tier       severity.Tier `json:"tier"`
	ReevalDate string        `json:"reeval_date"`
	Metrics    []Finding     `json:"metrics"`
}

// Finding is the serialisable form of a graded metric deviation.
type Finding struct {
	Metric          metric.ID        `json:"metric"`
	Label           string           `json:"label"`
	Unit            string           `json:"unit"`
	Direction       metric.Direction `json:"direction"`
	Current         float64          `json:"current"`
	CurrentDate     string           `json:"current_date"`
	BaselineMean    float64          `json:"baseline_mean"`
	BaselineSD      float64          `json:"baseline_sd"`
	BaselineSamples int              `json:"baseline_samples"`
	SWC             float64          `json:"swc"`
	Deviation       float64          `json:"deviation"`
	DeviationUnits  float64          `json:"deviation_units"`
	PercentChange   float64          `json:"percent_change"`
	Adverse         bool             `json:"adverse"`
	Tier            severity.Tier    `json:"tier"`
}

// NewFinding converts an assessment, adding catalog label and unit.
func NewFinding(a severity.Assessment) Finding {
	def, _ := metric.Lookup(a.Metric)
	return Finding{
		Metric:          a.Metric,
		Label:           def.Label,
		Unit:            def.Unit,
		Direction:       a.Direction,
		Current:         a.Current,
		CurrentDate:     FormatDate(a.CurrentDate),
		BaselineMean:    a.BaselineMean,
		BaselineSD:      a.BaselineSD,
		BaselineSamples: a.BaselineN,
		SWC:             a.SWC,
		Deviation:       a.Deviation,
		DeviationUnits:  a.DeviationUnits,
		PercentChange:   a.PercentChange,
		Adverse:         a.Adverse,
		Tier:            a.Tier,
	}
}

// Assignment places an athlete in a category.
type Assignment struct {
	Category   string        `json:"category"`
	Name       string        `json:"name"`
	Cluster    bool          `json:"cluster"`
	Tier       severity.Tier `json:"tier"`
	ReevalDate string        `json:"reeval_date"`
	Metrics    []Finding     `json:"metrics"`
}

// AthleteStatus tells whether an athlete went through analysis.
type AthleteStatus string

// Athlete statuses.
const (
	StatusAnalyzed AthleteStatus = "analyzed"
	StatusExcluded AthleteStatus = "excluded"
)

// AthleteReport is the per-athlete view of a run. Assignments are in
// priority order; Suppressed holds categories hidden by a cluster.
type AthleteReport struct {
	Athlete     model.Athlete `json:"athlete"`
	Status      AthleteStatus `json:"status"`
	Reason      Reason        `json:"reason,omitempty"`
	Sessions    int           `json:"sessions"`
	Assignments []Assignment  `json:"assignments"`
	Suppressed  []Assignment  `json:"suppressed,omitempty"`
	Findings    []Finding     `json:"findings"`
}

// Flagged reports whether the athlete has any visible assignment.
func (a AthleteReport) Flagged() bool { return len(a.Assignments) > 0 }

// Top returns the highest-priority assignment.
func (a AthleteReport) Top() (Assignment, bool) {
	if len(a.Assignments) == 0 {
		return Assignment{}, false
	}
	return a.Assignments[0], true
}
