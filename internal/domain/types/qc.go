package types

import "sort"

// Reason names why a row, athlete or metric was excluded or coerced.
type Reason string

// Row exclusion reasons.
const (
	ReasonInvalidDate         Reason = "invalid_date"
	ReasonMissingAthlete      Reason = "missing_athlete"
	ReasonInsufficientMetrics Reason = "insufficient_metrics"
	ReasonDuplicate           Reason = "duplicate"
	ReasonNotInRoster         Reason = "not_in_roster"
	ReasonOutsideWindow       Reason = "outside_window"
)

// Value coercion reasons. The value becomes missing; the row survives.
const (
	ReasonNonNumeric Reason = "non_numeric"
	ReasonOutOfRange Reason = "out_of_range"
)

// Athlete and metric exclusion reasons.
const (
	ReasonInsufficientTests Reason = "insufficient_tests"
	ReasonNoTests           Reason = "no_tests"
	ReasonInsufficientData  Reason = "insufficient_data"
	ReasonZeroVariance      Reason = "zero_variance"
)

// QCSummary reports everything dropped or altered on the way to a result.
type QCSummary struct {
	Ingestion IngestionQC `json:"ingestion"`
	Analysis  AnalysisQC  `json:"analysis"`
}

// IngestionQC is filled by the data preparer.
type IngestionQC struct {
	Sources           []SourceStats  `json:"sources"`
	RowExclusions     []RowExclusion `json:"row_exclusions"`
	ExcludedByReason  map[Reason]int `json:"excluded_by_reason"`
	Coercions         map[Reason]int `json:"coercions"`
	CoercionsByMetric map[string]int `json:"coercions_by_metric"`
	UnmatchedAthletes []string       `json:"unmatched_athletes"`
	MissingTestTypes  []string       `json:"missing_test_types"`
	RosterSize        int            `json:"roster_size"`
	RosterIssues      []RosterIssue  `json:"roster_issues,omitempty"`
}

// SourceStats describes one input table.
type SourceStats struct {
	Name            string   `json:"name"`
	Rows            int      `json:"rows"`
	Accepted        int      `json:"accepted"`
	UnmappedColumns []string `json:"unmapped_columns"`
	MissingColumns  []string `json:"missing_columns"`
}

// RowExclusion is one dropped input row.
type RowExclusion struct {
	Source  string `json:"source"`
	Line    int    `json:"line"`
	Athlete string `json:"athlete,omitempty"`
	Reason  Reason `json:"reason"`
	Detail  string `json:"detail,omitempty"`
}

// RosterIssue is a roster row that could not be used.
type RosterIssue struct {
	Line   int    `json:"line"`
	Name   string `json:"name,omitempty"`
	Detail string `json:"detail"`
}

// AnalysisQC is filled by the engine.
type AnalysisQC struct {
	AthleteExclusions []AthleteExclusion `json:"athlete_exclusions"`
	MetricExclusions  []MetricExclusion  `json:"metric_exclusions"`
	ExcludedByReason  map[Reason]int     `json:"excluded_by_reason"`
}

// AthleteExclusion is an athlete left out of every category.
type AthleteExclusion struct {
	Athlete  string `json:"athlete"`
	Reason   Reason `json:"reason"`
	Sessions int    `json:"sessions"`
	Required int    `json:"required"`
}

// MetricExclusion is an athlete metric without a usable baseline.
type MetricExclusion struct {
	Athlete string `json:"athlete"`
	Metric  string `json:"metric"`
	Reason  Reason `json:"reason"`
	Samples int    `json:"samples"`
}

// NewIngestionQC returns an empty summary with initialised maps.
func NewIngestionQC() IngestionQC {
	return IngestionQC{
		ExcludedByReason:  make(map[Reason]int),
		Coercions:         make(map[Reason]int),
		CoercionsByMetric: make(map[string]int),
	}
}

// Exclude records a dropped row.
func (q *IngestionQC) Exclude(e RowExclusion) {
	q.RowExclusions = append(q.RowExclusions, e)
	q.ExcludedByReason[e.Reason]++
}

// Coerce records a value turned into missing.
func (q *IngestionQC) Coerce(reason Reason, field string) {
	q.Coercions[reason]++
	q.CoercionsByMetric[field]++
}

// Excluded is the total of dropped rows.
func (q IngestionQC) Excluded() int { return len(q.RowExclusions) }

// SortedReasons returns the keys of counts in name order.
func SortedReasons(counts map[Reason]int) []Reason {
	out := make([]Reason, 0, len(counts))
	for r := range counts {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// NewAnalysisQC returns an empty summary with initialised maps.
func NewAnalysisQC() AnalysisQC {
	return AnalysisQC{ExcludedByReason: make(map[Reason]int)}
}

// ExcludeAthlete records an athlete exclusion.
func (q *AnalysisQC) ExcludeAthlete(e AthleteExclusion) {
	q.AthleteExclusions = append(q.AthleteExclusions, e)
	q.ExcludedByReason[e.Reason]++
}

// ExcludeMetric records a metric exclusion.
func (q *AnalysisQC) ExcludeMetric(e MetricExclusion) {
	q.MetricExclusions = append(q.MetricExclusions, e)
	q.ExcludedByReason[e.Reason]++
}
