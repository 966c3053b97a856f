// Package model contains the domain records passed between the preparer,
// the engine and the adapters. Values are treated as read-only once a
// Dataset has been built.
package model

import (
	"sort"
	"time"

	"github.com/okian/forceplate/internal/domain/metric"
)

// TestRecord is one athlete's result for one test on one day.
type TestRecord struct {
	Athlete string                // exact roster name
	Date    time.Time             // UTC, truncated to the day
	Test    metric.TestType       // CMJ or IMTP
	Values  map[metric.ID]float64 // absent key = missing value
	Source  string                // input source name, e.g. "cmj"
	Line    int                   // 1-based line in the source, header is line 1
}

// Value returns the metric value and whether it is present.
func (r TestRecord) Value(id metric.ID) (float64, bool) {
	v, ok := r.Values[id]
	return v, ok
}

// Athlete carries roster metadata.
type Athlete struct {
	Name     string `json:"name"`
	Sport    string `json:"sport,omitempty"`
	Position string `json:"position,omitempty"`
	Number   string `json:"number,omitempty"`
	InRoster bool   `json:"in_roster"`
}

// Sample is a dated metric value.
type Sample struct {
	Date  time.Time
	Value float64
}

// Dataset is the canonical table handed to the engine.
type Dataset struct {
	Records     []TestRecord
	Athletes    []Athlete
	WindowStart time.Time
	WindowEnd   time.Time

	byAthlete map[string][]TestRecord
	roster    map[string]Athlete
}

// NewDataset orders records by athlete, date and test type, orders
// athletes by name and builds lookup indexes.
func NewDataset(records []TestRecord, athletes []Athlete, windowStart, windowEnd time.Time) *Dataset {
	recs := make([]TestRecord, len(records))
	copy(recs, records)
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if a.Athlete != b.Athlete {
			return a.Athlete < b.Athlete
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.Test < b.Test
	})

	aths := make([]Athlete, len(athletes))
	copy(aths, athletes)
	sort.SliceStable(aths, func(i, j int) bool { return aths[i].Name < aths[j].Name })

	d := &Dataset{
		Records:     recs,
		Athletes:    aths,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		byAthlete:   make(map[string][]TestRecord),
		roster:      make(map[string]Athlete, len(aths)),
	}
	for _, r := range recs {
		d.byAthlete[r.Athlete] = append(d.byAthlete[r.Athlete], r)
	}
	for _, a := range aths {
		d.roster[a.Name] = a
	}
	return d
}

// RecordsFor returns the athlete's records in chronological order.
func (d *Dataset) RecordsFor(name string) []TestRecord {
	return d.byAthlete[name]
}

// Athlete returns roster metadata for name.
func (d *Dataset) Athlete(name string) (Athlete, bool) {
	a, ok := d.roster[name]
	return a, ok
}

// HasTestType reports whether any record of type t survived preparation.
func (d *Dataset) HasTestType(t metric.TestType) bool {
	for _, r := range d.Records {
		if r.Test == t {
			return true
		}
	}
	return false
}

// SessionCount is the number of distinct test dates in records.
func SessionCount(records []TestRecord) int {
	seen := make(map[time.Time]struct{}, len(records))
	for _, r := range records {
		seen[r.Date] = struct{}{}
	}
	return len(seen)
}

// Series extracts the chronological non-missing values of id.
func Series(records []TestRecord, id metric.ID) []Sample {
	var out []Sample
	for _, r := range records {
		if v, ok := r.Value(id); ok {
			out = append(out, Sample{Date: r.Date, Value: v})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
