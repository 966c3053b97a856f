// Package prepare turns raw vendor tables and a roster into the canonical
// dataset the engine consumes. Bad rows and values never fail a run: they
// are dropped or coerced to missing and reported in the QC summary.
package prepare

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/okian/forceplate/internal/domain/dedupe"
	"github.com/okian/forceplate/internal/domain/metric"
	"github.com/okian/forceplate/internal/domain/model"
	"github.com/okian/forceplate/internal/domain/types"
)

// Source names used in QC output.
const (
	SourceCMJ    = "cmj"
	SourceIMTP   = "imtp"
	SourceRoster = "roster"
)

// DefaultMinMetricFraction is the share of mapped metrics a row needs.
const DefaultMinMetricFraction = 0.5

// Table is a raw sheet: a header row and string cells.
type Table struct {
	Source string
	Header []string
	Rows   [][]string
}

// Input groups the tables of one run. Nil tables are treated as absent.
type Input struct {
	CMJ    *Table
	IMTP   *Table
	Roster *Table
}

func (in Input) tests(t metric.TestType) *Table {
	if t == metric.CMJ {
		return in.CMJ
	}
	return in.IMTP
}

// Preparer normalises input tables. It is stateless between calls.
type Preparer struct {
	mapping       Mapping
	minFraction   float64
	requireRoster bool
	start, end    time.Time
	months        int
}

// Option configures a Preparer.
type Option func(*Preparer)

// WithMapping replaces the column mapping.
func WithMapping(m Mapping) Option {
	return func(p *Preparer) {
		if len(m) > 0 {
			p.mapping = m
		}
	}
}

// WithMinMetricFraction sets the share of mapped metrics a row needs, in (0, 1].
func WithMinMetricFraction(f float64) Option {
	return func(p *Preparer) {
		if f > 0 && f <= 1 {
			p.minFraction = f
		}
	}
}

// WithRequireRosterMatch drops tests of athletes missing from the roster.
func WithRequireRosterMatch(v bool) Option {
	return func(p *Preparer) { p.requireRoster = v }
}

// WithDateRange fixes the analysis window. Zero values leave a bound open.
func WithDateRange(start, end time.Time) Option {
	return func(p *Preparer) {
		p.start, p.end = start, end
	}
}

// WithMonthsToInclude limits the window to n months before the end
// bound. Zero keeps all history.
func WithMonthsToInclude(n int) Option {
	return func(p *Preparer) {
		if n >= 0 {
			p.months = n
		}
	}
}

// New creates a preparer with the ForceDecks mapping and no window limit.
func New(opts ...Option) *Preparer {
	p := &Preparer{
		mapping:     DefaultMapping(),
		minFraction: DefaultMinMetricFraction,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Prepare builds the dataset and the ingestion QC summary.
func (p *Preparer) Prepare(in Input) (*model.Dataset, types.IngestionQC) {
	qc := types.NewIngestionQC()
	roster := p.readRoster(in.Roster, &qc)

	capacity := 0
	for _, t := range metric.TestTypes() {
		if tbl := in.tests(t); tbl != nil {
			capacity += len(tbl.Rows)
		}
	}
	dd := dedupe.NewInMemoryDeduper(dedupe.WithCapacity(capacity))

	unmatched := make(map[string]struct{})
	var records []model.TestRecord
	for _, t := range metric.TestTypes() {
		tbl := in.tests(t)
		if tbl == nil {
			continue
		}
		recs, stats := p.readTests(t, tbl, roster, dd, unmatched, &qc)
		records = append(records, recs...)
		qc.Sources = append(qc.Sources, stats)
	}

	start, end := p.window(records)
	kept := records[:0]
	accepted := make(map[string]int)
	for _, r := range records {
		if (!start.IsZero() && r.Date.Before(start)) || (!end.IsZero() && r.Date.After(end)) {
			qc.Exclude(types.RowExclusion{
				Source: r.Source, Line: r.Line, Athlete: r.Athlete,
				Reason: types.ReasonOutsideWindow, Detail: types.FormatDate(r.Date),
			})
			continue
		}
		kept = append(kept, r)
		accepted[r.Source]++
	}
	for i := range qc.Sources {
		qc.Sources[i].Accepted = accepted[qc.Sources[i].Name]
	}

	present := make(map[metric.TestType]bool)
	for _, r := range kept {
		present[r.Test] = true
	}
	for _, t := range metric.TestTypes() {
		if !present[t] {
			qc.MissingTestTypes = append(qc.MissingTestTypes, string(t))
		}
	}

	athletes := make([]model.Athlete, 0, len(roster.athletes)+len(unmatched))
	athletes = append(athletes, roster.athletes...)
	added := make(map[string]bool)
	for _, r := range kept {
		if _, ok := roster.byName[r.Athlete]; !ok && !added[r.Athlete] {
			added[r.Athlete] = true
			athletes = append(athletes, model.Athlete{Name: r.Athlete})
		}
	}
	if !roster.empty() {
		for name := range unmatched {
			qc.UnmatchedAthletes = append(qc.UnmatchedAthletes, name)
		}
		sort.Strings(qc.UnmatchedAthletes)
	}

	return model.NewDataset(kept, athletes, start, end), qc
}

type rosterIndex struct {
	athletes []model.Athlete
	byName   map[string]struct{}
}

func (r rosterIndex) empty() bool { return len(r.byName) == 0 }

func (p *Preparer) readRoster(tbl *Table, qc *types.IngestionQC) rosterIndex {
	idx := rosterIndex{byName: make(map[string]struct{})}
	if tbl == nil {
		return idx
	}
	nameCol := findColumn(tbl.Header, nameHeaders)
	if nameCol < 0 {
		qc.RosterIssues = append(qc.RosterIssues, types.RosterIssue{Line: 1, Detail: "no name column"})
		return idx
	}
	posCol := findColumn(tbl.Header, positionHeaders)
	sportCol := findColumn(tbl.Header, sportHeaders)
	numCol := findColumn(tbl.Header, numberHeaders)

	for i, row := range tbl.Rows {
		line := i + 2
		name := cell(row, nameCol)
		if strings.TrimSpace(name) == "" {
			qc.RosterIssues = append(qc.RosterIssues, types.RosterIssue{Line: line, Detail: "empty name"})
			continue
		}
		if _, dup := idx.byName[name]; dup {
			qc.RosterIssues = append(qc.RosterIssues, types.RosterIssue{Line: line, Name: name, Detail: "duplicate name"})
			continue
		}
		idx.byName[name] = struct{}{}
		idx.athletes = append(idx.athletes, model.Athlete{
			Name:     name,
			Position: strings.TrimSpace(cell(row, posCol)),
			Sport:    strings.TrimSpace(cell(row, sportCol)),
			Number:   strings.TrimSpace(cell(row, numCol)),
			InRoster: true,
		})
	}
	qc.RosterSize = len(idx.athletes)
	return idx
}

type boundColumn struct {
	index int
	col   Column
}

// bind resolves the header of a test table against the mapping.
func (p *Preparer) bind(t metric.TestType, header []string) ([]boundColumn, types.SourceStats) {
	var stats types.SourceStats
	var bound []boundColumn
	taken := make(map[metric.ID]bool)
	nameCol := findColumn(header, nameHeaders)
	dateCol := findColumn(header, dateHeaders)

	for i, h := range header {
		if i == nameCol || i == dateCol {
			continue
		}
		key := strings.TrimSpace(h)
		col, ok := p.mapping[key]
		def, known := metric.Lookup(col.Metric)
		if !ok || !known || def.Test != t || taken[col.Metric] {
			if key != "" {
				stats.UnmappedColumns = append(stats.UnmappedColumns, key)
			}
			continue
		}
		taken[col.Metric] = true
		bound = append(bound, boundColumn{index: i, col: col})
	}

	if nameCol < 0 {
		stats.MissingColumns = append(stats.MissingColumns, "name")
	}
	if dateCol < 0 {
		stats.MissingColumns = append(stats.MissingColumns, "date")
	}
	for _, d := range metric.ForTest(t) {
		if !taken[d.ID] {
			stats.MissingColumns = append(stats.MissingColumns, string(d.ID))
		}
	}
	return bound, stats
}

func (p *Preparer) readTests(
	t metric.TestType,
	tbl *Table,
	roster rosterIndex,
	dd dedupe.Deduper,
	unmatched map[string]struct{},
	qc *types.IngestionQC,
) ([]model.TestRecord, types.SourceStats) {
	source := tbl.Source
	if source == "" {
		source = strings.ToLower(string(t))
	}
	bound, stats := p.bind(t, tbl.Header)
	stats.Name = source
	stats.Rows = len(tbl.Rows)

	nameCol := findColumn(tbl.Header, nameHeaders)
	dateCol := findColumn(tbl.Header, dateHeaders)
	needed := int(math.Ceil(p.minFraction * float64(len(bound))))
	if needed < 1 {
		needed = 1
	}

	var out []model.TestRecord
	for i, row := range tbl.Rows {
		line := i + 2
		if isBlank(row) {
			stats.Rows--
			continue
		}
		name := cell(row, nameCol)
		if strings.TrimSpace(name) == "" {
			qc.Exclude(types.RowExclusion{Source: source, Line: line, Reason: types.ReasonMissingAthlete})
			continue
		}
		rawDate := cell(row, dateCol)
		date, ok := ParseDate(rawDate)
		if !ok {
			qc.Exclude(types.RowExclusion{
				Source: source, Line: line, Athlete: name,
				Reason: types.ReasonInvalidDate, Detail: rawDate,
			})
			continue
		}

		values := make(map[metric.ID]float64, len(bound))
		for _, b := range bound {
			v, present, reason := parseCell(cell(row, b.index), b.col)
			if reason != "" {
				qc.Coerce(reason, string(b.col.Metric))
				continue
			}
			if !present {
				continue
			}
			if !metric.MustLookup(b.col.Metric).InBounds(v) {
				qc.Coerce(types.ReasonOutOfRange, string(b.col.Metric))
				continue
			}
			values[b.col.Metric] = v
		}
		if len(bound) == 0 || len(values) < needed {
			qc.Exclude(types.RowExclusion{
				Source: source, Line: line, Athlete: name,
				Reason: types.ReasonInsufficientMetrics,
				Detail: fmt.Sprintf("%d of %d metrics", len(values), len(bound)),
			})
			continue
		}

		if _, ok := roster.byName[name]; !ok && !roster.empty() {
			unmatched[name] = struct{}{}
			if p.requireRoster {
				qc.Exclude(types.RowExclusion{
					Source: source, Line: line, Athlete: name, Reason: types.ReasonNotInRoster,
				})
				continue
			}
		}

		key := dedupe.Key{Athlete: name, Date: date, Test: t}
		if first, seen := dd.SeenAndRecord(key, line); seen {
			qc.Exclude(types.RowExclusion{
				Source: source, Line: line, Athlete: name,
				Reason: types.ReasonDuplicate, Detail: fmt.Sprintf("same session as line %d", first),
			})
			continue
		}

		out = append(out, model.TestRecord{
			Athlete: name,
			Date:    date,
			Test:    t,
			Values:  values,
			Source:  source,
			Line:    line,
		})
	}
	return out, stats
}

// window resolves the analysis bounds against the prepared records.
func (p *Preparer) window(records []model.TestRecord) (time.Time, time.Time) {
	var first, last time.Time
	for _, r := range records {
		if first.IsZero() || r.Date.Before(first) {
			first = r.Date
		}
		if last.IsZero() || r.Date.After(last) {
			last = r.Date
		}
	}
	start, end := p.start, p.end
	if end.IsZero() {
		end = last
	}
	if start.IsZero() {
		start = first
		if p.months > 0 && !end.IsZero() {
			start = end.AddDate(0, -p.months, 0)
		}
	}
	return start, end
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
