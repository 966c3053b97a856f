// Package engine classifies athletes into performance categories. Evaluate
// is a pure function of its dataset and configuration: it performs no I/O,
// reads no clock and iterates maps only through sorted keys.
package engine

import (
	"errors"
	"sort"
	"time"

	"github.com/okian/forceplate/internal/domain/baseline"
	"github.com/okian/forceplate/internal/domain/metric"
	"github.com/okian/forceplate/internal/domain/model"
	"github.com/okian/forceplate/internal/domain/rules"
	"github.com/okian/forceplate/internal/domain/severity"
	"github.com/okian/forceplate/internal/domain/types"
)

// DefaultMinTestsPerAthlete is the number of distinct test days an athlete
// needs to be analysed.
const DefaultMinTestsPerAthlete = 5

// Engine holds the immutable configuration of a classification run.
type Engine struct {
	table      *rules.Table
	calculator *baseline.Calculator
	classifier *severity.Classifier
	minTests   int
}

// Option configures an Engine.
type Option func(*Engine)

// WithTable replaces the default rule table.
func WithTable(t *rules.Table) Option {
	return func(e *Engine) {
		if t != nil {
			e.table = t
		}
	}
}

// WithCalculator replaces the default baseline calculator.
func WithCalculator(c *baseline.Calculator) Option {
	return func(e *Engine) {
		if c != nil {
			e.calculator = c
		}
	}
}

// WithClassifier replaces the default severity classifier.
func WithClassifier(c *severity.Classifier) Option {
	return func(e *Engine) {
		if c != nil {
			e.classifier = c
		}
	}
}

// WithMinTestsPerAthlete sets the minimum number of distinct test days.
func WithMinTestsPerAthlete(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.minTests = n
		}
	}
}

// New creates an engine with the default table, calculator and thresholds.
func New(opts ...Option) *Engine {
	classifier, _ := severity.NewClassifier(severity.DefaultThresholds())
	e := &Engine{
		table:      rules.Default(),
		calculator: baseline.NewCalculator(),
		classifier: classifier,
		minTests:   DefaultMinTestsPerAthlete,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Table returns the rule table in use.
func (e *Engine) Table() *rules.Table { return e.table }

// Parameters echoes the analysis settings.
func (e *Engine) Parameters() types.Parameters {
	return types.Parameters{
		SplitRatio:         e.calculator.SplitRatio(),
		SWCMultiplier:      e.calculator.SWCMultiplier(),
		MinBaselineSamples: e.calculator.MinSamples(),
		MinTestsPerAthlete: e.minTests,
		Aggregation:        string(e.calculator.Aggregation()),
		Thresholds:         e.classifier.Thresholds(),
	}
}

// estimate is a computed baseline and current value for one metric.
type estimate struct {
	base baseline.Baseline
	cur  baseline.Current
}

// Evaluate runs one classification pass over ds.
func (e *Engine) Evaluate(ds *model.Dataset) *types.Result {
	res := &types.Result{
		Window: types.Window{
			Start: types.FormatDate(ds.WindowStart),
			End:   types.FormatDate(ds.WindowEnd),
		},
		Parameters: e.Parameters(),
		QC:         types.QCSummary{Ingestion: types.NewIngestionQC(), Analysis: types.NewAnalysisQC()},
	}

	names := athleteNames(ds)
	tested := 0
	for _, name := range names {
		report := e.evaluateAthlete(ds, name, &res.QC.Analysis)
		if report.Sessions > 0 {
			tested++
		}
		if report.Status == types.StatusAnalyzed {
			res.Summary.AthletesAnalyzed++
		}
		if report.Flagged() {
			res.Summary.AthletesFlagged++
		}
		for _, a := range report.Assignments {
			res.Summary.Assignments.Add(a.Tier)
		}
		res.Athletes = append(res.Athletes, report)
	}
	res.Summary.TotalAthletes = tested

	res.Categories = e.categoryReports(res.Athletes)
	for _, c := range res.Categories {
		if c.Flagged() {
			res.Summary.CategoriesFlagged++
		}
	}
	return res
}

// athleteNames lists every athlete with tests or a roster entry, sorted.
func athleteNames(ds *model.Dataset) []string {
	seen := make(map[string]struct{})
	var names []string
	add := func(n string) {
		if _, ok := seen[n]; !ok {
			seen[n] = struct{}{}
			names = append(names, n)
		}
	}
	for _, a := range ds.Athletes {
		add(a.Name)
	}
	for _, r := range ds.Records {
		add(r.Athlete)
	}
	sort.Strings(names)
	return names
}

func (e *Engine) evaluateAthlete(ds *model.Dataset, name string, qc *types.AnalysisQC) types.AthleteReport {
	athlete, ok := ds.Athlete(name)
	if !ok {
		athlete = model.Athlete{Name: name}
	}
	records := ds.RecordsFor(name)
	report := types.AthleteReport{
		Athlete:     athlete,
		Sessions:    model.SessionCount(records),
		Assignments: []types.Assignment{},
		Findings:    []types.Finding{},
	}

	if report.Sessions == 0 {
		report.Status, report.Reason = types.StatusExcluded, types.ReasonNoTests
		qc.ExcludeAthlete(types.AthleteExclusion{
			Athlete: name, Reason: types.ReasonNoTests, Required: e.minTests,
		})
		return report
	}
	if report.Sessions < e.minTests {
		report.Status, report.Reason = types.StatusExcluded, types.ReasonInsufficientTests
		qc.ExcludeAthlete(types.AthleteExclusion{
			Athlete: name, Reason: types.ReasonInsufficientTests,
			Sessions: report.Sessions, Required: e.minTests,
		})
		return report
	}
	report.Status = types.StatusAnalyzed

	estimates := make(map[metric.ID]estimate)
	for _, id := range e.table.Metrics() {
		series := model.Series(records, id)
		if len(series) == 0 {
			continue
		}
		b, cur, err := e.calculator.Compute(series)
		if err != nil {
			reason := types.ReasonInsufficientData
			if errors.Is(err, baseline.ErrZeroVariance) {
				reason = types.ReasonZeroVariance
				// Absolute rules still read the current value of a flat series.
				estimates[id] = estimate{base: b, cur: cur}
			}
			qc.ExcludeMetric(types.MetricExclusion{
				Athlete: name, Metric: string(id), Reason: reason, Samples: len(series),
			})
			continue
		}
		estimates[id] = estimate{base: b, cur: cur}
		def := metric.MustLookup(id)
		report.Findings = append(report.Findings,
			types.NewFinding(e.classifier.Assess(id, def.Adverse, b, cur)))
	}

	var visible, suppressed []types.Assignment
	clustered := false
	for i := 0; i < e.table.Len(); i++ {
		cat := e.table.At(i)
		a, ok := e.qualify(cat, estimates)
		if !ok {
			continue
		}
		if cat.IsCluster() {
			clustered = true
		}
		visible = append(visible, a)
	}
	if clustered {
		kept := visible[:0:0]
		for _, a := range visible {
			if a.Cluster {
				kept = append(kept, a)
			} else {
				suppressed = append(suppressed, a)
			}
		}
		visible = kept
	}
	e.order(visible)
	e.order(suppressed)
	report.Assignments = append(report.Assignments, visible...)
	report.Suppressed = suppressed
	return report
}

// qualify applies one category to an athlete's estimates. Every condition
// must hold; a condition metric without an estimate fails the category.
func (e *Engine) qualify(cat rules.Category, estimates map[metric.ID]estimate) (types.Assignment, bool) {
	tier := severity.Normal
	var latest time.Time
	findings := make([]types.Finding, 0, len(cat.Conditions))

	for _, cond := range cat.Conditions {
		est, ok := estimates[cond.Metric]
		if !ok {
			return types.Assignment{}, false
		}
		a := e.classifier.Assess(cond.Metric, cond.Direction, est.base, est.cur)

		switch {
		case cat.Kind == rules.Absolute:
			if !(a.Current > cat.Threshold) {
				return types.Assignment{}, false
			}
			a.Tier = severity.Critical
		case cat.Kind == rules.Cluster && cat.DropPercent > 0:
			change := a.PercentChange * cond.Direction.Sign()
			if !(change > cat.DropPercent) || !a.Tier.Flagged() {
				return types.Assignment{}, false
			}
		default:
			if !a.Tier.Flagged() {
				return types.Assignment{}, false
			}
		}

		tier = severity.Max(tier, a.Tier)
		if a.CurrentDate.After(latest) {
			latest = a.CurrentDate
		}
		findings = append(findings, types.NewFinding(a))
	}

	return types.Assignment{
		Category:   cat.ID,
		Name:       cat.Name,
		Cluster:    cat.IsCluster(),
		Tier:       tier,
		ReevalDate: types.FormatDate(latest.AddDate(0, 0, cat.ReevalDays)),
		Metrics:    findings,
	}, true
}

// order sorts assignments: clusters first, then tier, then rule priority,
// then table position.
func (e *Engine) order(as []types.Assignment) {
	sort.SliceStable(as, func(i, j int) bool {
		a, b := as[i], as[j]
		if a.Cluster != b.Cluster {
			return a.Cluster
		}
		pa, pb := e.table.Position(a.Category), e.table.Position(b.Category)
		if a.Cluster {
			return pa < pb
		}
		if a.Tier != b.Tier {
			return a.Tier > b.Tier
		}
		ca, _ := e.table.Lookup(a.Category)
		cb, _ := e.table.Lookup(b.Category)
		if ca.Priority != cb.Priority {
			return ca.Priority < cb.Priority
		}
		return pa < pb
	})
}

// categoryReports groups visible assignments by category and tier.
func (e *Engine) categoryReports(athletes []types.AthleteReport) []types.CategoryReport {
	out := make([]types.CategoryReport, e.table.Len())
	for i, cat := range e.table.Categories() {
		out[i] = types.CategoryReport{
			Number:           i + 1,
			ID:               cat.ID,
			Name:             cat.Name,
			Kind:             cat.Kind,
			TrendDescription: cat.TrendDescription,
			WeightRoom:       cat.WeightRoom,
			Field:            cat.Field,
			Interpretation:   cat.Interpretation,
			ExecutionNote:    cat.ExecutionNote,
			ReevalDays:       cat.ReevalDays,
			Critical:         []types.AthleteEntry{},
			Warning:          []types.AthleteEntry{},
			Caution:          []types.AthleteEntry{},
		}
	}

	// athletes are already sorted by name, so appends keep each tier sorted.
	for _, ath := range athletes {
		for _, a := range ath.Assignments {
			i := e.table.Position(a.Category)
			entry := types.AthleteEntry{
				Name:       ath.Athlete.Name,
				Position:   ath.Athlete.Position,
				Sport:      ath.Athlete.Sport,
				Number:     ath.Athlete.Number,
				Tier:       a.Tier,
				ReevalDate: a.ReevalDate,
				Metrics:    a.Metrics,
			}
			c := &out[i]
			c.Counts.Add(a.Tier)
			switch a.Tier {
			case severity.Critical:
				c.Critical = append(c.Critical, entry)
			case severity.Warning:
				c.Warning = append(c.Warning, entry)
			case severity.Caution:
				c.Caution = append(c.Caution, entry)
			}
		}
	}
	return out
}
