package config

import (
	"github.com/okian/forceplate/internal/domain/baseline"
	"github.com/okian/forceplate/internal/domain/engine"
	"github.com/okian/forceplate/internal/domain/prepare"
	"github.com/okian/forceplate/internal/domain/rules"
	"github.com/okian/forceplate/internal/domain/severity"
)

// Table returns the default rule table with the configured overrides.
func (a Analysis) Table() (*rules.Table, error) {
	return rules.Default().WithOverrides(rules.Overrides{
		ReevalDays:         a.ReevalDays,
		AsymmetryThreshold: a.AsymmetryThresholdPercent,
		ClusterDropPercent: a.ClusterDropPercent,
	})
}

// Mapping returns the default column mapping extended with column_aliases.
func (a Analysis) Mapping() (prepare.Mapping, error) {
	return prepare.DefaultMapping().WithAliases(a.ColumnAliases)
}

// PreparerOptions converts the ingestion settings.
func (a Analysis) PreparerOptions() ([]prepare.Option, error) {
	m, err := a.Mapping()
	if err != nil {
		return nil, err
	}
	return []prepare.Option{
		prepare.WithMapping(m),
		prepare.WithMinMetricFraction(a.MinMetricFraction),
		prepare.WithRequireRosterMatch(a.RequireRosterMatch),
		prepare.WithDateRange(a.Start(), a.End()),
		prepare.WithMonthsToInclude(a.MonthsToInclude),
	}, nil
}

// EngineOptions converts the baseline and classification settings.
func (a Analysis) EngineOptions() ([]engine.Option, error) {
	table, err := a.Table()
	if err != nil {
		return nil, err
	}
	agg, err := baseline.ParseAggregation(a.CurrentAggregation)
	if err != nil {
		return nil, err
	}
	classifier, err := severity.NewClassifier(severity.Thresholds{
		Critical: a.SeverityThresholds.Critical,
		Warning:  a.SeverityThresholds.Warning,
		Caution:  a.SeverityThresholds.Caution,
	})
	if err != nil {
		return nil, err
	}
	calc := baseline.NewCalculator(
		baseline.WithSplitRatio(a.BaselineSplitRatio),
		baseline.WithSWCMultiplier(a.SWCMultiplier),
		baseline.WithMinSamples(a.MinBaselineSamples),
		baseline.WithAggregation(agg),
	)
	return []engine.Option{
		engine.WithTable(table),
		engine.WithCalculator(calc),
		engine.WithClassifier(classifier),
		engine.WithMinTestsPerAthlete(a.MinTestsPerAthlete),
	}, nil
}
