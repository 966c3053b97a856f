package service

import (
	"time"

	"github.com/okian/forceplate/internal/domain/model"
	"github.com/okian/forceplate/internal/domain/types"
	"github.com/okian/forceplate/pkg/metrics"
)

// recordRun exports the counts of one completed run.
func recordRun(records []model.TestRecord, res *types.Result, elapsed time.Duration) {
	byTest := make(map[string]int)
	for _, r := range records {
		byTest[string(r.Test)]++
	}
	for t, n := range byTest {
		metrics.RecordRecordsLoaded(t, n)
	}

	ing := res.QC.Ingestion
	for _, e := range ing.RowExclusions {
		metrics.RecordRecordsExcluded(e.Source, string(e.Reason), 1)
	}
	for reason, n := range ing.Coercions {
		metrics.RecordValuesCoerced(string(reason), n)
	}
	for _, src := range ing.Sources {
		if n := len(src.UnmappedColumns); n > 0 {
			metrics.RecordUnmappedColumns(src.Name, n)
		}
	}

	for _, e := range res.QC.Analysis.MetricExclusions {
		metrics.RecordBaselineExcluded(string(e.Reason))
	}
	for _, e := range res.QC.Analysis.AthleteExclusions {
		metrics.RecordAthleteExcluded(string(e.Reason))
	}

	baselines, suppressed := 0, 0
	for _, a := range res.Athletes {
		baselines += len(a.Findings)
		suppressed += len(a.Suppressed)
		for _, f := range a.Findings {
			metrics.RecordAssessment(f.Tier.String())
		}
		for _, as := range a.Assignments {
			metrics.RecordCategoryAssignment(as.Category, as.Tier.String())
		}
	}
	metrics.RecordBaselinesComputed(baselines)
	metrics.RecordClusterOverrides(suppressed)

	metrics.RecordReportGenerated()
	metrics.RecordRunDuration(float64(elapsed.Microseconds()) / 1000)
	metrics.UpdateAthleteCounts(res.Summary.AthletesAnalyzed, res.Summary.AthletesFlagged)
}
