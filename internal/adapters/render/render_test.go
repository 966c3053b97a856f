package render_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/okian/forceplate/internal/adapters/render"
	"github.com/okian/forceplate/internal/domain/metric"
	"github.com/okian/forceplate/internal/domain/severity"
	"github.com/okian/forceplate/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func sampleResult() *types.Result {
	entry := types.AthleteEntry{
		Name: "Avery Brooks", Position: "WR", Number: "11",
		Tier: severity.Critical, ReevalDate: "2025-09-10",
		Metrics: []types.Finding{{
			Metric: metric.IMTPPeakForce, Label: "Peak Vertical Force", Unit: "N",
			Current: 2800, BaselineMean: 3100, SWC: 40, Deviation: -300, DeviationUnits: 7.5,
			PercentChange: -9.68, Tier: severity.Critical,
		}},
	}
	flagged := types.CategoryReport{
		Number: 1, ID: "maximal_strength", Name: "Maximal Strength Capacity",
		TrendDescription: "IMTP Peak Vertical Force decreasing",
		WeightRoom:       []string{"Heavy squats 85-95% 1RM"},
		Field:            []string{"Resisted sprints"},
		Interpretation:   "Force ceiling is dropping.",
		ExecutionNote:    "Keep volume low.",
		Counts:           types.TierCounts{Critical: 1},
		Critical:         []types.AthleteEntry{entry},
	}
	quiet := types.CategoryReport{Number: 2, ID: "power_output", Name: "Power Output"}
	qc := types.QCSummary{Ingestion: types.NewIngestionQC(), Analysis: types.NewAnalysisQC()}
	qc.Ingestion.Sources = []types.SourceStats{{Name: "imtp.csv", Rows: 12, Accepted: 11, UnmappedColumns: []string{"Tags"}}}
	qc.Ingestion.Exclude(types.RowExclusion{Source: "imtp.csv", Line: 5, Reason: types.ReasonInvalidDate})
	qc.Analysis.ExcludeAthlete(types.AthleteExclusion{Athlete: "Casey Lin", Reason: types.ReasonInsufficientTests, Sessions: 3, Required: 5})

	return &types.Result{
		Window:     types.Window{Start: "2025-03-01", End: "2025-09-01"},
		Summary:    types.Summary{TotalAthletes: 4, AthletesAnalyzed: 3, AthletesFlagged: 1, CategoriesFlagged: 1},
		Categories: []types.CategoryReport{flagged, quiet},
		QC:         qc,
	}
}

func TestWriteText(t *testing.T) {
	Convey("Given a result with one flagged category", t, func() {
		var buf bytes.Buffer
		meta := render.Meta{Team: "Hawks", GeneratedAt: time.Date(2025, 9, 2, 0, 0, 0, 0, time.UTC)}
		err := render.WriteText(&buf, sampleResult(), meta)
		out := buf.String()

		Convey("Then the header and summary are printed", func() {
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "FORCE PLATE TRAINING REPORT")
			So(out, ShouldContainSubstring, "Team: Hawks")
			So(out, ShouldContainSubstring, "Report Date: September 02, 2025")
			So(out, ShouldContainSubstring, "Data Window: 2025-03-01 to 2025-09-01")
			So(out, ShouldContainSubstring, "Athletes Flagged: 1 (25.0%)")
		})

		Convey("Then phase lines are left out when unset", func() {
			So(out, ShouldNotContainSubstring, "Training Phase:")
			So(out, ShouldNotContainSubstring, "Next report:")
		})

		Convey("Then the flagged category lists athletes and recommendations", func() {
			So(out, ShouldContainSubstring, "CATEGORY 1: MAXIMAL STRENGTH CAPACITY")
			So(out, ShouldContainSubstring, "  * Heavy squats 85-95% 1RM")
			So(out, ShouldContainSubstring, "[Critical] Avery Brooks (#11, WR) re-evaluate 2025-09-10")
			So(out, ShouldContainSubstring, "Peak Vertical Force: 2800 N vs baseline 3100 (-7.5 SWC, -9.7%, critical)")
			So(out, ShouldContainSubstring, "Distribution: 1 Critical | 0 Warning | 0 Caution")
			So(out, ShouldContainSubstring, "EXECUTION NOTE:\n  Keep volume low.")
		})

		Convey("Then quiet categories and QC are listed", func() {
			So(out, ShouldContainSubstring, "  - Category 2: Power Output")
			So(out, ShouldNotContainSubstring, "CATEGORY 2:")
			So(out, ShouldContainSubstring, "imtp.csv: 11 of 12 rows accepted")
			So(out, ShouldContainSubstring, "unmapped columns: Tags")
			So(out, ShouldContainSubstring, "rows excluded (invalid_date): 1")
			So(out, ShouldContainSubstring, "athlete excluded: Casey Lin (insufficient_tests, 3 of 5 tests)")
			So(strings.TrimSpace(out), ShouldEndWith, strings.Repeat("=", render.Width))
		})

		Convey("Then every line fits the report width", func() {
			for _, line := range strings.Split(out, "\n") {
				if strings.HasPrefix(line, "=") || strings.HasPrefix(line, "-") {
					So(len(line), ShouldEqual, render.Width)
				}
			}
		})
	})
}

func TestWriteTextPhases(t *testing.T) {
	Convey("Given training phases in the report header", t, func() {
		var buf bytes.Buffer
		meta := render.Meta{
			Team:        "Hawks",
			Phase:       "Fall Training Block",
			NextPhase:   "Winter Preparation Phase",
			GeneratedAt: time.Date(2025, 9, 2, 0, 0, 0, 0, time.UTC),
		}
		So(render.WriteText(&buf, sampleResult(), meta), ShouldBeNil)
		out := buf.String()

		Convey("Then the header lists both phases around the data window", func() {
			So(out, ShouldContainSubstring, "Report Date: September 02, 2025\n"+
				"Training Phase: Fall Training Block\n"+
				"Data Window: 2025-03-01 to 2025-09-01\n"+
				"Next Phase: Winter Preparation Phase\n")
		})

		Convey("Then the footer names the next report", func() {
			So(out, ShouldContainSubstring, "Next report: End of Winter Preparation Phase")
			So(strings.Index(out, "Next report:"), ShouldBeGreaterThan, strings.Index(out, "QUALITY"))
		})
	})
}

func TestWriteJSON(t *testing.T) {
	Convey("Given a result", t, func() {
		var buf bytes.Buffer
		err := render.Write(&buf, render.JSON, sampleResult(), render.Meta{})

		Convey("Then it encodes with tier names", func() {
			So(err, ShouldBeNil)
			var decoded map[string]any
			So(json.Unmarshal(buf.Bytes(), &decoded), ShouldBeNil)
			cats := decoded["categories"].([]any)
			first := cats[0].(map[string]any)
			crit := first["critical"].([]any)[0].(map[string]any)
			So(crit["tier"], ShouldEqual, "critical")
		})
	})

	Convey("Given invalid input", t, func() {
		_, err := render.ParseFormat("pdf")
		So(errors.Is(err, render.ErrUnknownFormat), ShouldBeTrue)
		So(errors.Is(render.Write(&bytes.Buffer{}, render.Text, nil, render.Meta{}), render.ErrNilResult), ShouldBeTrue)

		f, err := render.ParseFormat(" JSON ")
		So(err, ShouldBeNil)
		So(f.ContentType(), ShouldEqual, "application/json")
	})
}
