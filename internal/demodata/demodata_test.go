package demodata_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/okian/forceplate/internal/adapters/source"
	"github.com/okian/forceplate/internal/demodata"
	"github.com/okian/forceplate/internal/domain/engine"
	"github.com/okian/forceplate/internal/domain/prepare"
	"github.com/okian/forceplate/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGenerate(t *testing.T) {
	Convey("Given the default configuration", t, func() {
		cfg := demodata.DefaultConfig()
		a, err := demodata.Generate(cfg)
		So(err, ShouldBeNil)

		Convey("Then the shape matches the configuration", func() {
			So(len(a.Roster.Rows), ShouldEqual, demodata.DefaultAthletes)
			So(len(a.CMJ.Rows), ShouldEqual, demodata.DefaultAthletes*demodata.DefaultTests)
			So(len(a.IMTP.Rows), ShouldEqual, demodata.DefaultAthletes*demodata.DefaultTests)
			So(a.CMJ.Rows[len(a.CMJ.Rows)-1][1], ShouldEqual, "2025-09-01")
		})

		Convey("Then the same seed gives the same data", func() {
			b, err := demodata.Generate(cfg)
			So(err, ShouldBeNil)
			So(b.CMJ.Rows, ShouldResemble, a.CMJ.Rows)
			So(b.Declines, ShouldResemble, a.Declines)
		})

		Convey("Then the preparer accepts every row", func() {
			ds, qc := prepare.New().Prepare(prepare.Input{CMJ: a.CMJ, IMTP: a.IMTP, Roster: a.Roster})
			So(qc.Excluded(), ShouldEqual, 0)
			So(qc.UnmatchedAthletes, ShouldBeEmpty)
			So(qc.Sources[0].MissingColumns, ShouldBeEmpty)
			So(qc.Sources[1].MissingColumns, ShouldBeEmpty)
			So(len(ds.Records), ShouldEqual, 2*demodata.DefaultAthletes*demodata.DefaultTests)
		})
	})

	Convey("Given every athlete declining", t, func() {
		a, err := demodata.Generate(demodata.Config{Athletes: 8, Tests: 12, DeclineShare: 1, Seed: 7})
		So(err, ShouldBeNil)
		So(len(a.Declines), ShouldEqual, 8)

		Convey("Then the engine flags athletes", func() {
			ds, _ := prepare.New().Prepare(prepare.Input{CMJ: a.CMJ, IMTP: a.IMTP, Roster: a.Roster})
			res := engine.New().Evaluate(ds)
			So(res.Summary.AthletesAnalyzed, ShouldEqual, 8)
			So(res.Summary.AthletesFlagged, ShouldBeGreaterThan, 0)
		})
	})

	Convey("Given quality issues are requested", t, func() {
		a, err := demodata.Generate(demodata.Config{Athletes: 3, Tests: 6, QualityIssues: true, Seed: 1})
		So(err, ShouldBeNil)
		_, qc := prepare.New().Prepare(prepare.Input{CMJ: a.CMJ, IMTP: a.IMTP})

		Convey("Then they show up in the QC summary", func() {
			So(qc.ExcludedByReason[types.ReasonDuplicate], ShouldEqual, 1)
			So(qc.ExcludedByReason[types.ReasonInvalidDate], ShouldEqual, 1)
			So(qc.Coercions[types.ReasonNonNumeric], ShouldEqual, 1)
		})
	})

	Convey("Given invalid configurations", t, func() {
		for _, cfg := range []demodata.Config{
			{Athletes: 100},
			{Tests: 1},
			{DeclineShare: 1.5},
			{IntervalDays: -1},
		} {
			_, err := demodata.Generate(cfg)
			So(errors.Is(err, demodata.ErrInvalidConfig), ShouldBeTrue)
		}
	})
}

func TestWriteDir(t *testing.T) {
	Convey("Given a generated export", t, func() {
		a, err := demodata.Generate(demodata.Config{Athletes: 2, Tests: 3, Seed: 3})
		So(err, ShouldBeNil)

		for _, format := range []source.Format{source.CSV, source.XLSX} {
			Convey("When written as "+string(format), func() {
				dir := t.TempDir()
				paths, err := a.WriteDir(dir, format)
				So(err, ShouldBeNil)
				So(paths[0], ShouldEqual, filepath.Join(dir, "cmj."+string(format)))

				Convey("Then it reads back unchanged", func() {
					tbl, err := source.ReadFile(paths[2])
					So(err, ShouldBeNil)
					So(tbl.Header, ShouldResemble, demodata.RosterHeader)
					So(tbl.Rows, ShouldResemble, a.Roster.Rows)
				})
			})
		}
	})
}
