package severity_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/okian/forceplate/internal/domain/baseline"
	"github.com/okian/forceplate/internal/domain/metric"
	"github.com/okian/forceplate/internal/domain/severity"
	. "github.com/smartystreets/goconvey/convey"
)

func TestThresholds(t *testing.T) {
	Convey("Given the default thresholds", t, func() {
		th := severity.DefaultThresholds()
		So(th.Validate(), ShouldBeNil)

		Convey("Then boundaries are strict", func() {
			So(th.Classify(1.0), ShouldEqual, severity.Normal)
			So(th.Classify(1.01), ShouldEqual, severity.Caution)
			So(th.Classify(1.5), ShouldEqual, severity.Caution)
			So(th.Classify(1.51), ShouldEqual, severity.Warning)
			So(th.Classify(2.0), ShouldEqual, severity.Warning)
			So(th.Classify(7.5), ShouldEqual, severity.Critical)
		})

		Convey("Then classification is monotonic in deviation units", func() {
			prev := severity.Normal
			for u := 0.0; u <= 5; u += 0.05 {
				got := th.Classify(u)
				So(int(got), ShouldBeGreaterThanOrEqualTo, int(prev))
				prev = got
			}
		})
	})

	Convey("Given misordered thresholds", t, func() {
		for _, th := range []severity.Thresholds{
			{Critical: 1.5, Warning: 2.0, Caution: 1.0},
			{Critical: 2.0, Warning: 1.0, Caution: 1.0},
			{Critical: 2.0, Warning: 1.5, Caution: 0},
		} {
			err := th.Validate()
			So(errors.Is(err, severity.ErrInvalidThresholds), ShouldBeTrue)
			_, err = severity.NewClassifier(th)
			So(err, ShouldNotBeNil)
		}
	})
}

func TestTier(t *testing.T) {
	Convey("Given the tiers", t, func() {
		So(int(severity.Critical), ShouldBeGreaterThan, int(severity.Warning))
		So(int(severity.Warning), ShouldBeGreaterThan, int(severity.Caution))
		So(int(severity.Caution), ShouldBeGreaterThan, int(severity.Normal))
		So(severity.Normal.Flagged(), ShouldBeFalse)
		So(severity.Max(severity.Caution, severity.Warning), ShouldEqual, severity.Warning)
		So(severity.Critical.Title(), ShouldEqual, "Critical")

		Convey("They encode by name", func() {
			b, err := json.Marshal(map[string]severity.Tier{"t": severity.Warning})
			So(err, ShouldBeNil)
			So(string(b), ShouldEqual, `{"t":"warning"}`)

			var back map[string]severity.Tier
			So(json.Unmarshal(b, &back), ShouldBeNil)
			So(back["t"], ShouldEqual, severity.Warning)

			_, err = severity.ParseTier("severe")
			So(errors.Is(err, severity.ErrUnknownTier), ShouldBeTrue)
		})
	})
}

func TestAssess(t *testing.T) {
	Convey("Given a classifier and an IMTP peak force baseline", t, func() {
		c, err := severity.NewClassifier(severity.DefaultThresholds())
		So(err, ShouldBeNil)
		b := baseline.Baseline{Mean: 3100, SD: 200, SWC: 40, Samples: 3}
		day := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)

		Convey("When the current value drops to 2800", func() {
			a := c.Assess(metric.IMTPPeakForce, metric.Decrease, b, baseline.Current{Value: 2800, Date: day})

			Convey("Then it is a critical decline", func() {
				So(a.Deviation, ShouldAlmostEqual, -300, 1e-9)
				So(a.DeviationUnits, ShouldAlmostEqual, 7.5, 1e-9)
				So(a.PercentChange, ShouldAlmostEqual, -9.677, 1e-3)
				So(a.Adverse, ShouldBeTrue)
				So(a.Tier, ShouldEqual, severity.Critical)
				So(a.CurrentDate, ShouldEqual, day)
			})
		})

		Convey("When the current value rises by the same amount", func() {
			a := c.Assess(metric.IMTPPeakForce, metric.Decrease, b, baseline.Current{Value: 3400, Date: day})
			So(a.DeviationUnits, ShouldAlmostEqual, 7.5, 1e-9)
			So(a.Adverse, ShouldBeFalse)
			So(a.Tier, ShouldEqual, severity.Normal)
		})

		Convey("When an increase is the adverse direction", func() {
			a := c.Assess(metric.CMJContractionTime, metric.Increase,
				baseline.Baseline{Mean: 700, SD: 50, SWC: 10, Samples: 3},
				baseline.Current{Value: 716, Date: day})
			So(a.DeviationUnits, ShouldAlmostEqual, 1.6, 1e-9)
			So(a.Tier, ShouldEqual, severity.Warning)
		})

		Convey("When the baseline mean is zero", func() {
			a := c.Assess(metric.IMTPForce50ms, metric.Decrease,
				baseline.Baseline{Mean: 0, SD: 10, SWC: 2, Samples: 3},
				baseline.Current{Value: 5, Date: day})
			So(a.PercentChange, ShouldEqual, 0)
		})

		Convey("When the baseline has no spread", func() {
			a := c.Assess(metric.IMTPPeakForce, metric.Decrease,
				baseline.Baseline{Mean: 3000, Samples: 3},
				baseline.Current{Value: 2500, Date: day})
			So(a.DeviationUnits, ShouldEqual, 0)
			So(a.Adverse, ShouldBeTrue)
			So(a.Tier, ShouldEqual, severity.Normal)
		})
	})
}
