package baseline_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/forceplate/internal/domain/baseline"
	"github.com/okian/forceplate/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func series(values ...float64) []model.Sample {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	out := make([]model.Sample, len(values))
	for i, v := range values {
		out[i] = model.Sample{Date: start.AddDate(0, 0, 7*i), Value: v}
	}
	return out
}

func TestCompute(t *testing.T) {
	Convey("Given the default calculator", t, func() {
		calc := baseline.NewCalculator()

		Convey("When five IMTP peak forces are supplied", func() {
			s := series(2900, 3100, 3300, 3000, 2800)
			b, cur, err := calc.Compute(s)

			Convey("Then the first three form the baseline", func() {
				So(err, ShouldBeNil)
				So(b.Samples, ShouldEqual, 3)
				So(b.Mean, ShouldAlmostEqual, 3100, 1e-9)
				So(b.SD, ShouldAlmostEqual, 200, 1e-9)
				So(b.SWC, ShouldAlmostEqual, 40, 1e-9)
			})

			Convey("And the latest value is current", func() {
				So(cur.Value, ShouldEqual, 2800)
				So(cur.Samples, ShouldEqual, 2)
				So(cur.Date, ShouldEqual, s[4].Date)
			})
		})

		Convey("When the baseline window is too small", func() {
			_, _, err := calc.Compute(series(3000, 3100, 3200, 2900))
			So(errors.Is(err, baseline.ErrInsufficientData), ShouldBeTrue)
		})

		Convey("When there is no current window", func() {
			c := baseline.NewCalculator(baseline.WithSplitRatio(0.99))
			_, _, err := c.Compute(series(1, 2, 3, 4))
			So(errors.Is(err, baseline.ErrInsufficientData), ShouldBeTrue)
		})

		Convey("When the baseline values are identical", func() {
			b, cur, err := calc.Compute(series(3000, 3000, 3000, 2800, 2700))
			So(errors.Is(err, baseline.ErrZeroVariance), ShouldBeTrue)

			Convey("Then the mean and current value are still reported", func() {
				So(b.Mean, ShouldEqual, 3000)
				So(b.SWC, ShouldEqual, 0)
				So(b.Samples, ShouldEqual, 3)
				So(cur.Value, ShouldEqual, 2700)
			})
		})

		Convey("When the series is empty", func() {
			_, _, err := calc.Compute(nil)
			So(errors.Is(err, baseline.ErrInsufficientData), ShouldBeTrue)
		})
	})
}

func TestOptions(t *testing.T) {
	Convey("Given a window-mean calculator", t, func() {
		calc := baseline.NewCalculator(
			baseline.WithAggregation(baseline.WindowMean),
			baseline.WithSWCMultiplier(0.5),
		)
		b, cur, err := calc.Compute(series(2900, 3100, 3300, 3000, 2800))
		So(err, ShouldBeNil)
		So(cur.Value, ShouldAlmostEqual, 2900, 1e-9)
		So(b.SWC, ShouldAlmostEqual, 100, 1e-9)
	})

	Convey("Given invalid option values", t, func() {
		calc := baseline.NewCalculator(
			baseline.WithSplitRatio(1.5),
			baseline.WithSWCMultiplier(-1),
			baseline.WithMinSamples(1),
			baseline.WithAggregation("median"),
		)

		Convey("Then the defaults are kept", func() {
			So(calc.SplitRatio(), ShouldEqual, baseline.DefaultSplitRatio)
			So(calc.SWCMultiplier(), ShouldEqual, baseline.DefaultSWCMultiplier)
			So(calc.MinSamples(), ShouldEqual, baseline.DefaultMinSamples)
			So(calc.Aggregation(), ShouldEqual, baseline.Latest)
		})
	})

	Convey("Given split sizes", t, func() {
		calc := baseline.NewCalculator()
		So(calc.SplitIndex(5), ShouldEqual, 3)
		So(calc.SplitIndex(10), ShouldEqual, 6)
		So(calc.SplitIndex(3), ShouldEqual, 1)
	})

	Convey("Given aggregation names", t, func() {
		a, err := baseline.ParseAggregation("window_mean")
		So(err, ShouldBeNil)
		So(a, ShouldEqual, baseline.WindowMean)

		_, err = baseline.ParseAggregation("max")
		So(errors.Is(err, baseline.ErrInvalidParams), ShouldBeTrue)
	})
}
