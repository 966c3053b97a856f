package rules_test

import (
	"errors"
	"testing"

	"github.com/okian/forceplate/internal/domain/metric"
	"github.com/okian/forceplate/internal/domain/rules"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDefaultTable(t *testing.T) {
	Convey("Given the default table", t, func() {
		tbl := rules.Default()

		Convey("Then it has nine categories in grid order", func() {
			So(tbl.Len(), ShouldEqual, 9)
			So(tbl.IDs(), ShouldResemble, []string{
				rules.MaximalStrength, rules.ExplosiveStrengthRFD, rules.PowerOutput,
				rules.SSCEfficiency, rules.EccentricControl, rules.TechnicalCoordination,
				rules.Asymmetry, rules.FatigueStrategyShift, rules.SystemicFatigue,
			})
			So(tbl.Position(rules.SystemicFatigue), ShouldEqual, 8)
			So(tbl.Position("nope"), ShouldEqual, -1)
		})

		Convey("Then cluster and absolute rules are typed", func() {
			sys, ok := tbl.Lookup(rules.SystemicFatigue)
			So(ok, ShouldBeTrue)
			So(sys.IsCluster(), ShouldBeTrue)
			So(sys.DropPercent, ShouldEqual, 10)
			So(sys.Metrics(), ShouldResemble, []metric.ID{metric.CMJRSIModified, metric.CMJPeakPower})

			asym, _ := tbl.Lookup(rules.Asymmetry)
			So(asym.Kind, ShouldEqual, rules.Absolute)
			So(asym.Threshold, ShouldEqual, 10)
		})

		Convey("Then priorities are unique", func() {
			seen := map[int]bool{}
			for _, c := range tbl.Categories() {
				So(seen[c.Priority], ShouldBeFalse)
				seen[c.Priority] = true
			}
		})

		Convey("Then every catalog metric is referenced", func() {
			So(len(tbl.Metrics()), ShouldEqual, 13)
		})

		Convey("Then returned categories are copies", func() {
			c := tbl.At(0)
			c.Conditions[0].Metric = metric.CMJJumpHeight
			c.WeightRoom[0] = "changed"
			again := tbl.At(0)
			So(again.Conditions[0].Metric, ShouldEqual, metric.IMTPPeakForce)
			So(again.WeightRoom[0], ShouldNotEqual, "changed")
		})
	})
}

func TestOverrides(t *testing.T) {
	Convey("Given the default table", t, func() {
		base := rules.Default()

		Convey("When tunables are overridden", func() {
			tbl, err := base.WithOverrides(rules.Overrides{
				ReevalDays:         map[string]int{rules.PowerOutput: 3},
				AsymmetryThreshold: 15,
				ClusterDropPercent: 8,
			})
			So(err, ShouldBeNil)

			Convey("Then the new table carries them", func() {
				p, _ := tbl.Lookup(rules.PowerOutput)
				So(p.ReevalDays, ShouldEqual, 3)
				a, _ := tbl.Lookup(rules.Asymmetry)
				So(a.Threshold, ShouldEqual, 15)
				So(a.TrendDescription, ShouldEqual, "L-R Force Asymmetry > 15%")
				s, _ := tbl.Lookup(rules.SystemicFatigue)
				So(s.DropPercent, ShouldEqual, 8)
				f, _ := tbl.Lookup(rules.FatigueStrategyShift)
				So(f.DropPercent, ShouldEqual, 0)
			})

			Convey("And the original is untouched", func() {
				p, _ := base.Lookup(rules.PowerOutput)
				So(p.ReevalDays, ShouldEqual, 7)
			})
		})

		Convey("When an unknown category is overridden", func() {
			_, err := base.WithOverrides(rules.Overrides{ReevalDays: map[string]int{"speed": 3}})
			So(errors.Is(err, rules.ErrUnknownCategory), ShouldBeTrue)
		})

		Convey("When a re-eval period is not positive", func() {
			_, err := base.WithOverrides(rules.Overrides{ReevalDays: map[string]int{rules.PowerOutput: 0}})
			So(errors.Is(err, rules.ErrInvalidCategory), ShouldBeTrue)
		})
	})
}

func TestNewTableValidation(t *testing.T) {
	valid := rules.Category{
		ID: "x", Name: "X", Kind: rules.Standard, ReevalDays: 7,
		Conditions: []rules.Condition{{Metric: metric.CMJPeakPower, Direction: metric.Decrease}},
	}

	Convey("Given malformed categories", t, func() {
		cases := []struct {
			name   string
			mutate func(c *rules.Category)
		}{
			{"no conditions", func(c *rules.Category) { c.Conditions = nil }},
			{"unknown metric", func(c *rules.Category) { c.Conditions[0].Metric = "sprint_time" }},
			{"bad direction", func(c *rules.Category) { c.Conditions[0].Direction = "sideways" }},
			{"bad kind", func(c *rules.Category) { c.Kind = "fuzzy" }},
			{"small cluster", func(c *rules.Category) { c.Kind = rules.Cluster }},
			{"absolute without threshold", func(c *rules.Category) { c.Kind = rules.Absolute }},
			{"repeated metric", func(c *rules.Category) { c.Conditions = append(c.Conditions, c.Conditions[0]) }},
		}
		for _, tc := range cases {
			Convey("Rejects "+tc.name, func() {
				c := valid
				c.Conditions = append([]rules.Condition(nil), valid.Conditions...)
				tc.mutate(&c)
				_, err := rules.NewTable([]rules.Category{c})
				So(errors.Is(err, rules.ErrInvalidCategory), ShouldBeTrue)
			})
		}
	})

	Convey("Given duplicate ids", t, func() {
		_, err := rules.NewTable([]rules.Category{valid, valid})
		So(errors.Is(err, rules.ErrInvalidCategory), ShouldBeTrue)
	})
}
