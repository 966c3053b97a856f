package model_test

import (
	"testing"
	"time"

	"github.com/okian/forceplate/internal/domain/metric"
	"github.com/okian/forceplate/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func day(d int) time.Time {
	return time.Date(2025, time.March, d, 0, 0, 0, 0, time.UTC)
}

func TestDataset(t *testing.T) {
	convey.Convey("Given records supplied out of order", t, func() {
		records := []model.TestRecord{
			{Athlete: "Zed", Date: day(3), Test: metric.CMJ, Values: map[metric.ID]float64{metric.CMJPeakPower: 5000}},
			{Athlete: "Amy", Date: day(5), Test: metric.IMTP, Values: map[metric.ID]float64{metric.IMTPPeakForce: 3000}},
			{Athlete: "Amy", Date: day(1), Test: metric.IMTP, Values: map[metric.ID]float64{metric.IMTPPeakForce: 3100}},
			{Athlete: "Amy", Date: day(1), Test: metric.CMJ, Values: map[metric.ID]float64{metric.CMJPeakPower: 4800}},
		}
		athletes := []model.Athlete{{Name: "Zed", InRoster: true}, {Name: "Amy", Position: "WR", InRoster: true}}

		ds := model.NewDataset(records, athletes, day(1), day(5))

		convey.Convey("Then records are ordered by athlete, date and test type", func() {
			convey.So(ds.Records[0].Athlete, convey.ShouldEqual, "Amy")
			convey.So(ds.Records[0].Test, convey.ShouldEqual, metric.CMJ)
			convey.So(ds.Records[1].Test, convey.ShouldEqual, metric.IMTP)
			convey.So(ds.Records[2].Date, convey.ShouldEqual, day(5))
			convey.So(ds.Records[3].Athlete, convey.ShouldEqual, "Zed")
		})

		convey.Convey("And the caller's slice is left untouched", func() {
			convey.So(records[0].Athlete, convey.ShouldEqual, "Zed")
		})

		convey.Convey("And per-athlete lookups work", func() {
			amy := ds.RecordsFor("Amy")
			convey.So(len(amy), convey.ShouldEqual, 3)
			convey.So(model.SessionCount(amy), convey.ShouldEqual, 2)
			a, ok := ds.Athlete("Amy")
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(a.Position, convey.ShouldEqual, "WR")
			_, ok = ds.Athlete("amy")
			convey.So(ok, convey.ShouldBeFalse)
		})

		convey.Convey("And series skip missing values", func() {
			s := model.Series(ds.RecordsFor("Amy"), metric.IMTPPeakForce)
			convey.So(len(s), convey.ShouldEqual, 2)
			convey.So(s[0].Value, convey.ShouldEqual, 3100)
			convey.So(s[1].Value, convey.ShouldEqual, 3000)
		})

		convey.Convey("And test type presence is reported", func() {
			convey.So(ds.HasTestType(metric.CMJ), convey.ShouldBeTrue)
			empty := model.NewDataset(nil, nil, time.Time{}, time.Time{})
			convey.So(empty.HasTestType(metric.IMTP), convey.ShouldBeFalse)
		})
	})
}
