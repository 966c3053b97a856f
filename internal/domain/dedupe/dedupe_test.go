package dedupe_test

import (
	"testing"
	"time"

	"github.com/okian/forceplate/internal/domain/dedupe"
	"github.com/okian/forceplate/internal/domain/metric"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given a new deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithCapacity(8))
		key := dedupe.Key{
			Athlete: "Jordan Smith",
			Date:    time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
			Test:    metric.CMJ,
		}

		Convey("When a session is seen for the first time", func() {
			first, seen := d.SeenAndRecord(key, 4)

			Convey("Then it is recorded", func() {
				So(seen, ShouldBeFalse)
				So(first, ShouldEqual, 4)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When the same session appears again later that day", func() {
			d.SeenAndRecord(key, 4)
			later := key
			later.Date = later.Date.Add(15 * time.Hour)
			first, seen := d.SeenAndRecord(later, 9)

			Convey("Then it is reported as a duplicate of the first line", func() {
				So(seen, ShouldBeTrue)
				So(first, ShouldEqual, 4)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When sessions differ by test type or athlete", func() {
			d.SeenAndRecord(key, 1)
			other := key
			other.Test = metric.IMTP
			_, seenType := d.SeenAndRecord(other, 2)
			other = key
			other.Athlete = "jordan smith"
			_, seenName := d.SeenAndRecord(other, 3)

			Convey("Then they are distinct sessions", func() {
				So(seenType, ShouldBeFalse)
				So(seenName, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 3)
			})
		})

		Convey("Then keys render for QC messages", func() {
			So(key.String(), ShouldEqual, "Jordan Smith/CMJ/2025-09-01")
		})
	})
}
