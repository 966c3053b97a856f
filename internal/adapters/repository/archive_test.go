package repository_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/forceplate/internal/adapters/repository"
	"github.com/okian/forceplate/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("r%d", n)
	}
}

func result(flagged int) *types.Result {
	return &types.Result{
		Window:  types.Window{Start: "2025-03-01", End: "2025-09-01"},
		Summary: types.Summary{TotalAthletes: 10, AthletesFlagged: flagged},
	}
}

func TestArchive(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2025, 9, 2, 8, 0, 0, 0, time.UTC)

	Convey("Given an archive holding two reports", t, func() {
		a := repository.NewArchive(
			repository.WithCapacity(2),
			repository.WithIDGenerator(sequentialIDs()),
			repository.WithClock(func() time.Time { return clock }),
		)

		r1, err := a.Put(ctx, repository.Header{Team: "Hawks"}, []string{"cmj.csv"}, result(1))
		So(err, ShouldBeNil)
		_, err = a.Put(ctx, repository.Header{Team: "Hawks"}, nil, result(2))
		So(err, ShouldBeNil)

		Convey("When a report is fetched by id", func() {
			got, err := a.Get(ctx, r1.ID)

			Convey("Then it is returned as stored", func() {
				So(err, ShouldBeNil)
				So(got.ID, ShouldEqual, "r1")
				So(got.CreatedAt, ShouldEqual, clock)
				So(got.Sources, ShouldResemble, []string{"cmj.csv"})
				So(got.Result.Summary.AthletesFlagged, ShouldEqual, 1)
			})
		})

		Convey("When listing", func() {
			list, err := a.List(ctx, 10)

			Convey("Then summaries come newest first", func() {
				So(err, ShouldBeNil)
				So(len(list), ShouldEqual, 2)
				So(list[0].ID, ShouldEqual, "r2")
				So(list[0].AthletesFlagged, ShouldEqual, 2)
				So(list[1].WindowStart, ShouldEqual, "2025-03-01")
			})
		})

		Convey("When a third report exceeds the capacity", func() {
			_, err := a.Put(ctx, repository.Header{Team: "Hawks"}, nil, result(3))
			So(err, ShouldBeNil)

			Convey("Then the oldest report is evicted", func() {
				So(a.Count(ctx), ShouldEqual, 2)
				_, err := a.Get(ctx, "r1")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When the input is invalid", func() {
			_, errNil := a.Put(ctx, repository.Header{Team: "Hawks"}, nil, nil)
			_, errLimit := a.List(ctx, 0)

			Convey("Then sentinel errors are returned", func() {
				So(errors.Is(errNil, repository.ErrNilResult), ShouldBeTrue)
				So(errors.Is(errLimit, repository.ErrInvalidLimit), ShouldBeTrue)
			})
		})
	})

	Convey("Given concurrent writers", t, func() {
		a := repository.NewArchive(repository.WithCapacity(16))
		var wg sync.WaitGroup
		for i := 0; i < 64; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = a.Put(ctx, repository.Header{Team: "team"}, nil, result(0))
				_, _ = a.List(ctx, 5)
			}()
		}
		wg.Wait()

		Convey("Then the archive stays within capacity with unique ids", func() {
			So(a.Count(ctx), ShouldEqual, 16)
			list, _ := a.List(ctx, 16)
			seen := map[string]bool{}
			for _, s := range list {
				seen[s.ID] = true
			}
			So(len(seen), ShouldEqual, 16)
		})
	})
}
