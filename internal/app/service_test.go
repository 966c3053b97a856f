package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	service "github.com/okian/forceplate/internal/app"
	"github.com/okian/forceplate/internal/adapters/repository"
	"github.com/okian/forceplate/internal/adapters/source"
	"github.com/okian/forceplate/internal/config"
	"github.com/okian/forceplate/internal/demodata"
	"github.com/okian/forceplate/internal/domain/rules"
	"github.com/okian/forceplate/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(logger.WithOutput(os.Stderr)); err != nil {
		panic(err)
	}
}

func demoFiles(t *testing.T, cfg demodata.Config) source.Files {
	t.Helper()
	exp, err := demodata.Generate(cfg)
	if err != nil {
		t.Fatal(err)
	}
	paths, err := exp.WriteDir(t.TempDir(), source.CSV)
	if err != nil {
		t.Fatal(err)
	}
	return source.Files{
		CMJ:    &source.File{Path: paths[0]},
		IMTP:   &source.File{Path: paths[1]},
		Roster: &source.File{Path: paths[2]},
	}
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
			So(svc.TeamName(), ShouldEqual, "Team")
			So(svc.Table().Len(), ShouldEqual, len(rules.DefaultCategories()))
		})
	})

	Convey("Given options built from config", t, func() {
		cfg := config.New()
		cfg.TeamName = "Hawks"
		cfg.TrainingPhase = "Fall Block"
		cfg.Analysis.ReevalDays = map[string]int{rules.PowerOutput: 3}
		opts, err := service.FromConfig(cfg)
		So(err, ShouldBeNil)
		svc := service.New(opts...)

		Convey("Then the config is applied", func() {
			So(svc.TeamName(), ShouldEqual, "Hawks")
			So(svc.Header().Phase, ShouldEqual, "Fall Block")
			c, _ := svc.Table().Lookup(rules.PowerOutput)
			So(c.ReevalDays, ShouldEqual, 3)
		})
	})
}

func TestService_Report(t *testing.T) {
	ctx := context.Background()

	Convey("Given synthetic exports on disk", t, func() {
		files := demoFiles(t, demodata.Config{Athletes: 10, Tests: 10, DeclineShare: 1, Seed: 11})
		svc := service.New()

		Convey("When a report is generated", func() {
			res, err := svc.Report(ctx, files)

			Convey("Then every athlete is analyzed and QC is attached", func() {
				So(err, ShouldBeNil)
				So(res.Summary.TotalAthletes, ShouldEqual, 10)
				So(res.Summary.AthletesAnalyzed, ShouldEqual, 10)
				So(res.Summary.AthletesFlagged, ShouldBeGreaterThan, 0)
				So(len(res.QC.Ingestion.Sources), ShouldEqual, 2)
				So(res.QC.Ingestion.RosterSize, ShouldEqual, 10)
				So(res.Window.End, ShouldEqual, "2025-09-01")
			})

			Convey("And the run is counted in stats", func() {
				So(svc.GetStats()["runs"], ShouldEqual, 1)
			})
		})

		Convey("When only IMTP is supplied", func() {
			res, err := svc.Report(ctx, source.Files{IMTP: files.IMTP})

			Convey("Then CMJ is reported missing", func() {
				So(err, ShouldBeNil)
				So(res.QC.Ingestion.MissingTestTypes, ShouldResemble, []string{"CMJ"})
			})
		})

		Convey("When the CMJ and roster uploads are empty", func() {
			res, err := svc.Report(ctx, source.Files{
				CMJ:    &source.File{Name: "cmj.csv", Data: []byte{}},
				IMTP:   files.IMTP,
				Roster: &source.File{Name: "roster.csv", Data: []byte{}},
			})

			Convey("Then the run continues on IMTP alone", func() {
				So(err, ShouldBeNil)
				So(res.QC.Ingestion.MissingTestTypes, ShouldResemble, []string{"CMJ"})
				So(len(res.QC.Ingestion.Sources), ShouldEqual, 1)
				So(res.Summary.TotalAthletes, ShouldBeGreaterThan, 0)
			})
		})

		Convey("When both test uploads are empty", func() {
			_, err := svc.Report(ctx, source.Files{
				CMJ:  &source.File{Name: "cmj.csv", Data: []byte{}},
				IMTP: &source.File{Name: "imtp.csv", Data: []byte{}},
			})

			Convey("Then there is no test data", func() {
				So(errors.Is(err, service.ErrNoTestData), ShouldBeTrue)
				So(errors.Is(err, source.ErrEmptyFile), ShouldBeTrue)
			})
		})
	})

	Convey("Given unusable inputs", t, func() {
		svc := service.New()

		_, errNone := svc.Report(ctx, source.Files{Roster: &source.File{Path: "roster.csv"}})
		_, errMissing := svc.Report(ctx, source.Files{CMJ: &source.File{Path: filepath.Join(t.TempDir(), "nope.csv")}})
		_, errExt := svc.Report(ctx, source.Files{CMJ: &source.File{Name: "cmj.pdf", Data: []byte("x")}})

		Convey("Then sentinel errors are returned", func() {
			So(errors.Is(errNone, service.ErrNoTestData), ShouldBeTrue)
			So(errors.Is(errMissing, service.ErrLoad), ShouldBeTrue)
			So(errors.Is(errMissing, source.ErrRead), ShouldBeTrue)
			So(errors.Is(errExt, source.ErrUnsupportedFormat), ShouldBeTrue)
		})
	})
}

func TestService_Archive(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service that is not started", t, func() {
		svc := service.New()
		_, err := svc.ListReports(ctx, 5)
		So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
	})

	Convey("Given a started service", t, func() {
		svc := service.New(service.WithReportHistory(2), service.WithTeamName("Hawks"),
			service.WithTrainingPhase("Fall Block", "Winter Prep"))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()
		files := demoFiles(t, demodata.Config{Athletes: 4, Tests: 8, Seed: 5})

		Convey("When reports are created", func() {
			first, err := svc.CreateReport(ctx, repository.Header{}, files)
			So(err, ShouldBeNil)
			second, err := svc.CreateReport(ctx, repository.Header{Team: "Eagles", Phase: "Spring Block"}, files)
			So(err, ShouldBeNil)

			Convey("Then they can be fetched and listed", func() {
				got, err := svc.GetReport(ctx, first.ID)
				So(err, ShouldBeNil)
				So(got.Team, ShouldEqual, "Hawks")
				So(got.Phase, ShouldEqual, "Fall Block")
				So(got.NextPhase, ShouldEqual, "Winter Prep")
				So(got.Sources, ShouldResemble, []string{"cmj.csv", "imtp.csv", "roster.csv"})

				list, err := svc.ListReports(ctx, 10)
				So(err, ShouldBeNil)
				So(len(list), ShouldEqual, 2)
				So(list[0].ID, ShouldEqual, second.ID)
				So(list[0].Team, ShouldEqual, "Eagles")
				So(list[0].Phase, ShouldEqual, "Spring Block")
				So(svc.GetStats()["archivedReports"], ShouldEqual, 2)
			})
		})
	})
}

func TestService_Workers(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service with two workers", t, func() {
		svc := service.New(service.WithWorkerCount(2), service.WithQueueSize(4))
		So(svc.Start(ctx), ShouldBeNil)
		Reset(svc.Stop)
		files := demoFiles(t, demodata.Config{Athletes: 3, Tests: 6, Seed: 9})

		stats := svc.GetStats()
		So(stats["workers"], ShouldEqual, 2)
		So(stats["queueCapacity"], ShouldEqual, 4)

		Convey("When reports are requested concurrently", func() {
			errs := make(chan error, 3)
			for i := 0; i < 3; i++ {
				go func() {
					_, err := svc.CreateReport(ctx, repository.Header{}, files)
					errs <- err
				}()
			}
			for i := 0; i < 3; i++ {
				So(<-errs, ShouldBeNil)
			}

			Convey("Then every report is archived", func() {
				list, err := svc.ListReports(ctx, 10)
				So(err, ShouldBeNil)
				So(list, ShouldHaveLength, 3)
			})
		})

		Convey("When no test files are given", func() {
			_, err := svc.CreateReport(ctx, repository.Header{}, source.Files{Roster: files.Roster})

			Convey("Then nothing is queued", func() {
				So(errors.Is(err, service.ErrNoTestData), ShouldBeTrue)
			})
		})

		Convey("When the service is stopped", func() {
			rep, err := svc.CreateReport(ctx, repository.Header{}, files)
			So(err, ShouldBeNil)
			svc.Stop()
			_, err = svc.CreateReport(ctx, repository.Header{}, files)

			Convey("Then new reports are refused but old ones stay readable", func() {
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
				got, err := svc.GetReport(ctx, rep.ID)
				So(err, ShouldBeNil)
				So(got.ID, ShouldEqual, rep.ID)
			})
		})
	})
}
