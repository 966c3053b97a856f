package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/forceplate/internal/domain/rules"
	"github.com/okian/forceplate/internal/domain/types"
)

func execute(args ...string) (string, error) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCLI(t *testing.T) {
	convey.Convey("Given demo exports written by the CLI", t, func() {
		dir := t.TempDir()
		out, err := execute("demo", "--out", dir, "--athletes", "10", "--tests", "12", "--seed", "7")
		convey.So(err, convey.ShouldBeNil)
		convey.So(out, convey.ShouldContainSubstring, filepath.Join(dir, "cmj.csv"))

		cmj := filepath.Join(dir, "cmj.csv")
		imtp := filepath.Join(dir, "imtp.csv")
		roster := filepath.Join(dir, "roster.csv")

		convey.Convey("When a text report is requested", func() {
			out, err := execute("report", "--cmj", cmj, "--imtp", imtp, "--roster", roster, "--team", "Hawks",
				"--phase", "Fall Block", "--next-phase", "Winter Prep")

			convey.Convey("Then it is printed with the team header", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "Hawks")
				convey.So(out, convey.ShouldContainSubstring, "Training Phase: Fall Block")
				convey.So(out, convey.ShouldContainSubstring, "Next report: End of Winter Prep")
				convey.So(out, convey.ShouldContainSubstring, "SUMMARY")
				convey.So(out, convey.ShouldContainSubstring, "END OF REPORT")
			})
		})

		convey.Convey("When a JSON report is written to a file", func() {
			path := filepath.Join(dir, "report.json")
			_, err := execute("report", "--cmj", cmj, "--imtp", imtp, "--format", "json", "--out", path)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the file holds the result", func() {
				data, err := os.ReadFile(path)
				convey.So(err, convey.ShouldBeNil)
				var res types.Result
				convey.So(json.Unmarshal(data, &res), convey.ShouldBeNil)
				convey.So(res.Summary.TotalAthletes, convey.ShouldEqual, 10)
			})
		})

		convey.Convey("When no test file is given", func() {
			_, err := execute("report", "--roster", roster)

			convey.Convey("Then the command fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When the format is unknown", func() {
			_, err := execute("report", "--cmj", cmj, "--format", "pdf")

			convey.Convey("Then the command fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})

	convey.Convey("Given the rules command", t, func() {
		convey.Convey("When JSON is requested", func() {
			out, err := execute("rules", "--format", "json")
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then every category is listed", func() {
				var cats []rules.Category
				convey.So(json.Unmarshal([]byte(out), &cats), convey.ShouldBeNil)
				convey.So(cats, convey.ShouldHaveLength, rules.Default().Len())
			})
		})

		convey.Convey("When a config overrides re-evaluation days", func() {
			path := filepath.Join(t.TempDir(), "config.yaml")
			yaml := "analysis:\n  reeval_days:\n    " + rules.PowerOutput + ": 3\n"
			convey.So(os.WriteFile(path, []byte(yaml), 0o600), convey.ShouldBeNil)
			out, err := execute("rules", "--config", path)

			convey.Convey("Then the YAML table reflects it", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "id: "+rules.PowerOutput)
				convey.So(strings.Count(out, "reeval_days: 3"), convey.ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		convey.Convey("When the format is unknown", func() {
			_, err := execute("rules", "--format", "toml")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestRunExitCodes(t *testing.T) {
	convey.Convey("Given the run entrypoint", t, func() {
		convey.So(run(context.Background(), []string{"rules", "--format", "json"}), convey.ShouldEqual, exitOK)
		convey.So(run(context.Background(), []string{"nope"}), convey.ShouldEqual, exitError)
	})
}
