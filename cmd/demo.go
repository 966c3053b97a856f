package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okian/forceplate/internal/adapters/source"
	"github.com/okian/forceplate/internal/demodata"
	"github.com/okian/forceplate/pkg/logger"
)

type demoFlags struct {
	out           string
	format        string
	athletes      int
	tests         int
	seed          uint64
	qualityIssues bool
}

func newDemoCmd(g *globalFlags) *cobra.Command {
	def := demodata.DefaultConfig()
	f := &demoFlags{}
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Write synthetic CMJ, IMTP and roster exports",
		Long: `Writes ForceDecks-style exports for a synthetic squad. A share of the
athletes develops the decline patterns each category looks for, so that
running "forceplate report" on the output flags them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDemo(cmd, g, f)
		},
	}
	cmd.Flags().StringVarP(&f.out, "out", "o", "demo", "output directory")
	cmd.Flags().StringVar(&f.format, "format", string(source.CSV), "file format: csv or xlsx")
	cmd.Flags().IntVar(&f.athletes, "athletes", def.Athletes, "number of athletes")
	cmd.Flags().IntVar(&f.tests, "tests", def.Tests, "test sessions per athlete")
	cmd.Flags().Uint64Var(&f.seed, "seed", def.Seed, "random seed")
	cmd.Flags().BoolVar(&f.qualityIssues, "quality-issues", false, "inject duplicate rows and bad cells")
	return cmd
}

func runDemo(cmd *cobra.Command, g *globalFlags, f *demoFlags) error {
	ctx := cmd.Context()
	format := source.Format(strings.ToLower(f.format))
	if format != source.CSV && format != source.XLSX {
		return fmt.Errorf("%w: %q", source.ErrUnsupportedFormat, f.format)
	}
	_, log, err := setup(ctx, g)
	if err != nil {
		return err
	}

	cfg := demodata.DefaultConfig()
	cfg.Athletes = f.athletes
	cfg.Tests = f.tests
	cfg.Seed = f.seed
	cfg.QualityIssues = f.qualityIssues
	export, err := demodata.Generate(cfg)
	if err != nil {
		return err
	}
	paths, err := export.WriteDir(f.out, format)
	if err != nil {
		return err
	}

	declining := 0
	for _, cats := range export.Declines {
		if len(cats) > 0 {
			declining++
		}
	}
	log.Info(ctx, "demo exports written",
		logger.Strings("files", paths),
		logger.Int("athletes", cfg.Athletes),
		logger.Int("declining", declining),
	)
	for _, p := range paths {
		fmt.Fprintln(cmd.OutOrStdout(), p)
	}
	return nil
}
