package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/forceplate/internal/adapters/render"
	"github.com/okian/forceplate/internal/adapters/source"
	service "github.com/okian/forceplate/internal/app"
	"github.com/okian/forceplate/pkg/logger"
)

type reportFlags struct {
	cmj, imtp, roster string
	format            string
	out               string
	team              string
	phase, nextPhase  string
}

func newReportCmd(g *globalFlags) *cobra.Command {
	f := &reportFlags{}
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Classify athletes from CMJ/IMTP exports and print the report",
		Example: `  forceplate report --cmj cmj.csv --imtp imtp.xlsx --roster roster.csv
  forceplate report --cmj cmj.csv --format json --out report.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(cmd, g, f)
		},
	}
	cmd.Flags().StringVar(&f.cmj, "cmj", "", "CMJ export (csv or xlsx)")
	cmd.Flags().StringVar(&f.imtp, "imtp", "", "IMTP export (csv or xlsx)")
	cmd.Flags().StringVar(&f.roster, "roster", "", "optional roster (csv or xlsx)")
	cmd.Flags().StringVar(&f.format, "format", string(render.Text), "output format: text or json")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "write the report to a file instead of stdout")
	cmd.Flags().StringVar(&f.team, "team", "", "team name for the report header (overrides team_name)")
	cmd.Flags().StringVar(&f.phase, "phase", "", "current training phase (overrides training_phase)")
	cmd.Flags().StringVar(&f.nextPhase, "next-phase", "", "upcoming training phase (overrides next_phase)")
	return cmd
}

func runReport(cmd *cobra.Command, g *globalFlags, f *reportFlags) (err error) {
	ctx := cmd.Context()
	format, err := render.ParseFormat(f.format)
	if err != nil {
		return err
	}
	files := source.Files{CMJ: pathFile(f.cmj), IMTP: pathFile(f.imtp), Roster: pathFile(f.roster)}
	if files.CMJ == nil && files.IMTP == nil {
		return errors.New("at least one of --cmj or --imtp is required")
	}

	cfg, log, err := setup(ctx, g)
	if err != nil {
		return err
	}
	if f.team != "" {
		cfg.TeamName = f.team
	}
	if f.phase != "" {
		cfg.TrainingPhase = f.phase
	}
	if f.nextPhase != "" {
		cfg.NextPhase = f.nextPhase
	}
	opts, err := service.FromConfig(cfg)
	if err != nil {
		return err
	}
	svc := service.New(append(opts, service.WithLogger(log.Named("service")))...)

	res, err := svc.Report(ctx, files)
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if f.out != "" {
		file, err := os.Create(f.out)
		if err != nil {
			return fmt.Errorf("create %s: %w", f.out, err)
		}
		defer func() {
			if cerr := file.Close(); err == nil {
				err = cerr
			}
		}()
		w = file
	}
	h := svc.Header()
	meta := render.Meta{Team: h.Team, Phase: h.Phase, NextPhase: h.NextPhase, GeneratedAt: now()}
	if err := render.Write(w, format, res, meta); err != nil {
		return err
	}
	if f.out != "" {
		log.Info(ctx, "report written", logger.String("path", f.out))
	}
	return nil
}

func pathFile(path string) *source.File {
	if path == "" {
		return nil
	}
	return &source.File{Path: path}
}
