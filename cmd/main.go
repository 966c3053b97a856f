// Command forceplate classifies athletes' force-plate trends from CMJ and
// IMTP exports. It runs one-shot reports, serves the HTTP API, writes demo
// data and prints the rule table.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/forceplate/internal/config"
	"github.com/okian/forceplate/pkg/logger"
	"github.com/okian/forceplate/pkg/metrics"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:]))
}

func run(ctx context.Context, args []string) int {
	root := newRootCmd()
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return exitError
	}
	return exitOK
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "forceplate",
		Short:         "Force-plate trend classification for team sport athletes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", "",
		"YAML config file (defaults to $"+config.EnvConfigFile+")")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "",
		"override log_level: debug, info, warn, error")

	root.AddCommand(
		newReportCmd(g),
		newServeCmd(g),
		newDemoCmd(g),
		newRulesCmd(g),
	)
	return root
}

// setup loads configuration and initializes logging and metrics, in that
// order, so that every later step can log.
func setup(ctx context.Context, g *globalFlags) (*config.Config, logger.Logger, error) {
	path := g.configPath
	if path == "" {
		path = os.Getenv(config.EnvConfigFile)
	}
	cfg, err := config.LoadFrom(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	if g.logLevel != "" {
		cfg.LogLevel = g.logLevel
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithOutput(os.Stderr)); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	metrics.SetEnabled(cfg.MetricsEnabled)
	return cfg, log, nil
}

func now() time.Time { return time.Now() }
