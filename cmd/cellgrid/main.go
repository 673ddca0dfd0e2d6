package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nvandessel/cellgrid/internal/config"
	"github.com/nvandessel/cellgrid/internal/layout"
	"github.com/nvandessel/cellgrid/internal/logging"
	"github.com/spf13/cobra"
)

// Set at build time via -ldflags.
var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cellgrid",
		Short: "Cellgrid - spatial index and concept placement for sparse cell grids",
		Long: `cellgrid places named concepts on an unbounded integer grid and tracks
which coordinates hold live cells, dormant snapshots and pending input.

New concepts are placed near the registered concept they share the most
tags with, at the first vacant position of a square spiral.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.cellgrid/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: error, warn, info, debug, trace")

	rootCmd.AddCommand(
		newVersionCmd(),
		newPlaceCmd(),
		newSimulateCmd(),
		newConfigCmd(),
		newMCPServerCmd(),
	)

	return rootCmd
}

// loadConfig resolves the effective configuration for cmd: file, environment,
// then the --log-level flag.
func loadConfig(cmd *cobra.Command) (*config.GridConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newLogger creates the operational logger. Logs go to stderr so stdout
// stays clean for command output.
func newLogger(cmd *cobra.Command, cfg *config.GridConfig) *slog.Logger {
	return logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())
}

// newEngine builds a placement engine from cfg. The returned decision logger
// is nil unless the log level is debug or trace; it must be closed by the
// caller.
func newEngine(cfg *config.GridConfig, logger *slog.Logger, opts ...layout.EngineOption) (*layout.Engine, *logging.DecisionLogger) {
	decisionDir := cfg.Logging.DecisionDir
	if decisionDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			decisionDir = filepath.Join(home, ".cellgrid")
		}
	}

	var decisions *logging.DecisionLogger
	if decisionDir != "" {
		decisions = logging.NewDecisionLogger(decisionDir, cfg.Logging.Level)
	}

	strategy := layout.NewProximityStrategyWithConfig(cfg.Layout.Proximity())
	opts = append([]layout.EngineOption{
		layout.WithLogger(logger),
		layout.WithDecisionLogger(decisions),
	}, opts...)

	return layout.NewEngine(strategy, opts...), decisions
}
