package main

import (
	"encoding/json"
	"fmt"

	"github.com/nvandessel/cellgrid/internal/grid"
	"github.com/nvandessel/cellgrid/internal/layout"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var simulationVocabulary = []string{"alpha", "beta", "gamma", "delta", "epsilon"}

// simulationResult is the outcome of a simulate run.
type simulationResult struct {
	Concepts  int                 `json:"concepts"`
	Workers   int                 `json:"workers"`
	Threshold float64             `json:"threshold"`
	Stats     grid.Stats          `json:"stats"`
	Drained   []grid.PendingEntry `json:"drained"`
}

// simulationTags returns the deterministic tag set for concept i.
func simulationTags(i int) []string {
	n := len(simulationVocabulary)
	a, b := simulationVocabulary[i%n], simulationVocabulary[(i/n)%n]
	if a == b {
		return []string{a}
	}
	return []string{a, b}
}

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Place and register a batch of concepts and drain pending input",
		Long: `Simulate a cell manager: place --cells concepts one after another through the
placement engine, register them in a spatial index from --workers concurrent
workers, feed each cell some pending input, and drain every coordinate whose
accumulated input reached the configured drain threshold.

Examples:
  cellgrid simulate --cells 50 --workers 8
  cellgrid simulate --cells 200 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			cells, _ := cmd.Flags().GetInt("cells")
			workers, _ := cmd.Flags().GetInt("workers")

			if cells < 0 {
				return fmt.Errorf("--cells must be non-negative, got %d", cells)
			}
			if workers < 1 {
				return fmt.Errorf("--workers must be at least 1, got %d", workers)
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cmd, cfg)

			engine, decisions := newEngine(cfg, logger)
			defer decisions.Close()

			names := make([]string, cells)
			concepts := make(map[string]layout.Concept, cells)
			for i := range cells {
				names[i] = fmt.Sprintf("c%03d", i)
				tags := simulationTags(i)
				concepts[names[i]] = layout.Concept{
					Tags:   tags,
					Center: engine.Place(names[i], tags, concepts),
				}
			}

			ix := grid.New(grid.WithLogger(logger))

			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(workers)
			for i, name := range names {
				g.Go(func() error {
					if err := ctx.Err(); err != nil {
						return err
					}
					at := concepts[name].Center
					ix.Register(at, name)
					ix.AddPending(at, float64(i%4)*0.5)
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return fmt.Errorf("simulation interrupted: %w", err)
			}

			result := simulationResult{
				Concepts:  cells,
				Workers:   workers,
				Threshold: cfg.Pending.DrainThreshold,
				Drained:   ix.TakePendingAbove(cfg.Pending.DrainThreshold),
			}
			result.Stats = ix.Stats()

			logger.Info("simulation complete", "concepts", cells, "drained", len(result.Drained))

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(result)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Placed and registered %d concepts with %d workers\n", cells, workers)
			if b := result.Stats.Bounds; b != nil {
				fmt.Fprintf(out, "Bounds: %s (%dx%d)\n", b, b.Width(), b.Height())
			} else {
				fmt.Fprintln(out, "Bounds: undefined")
			}
			fmt.Fprintf(out, "Drained %d coordinates at threshold %g; %d still pending\n",
				len(result.Drained), result.Threshold, result.Stats.Pending)
			for _, e := range result.Drained {
				fmt.Fprintf(out, "  %s %g\n", e.Coord, e.Amount)
			}
			return nil
		},
	}

	cmd.Flags().Int("cells", 25, "Number of concepts to place")
	cmd.Flags().Int("workers", 4, "Number of concurrent registration workers")

	return cmd
}
