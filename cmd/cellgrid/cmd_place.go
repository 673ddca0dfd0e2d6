package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/nvandessel/cellgrid/internal/grid"
	"github.com/nvandessel/cellgrid/internal/layout"
	"github.com/nvandessel/cellgrid/internal/tagging"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// conceptEntry is one entry of a concepts file.
type conceptEntry struct {
	Tags   []string `yaml:"tags"`
	Center []int    `yaml:"center"`
	Radius *int     `yaml:"radius,omitempty"`
}

// loadConcepts reads a YAML map of concept name to conceptEntry.
func loadConcepts(path string) (map[string]layout.Concept, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading concepts file: %w", err)
	}

	var entries map[string]conceptEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing concepts file: %w", err)
	}

	concepts := make(map[string]layout.Concept, len(entries))
	for name, entry := range entries {
		if len(entry.Center) != 2 {
			return nil, fmt.Errorf("concept %q: center must be [x, y], got %v", name, entry.Center)
		}
		if entry.Radius != nil && *entry.Radius < 0 {
			return nil, fmt.Errorf("concept %q: radius must be non-negative, got %d", name, *entry.Radius)
		}
		concepts[name] = layout.Concept{
			Tags:   entry.Tags,
			Center: grid.Coord{X: entry.Center[0], Y: entry.Center[1]},
			Radius: entry.Radius,
		}
	}
	return concepts, nil
}

func newPlaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "place",
		Short: "Choose a grid coordinate for a new concept",
		Long: `Choose a grid coordinate for a new concept given the concepts already placed.

The concepts file is YAML mapping each name to its tags, center and radius:

  parsing:
    tags: [syntax, grammar]
    center: [0, 0]
    radius: 3

Examples:
  cellgrid place --name lexing --tags syntax,tokens --concepts concepts.yaml
  cellgrid place --name seed                                    # empty grid -> (0,0)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			name, _ := cmd.Flags().GetString("name")
			tagsFlag, _ := cmd.Flags().GetString("tags")
			conceptsPath, _ := cmd.Flags().GetString("concepts")

			if name == "" {
				return fmt.Errorf("--name is required")
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cmd, cfg)

			existing := map[string]layout.Concept{}
			if conceptsPath != "" {
				existing, err = loadConcepts(conceptsPath)
				if err != nil {
					return err
				}
			}

			engine, decisions := newEngine(cfg, logger)
			defer decisions.Close()

			tags := tagging.ParseList(tagsFlag)
			c := engine.Place(name, tags, existing)

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"name":     name,
					"x":        c.X,
					"y":        c.Y,
					"existing": len(existing),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", name, c)
			return nil
		},
	}

	cmd.Flags().String("name", "", "Name of the concept to place (required)")
	cmd.Flags().String("tags", "", "Comma-separated tags for the new concept")
	cmd.Flags().String("concepts", "", "YAML file of already placed concepts")

	return cmd
}
