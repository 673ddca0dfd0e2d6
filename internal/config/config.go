// Package config provides unified configuration loading for cellgrid.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/nvandessel/cellgrid/internal/constants"
	"github.com/nvandessel/cellgrid/internal/layout"
	"gopkg.in/yaml.v3"
)

// GridConfig contains all cellgrid configuration settings.
type GridConfig struct {
	// Layout contains placement strategy settings.
	Layout LayoutConfig `json:"layout" yaml:"layout"`

	// Pending contains pending-input batching settings.
	Pending PendingConfig `json:"pending" yaml:"pending"`

	// Logging contains settings for operational and decision logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// Metrics contains Prometheus exposition settings.
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
}

// LayoutConfig configures the placement strategy.
type LayoutConfig struct {
	// Strategy names the placement policy. Only "proximity" is built in.
	Strategy string `json:"strategy" yaml:"strategy"`

	// CandidateRadius is the radius reserved for a newly placed concept.
	CandidateRadius int `json:"candidate_radius" yaml:"candidate_radius"`

	// Gap is the clearance required beyond the sum of two radii.
	Gap int `json:"gap" yaml:"gap"`

	// DefaultRadius is assumed for placed concepts that carry no radius.
	DefaultRadius int `json:"default_radius" yaml:"default_radius"`

	// MaxRing bounds the spiral vacancy search.
	MaxRing int `json:"max_ring" yaml:"max_ring"`

	// GrowthStep is the x spacing of the growth-line fallback.
	GrowthStep int `json:"growth_step" yaml:"growth_step"`

	// GrowThreshold is the usage fraction above which a concept should grow.
	// Range: 0.0 to 1.0
	GrowThreshold float64 `json:"grow_threshold" yaml:"grow_threshold"`

	// ShrinkThreshold is the idle-cycle count above which a concept should shrink.
	ShrinkThreshold int `json:"shrink_threshold" yaml:"shrink_threshold"`
}

// Proximity converts the layout settings to a ProximityConfig.
func (c LayoutConfig) Proximity() *layout.ProximityConfig {
	return &layout.ProximityConfig{
		CandidateRadius: c.CandidateRadius,
		Gap:             c.Gap,
		DefaultRadius:   c.DefaultRadius,
		MaxRing:         c.MaxRing,
		GrowthStep:      c.GrowthStep,
		GrowThreshold:   c.GrowThreshold,
		ShrinkThreshold: c.ShrinkThreshold,
	}
}

// PendingConfig configures pending-input draining.
type PendingConfig struct {
	// DrainThreshold is the accumulated amount at which a coordinate is
	// drained for batch processing.
	DrainThreshold float64 `json:"drain_threshold" yaml:"drain_threshold"`
}

// LoggingConfig configures cellgrid's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", "trace", "warn" or "error".
	// "debug" and "trace" enable decision logging to DecisionDir/decisions.jsonl.
	Level string `json:"level" yaml:"level"`

	// DecisionDir is the directory for the placement decision log.
	// Defaults to ~/.cellgrid.
	DecisionDir string `json:"decision_dir,omitempty" yaml:"decision_dir,omitempty"`
}

// MetricsConfig configures Prometheus exposition.
type MetricsConfig struct {
	// Addr is the listen address for /metrics, e.g. ":2112". Empty disables it.
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`
}

// Default returns a GridConfig with sensible defaults.
func Default() *GridConfig {
	return &GridConfig{
		Layout: LayoutConfig{
			Strategy:        constants.ProximityStrategyName,
			CandidateRadius: constants.CandidateRadius,
			Gap:             constants.PlacementGap,
			DefaultRadius:   constants.DefaultConceptRadius,
			MaxRing:         constants.MaxSpiralRing,
			GrowthStep:      constants.GrowthLineStep,
			GrowThreshold:   constants.GrowUsageThreshold,
			ShrinkThreshold: constants.ShrinkDormancyThreshold,
		},
		Pending: PendingConfig{
			DrainThreshold: constants.DefaultDrainThreshold,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns ~/.cellgrid/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".cellgrid", "config.yaml"), nil
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.cellgrid/config.yaml -> environment variables
func Load() (*GridConfig, error) {
	return LoadPath("")
}

// LoadPath loads configuration from path, or from the default location when
// path is empty, and applies environment overrides. A missing default file is
// not an error; a missing explicit file is.
func LoadPath(path string) (*GridConfig, error) {
	config := Default()

	if path == "" {
		if p, err := DefaultPath(); err == nil {
			if _, statErr := os.Stat(p); statErr == nil {
				path = p
			}
		}
	}

	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		config = fileConfig
	}

	applyEnvOverrides(config)

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*GridConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.Logging.DecisionDir = os.ExpandEnv(config.Logging.DecisionDir)

	return config, nil
}

// Validate checks that the configuration is valid.
func (c *GridConfig) Validate() error {
	if c.Layout.Strategy != constants.ProximityStrategyName {
		return fmt.Errorf("invalid strategy: %s (valid: %s)", c.Layout.Strategy, constants.ProximityStrategyName)
	}

	if c.Layout.GrowThreshold < 0 || c.Layout.GrowThreshold > 1 {
		return fmt.Errorf("grow_threshold must be between 0 and 1, got %f", c.Layout.GrowThreshold)
	}

	if c.Layout.ShrinkThreshold < 0 {
		return fmt.Errorf("shrink_threshold must be non-negative, got %d", c.Layout.ShrinkThreshold)
	}

	if c.Layout.MaxRing < 0 {
		return fmt.Errorf("max_ring must be non-negative, got %d", c.Layout.MaxRing)
	}

	if c.Layout.CandidateRadius < 0 || c.Layout.DefaultRadius < 0 || c.Layout.Gap < 0 {
		return fmt.Errorf("radii and gap must be non-negative")
	}

	if c.Pending.DrainThreshold < 0 {
		return fmt.Errorf("drain_threshold must be non-negative, got %f", c.Pending.DrainThreshold)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true, "warn": true, "error": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, warn, error, or empty for default)", c.Logging.Level)
	}

	return nil
}

// Marshal renders the configuration as YAML.
func (c *GridConfig) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *GridConfig) {
	if v := os.Getenv("CELLGRID_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}

	if v := os.Getenv("CELLGRID_DECISION_DIR"); v != "" {
		config.Logging.DecisionDir = v
	}

	if v := os.Getenv("CELLGRID_GROW_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Layout.GrowThreshold = f
		}
	}

	if v := os.Getenv("CELLGRID_SHRINK_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Layout.ShrinkThreshold = n
		}
	}

	if v := os.Getenv("CELLGRID_MAX_RING"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Layout.MaxRing = n
		}
	}

	if v := os.Getenv("CELLGRID_DRAIN_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Pending.DrainThreshold = f
		}
	}

	if v := os.Getenv("CELLGRID_METRICS_ADDR"); v != "" {
		config.Metrics.Addr = v
	}
}
