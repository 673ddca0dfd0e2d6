// Package constants provides named constants used throughout the cellgrid codebase.
// This centralizes magic numbers for better maintainability and documentation.
package constants

// Placement geometry constants
const (
	// DefaultConceptRadius is the placement radius assumed for a placed
	// concept that does not specify one.
	DefaultConceptRadius = 3

	// CandidateRadius is the radius reserved for the concept being placed.
	CandidateRadius = 3

	// PlacementGap is the extra clearance required between two concepts,
	// on top of the sum of their radii.
	PlacementGap = 2

	// MaxSpiralRing is the largest Chebyshev ring searched around an anchor
	// before falling back to the growth line.
	MaxSpiralRing = 80

	// GrowthLineStep is the x spacing used by the growth-line fallback.
	GrowthLineStep = 8
)

// Capacity policy thresholds
const (
	// GrowUsageThreshold is the utilization fraction above which a concept
	// should grow. The comparison is strict.
	GrowUsageThreshold = 0.6

	// ShrinkDormancyThreshold is the idle-cycle count above which a concept
	// should shrink. The comparison is strict.
	ShrinkDormancyThreshold = 200
)

// Pending input constants
const (
	// DefaultDrainThreshold is the accumulated signal at which a coordinate's
	// pending input becomes eligible for batch processing.
	DefaultDrainThreshold = 1.0
)

// Strategy identifiers
const (
	// ProximityStrategyName identifies the default tag-proximity policy.
	ProximityStrategyName = "proximity"
)

// Placement outcome strings reported in decision logs and metrics.
const (
	OutcomeOrigin   = "origin"   // Empty grid, seeded at (0,0)
	OutcomeSpiral   = "spiral"   // Vacant coordinate found around the anchor
	OutcomeFallback = "fallback" // Spiral exhausted, growth line used
)
