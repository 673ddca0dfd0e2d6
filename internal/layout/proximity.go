package layout

import (
	"math"
	"sort"

	"github.com/nvandessel/cellgrid/internal/constants"
	"github.com/nvandessel/cellgrid/internal/grid"
	"github.com/nvandessel/cellgrid/internal/tagging"
)

// ProximityConfig tunes the proximity strategy. All distances are in grid
// units.
type ProximityConfig struct {
	// CandidateRadius is the radius reserved for the concept being placed.
	CandidateRadius int

	// Gap is the clearance required beyond the sum of two radii.
	Gap int

	// DefaultRadius is used for existing concepts without a Radius.
	DefaultRadius int

	// MaxRing bounds the spiral search around the anchor.
	MaxRing int

	// GrowthStep is the x spacing of the growth-line fallback.
	GrowthStep int

	// GrowThreshold is the usage fraction above which ShouldGrow is true.
	GrowThreshold float64

	// ShrinkThreshold is the dormancy above which ShouldShrink is true.
	ShrinkThreshold int
}

// DefaultProximityConfig returns a ProximityConfig with the standard
// placement geometry and capacity thresholds.
func DefaultProximityConfig() *ProximityConfig {
	return &ProximityConfig{
		CandidateRadius: constants.CandidateRadius,
		Gap:             constants.PlacementGap,
		DefaultRadius:   constants.DefaultConceptRadius,
		MaxRing:         constants.MaxSpiralRing,
		GrowthStep:      constants.GrowthLineStep,
		GrowThreshold:   constants.GrowUsageThreshold,
		ShrinkThreshold: constants.ShrinkDormancyThreshold,
	}
}

// ProximityStrategy clusters concepts by tag overlap. A new concept is
// placed on the nearest vacant ring around the existing concept it shares
// the most tags with.
//
// Anchor ties are broken by ascending concept name, and when no existing
// concept shares a tag the lexicographically smallest name anchors the
// search, so placement never depends on map iteration order.
//
// The strategy holds no mutable state; it is safe for concurrent use.
type ProximityStrategy struct {
	config *ProximityConfig
}

// NewProximityStrategy creates a ProximityStrategy with default settings.
func NewProximityStrategy() *ProximityStrategy {
	return &ProximityStrategy{config: DefaultProximityConfig()}
}

// NewProximityStrategyWithConfig creates a ProximityStrategy with the given
// settings. A nil config uses the defaults.
func NewProximityStrategyWithConfig(cfg *ProximityConfig) *ProximityStrategy {
	if cfg == nil {
		cfg = DefaultProximityConfig()
	}
	return &ProximityStrategy{config: cfg}
}

// Name implements Strategy.
func (p *ProximityStrategy) Name() string {
	return constants.ProximityStrategyName
}

// Config returns the strategy's settings.
func (p *ProximityStrategy) Config() ProximityConfig {
	return *p.config
}

// Place implements Strategy.
func (p *ProximityStrategy) Place(name string, tags []string, existing map[string]Concept) grid.Coord {
	return p.PlaceDetailed(name, tags, existing).Coord
}

// PlaceDetailed computes a placement and reports how it was reached.
func (p *ProximityStrategy) PlaceDetailed(name string, tags []string, existing map[string]Concept) Placement {
	if len(existing) == 0 {
		return Placement{Coord: grid.Coord{}, Outcome: constants.OutcomeOrigin}
	}

	anchorName, overlap := p.selectAnchor(tags, existing)
	anchor := existing[anchorName]

	if c, ring, ok := p.spiralSearch(anchor.Center, existing); ok {
		return Placement{
			Coord:   c,
			Anchor:  anchorName,
			Overlap: overlap,
			Ring:    ring,
			Outcome: constants.OutcomeSpiral,
		}
	}

	// The growth line is not checked for vacancy and may land on an
	// existing concept.
	return Placement{
		Coord:   grid.Coord{X: len(existing) * p.config.GrowthStep, Y: 0},
		Anchor:  anchorName,
		Overlap: overlap,
		Outcome: constants.OutcomeFallback,
	}
}

// selectAnchor returns the name of the existing concept with the greatest
// tag overlap. Names are visited in ascending order and only a strictly
// greater overlap replaces the current best, so ties and the all-zero case
// both resolve to the smallest name.
func (p *ProximityStrategy) selectAnchor(tags []string, existing map[string]Concept) (string, int) {
	names := make([]string, 0, len(existing))
	for n := range existing {
		names = append(names, n)
	}
	sort.Strings(names)

	best, bestOverlap := names[0], -1
	for _, n := range names {
		if o := tagging.Overlap(tags, existing[n].Tags); o > bestOverlap {
			best, bestOverlap = n, o
		}
	}
	return best, bestOverlap
}

// spiralSearch scans Chebyshev rings 1..MaxRing around center. Within a
// ring, offsets are visited with dy ascending in the outer loop and dx
// ascending in the inner loop. It returns the first vacant coordinate.
func (p *ProximityStrategy) spiralSearch(center grid.Coord, existing map[string]Concept) (grid.Coord, int, bool) {
	for r := 1; r <= p.config.MaxRing; r++ {
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if max(abs(dx), abs(dy)) != r {
					continue
				}
				c := grid.Coord{X: center.X + dx, Y: center.Y + dy}
				if p.vacant(c, existing) {
					return c, r, true
				}
			}
		}
	}
	return grid.Coord{}, 0, false
}

// vacant reports whether c keeps the required clearance from every existing
// concept: the Euclidean distance must strictly exceed
// CandidateRadius + concept radius + Gap. Distances are compared squared so
// the boundary case is exact.
func (p *ProximityStrategy) vacant(c grid.Coord, existing map[string]Concept) bool {
	for _, e := range existing {
		clearance := p.config.CandidateRadius + e.EffectiveRadius(p.config.DefaultRadius) + p.config.Gap
		if clearance >= 0 && distanceSq(c, e.Center) <= clearance*clearance {
			return false
		}
	}
	return true
}

// ShouldGrow implements Strategy.
func (p *ProximityStrategy) ShouldGrow(name string, usage float64) bool {
	return usage > p.config.GrowThreshold
}

// ShouldShrink implements Strategy.
func (p *ProximityStrategy) ShouldShrink(name string, dormancy int) bool {
	return dormancy > p.config.ShrinkThreshold
}

func distanceSq(a, b grid.Coord) int {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx*dx + dy*dy
}

// Distance is the Euclidean distance between two coordinates.
func Distance(a, b grid.Coord) float64 {
	return math.Sqrt(float64(distanceSq(a, b)))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
