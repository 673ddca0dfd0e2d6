// Package layout decides where new concepts are placed on the grid.
//
// A Strategy computes a coordinate for a new concept from its tags and the
// concepts already placed, and answers the grow/shrink capacity questions.
// The Engine holds one Strategy, fixed at construction, and serializes
// placement requests through it.
package layout

import (
	"github.com/nvandessel/cellgrid/internal/constants"
	"github.com/nvandessel/cellgrid/internal/grid"
)

// Concept describes an already-placed concept.
type Concept struct {
	// Tags is the concept's tag set.
	Tags []string `json:"tags" yaml:"tags"`

	// Center is the grid coordinate the concept was placed at.
	Center grid.Coord `json:"center" yaml:"center"`

	// Radius is the placement radius. Nil means DefaultConceptRadius; an
	// explicit zero is honored.
	Radius *int `json:"radius,omitempty" yaml:"radius,omitempty"`
}

// EffectiveRadius returns the concept's radius, or def when it has none.
func (c Concept) EffectiveRadius(def int) int {
	if c.Radius == nil {
		return def
	}
	return *c.Radius
}

// Strategy is a placement policy.
type Strategy interface {
	// Name identifies the policy, e.g. "proximity".
	Name() string

	// Place returns the coordinate for a new concept called name with the
	// given tags. existing maps concept names to already-placed concepts
	// and is not modified.
	Place(name string, tags []string, existing map[string]Concept) grid.Coord

	// ShouldGrow reports whether a concept at the given utilization
	// fraction needs more capacity.
	ShouldGrow(name string, usage float64) bool

	// ShouldShrink reports whether a concept idle for dormancy cycles
	// should release capacity.
	ShouldShrink(name string, dormancy int) bool
}

// Placement is the detailed result of a proximity placement.
type Placement struct {
	Coord grid.Coord `json:"coord"`

	// Anchor is the name of the concept the search started from. Empty for
	// the origin outcome.
	Anchor string `json:"anchor,omitempty"`

	// Overlap is the tag overlap with the anchor.
	Overlap int `json:"overlap"`

	// Ring is the Chebyshev ring the coordinate was found on, 0 unless
	// Outcome is constants.OutcomeSpiral.
	Ring int `json:"ring,omitempty"`

	// Outcome is one of constants.OutcomeOrigin, OutcomeSpiral or
	// OutcomeFallback.
	Outcome string `json:"outcome"`
}

// fallback reports whether the coordinate came from the unchecked growth line.
func (p Placement) fallback() bool {
	return p.Outcome == constants.OutcomeFallback
}
