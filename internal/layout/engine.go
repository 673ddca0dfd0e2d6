package layout

import (
	"log/slog"
	"sync"
	"time"

	"github.com/nvandessel/cellgrid/internal/grid"
	"github.com/nvandessel/cellgrid/internal/logging"
)

// detailedPlacer is implemented by strategies that can explain a placement.
type detailedPlacer interface {
	PlaceDetailed(name string, tags []string, existing map[string]Concept) Placement
}

// Observer receives a notification after every placement.
type Observer interface {
	// OnPlace is called with the strategy name, the placement outcome
	// (empty when the strategy does not report one) and the time spent.
	OnPlace(strategy, outcome string, d time.Duration)
}

// NoopObserver is a no-op implementation of Observer.
type NoopObserver struct{}

func (NoopObserver) OnPlace(string, string, time.Duration) {}

// Engine forwards placement requests to a single Strategy. Place calls are
// processed one at a time; a caller waits until every earlier placement has
// returned.
type Engine struct {
	mu       sync.Mutex
	strategy Strategy

	logger    *slog.Logger
	decisions *logging.DecisionLogger
	observer  Observer
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the operational logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithDecisionLogger records a "placement" event for every Place call.
// A nil DecisionLogger disables decision tracing.
func WithDecisionLogger(dl *logging.DecisionLogger) EngineOption {
	return func(e *Engine) {
		e.decisions = dl
	}
}

// WithObserver installs a placement Observer.
func WithObserver(o Observer) EngineOption {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

// NewEngine creates an Engine around s. The strategy cannot be replaced
// afterwards; build a new Engine to switch policies.
func NewEngine(s Strategy, opts ...EngineOption) *Engine {
	e := &Engine{
		strategy: s,
		logger:   slog.New(slog.DiscardHandler),
		observer: NoopObserver{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Strategy returns the active strategy.
func (e *Engine) Strategy() Strategy {
	return e.strategy
}

// Place asks the active strategy for the coordinate of a new concept.
func (e *Engine) Place(name string, tags []string, existing map[string]Concept) grid.Coord {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	var p Placement
	if dp, ok := e.strategy.(detailedPlacer); ok {
		p = dp.PlaceDetailed(name, tags, existing)
	} else {
		p = Placement{Coord: e.strategy.Place(name, tags, existing)}
	}
	elapsed := time.Since(start)

	if p.fallback() {
		e.logger.Warn("spiral search exhausted, using unchecked growth line",
			"name", name, "coord", p.Coord, "existing", len(existing))
	}
	e.logger.Debug("concept placed",
		"name", name, "coord", p.Coord, "anchor", p.Anchor, "outcome", p.Outcome)

	e.decisions.Log(map[string]any{
		"event":    "placement",
		"strategy": e.strategy.Name(),
		"name":     name,
		"tags":     tags,
		"existing": len(existing),
		"x":        p.Coord.X,
		"y":        p.Coord.Y,
		"anchor":   p.Anchor,
		"overlap":  p.Overlap,
		"ring":     p.Ring,
		"outcome":  p.Outcome,
	})
	e.observer.OnPlace(e.strategy.Name(), p.Outcome, elapsed)

	return p.Coord
}

// ShouldGrow forwards to the active strategy.
func (e *Engine) ShouldGrow(name string, usage float64) bool {
	return e.strategy.ShouldGrow(name, usage)
}

// ShouldShrink forwards to the active strategy.
func (e *Engine) ShouldShrink(name string, dormancy int) bool {
	return e.strategy.ShouldShrink(name, dormancy)
}
