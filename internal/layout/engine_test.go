package layout

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nvandessel/cellgrid/internal/grid"
	"github.com/nvandessel/cellgrid/internal/logging"
)

// serialCheckStrategy records how many Place calls overlap in time.
type serialCheckStrategy struct {
	inflight atomic.Int32
	maxSeen  atomic.Int32
	calls    atomic.Int32
}

func (s *serialCheckStrategy) Name() string { return "serial-check" }

func (s *serialCheckStrategy) Place(name string, tags []string, existing map[string]Concept) grid.Coord {
	n := s.inflight.Add(1)
	for {
		prev := s.maxSeen.Load()
		if n <= prev || s.maxSeen.CompareAndSwap(prev, n) {
			break
		}
	}
	time.Sleep(100 * time.Microsecond)
	s.inflight.Add(-1)
	return grid.Coord{X: int(s.calls.Add(1))}
}

func (s *serialCheckStrategy) ShouldGrow(string, float64) bool { return true }
func (s *serialCheckStrategy) ShouldShrink(string, int) bool   { return false }

type nopCloser struct{ *bytes.Buffer }

func (nopCloser) Close() error { return nil }

type outcomeRecorder struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *outcomeRecorder) OnPlace(_ string, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func TestEngine_StrategyIsFixed(t *testing.T) {
	s := NewProximityStrategy()
	e := NewEngine(s)
	if e.Strategy() != Strategy(s) {
		t.Error("Strategy() should return the strategy given at construction")
	}
	if e.Strategy().Name() != "proximity" {
		t.Errorf("Strategy().Name() = %q", e.Strategy().Name())
	}
}

func TestEngine_PlaceDelegates(t *testing.T) {
	e := NewEngine(NewProximityStrategy())

	if got := e.Place("seed", nil, nil); got != (grid.Coord{}) {
		t.Errorf("Place() on empty grid = %v, want (0,0)", got)
	}

	existing := map[string]Concept{"A": {Tags: []string{"x"}, Center: grid.Coord{}, Radius: radius(3)}}
	if got := e.Place("B", []string{"y"}, existing); got != (grid.Coord{X: -6, Y: -6}) {
		t.Errorf("Place() = %v, want (-6,-6)", got)
	}
}

func TestEngine_CapacityPredicates(t *testing.T) {
	e := NewEngine(NewProximityStrategy())

	if !e.ShouldGrow("c", 0.61) || e.ShouldGrow("c", 0.6) {
		t.Error("ShouldGrow threshold mismatch")
	}
	if !e.ShouldShrink("c", 201) || e.ShouldShrink("c", 200) {
		t.Error("ShouldShrink threshold mismatch")
	}

	custom := NewEngine(&serialCheckStrategy{})
	if !custom.ShouldGrow("c", 0) || custom.ShouldShrink("c", 1000) {
		t.Error("predicates should be forwarded to the custom strategy")
	}
}

func TestEngine_SerializesPlacement(t *testing.T) {
	s := &serialCheckStrategy{}
	e := NewEngine(s)

	var wg sync.WaitGroup
	results := make(chan grid.Coord, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- e.Place("c", nil, nil)
		}()
	}
	wg.Wait()
	close(results)

	if m := s.maxSeen.Load(); m != 1 {
		t.Errorf("max concurrent Place calls = %d, want 1", m)
	}

	seen := make(map[int]bool)
	for c := range results {
		if seen[c.X] {
			t.Errorf("duplicate call sequence number %d", c.X)
		}
		seen[c.X] = true
	}
	if len(seen) != 50 {
		t.Errorf("got %d distinct results, want 50", len(seen))
	}
}

func TestEngine_DecisionLog(t *testing.T) {
	buf := &bytes.Buffer{}
	dl := logging.NewDecisionLoggerTo(nopCloser{buf})
	rec := &outcomeRecorder{}
	e := NewEngine(NewProximityStrategy(), WithDecisionLogger(dl), WithObserver(rec))

	e.Place("seed", []string{"x"}, nil)
	e.Place("next", []string{"x"}, map[string]Concept{"seed": {Tags: []string{"x"}}})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d decision lines, want 2", len(lines))
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &entry); err != nil {
		t.Fatalf("invalid decision line: %v", err)
	}
	if entry["event"] != "placement" || entry["anchor"] != "seed" || entry["outcome"] != "spiral" {
		t.Errorf("unexpected decision entry: %v", entry)
	}
	if entry["strategy"] != "proximity" {
		t.Errorf("strategy = %v, want proximity", entry["strategy"])
	}

	if len(rec.outcomes) != 2 || rec.outcomes[0] != "origin" || rec.outcomes[1] != "spiral" {
		t.Errorf("observer outcomes = %v, want [origin spiral]", rec.outcomes)
	}
}

func TestEngine_FallbackWarning(t *testing.T) {
	var logBuf bytes.Buffer
	cfg := DefaultProximityConfig()
	cfg.MaxRing = 0
	e := NewEngine(NewProximityStrategyWithConfig(cfg), WithLogger(logging.NewLogger("info", &logBuf)))

	got := e.Place("b", nil, map[string]Concept{"a": {}})
	if got != (grid.Coord{X: 8}) {
		t.Errorf("Place() = %v, want (8,0)", got)
	}
	if !strings.Contains(logBuf.String(), "growth line") {
		t.Errorf("expected fallback warning, got %q", logBuf.String())
	}
}

func TestEngine_CustomStrategyHasNoOutcome(t *testing.T) {
	rec := &outcomeRecorder{}
	e := NewEngine(&serialCheckStrategy{}, WithObserver(rec))
	e.Place("c", nil, nil)

	if len(rec.outcomes) != 1 || rec.outcomes[0] != "" {
		t.Errorf("observer outcomes = %v, want one empty outcome", rec.outcomes)
	}
}
