package grid

import (
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
)

// Handle is an opaque reference to a live cell worker. The index never
// inspects it.
type Handle = any

// CellEntry is a registered cell as returned by Cells.
type CellEntry struct {
	Coord  Coord
	Handle Handle
}

// SnapshotEntry is a dormant snapshot as returned by Snapshots.
type SnapshotEntry struct {
	Coord Coord
	State []byte
}

// PendingEntry is an accumulated pending-input amount.
type PendingEntry struct {
	Coord  Coord   `json:"coord"`
	Amount float64 `json:"amount"`
}

// Stats summarizes the current contents of an Index.
type Stats struct {
	Cells     int     `json:"cells"`
	Snapshots int     `json:"snapshots"`
	Pending   int     `json:"pending"`
	Bounds    *Bounds `json:"bounds,omitempty"`
}

// Index is the spatial index of a sparse grid. The zero value is not
// usable; construct with New.
//
// All mutations, including every read-modify-write, are serialized by a
// single writer lock. This keeps the cached bounds equal to the exact
// min/max of the registered coordinates, keeps registrations and snapshots
// mutually exclusive per coordinate, and prevents lost pending updates.
// Cell, Bounds, Pending and the enumerations never take the writer lock.
//
// A caller blocked on the writer lock waits indefinitely; there is no
// timeout.
type Index struct {
	mu sync.Mutex

	cells     sync.Map // Coord -> Handle
	snapshots sync.Map // Coord -> []byte
	pending   sync.Map // Coord -> float64

	// bounds is nil when no cell is registered.
	bounds atomic.Pointer[Bounds]

	observer Observer
	logger   *slog.Logger
}

// Option configures an Index.
type Option func(*Index)

// WithObserver installs an Observer notified after mutations.
func WithObserver(o Observer) Option {
	return func(ix *Index) {
		if o != nil {
			ix.observer = o
		}
	}
}

// WithLogger sets the logger used for debug tracing of mutations.
func WithLogger(l *slog.Logger) Option {
	return func(ix *Index) {
		if l != nil {
			ix.logger = l
		}
	}
}

// New creates an empty index.
func New(opts ...Option) *Index {
	ix := &Index{
		observer: NoopObserver{},
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Register stores h at c, replacing any previous handle, and discards any
// dormant snapshot at c. The cached bounds are expanded to include c.
func (ix *Index) Register(c Coord, h Handle) {
	ix.mu.Lock()
	ix.cells.Store(c, h)
	ix.snapshots.Delete(c)

	next := PointBounds(c)
	if b := ix.bounds.Load(); b != nil {
		next = b.Expand(c)
	}
	ix.bounds.Store(&next)
	ix.mu.Unlock()

	ix.logger.Debug("cell registered", "coord", c, "bounds", next)
	ix.observer.OnRegister(c)
}

// Unregister removes the cell at c if present and recomputes the bounds
// from the remaining registrations.
func (ix *Index) Unregister(c Coord) {
	ix.mu.Lock()
	_, removed := ix.cells.LoadAndDelete(c)
	ix.recomputeBoundsLocked()
	ix.mu.Unlock()

	ix.logger.Debug("cell unregistered", "coord", c, "removed", removed)
	ix.observer.OnUnregister(c, removed)
}

// Cell returns the handle registered at c.
func (ix *Index) Cell(c Coord) (Handle, bool) {
	return ix.cells.Load(c)
}

// Cells returns every registration ordered row-major by coordinate.
func (ix *Index) Cells() []CellEntry {
	var out []CellEntry
	ix.cells.Range(func(k, v any) bool {
		out = append(out, CellEntry{Coord: k.(Coord), Handle: v})
		return true
	})
	slices.SortFunc(out, func(a, b CellEntry) int { return a.Coord.Compare(b.Coord) })
	return out
}

// Coords returns every registered coordinate ordered row-major.
func (ix *Index) Coords() []Coord {
	var out []Coord
	ix.cells.Range(func(k, _ any) bool {
		out = append(out, k.(Coord))
		return true
	})
	slices.SortFunc(out, Coord.Compare)
	return out
}

// Bounds returns the cached bounding box of all registered coordinates.
// ok is false when no cell is registered.
func (ix *Index) Bounds() (b Bounds, ok bool) {
	p := ix.bounds.Load()
	if p == nil {
		return Bounds{}, false
	}
	return *p, true
}

// RecomputeBounds rebuilds the cached bounds with a full scan of the
// registrations.
func (ix *Index) RecomputeBounds() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.recomputeBoundsLocked()
}

// recomputeBoundsLocked must be called with ix.mu held.
func (ix *Index) recomputeBoundsLocked() {
	var (
		b     Bounds
		found bool
	)
	ix.cells.Range(func(k, _ any) bool {
		c := k.(Coord)
		if !found {
			b, found = PointBounds(c), true
		} else {
			b = b.Expand(c)
		}
		return true
	})
	if !found {
		ix.bounds.Store(nil)
		return
	}
	ix.bounds.Store(&b)
}

// PutSnapshot stores state as the dormant snapshot at c.
func (ix *Index) PutSnapshot(c Coord, state []byte) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.snapshots.Store(c, state)
}

// DeleteSnapshot removes the snapshot at c, if any.
func (ix *Index) DeleteSnapshot(c Coord) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.snapshots.Delete(c)
}

// TakeSnapshot removes and returns the snapshot at c.
func (ix *Index) TakeSnapshot(c Coord) ([]byte, bool) {
	ix.mu.Lock()
	v, ok := ix.snapshots.LoadAndDelete(c)
	ix.mu.Unlock()

	ix.observer.OnSnapshotTaken(c, ok)
	if !ok {
		return nil, false
	}
	return v.([]byte), true
}

// Snapshots returns every dormant snapshot ordered row-major by coordinate.
func (ix *Index) Snapshots() []SnapshotEntry {
	var out []SnapshotEntry
	ix.snapshots.Range(func(k, v any) bool {
		out = append(out, SnapshotEntry{Coord: k.(Coord), State: v.([]byte)})
		return true
	})
	slices.SortFunc(out, func(a, b SnapshotEntry) int { return a.Coord.Compare(b.Coord) })
	return out
}

// ClearSnapshots removes all dormant snapshots.
func (ix *Index) ClearSnapshots() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.snapshots.Clear()
}

// AddPending adds amount to the pending accumulator at c, starting from 0.
func (ix *Index) AddPending(c Coord, amount float64) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	sum := amount
	if v, ok := ix.pending.Load(c); ok {
		sum += v.(float64)
	}
	ix.pending.Store(c, sum)
}

// Pending returns the accumulated amount at c.
func (ix *Index) Pending(c Coord) (float64, bool) {
	v, ok := ix.pending.Load(c)
	if !ok {
		return 0, false
	}
	return v.(float64), true
}

// TakePendingAbove removes and returns every accumulator whose amount is
// greater than or equal to threshold. Entries below the threshold are left
// in place and keep accumulating. The result is ordered row-major.
func (ix *Index) TakePendingAbove(threshold float64) []PendingEntry {
	ix.mu.Lock()
	var out []PendingEntry
	ix.pending.Range(func(k, v any) bool {
		if amount := v.(float64); amount >= threshold {
			out = append(out, PendingEntry{Coord: k.(Coord), Amount: amount})
		}
		return true
	})
	for _, e := range out {
		ix.pending.Delete(e.Coord)
	}
	ix.mu.Unlock()

	slices.SortFunc(out, func(a, b PendingEntry) int { return a.Coord.Compare(b.Coord) })

	var total float64
	for _, e := range out {
		total += e.Amount
	}
	ix.logger.Debug("pending drained", "threshold", threshold, "drained", len(out), "total", total)
	ix.observer.OnDrain(threshold, len(out), total)
	return out
}

// ClearPending removes all pending accumulators.
func (ix *Index) ClearPending() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.pending.Clear()
}

// Stats counts the entries of each table. Like the enumerations it does not
// take the writer lock, so counts may straddle a concurrent mutation.
func (ix *Index) Stats() Stats {
	var s Stats
	ix.cells.Range(func(_, _ any) bool { s.Cells++; return true })
	ix.snapshots.Range(func(_, _ any) bool { s.Snapshots++; return true })
	ix.pending.Range(func(_, _ any) bool { s.Pending++; return true })
	if b, ok := ix.Bounds(); ok {
		s.Bounds = &b
	}
	return s
}
