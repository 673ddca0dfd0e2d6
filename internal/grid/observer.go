package grid

// Observer receives notifications after index mutations complete.
// Implement this interface to integrate with monitoring systems.
// Callbacks run on the mutating goroutine after the writer lock is
// released, so they may read the index but should return quickly.
type Observer interface {
	// OnRegister is called after a cell is registered at c.
	OnRegister(c Coord)

	// OnUnregister is called after an unregister at c. removed is false
	// when no cell was registered there.
	OnUnregister(c Coord, removed bool)

	// OnSnapshotTaken is called after TakeSnapshot at c. found reports
	// whether a snapshot was present.
	OnSnapshotTaken(c Coord, found bool)

	// OnDrain is called after TakePendingAbove with the number of
	// entries drained and their summed amount.
	OnDrain(threshold float64, drained int, total float64)
}

// NoopObserver is a no-op implementation of Observer.
type NoopObserver struct{}

func (NoopObserver) OnRegister(Coord)              {}
func (NoopObserver) OnUnregister(Coord, bool)      {}
func (NoopObserver) OnSnapshotTaken(Coord, bool)   {}
func (NoopObserver) OnDrain(float64, int, float64) {}
