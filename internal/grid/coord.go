// Package grid provides the spatial index of a sparse 2D grid of cells.
//
// An Index owns four logical tables keyed by Coord: live cell registrations,
// dormant snapshots, pending-input accumulators and the cached bounding box
// of all registered coordinates. Mutations are serialized through a single
// writer; point reads and enumerations are lock-free.
package grid

import "fmt"

// Coord is an integer grid coordinate. It is comparable and used as the key
// of every table in the index.
type Coord struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// String renders the coordinate as "(x,y)".
func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Compare orders coordinates row-major: by Y, then by X.
func (c Coord) Compare(o Coord) int {
	switch {
	case c.Y < o.Y:
		return -1
	case c.Y > o.Y:
		return 1
	case c.X < o.X:
		return -1
	case c.X > o.X:
		return 1
	}
	return 0
}

// Bounds is the axis-aligned bounding box over a set of coordinates.
// Both minimum and maximum are inclusive.
type Bounds struct {
	MinX int `json:"min_x" yaml:"min_x"`
	MaxX int `json:"max_x" yaml:"max_x"`
	MinY int `json:"min_y" yaml:"min_y"`
	MaxY int `json:"max_y" yaml:"max_y"`
}

// PointBounds returns the degenerate box containing only c.
func PointBounds(c Coord) Bounds {
	return Bounds{MinX: c.X, MaxX: c.X, MinY: c.Y, MaxY: c.Y}
}

// Expand returns b grown to include c.
func (b Bounds) Expand(c Coord) Bounds {
	b.MinX = min(b.MinX, c.X)
	b.MaxX = max(b.MaxX, c.X)
	b.MinY = min(b.MinY, c.Y)
	b.MaxY = max(b.MaxY, c.Y)
	return b
}

// Contains reports whether c lies inside b.
func (b Bounds) Contains(c Coord) bool {
	return c.X >= b.MinX && c.X <= b.MaxX && c.Y >= b.MinY && c.Y <= b.MaxY
}

// Width is the number of columns spanned by b.
func (b Bounds) Width() int {
	return b.MaxX - b.MinX + 1
}

// Height is the number of rows spanned by b.
func (b Bounds) Height() int {
	return b.MaxY - b.MinY + 1
}

func (b Bounds) String() string {
	return fmt.Sprintf("x[%d..%d] y[%d..%d]", b.MinX, b.MaxX, b.MinY, b.MaxY)
}
