// Package engine defines the narrow planar-geometry capability interface the
// pipeline depends on. Implementations are assumed correct; the pipeline only
// specifies how they are invoked. A nil geometry is the empty geometry:
// operations accept and may return nil.
package engine

import (
	"github.com/twpayne/go-geom"
)

// Engine is the set of vector operations the pipeline needs. Distances are
// in CRS units; a negative buffer distance produces an inset.
type Engine interface {
	// Buffer returns the polygonal buffer of g at the given distance.
	Buffer(g geom.T, distance float64) (geom.T, error)
	// Union dissolves a set of geometries into one.
	Union(gs []geom.T) (geom.T, error)
	// Difference returns a minus b.
	Difference(a, b geom.T) (geom.T, error)
	// Intersects reports whether a and b share any point.
	Intersects(a, b geom.T) (bool, error)
	// Contains reports whether a fully contains b.
	Contains(a, b geom.T) (bool, error)
	// MinimumRotatedRectangle returns the minimal oriented bounding
	// rectangle of g.
	MinimumRotatedRectangle(g geom.T) (geom.T, error)
}
