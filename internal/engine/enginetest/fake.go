// Package enginetest provides an axis-aligned fake engine for tests.
package enginetest

import (
	"github.com/twpayne/go-geom"

	"github.com/basellab/superblock-cli/internal/engine"
)

// Fake implements engine.Engine with envelope arithmetic. It is only valid
// for fixtures built from axis-aligned rectangles that are pairwise disjoint
// or fully covering; partial overlaps are resolved approximately. Real runs
// use the GEOS engine.
type Fake struct{}

var _ engine.Engine = (*Fake)(nil)

// Rect builds an axis-aligned rectangle polygon, closed ring.
func Rect(minX, minY, maxX, maxY float64) *geom.Polygon {
	return geom.NewPolygonFlat(geom.XY, []float64{
		minX, minY, maxX, minY, maxX, maxY, minX, maxY, minX, minY,
	}, []int{10})
}

func bounds(g geom.T) *geom.Bounds {
	if g == nil {
		return nil
	}
	return g.Bounds()
}

func overlaps(a, b *geom.Bounds) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Min(0) <= b.Max(0) && b.Min(0) <= a.Max(0) &&
		a.Min(1) <= b.Max(1) && b.Min(1) <= a.Max(1)
}

func covers(a, b *geom.Bounds) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Min(0) <= b.Min(0) && a.Max(0) >= b.Max(0) &&
		a.Min(1) <= b.Min(1) && a.Max(1) >= b.Max(1)
}

// Buffer expands (or shrinks) the envelope of g by distance.
func (Fake) Buffer(g geom.T, distance float64) (geom.T, error) {
	b := bounds(g)
	if b == nil {
		return nil, nil
	}
	minX, minY := b.Min(0)-distance, b.Min(1)-distance
	maxX, maxY := b.Max(0)+distance, b.Max(1)+distance
	if minX >= maxX || minY >= maxY {
		return nil, nil
	}
	return Rect(minX, minY, maxX, maxY), nil
}

// Union returns the combined envelope of all non-nil inputs.
func (Fake) Union(gs []geom.T) (geom.T, error) {
	var acc *geom.Bounds
	for _, g := range gs {
		b := bounds(g)
		if b == nil {
			continue
		}
		if acc == nil {
			acc = geom.NewBounds(geom.XY)
			acc.Set(b.Min(0), b.Min(1), b.Max(0), b.Max(1))
			continue
		}
		acc.Set(
			min(acc.Min(0), b.Min(0)), min(acc.Min(1), b.Min(1)),
			max(acc.Max(0), b.Max(0)), max(acc.Max(1), b.Max(1)),
		)
	}
	if acc == nil {
		return nil, nil
	}
	return Rect(acc.Min(0), acc.Min(1), acc.Max(0), acc.Max(1)), nil
}

// Difference returns a untouched when envelopes are disjoint, nil when b's
// envelope covers a's, and a otherwise.
func (Fake) Difference(a, b geom.T) (geom.T, error) {
	ba, bb := bounds(a), bounds(b)
	if ba == nil {
		return nil, nil
	}
	if !overlaps(ba, bb) {
		return a, nil
	}
	if covers(bb, ba) {
		return nil, nil
	}
	return a, nil
}

// Intersects reports envelope overlap.
func (Fake) Intersects(a, b geom.T) (bool, error) {
	return overlaps(bounds(a), bounds(b)), nil
}

// Contains reports envelope containment.
func (Fake) Contains(a, b geom.T) (bool, error) {
	return covers(bounds(a), bounds(b)), nil
}

// MinimumRotatedRectangle returns the envelope of g.
func (Fake) MinimumRotatedRectangle(g geom.T) (geom.T, error) {
	b := bounds(g)
	if b == nil {
		return nil, nil
	}
	return Rect(b.Min(0), b.Min(1), b.Max(0), b.Max(1)), nil
}
