package scoring

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/basellab/superblock-cli/internal/engine"
)

// Compactness formulas. Aspect measures the side ratio of the minimal
// oriented bounding rectangle (1.0 for a square footprint); isoperimetric is
// 4*pi*A/P*P (1.0 for a circle). Both reward compact blocks over elongated
// ones.
const (
	CompactnessAspect        = "aspect"
	CompactnessIsoperimetric = "isoperimetric"
)

// rawRatio computes the unscaled compactness of a block geometry.
func rawRatio(eng engine.Engine, g geom.T, formula string) (float64, error) {
	switch formula {
	case CompactnessIsoperimetric:
		a := polyArea(g)
		p := polyPerimeter(g)
		if p == 0 {
			return 0, nil
		}
		return 4 * math.Pi * a / (p * p), nil
	case CompactnessAspect, "":
		rect, err := eng.MinimumRotatedRectangle(g)
		if err != nil {
			return 0, eris.Wrap(err, "scoring: minimum rotated rectangle")
		}
		return rectAspect(rect), nil
	default:
		return 0, eris.Errorf("scoring: unknown compactness formula %q", formula)
	}
}

// rectAspect returns short/long side of a rectangle polygon, in (0,1].
func rectAspect(rect geom.T) float64 {
	poly, ok := rect.(*geom.Polygon)
	if !ok || poly.NumLinearRings() == 0 {
		return 0
	}
	ring := poly.LinearRing(0)
	if ring.NumCoords() < 3 {
		return 0
	}
	a := dist(ring.Coord(0), ring.Coord(1))
	b := dist(ring.Coord(1), ring.Coord(2))
	if a == 0 || b == 0 {
		return 0
	}
	if a > b {
		a, b = b, a
	}
	return a / b
}

func dist(p, q geom.Coord) float64 {
	return math.Hypot(p[0]-q[0], p[1]-q[1])
}

func polyArea(g geom.T) float64 {
	switch t := g.(type) {
	case *geom.Polygon:
		return t.Area()
	case *geom.MultiPolygon:
		return t.Area()
	default:
		return 0
	}
}

func polyPerimeter(g geom.T) float64 {
	switch t := g.(type) {
	case *geom.Polygon:
		return t.Length()
	case *geom.MultiPolygon:
		return t.Length()
	default:
		return 0
	}
}
