package layer

import (
	"testing"

	shp "github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

func TestShapeToGeomPoint(t *testing.T) {
	g := shapeToGeom(&shp.Point{X: 2611000, Y: 1267000})
	pt, ok := g.(*geom.Point)
	require.True(t, ok)
	assert.InDelta(t, 2611000, pt.X(), 1e-9)
	assert.InDelta(t, 1267000, pt.Y(), 1e-9)
}

func TestShapeToGeomPolyLine(t *testing.T) {
	pl := &shp.PolyLine{
		NumParts: 2,
		Parts:    []int32{0, 3},
		Points: []shp.Point{
			{X: 0, Y: 0},
			{X: 10, Y: 0},
			{X: 20, Y: 5},
			{X: 100, Y: 100},
			{X: 110, Y: 100},
		},
	}

	g := shapeToGeom(pl)
	mls, ok := g.(*geom.MultiLineString)
	require.True(t, ok)
	require.Equal(t, 2, mls.NumLineStrings())
	assert.Equal(t, 3, mls.LineString(0).NumCoords())
	assert.Equal(t, 2, mls.LineString(1).NumCoords())
	assert.InDelta(t, 100.0, mls.LineString(1).Coord(0)[0], 1e-9)
}

func TestShapeToGeomPolygon(t *testing.T) {
	poly := &shp.Polygon{
		NumParts: 2,
		Parts:    []int32{0, 5},
		Points: []shp.Point{
			// Ring 1
			{X: 0, Y: 0},
			{X: 100, Y: 0},
			{X: 100, Y: 100},
			{X: 0, Y: 100},
			{X: 0, Y: 0},
			// Ring 2
			{X: 200, Y: 0},
			{X: 300, Y: 0},
			{X: 300, Y: 100},
			{X: 200, Y: 100},
			{X: 200, Y: 0},
		},
	}

	g := shapeToGeom(poly)
	mp, ok := g.(*geom.MultiPolygon)
	require.True(t, ok)
	require.Equal(t, 2, mp.NumPolygons())
	assert.InDelta(t, 10000.0, mp.Polygon(0).Area(), 1e-9)
}

func TestShapeToGeomPolygonWithHole(t *testing.T) {
	// Exterior rings clockwise, the courtyard counter-clockwise. The hole
	// sits between the two exteriors in part order and must still land on
	// the first one.
	poly := &shp.Polygon{
		NumParts: 3,
		Parts:    []int32{0, 5, 10},
		Points: []shp.Point{
			// Exterior A, clockwise
			{X: 0, Y: 0},
			{X: 0, Y: 100},
			{X: 100, Y: 100},
			{X: 100, Y: 0},
			{X: 0, Y: 0},
			// Courtyard inside A, counter-clockwise
			{X: 20, Y: 20},
			{X: 50, Y: 20},
			{X: 50, Y: 50},
			{X: 20, Y: 50},
			{X: 20, Y: 20},
			// Exterior B, clockwise
			{X: 200, Y: 0},
			{X: 200, Y: 100},
			{X: 300, Y: 100},
			{X: 300, Y: 0},
			{X: 200, Y: 0},
		},
	}

	g := shapeToGeom(poly)
	mp, ok := g.(*geom.MultiPolygon)
	require.True(t, ok)
	require.Equal(t, 2, mp.NumPolygons())

	withHole := mp.Polygon(0)
	require.Equal(t, 2, withHole.NumLinearRings())
	assert.InDelta(t, 9100.0, withHole.Area(), 1e-9)

	assert.Equal(t, 1, mp.Polygon(1).NumLinearRings())
	assert.InDelta(t, 10000.0, mp.Polygon(1).Area(), 1e-9)
}

func TestRingSignedArea(t *testing.T) {
	ccw := []float64{0, 0, 10, 0, 10, 10, 0, 10, 0, 0}
	cw := []float64{0, 0, 0, 10, 10, 10, 10, 0, 0, 0}
	assert.InDelta(t, 100.0, ringSignedArea(ccw), 1e-9)
	assert.InDelta(t, -100.0, ringSignedArea(cw), 1e-9)
}

func TestPointInRing(t *testing.T) {
	ring := geom.NewLinearRingFlat(geom.XY, []float64{0, 0, 100, 0, 100, 100, 0, 100, 0, 0})
	assert.True(t, pointInRing(50, 50, ring))
	assert.False(t, pointInRing(150, 50, ring))
	assert.False(t, pointInRing(50, -1, ring))
}

func TestShapeToGeomUnsupported(t *testing.T) {
	assert.Nil(t, shapeToGeom(nil))
	assert.Nil(t, shapeToGeom(&shp.MultiPoint{}))
	assert.Nil(t, shapeToGeom(&shp.PolyLine{}))
}
