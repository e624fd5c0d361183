package layer

import (
	"path/filepath"
	"strings"

	shp "github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

// readShapefile loads a shapefile, converting shapes to go-geom geometries.
// Records with unsupported or malformed shapes are skipped and counted.
func readShapefile(path string) (*Dataset, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "layer: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.TrimRight(f.String(), "\x00")
	}

	ds := &Dataset{
		Name:   strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Fields: names,
	}

	var id int64
	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()
		id++

		g := shapeToGeom(shape)
		if g == nil {
			skipped++
			continue
		}

		attrs := make(map[string]any, len(names))
		for i, name := range names {
			val := strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
			if val == "" {
				attrs[name] = nil
			} else {
				attrs[name] = val
			}
		}
		ds.Features = append(ds.Features, Feature{ID: id, Geom: g, Attrs: attrs})
	}

	if skipped > 0 {
		zap.L().Debug("layer: skipped shapefile records",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}
	return ds, nil
}

// shapeToGeom converts a go-shp shape to a go-geom geometry. Returns nil for
// unsupported or empty shapes.
func shapeToGeom(shape shp.Shape) geom.T {
	switch s := shape.(type) {
	case *shp.Point:
		return geom.NewPointFlat(geom.XY, []float64{s.X, s.Y})

	case *shp.PolyLine:
		return polyLineToMultiLineString(s)

	case *shp.Polygon:
		return polygonToMultiPolygon(s)

	default:
		return nil
	}
}

func polyLineToMultiLineString(pl *shp.PolyLine) geom.T {
	if pl == nil || pl.NumParts == 0 || len(pl.Points) == 0 {
		return nil
	}

	mls := geom.NewMultiLineString(geom.XY)
	for i := int32(0); i < pl.NumParts; i++ {
		start := pl.Parts[i]
		end := int32(len(pl.Points))
		if i+1 < pl.NumParts {
			end = pl.Parts[i+1]
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, pl.Points[j].X, pl.Points[j].Y)
		}

		if err := mls.Push(geom.NewLineStringFlat(geom.XY, flat)); err != nil {
			zap.L().Debug("layer: skipping malformed linestring part", zap.Int32("part", i), zap.Error(err))
		}
	}

	if mls.NumLineStrings() == 0 {
		return nil
	}
	return mls
}

// polygonToMultiPolygon reassembles shapefile rings into polygons. Per the
// shapefile convention exterior rings run clockwise and interior rings
// (holes) counter-clockwise; holes are attached to the exterior ring that
// contains them so courtyards do not surface as standalone polygons. A
// counter-clockwise ring with no enclosing exterior is promoted to its own
// polygon, which keeps nonconforming writers readable.
func polygonToMultiPolygon(p *shp.Polygon) geom.T {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	var outers []*geom.Polygon
	var holes []*geom.LinearRing
	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		ring := geom.NewLinearRingFlat(geom.XY, flat)
		if ringSignedArea(flat) > 0 {
			holes = append(holes, ring)
			continue
		}
		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(ring); err != nil {
			zap.L().Debug("layer: skipping malformed polygon ring", zap.Int32("part", i), zap.Error(err))
			continue
		}
		outers = append(outers, poly)
	}

	// Ring order in the file is not guaranteed, so each hole searches for
	// its enclosing exterior.
	for _, h := range holes {
		owner := -1
		c := h.Coord(0)
		for i, o := range outers {
			if pointInRing(c[0], c[1], o.LinearRing(0)) {
				owner = i
				break
			}
		}
		if owner < 0 {
			poly := geom.NewPolygon(geom.XY)
			if err := poly.Push(h); err != nil {
				zap.L().Debug("layer: skipping malformed polygon ring", zap.Error(err))
				continue
			}
			outers = append(outers, poly)
			continue
		}
		if err := outers[owner].Push(h); err != nil {
			zap.L().Debug("layer: skipping malformed interior ring", zap.Error(err))
		}
	}

	mp := geom.NewMultiPolygon(geom.XY)
	for i, poly := range outers {
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("layer: skipping malformed polygon part", zap.Int("part", i), zap.Error(err))
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

// ringSignedArea is the shoelace sum over a closed ring of XY coordinates;
// negative for clockwise rings.
func ringSignedArea(flat []float64) float64 {
	var sum float64
	n := len(flat) / 2
	for i := 0; i < n-1; i++ {
		x1, y1 := flat[2*i], flat[2*i+1]
		x2, y2 := flat[2*i+2], flat[2*i+3]
		sum += x1*y2 - x2*y1
	}
	return sum / 2
}

// pointInRing is an even-odd raycast test.
func pointInRing(x, y float64, r *geom.LinearRing) bool {
	flat := r.FlatCoords()
	n := len(flat) / 2
	in := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := flat[2*i], flat[2*i+1]
		xj, yj := flat[2*j], flat[2*j+1]
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			in = !in
		}
	}
	return in
}
