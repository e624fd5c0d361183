package layer

import (
	"strings"

	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/basellab/superblock-cli/internal/model"
	"github.com/basellab/superblock-cli/internal/policy"
)

// attr looks an attribute up by name, ignoring case.
func attr(attrs map[string]any, name string) any {
	if v, ok := attrs[name]; ok {
		return v
	}
	for k, v := range attrs {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return nil
}

// RequireField returns a SchemaError when the dataset lacks a field.
func RequireField(ds *Dataset, field string) error {
	if !ds.HasField(field) {
		return &model.SchemaError{Layer: ds.Name, Field: field}
	}
	return nil
}

// Lines converts a dataset to line features. Multi-part lines are exploded;
// parts share the source feature id. hierarchyField may be empty for
// auxiliary layers.
func Lines(ds *Dataset, hierarchyField string) []model.LineFeature {
	var out []model.LineFeature
	for _, ft := range ds.Features {
		class := ""
		if hierarchyField != "" {
			class = attrString(attr(ft.Attrs, hierarchyField))
		}
		for _, ls := range lineStrings(ft.Geom) {
			out = append(out, model.LineFeature{ID: ft.ID, HierarchyClass: class, Geom: ls})
		}
	}
	return out
}

// Parcels converts a dataset to parcel polygons. Parcel ids are ordinals in
// dataset order; multi-part parcels contribute one parcel per part.
func Parcels(ds *Dataset) []model.ParcelPolygon {
	var out []model.ParcelPolygon
	var id int64
	for _, ft := range ds.Features {
		for _, poly := range polygons(ft.Geom) {
			id++
			out = append(out, model.ParcelPolygon{ID: id, Geom: poly})
		}
	}
	return out
}

// PrepareBuildings detects the building schema (GWR via GKLAS, cantonal via
// GEBKATEGO), filters to existing buildings and resolves each class to its
// score weight. Buildings whose class carries no weight do not qualify and
// are dropped here.
func PrepareBuildings(ds *Dataset, pol *policy.Policy) ([]model.BuildingPoint, model.BuildingSource, error) {
	var src model.BuildingSource
	switch {
	case ds.HasField(pol.GWR.ClassField):
		src = model.SourceGWR
	case ds.HasField(pol.Cantonal.ClassField):
		src = model.SourceCantonal
	default:
		return nil, "", &model.SchemaError{
			Layer: ds.Name,
			Field: pol.GWR.ClassField + "/" + pol.Cantonal.ClassField,
		}
	}
	table := pol.Table(src)

	var out []model.BuildingPoint
	var inactive, unclassified int
	for _, ft := range ds.Features {
		pt := pointOf(ft.Geom)
		if pt == nil {
			continue
		}
		if status, ok := attrInt(attr(ft.Attrs, table.StatusField)); ok && status != table.ActiveStatus {
			inactive++
			continue
		}
		class, ok := attrInt(attr(ft.Attrs, table.ClassField))
		if !ok {
			unclassified++
			continue
		}
		weight, ok := table.Weight(class)
		if !ok {
			unclassified++
			continue
		}
		out = append(out, model.BuildingPoint{
			ID:     ft.ID,
			Source: src,
			Class:  class,
			Weight: weight,
			Geom:   pt,
		})
	}

	zap.L().Info("buildings prepared",
		zap.String("source", string(src)),
		zap.Int("qualifying", len(out)),
		zap.Int("inactive", inactive),
		zap.Int("unclassified", unclassified),
	)
	return out, src, nil
}

func lineStrings(g geom.T) []*geom.LineString {
	switch t := g.(type) {
	case *geom.LineString:
		return []*geom.LineString{t}
	case *geom.MultiLineString:
		var out []*geom.LineString
		for i := 0; i < t.NumLineStrings(); i++ {
			out = append(out, t.LineString(i))
		}
		return out
	default:
		return nil
	}
}

func polygons(g geom.T) []*geom.Polygon {
	switch t := g.(type) {
	case *geom.Polygon:
		return []*geom.Polygon{t}
	case *geom.MultiPolygon:
		var out []*geom.Polygon
		for i := 0; i < t.NumPolygons(); i++ {
			out = append(out, t.Polygon(i))
		}
		return out
	default:
		return nil
	}
}

func pointOf(g geom.T) *geom.Point {
	switch t := g.(type) {
	case *geom.Point:
		return t
	case *geom.MultiPoint:
		if t.NumPoints() > 0 {
			return t.Point(0)
		}
	}
	return nil
}
