package gpkg

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// CreateLayer creates and registers a feature table. geomType is an OGC
// geometry type name such as LINESTRING or MULTIPOLYGON.
func (f *File) CreateLayer(name, geomType string, cols []Column) error {
	defs := []string{"fid INTEGER PRIMARY KEY AUTOINCREMENT", "geom BLOB"}
	for _, c := range cols {
		defs = append(defs, fmt.Sprintf("%q %s", c.Name, c.Type))
	}
	if _, err := f.db.Exec(fmt.Sprintf(`CREATE TABLE %q (%s)`, name, strings.Join(defs, ", "))); err != nil {
		return eris.Wrapf(err, "gpkg: create layer %s", name)
	}

	if _, err := f.db.Exec(
		`INSERT INTO gpkg_contents (table_name, data_type, identifier, srs_id) VALUES (?, 'features', ?, ?)`,
		name, name, f.srid,
	); err != nil {
		return eris.Wrapf(err, "gpkg: register contents %s", name)
	}
	if _, err := f.db.Exec(
		`INSERT INTO gpkg_geometry_columns (table_name, column_name, geometry_type_name, srs_id, z, m) VALUES (?, 'geom', ?, ?, 0, 0)`,
		name, geomType, f.srid,
	); err != nil {
		return eris.Wrapf(err, "gpkg: register geometry column %s", name)
	}
	return nil
}

// WriteFeatures inserts features into a layer inside one transaction.
// Attribute values are looked up by column name; missing attributes insert
// as NULL.
func (f *File) WriteFeatures(layer string, cols []Column, feats []Feature) error {
	placeholders := []string{"?"}
	names := []string{"geom"}
	for _, c := range cols {
		names = append(names, fmt.Sprintf("%q", c.Name))
		placeholders = append(placeholders, "?")
	}
	stmt := fmt.Sprintf(`INSERT INTO %q (%s) VALUES (%s)`,
		layer, strings.Join(names, ", "), strings.Join(placeholders, ", "))

	tx, err := f.db.Begin()
	if err != nil {
		return eris.Wrapf(err, "gpkg: begin write %s", layer)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, ft := range feats {
		blob, err := encodeGeom(ft.Geom, f.srid)
		if err != nil {
			return eris.Wrapf(err, "gpkg: feature %d", ft.ID)
		}
		args := make([]any, 0, len(cols)+1)
		args = append(args, blob)
		for _, c := range cols {
			args = append(args, ft.Attrs[c.Name])
		}
		if _, err := tx.Exec(stmt, args...); err != nil {
			return eris.Wrapf(err, "gpkg: insert into %s", layer)
		}
	}
	if err := tx.Commit(); err != nil {
		return eris.Wrapf(err, "gpkg: commit %s", layer)
	}
	return nil
}
