package gpkg

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// Layers lists the feature tables registered in gpkg_contents.
func (f *File) Layers() ([]string, error) {
	rows, err := f.db.Query(`SELECT table_name FROM gpkg_contents WHERE data_type = 'features' ORDER BY table_name`)
	if err != nil {
		return nil, eris.Wrap(err, "gpkg: list layers")
	}
	defer rows.Close() //nolint:errcheck

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, eris.Wrap(err, "gpkg: scan layer name")
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// Columns returns the attribute column names of a layer, excluding the
// primary key and geometry columns.
func (f *File) Columns(layer string) ([]string, error) {
	rows, err := f.db.Query(fmt.Sprintf(`PRAGMA table_info(%q)`, layer))
	if err != nil {
		return nil, eris.Wrapf(err, "gpkg: table info %s", layer)
	}
	defer rows.Close() //nolint:errcheck

	var cols []string
	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notnull    int
			dflt       any
			primaryKey int
		)
		if err := rows.Scan(&cid, &name, &typ, &notnull, &dflt, &primaryKey); err != nil {
			return nil, eris.Wrap(err, "gpkg: scan table info")
		}
		if primaryKey != 0 || name == "geom" {
			continue
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

// ReadFeatures loads all rows of a layer, decoding geometry blobs.
func (f *File) ReadFeatures(layer string) ([]Feature, error) {
	cols, err := f.Columns(layer)
	if err != nil {
		return nil, err
	}

	sel := "fid, geom"
	for _, c := range cols {
		sel += fmt.Sprintf(", %q", c)
	}
	rows, err := f.db.Query(fmt.Sprintf(`SELECT %s FROM %q`, sel, layer))
	if err != nil {
		return nil, eris.Wrapf(err, "gpkg: read %s", layer)
	}
	defer rows.Close() //nolint:errcheck

	var feats []Feature
	for rows.Next() {
		var (
			fid  int64
			blob []byte
		)
		vals := make([]any, len(cols))
		ptrs := make([]any, 0, len(cols)+2)
		ptrs = append(ptrs, &fid, &blob)
		for i := range vals {
			ptrs = append(ptrs, &vals[i])
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, eris.Wrapf(err, "gpkg: scan %s row", layer)
		}

		g, err := decodeGeom(blob)
		if err != nil {
			return nil, eris.Wrapf(err, "gpkg: feature %d", fid)
		}

		attrs := make(map[string]any, len(cols))
		for i, c := range cols {
			attrs[c] = vals[i]
		}
		feats = append(feats, Feature{ID: fid, Geom: g, Attrs: attrs})
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "gpkg: iterate %s", layer)
	}
	return feats, nil
}
