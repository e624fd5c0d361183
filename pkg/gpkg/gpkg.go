// Package gpkg reads and writes GeoPackage vector layers. A GeoPackage is a
// SQLite database with registered feature tables whose geometry column holds
// a GP-header-prefixed WKB blob; this package covers exactly the subset the
// pipeline needs (2D features, one geometry column named geom).
package gpkg

import (
	"bytes"
	"database/sql"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
	_ "modernc.org/sqlite" // database/sql driver
)

// gpkgApplicationID is "GPKG" as a big-endian uint32, required by the
// GeoPackage format.
const gpkgApplicationID = 0x47504B47

// Column describes one attribute column of a feature table.
type Column struct {
	Name string
	Type string // SQLite type: TEXT, INTEGER or REAL
}

// Feature is one row of a feature table.
type Feature struct {
	ID    int64
	Geom  geom.T
	Attrs map[string]any
}

// File is an open GeoPackage.
type File struct {
	db   *sql.DB
	path string
	srid int
}

// Open opens an existing GeoPackage for reading. The file must already
// exist; the sqlite driver would otherwise create an empty database at the
// given path.
func Open(path string) (*File, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, eris.Wrapf(err, "gpkg: open %s", path)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrapf(err, "gpkg: open %s", path)
	}
	return &File{db: db, path: path}, nil
}

// Create creates a new GeoPackage with the core metadata tables. srid is the
// spatial reference for every layer in the file.
func Create(path string, srid int) (*File, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrapf(err, "gpkg: create %s", path)
	}
	f := &File{db: db, path: path, srid: srid}
	if err := f.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return f, nil
}

// Close closes the underlying database.
func (f *File) Close() error {
	return f.db.Close()
}

func (f *File) initSchema() error {
	stmts := []string{
		fmt.Sprintf("PRAGMA application_id = %d", gpkgApplicationID),
		"PRAGMA user_version = 10300",
		`CREATE TABLE IF NOT EXISTS gpkg_spatial_ref_sys (
			srs_name TEXT NOT NULL,
			srs_id INTEGER PRIMARY KEY,
			organization TEXT NOT NULL,
			organization_coordsys_id INTEGER NOT NULL,
			definition TEXT NOT NULL,
			description TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS gpkg_contents (
			table_name TEXT PRIMARY KEY,
			data_type TEXT NOT NULL,
			identifier TEXT UNIQUE,
			description TEXT DEFAULT '',
			last_change DATETIME DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
			min_x DOUBLE, min_y DOUBLE, max_x DOUBLE, max_y DOUBLE,
			srs_id INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS gpkg_geometry_columns (
			table_name TEXT PRIMARY KEY,
			column_name TEXT NOT NULL,
			geometry_type_name TEXT NOT NULL,
			srs_id INTEGER NOT NULL,
			z TINYINT NOT NULL,
			m TINYINT NOT NULL
		)`,
	}
	for _, s := range stmts {
		if _, err := f.db.Exec(s); err != nil {
			return eris.Wrap(err, "gpkg: init schema")
		}
	}

	refs := [][]any{
		{"Undefined cartesian SRS", -1, "NONE", -1, "undefined"},
		{"Undefined geographic SRS", 0, "NONE", 0, "undefined"},
		{fmt.Sprintf("EPSG:%d", f.srid), f.srid, "EPSG", f.srid, fmt.Sprintf("EPSG:%d", f.srid)},
	}
	for _, r := range refs {
		if _, err := f.db.Exec(
			`INSERT OR IGNORE INTO gpkg_spatial_ref_sys
			 (srs_name, srs_id, organization, organization_coordsys_id, definition)
			 VALUES (?, ?, ?, ?, ?)`, r...); err != nil {
			return eris.Wrap(err, "gpkg: register srs")
		}
	}
	return nil
}

// encodeGeom wraps WKB in the standard GeoPackage binary header (little
// endian, no envelope).
func encodeGeom(g geom.T, srid int) ([]byte, error) {
	if g == nil {
		return nil, nil
	}
	body, err := wkb.Marshal(g, wkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "gpkg: marshal WKB")
	}
	var buf bytes.Buffer
	buf.WriteByte('G')
	buf.WriteByte('P')
	buf.WriteByte(0)    // version
	buf.WriteByte(0x01) // little endian, no envelope
	if err := binary.Write(&buf, binary.LittleEndian, int32(srid)); err != nil {
		return nil, eris.Wrap(err, "gpkg: write header")
	}
	buf.Write(body)
	return buf.Bytes(), nil
}

// decodeGeom strips the GP header and parses the WKB body.
func decodeGeom(blob []byte) (geom.T, error) {
	if len(blob) == 0 {
		return nil, nil
	}
	if len(blob) < 8 || blob[0] != 'G' || blob[1] != 'P' {
		return nil, eris.New("gpkg: not a GeoPackage geometry blob")
	}
	flags := blob[3]
	if flags&0x20 != 0 {
		// Empty-geometry flag.
		return nil, nil
	}
	envSize := 0
	switch (flags >> 1) & 0x07 {
	case 0:
		envSize = 0
	case 1:
		envSize = 32
	case 2, 3:
		envSize = 48
	case 4:
		envSize = 64
	default:
		return nil, eris.New("gpkg: invalid envelope indicator")
	}
	body := blob[8+envSize:]
	g, err := wkb.Unmarshal(body)
	if err != nil {
		return nil, eris.Wrap(err, "gpkg: unmarshal WKB")
	}
	return g, nil
}
