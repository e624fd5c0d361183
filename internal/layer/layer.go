// Package layer reads and writes the vector datasets the pipeline consumes
// and produces. Shapefiles and GeoPackages are supported; both must already
// be in the pipeline's planar projected CRS.
package layer

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// SRID is the planar projected reference system of all layers (LV95).
const SRID = 2056

// Feature is one record of an input dataset with raw attributes.
type Feature struct {
	ID    int64
	Geom  geom.T
	Attrs map[string]any
}

// Dataset is a fully loaded input layer.
type Dataset struct {
	Name     string
	Fields   []string
	Features []Feature
}

// HasField reports whether the dataset carries an attribute field.
func (d *Dataset) HasField(name string) bool {
	for _, f := range d.Fields {
		if strings.EqualFold(f, name) {
			return true
		}
	}
	return false
}

// Read loads a dataset, dispatching on the file extension.
func Read(path string) (*Dataset, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp":
		return readShapefile(path)
	case ".gpkg":
		return readGeoPackage(path)
	default:
		return nil, eris.Errorf("layer: unsupported format %s", path)
	}
}

func attrString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(strings.TrimRight(t, "\x00"))
	case []byte:
		return strings.TrimSpace(strings.TrimRight(string(t), "\x00"))
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

func attrInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	case string, []byte:
		n, err := strconv.Atoi(attrString(v))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
