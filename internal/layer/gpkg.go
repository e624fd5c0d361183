package layer

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/basellab/superblock-cli/pkg/gpkg"
)

// readGeoPackage loads the single feature layer of a GeoPackage. When the
// file holds several layers, the one matching the file's base name wins,
// else the first.
func readGeoPackage(path string) (*Dataset, error) {
	f, err := gpkg.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	layers, err := f.Layers()
	if err != nil {
		return nil, err
	}
	if len(layers) == 0 {
		return nil, eris.Errorf("layer: %s has no feature layers", path)
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name := layers[0]
	for _, l := range layers {
		if strings.EqualFold(l, base) {
			name = l
			break
		}
	}

	fields, err := f.Columns(name)
	if err != nil {
		return nil, err
	}
	feats, err := f.ReadFeatures(name)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{Name: name, Fields: fields}
	for _, ft := range feats {
		if ft.Geom == nil {
			continue
		}
		ds.Features = append(ds.Features, Feature{ID: ft.ID, Geom: ft.Geom, Attrs: ft.Attrs})
	}
	return ds, nil
}
