package layer

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/basellab/superblock-cli/internal/model"
	"github.com/basellab/superblock-cli/pkg/gpkg"
)

// WriteNetwork writes the cleaned network components as a line layer.
func WriteNetwork(path string, comps []model.NetworkComponent) error {
	f, err := gpkg.Create(path, SRID)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	cols := []gpkg.Column{
		{Name: "component", Type: "INTEGER"},
		{Name: "length", Type: "REAL"},
	}
	if err := f.CreateLayer("network_cleaned", "LINESTRING", cols); err != nil {
		return err
	}

	var feats []gpkg.Feature
	for _, comp := range comps {
		for _, ls := range comp.Lines {
			feats = append(feats, gpkg.Feature{
				Geom: ls,
				Attrs: map[string]any{
					"component": comp.ID,
					"length":    comp.Length,
				},
			})
		}
	}
	if err := f.WriteFeatures("network_cleaned", cols, feats); err != nil {
		return eris.Wrap(err, "layer: write cleaned network")
	}
	return nil
}

// WriteAnchors writes the anchor points as a point layer.
func WriteAnchors(path string, anchors []model.AnchorPoint) error {
	f, err := gpkg.Create(path, SRID)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	cols := []gpkg.Column{
		{Name: "component", Type: "INTEGER"},
		{Name: "degree", Type: "INTEGER"},
	}
	if err := f.CreateLayer("anchors", "POINT", cols); err != nil {
		return err
	}

	feats := make([]gpkg.Feature, 0, len(anchors))
	for _, a := range anchors {
		feats = append(feats, gpkg.Feature{
			Geom: a.Geom,
			Attrs: map[string]any{
				"component": a.ComponentID,
				"degree":    a.Degree,
			},
		})
	}
	if err := f.WriteFeatures("anchors", cols, feats); err != nil {
		return eris.Wrap(err, "layer: write anchors")
	}
	return nil
}

// WriteBlocks writes the scored candidate blocks with all score attributes
// and the final rank.
func WriteBlocks(path string, blocks []model.CandidateBlock) error {
	f, err := gpkg.Create(path, SRID)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	cols := []gpkg.Column{
		{Name: "block_id", Type: "INTEGER"},
		{Name: "parcels", Type: "TEXT"},
		{Name: "buildings", Type: "INTEGER"},
		{Name: "score_building_raw", Type: "REAL"},
		{Name: "score_building", Type: "REAL"},
		{Name: "ratio_raw", Type: "REAL"},
		{Name: "score_ratio", Type: "REAL"},
		{Name: "score_final", Type: "REAL"},
		{Name: "rank", Type: "INTEGER"},
	}
	if err := f.CreateLayer("blocks_scored", "MULTIPOLYGON", cols); err != nil {
		return err
	}

	feats := make([]gpkg.Feature, 0, len(blocks))
	for _, b := range blocks {
		ids := make([]string, len(b.ParcelIDs))
		for i, id := range b.ParcelIDs {
			ids[i] = strconv.FormatInt(id, 10)
		}
		feats = append(feats, gpkg.Feature{
			Geom: b.Geom,
			Attrs: map[string]any{
				"block_id":           b.ID,
				"parcels":            strings.Join(ids, ","),
				"buildings":          len(b.Buildings),
				"score_building_raw": b.RawBuildingScore,
				"score_building":     b.ScaledBuildingScore,
				"ratio_raw":          b.RawRatio,
				"score_ratio":        b.ScaledRatioScore,
				"score_final":        b.FinalScore,
				"rank":               b.Rank,
			},
		})
	}
	if err := f.WriteFeatures("blocks_scored", cols, feats); err != nil {
		return eris.Wrap(err, "layer: write scored blocks")
	}
	return nil
}

// WriteBuildings writes the prepared qualifying buildings.
func WriteBuildings(path string, buildings []model.BuildingPoint) error {
	f, err := gpkg.Create(path, SRID)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	cols := []gpkg.Column{
		{Name: "source", Type: "TEXT"},
		{Name: "class", Type: "INTEGER"},
		{Name: "score_building", Type: "REAL"},
	}
	if err := f.CreateLayer("buildings_prepared", "POINT", cols); err != nil {
		return err
	}

	feats := make([]gpkg.Feature, 0, len(buildings))
	for _, b := range buildings {
		feats = append(feats, gpkg.Feature{
			Geom: b.Geom,
			Attrs: map[string]any{
				"source":         string(b.Source),
				"class":          b.Class,
				"score_building": b.Weight,
			},
		})
	}
	if err := f.WriteFeatures("buildings_prepared", cols, feats); err != nil {
		return eris.Wrap(err, "layer: write prepared buildings")
	}
	return nil
}
