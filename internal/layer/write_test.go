package layer

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/basellab/superblock-cli/internal/model"
	"github.com/basellab/superblock-cli/pkg/gpkg"
)

func TestWriteNetworkRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "network_cleaned.gpkg")

	comps := []model.NetworkComponent{
		{
			ID: 1,
			Lines: []*geom.LineString{
				geom.NewLineStringFlat(geom.XY, []float64{0, 0, 100, 0}),
				geom.NewLineStringFlat(geom.XY, []float64{100, 0, 100, 50}),
			},
			Length: 150,
		},
		{
			ID:     2,
			Lines:  []*geom.LineString{geom.NewLineStringFlat(geom.XY, []float64{500, 500, 600, 500})},
			Length: 100,
		},
	}
	require.NoError(t, WriteNetwork(path, comps))

	ds, err := Read(path)
	require.NoError(t, err)
	require.Len(t, ds.Features, 3)

	first, ok := attrInt(attr(ds.Features[0].Attrs, "component"))
	require.True(t, ok)
	assert.Equal(t, 1, first)
	last, ok := attrInt(attr(ds.Features[2].Attrs, "component"))
	require.True(t, ok)
	assert.Equal(t, 2, last)
}

func TestWriteAnchors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anchors.gpkg")

	anchors := []model.AnchorPoint{
		{ComponentID: 1, Degree: 3, Geom: geom.NewPointFlat(geom.XY, []float64{50, 0})},
		{ComponentID: 1, Degree: 1, Geom: geom.NewPointFlat(geom.XY, []float64{0, 0})},
	}
	require.NoError(t, WriteAnchors(path, anchors))

	ds, err := Read(path)
	require.NoError(t, err)
	require.Len(t, ds.Features, 2)
	deg, ok := attrInt(attr(ds.Features[0].Attrs, "degree"))
	require.True(t, ok)
	assert.Equal(t, 3, deg)
}

func TestWriteBlocksRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocks_scored.gpkg")

	poly := geom.NewPolygon(geom.XY)
	require.NoError(t, poly.Push(geom.NewLinearRingFlat(geom.XY, []float64{0, 0, 100, 0, 100, 100, 0, 100, 0, 0})))

	blocks := []model.CandidateBlock{
		{
			ID:                  3,
			Geom:                poly,
			ParcelIDs:           []int64{3, 5, 9},
			Buildings:           []model.BuildingPoint{{ID: 1, Weight: 3}, {ID: 2, Weight: 2}},
			RawBuildingScore:    5,
			ScaledBuildingScore: 1,
			RawRatio:            1,
			ScaledRatioScore:    1,
			FinalScore:          1,
			Rank:                1,
		},
	}
	require.NoError(t, WriteBlocks(path, blocks))

	f, err := gpkg.Open(path)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	feats, err := f.ReadFeatures("blocks_scored")
	require.NoError(t, err)
	require.Len(t, feats, 1)

	assert.Equal(t, int64(3), feats[0].Attrs["block_id"])
	assert.Equal(t, "3,5,9", feats[0].Attrs["parcels"])
	assert.Equal(t, int64(2), feats[0].Attrs["buildings"])
	assert.InDelta(t, 5.0, feats[0].Attrs["score_building_raw"].(float64), 1e-9)
	assert.InDelta(t, 1.0, feats[0].Attrs["score_final"].(float64), 1e-9)
	assert.Equal(t, int64(1), feats[0].Attrs["rank"])
}

func TestWriteBuildings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "buildings_prepared.gpkg")

	buildings := []model.BuildingPoint{
		{ID: 1, Source: model.SourceGWR, Class: 1122, Weight: 3, Geom: geom.NewPointFlat(geom.XY, []float64{10, 10})},
		{ID: 2, Source: model.SourceGWR, Class: 1251, Weight: -3, Geom: geom.NewPointFlat(geom.XY, []float64{20, 20})},
	}
	require.NoError(t, WriteBuildings(path, buildings))

	f, err := gpkg.Open(path)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	feats, err := f.ReadFeatures("buildings_prepared")
	require.NoError(t, err)
	require.Len(t, feats, 2)
	assert.Equal(t, "gwr", feats[0].Attrs["source"])
	assert.Equal(t, int64(1122), feats[0].Attrs["class"])
	assert.InDelta(t, 3.0, feats[0].Attrs["score_building"].(float64), 1e-9)
}
