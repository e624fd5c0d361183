package layer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/basellab/superblock-cli/internal/model"
	"github.com/basellab/superblock-cli/internal/policy"
)

func testPolicy(t *testing.T) *policy.Policy {
	t.Helper()
	pol, err := policy.Load("")
	require.NoError(t, err)
	return pol
}

func TestRequireField(t *testing.T) {
	ds := &Dataset{Name: "netz", Fields: []string{"Strassennetzhierarchie"}}
	assert.NoError(t, RequireField(ds, "Strassennetzhierarchie"))

	err := RequireField(ds, "GKLAS")
	var serr *model.SchemaError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "netz", serr.Layer)
	assert.Equal(t, "GKLAS", serr.Field)
}

func TestLinesExplodesMultiParts(t *testing.T) {
	mls := geom.NewMultiLineString(geom.XY)
	require.NoError(t, mls.Push(geom.NewLineStringFlat(geom.XY, []float64{0, 0, 10, 0})))
	require.NoError(t, mls.Push(geom.NewLineStringFlat(geom.XY, []float64{20, 0, 30, 0})))

	ds := &Dataset{
		Name:   "netz",
		Fields: []string{"Strassennetzhierarchie"},
		Features: []Feature{
			{ID: 1, Geom: mls, Attrs: map[string]any{"Strassennetzhierarchie": "QSS"}},
			{ID: 2, Geom: geom.NewLineStringFlat(geom.XY, []float64{50, 0, 60, 0}), Attrs: map[string]any{"Strassennetzhierarchie": "HLS"}},
		},
	}

	lines := Lines(ds, "Strassennetzhierarchie")
	require.Len(t, lines, 3)
	assert.Equal(t, int64(1), lines[0].ID)
	assert.Equal(t, int64(1), lines[1].ID)
	assert.Equal(t, "QSS", lines[0].HierarchyClass)
	assert.Equal(t, "QSS", lines[1].HierarchyClass)
	assert.Equal(t, "HLS", lines[2].HierarchyClass)
}

func TestLinesWithoutHierarchyField(t *testing.T) {
	ds := &Dataset{
		Name: "tram",
		Features: []Feature{
			{ID: 1, Geom: geom.NewLineStringFlat(geom.XY, []float64{0, 0, 10, 0}), Attrs: map[string]any{"LINIE": "8"}},
		},
	}

	lines := Lines(ds, "")
	require.Len(t, lines, 1)
	assert.Empty(t, lines[0].HierarchyClass)
}

func TestParcelsOrdinalIDs(t *testing.T) {
	mp := geom.NewMultiPolygon(geom.XY)
	p1 := geom.NewPolygon(geom.XY)
	require.NoError(t, p1.Push(geom.NewLinearRingFlat(geom.XY, []float64{0, 0, 10, 0, 10, 10, 0, 10, 0, 0})))
	p2 := geom.NewPolygon(geom.XY)
	require.NoError(t, p2.Push(geom.NewLinearRingFlat(geom.XY, []float64{20, 0, 30, 0, 30, 10, 20, 10, 20, 0})))
	require.NoError(t, mp.Push(p1))
	require.NoError(t, mp.Push(p2))

	p3 := geom.NewPolygon(geom.XY)
	require.NoError(t, p3.Push(geom.NewLinearRingFlat(geom.XY, []float64{50, 0, 60, 0, 60, 10, 50, 10, 50, 0})))

	ds := &Dataset{
		Name: "parzellen",
		Features: []Feature{
			{ID: 7, Geom: mp},
			{ID: 9, Geom: p3},
		},
	}

	parcels := Parcels(ds)
	require.Len(t, parcels, 3)
	assert.Equal(t, int64(1), parcels[0].ID)
	assert.Equal(t, int64(2), parcels[1].ID)
	assert.Equal(t, int64(3), parcels[2].ID)
}

func TestPrepareBuildingsGWR(t *testing.T) {
	pol := testPolicy(t)
	ds := &Dataset{
		Name:   "gwr_gebaeude",
		Fields: []string{"GKLAS", "GSTAT"},
		Features: []Feature{
			{ID: 1, Geom: geom.NewPointFlat(geom.XY, []float64{1, 1}), Attrs: map[string]any{"GKLAS": "1122", "GSTAT": "1004"}},
			{ID: 2, Geom: geom.NewPointFlat(geom.XY, []float64{2, 2}), Attrs: map[string]any{"GKLAS": "1251", "GSTAT": "1004"}},
			{ID: 3, Geom: geom.NewPointFlat(geom.XY, []float64{3, 3}), Attrs: map[string]any{"GKLAS": "1122", "GSTAT": "1007"}}, // demolished
			{ID: 4, Geom: geom.NewPointFlat(geom.XY, []float64{4, 4}), Attrs: map[string]any{"GKLAS": "9999", "GSTAT": "1004"}}, // no weight
			{ID: 5, Geom: geom.NewPointFlat(geom.XY, []float64{5, 5}), Attrs: map[string]any{"GKLAS": nil, "GSTAT": "1004"}},
		},
	}

	buildings, src, err := PrepareBuildings(ds, pol)
	require.NoError(t, err)
	assert.Equal(t, model.SourceGWR, src)
	require.Len(t, buildings, 2)

	assert.Equal(t, int64(1), buildings[0].ID)
	assert.Equal(t, 1122, buildings[0].Class)
	assert.InDelta(t, 3.0, buildings[0].Weight, 1e-9)
	assert.Equal(t, int64(2), buildings[1].ID)
	assert.InDelta(t, -3.0, buildings[1].Weight, 1e-9)
}

func TestPrepareBuildingsCantonal(t *testing.T) {
	pol := testPolicy(t)
	ds := &Dataset{
		Name:   "gebaeude_kanton",
		Fields: []string{"GEBKATEGO", "GEBSTATUS"},
		Features: []Feature{
			{ID: 1, Geom: geom.NewPointFlat(geom.XY, []float64{1, 1}), Attrs: map[string]any{"GEBKATEGO": "1021", "GEBSTATUS": "1004"}},
		},
	}

	buildings, src, err := PrepareBuildings(ds, pol)
	require.NoError(t, err)
	assert.Equal(t, model.SourceCantonal, src)
	require.Len(t, buildings, 1)
	assert.InDelta(t, 2.0, buildings[0].Weight, 1e-9)
}

func TestPrepareBuildingsUnknownSchema(t *testing.T) {
	pol := testPolicy(t)
	ds := &Dataset{Name: "gebaeude", Fields: []string{"EGID"}}

	_, _, err := PrepareBuildings(ds, pol)
	var serr *model.SchemaError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "gebaeude", serr.Layer)
}

func TestPrepareBuildingsSkipsNonPoints(t *testing.T) {
	pol := testPolicy(t)
	ds := &Dataset{
		Name:   "gwr_gebaeude",
		Fields: []string{"GKLAS", "GSTAT"},
		Features: []Feature{
			{ID: 1, Geom: geom.NewLineStringFlat(geom.XY, []float64{0, 0, 1, 1}), Attrs: map[string]any{"GKLAS": "1122"}},
		},
	}

	buildings, _, err := PrepareBuildings(ds, pol)
	require.NoError(t, err)
	assert.Empty(t, buildings)
}
