// Package model holds the core data types shared by all pipeline phases.
package model

import (
	"github.com/twpayne/go-geom"
)

// BuildingSource identifies which building dataset schema a point came from.
type BuildingSource string

// Building dataset schemas. GWR is the federal register (GKLAS classes),
// Cantonal is the Basel-Stadt register (GEBKATEGO categories).
const (
	SourceGWR      BuildingSource = "gwr"
	SourceCantonal BuildingSource = "cantonal"
)

// LineFeature is a network or auxiliary line. HierarchyClass is set only for
// mobility-network features; auxiliary exclusion sources carry none.
type LineFeature struct {
	ID             int64
	HierarchyClass string
	Geom           *geom.LineString
}

// BuildingPoint is a building location with its classification already
// resolved to a score weight during preprocessing.
type BuildingPoint struct {
	ID     int64
	Source BuildingSource
	Class  int
	Weight float64
	Geom   *geom.Point
}

// ParcelPolygon is a cadastral unit, the atomic piece of block composition.
type ParcelPolygon struct {
	ID   int64
	Geom *geom.Polygon
}

// NetworkComponent is a connected subgraph of the cleaned mobility network.
// Lines never cross an exclusion-zone boundary without being split there.
type NetworkComponent struct {
	ID     int
	Lines  []*geom.LineString
	Length float64
}

// AnchorPoint marks a structural junction or endpoint on the cleaned network,
// retained to keep the uniform network buffer contiguous.
type AnchorPoint struct {
	ComponentID int
	Degree      int
	Geom        *geom.Point
}

// CandidateBlock is a merged set of qualifying parcels with its scores.
// Scores are annotated by the scoring phase; geometry and membership are
// fixed by the block extractor and never mutated afterwards.
type CandidateBlock struct {
	ID        int64
	Geom      geom.T
	ParcelIDs []int64
	Buildings []BuildingPoint

	RawBuildingScore    float64
	ScaledBuildingScore float64
	RawRatio            float64
	ScaledRatioScore    float64
	FinalScore          float64
	Rank                int
}
