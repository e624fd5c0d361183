// Package segment implements network cleanup and segmentation: hierarchy
// filtering, exclusion-zone construction, exclusion-aware splitting into
// connected components, anchor-point derivation and the unified network
// buffer.
package segment

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/basellab/superblock-cli/internal/config"
	"github.com/basellab/superblock-cli/internal/engine"
	"github.com/basellab/superblock-cli/internal/model"
	"github.com/basellab/superblock-cli/internal/policy"
)

// Inputs are the line layers consumed by segmentation. Auxiliary layers feed
// exclusion-zone construction only.
type Inputs struct {
	Network   []model.LineFeature
	Transit   []model.LineFeature
	Bike      []model.LineFeature
	Exception []model.LineFeature
	Lifeline  []model.LineFeature
}

// Result is the segmentation output consumed by block extraction. Empty
// slices and nil geometries are valid results, not errors.
type Result struct {
	Allowed       []model.LineFeature
	Excluded      []model.LineFeature
	ExclusionZone geom.T
	Components    []model.NetworkComponent
	Anchors       []model.AnchorPoint
	NetworkBuffer geom.T
}

// Run executes segmentation. Every network feature lands on exactly one of
// the allowed or excluded paths; geometry failures on single features are
// logged and skipped.
func Run(ctx context.Context, eng engine.Engine, pol *policy.Policy, cfg config.NetworkConfig, in Inputs) (*Result, error) {
	log := zap.L().With(zap.String("phase", "segment"))

	res := &Result{}

	// Step 1: hierarchy filter, exhaustive and exclusive.
	for _, f := range in.Network {
		if pol.Allowed(f.HierarchyClass) {
			res.Allowed = append(res.Allowed, f)
		} else {
			res.Excluded = append(res.Excluded, f)
		}
	}
	log.Info("hierarchy filter",
		zap.Int("in", len(in.Network)),
		zap.Int("allowed", len(res.Allowed)),
		zap.Int("excluded", len(res.Excluded)),
	)
	if len(res.Allowed) == 0 {
		log.Warn("no network features pass hierarchy filter, downstream output will be empty")
	}

	// Step 2: exclusion zone from auxiliary layers and excluded segments.
	zone, err := buildExclusionZone(ctx, eng, cfg.ExclusionBuffer, log, in, res.Excluded)
	if err != nil {
		return nil, err
	}
	res.ExclusionZone = zone

	// Step 3: subtract the exclusion zone from the allowed network.
	var cleaned []*geom.LineString
	for _, f := range res.Allowed {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		g := geom.T(f.Geom)
		if zone != nil {
			diff, diffErr := eng.Difference(f.Geom, zone)
			if diffErr != nil {
				gerr := &model.GeometryError{Op: "difference", FeatureID: f.ID, Err: diffErr}
				log.Warn("skipping feature", zap.Error(gerr))
				continue
			}
			g = diff
		}
		cleaned = append(cleaned, explodeLines(g)...)
	}
	log.Info("exclusion subtraction", zap.Int("segments", len(cleaned)))

	// Steps 4-5: connectivity grouping, sliver drop, anchors.
	conn := groupLines(cleaned, cfg.SnapTolerance)
	kept := make(map[int]int) // group index -> component id
	var keptLines []*geom.LineString
	for gi, group := range conn.groups {
		comp := model.NetworkComponent{ID: len(res.Components) + 1}
		for _, li := range group {
			comp.Lines = append(comp.Lines, cleaned[li])
			comp.Length += cleaned[li].Length()
		}
		// Components below the minimum length are slivers left over from
		// exclusion subtraction.
		if comp.Length < cfg.MinComponentLength {
			continue
		}
		kept[gi] = comp.ID
		res.Components = append(res.Components, comp)
		keptLines = append(keptLines, comp.Lines...)
	}
	for node, gi := range conn.nodeGroup {
		compID, ok := kept[gi]
		if !ok {
			continue
		}
		deg := conn.nodeDegree[node]
		// Anchors are junctions (three or more incident segments) and
		// component endpoints.
		if deg == 2 {
			continue
		}
		c := conn.nodeCoord[node]
		res.Anchors = append(res.Anchors, model.AnchorPoint{
			ComponentID: compID,
			Degree:      deg,
			Geom:        geom.NewPointFlat(geom.XY, []float64{c[0], c[1]}),
		})
	}
	log.Info("segmentation",
		zap.Int("components", len(res.Components)),
		zap.Int("anchors", len(res.Anchors)),
		zap.Int("dropped_groups", len(conn.groups)-len(res.Components)),
	)

	// Step 6: uniform buffer over the whole cleaned network.
	if len(keptLines) > 0 {
		mls := geom.NewMultiLineString(geom.XY)
		for _, ls := range keptLines {
			if err := mls.Push(ls); err != nil {
				return nil, eris.Wrap(err, "segment: collect cleaned lines")
			}
		}
		buf, bufErr := eng.Buffer(mls, cfg.NetworkBuffer)
		if bufErr != nil {
			return nil, eris.Wrap(bufErr, "segment: buffer cleaned network")
		}
		res.NetworkBuffer = buf
	} else {
		log.Warn("cleaned network is empty, no network buffer produced")
	}

	return res, nil
}

// buildExclusionZone unions fixed-distance buffers around the four auxiliary
// layers and the excluded network segments.
func buildExclusionZone(ctx context.Context, eng engine.Engine, distance float64, log *zap.Logger, in Inputs, excluded []model.LineFeature) (geom.T, error) {
	layers := []struct {
		name  string
		feats []model.LineFeature
	}{
		{"transit", in.Transit},
		{"bike", in.Bike},
		{"exception", in.Exception},
		{"lifeline", in.Lifeline},
		{"excluded_network", excluded},
	}

	var buffers []geom.T
	for _, layer := range layers {
		for _, f := range layer.feats {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			b, err := eng.Buffer(f.Geom, distance)
			if err != nil {
				gerr := &model.GeometryError{Op: "buffer", FeatureID: f.ID, Err: err}
				log.Warn("skipping feature", zap.String("layer", layer.name), zap.Error(gerr))
				continue
			}
			if b != nil {
				buffers = append(buffers, b)
			}
		}
	}
	if len(buffers) == 0 {
		log.Warn("no exclusion geometry produced")
		return nil, nil
	}

	zone, err := eng.Union(buffers)
	if err != nil {
		return nil, eris.Wrap(err, "segment: dissolve exclusion buffers")
	}
	return zone, nil
}

// explodeLines flattens any line-bearing geometry into its line strings.
// Difference can return multi-geometries or collections; stray points from
// tangential touches are dropped.
func explodeLines(g geom.T) []*geom.LineString {
	switch t := g.(type) {
	case nil:
		return nil
	case *geom.LineString:
		if t.NumCoords() < 2 {
			return nil
		}
		return []*geom.LineString{t}
	case *geom.MultiLineString:
		var out []*geom.LineString
		for i := 0; i < t.NumLineStrings(); i++ {
			out = append(out, explodeLines(t.LineString(i))...)
		}
		return out
	case *geom.GeometryCollection:
		var out []*geom.LineString
		for i := 0; i < t.NumGeoms(); i++ {
			out = append(out, explodeLines(t.Geom(i))...)
		}
		return out
	default:
		return nil
	}
}
