// Package block turns the buffered, exclusion-subtracted network area into
// candidate blocks: parcel eligibility, building presence, dissolution of
// touching parcels and splitting of oversized or component-spanning merges.
package block

import (
	"context"
	"math"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/basellab/superblock-cli/internal/config"
	"github.com/basellab/superblock-cli/internal/engine"
	"github.com/basellab/superblock-cli/internal/model"
	"github.com/basellab/superblock-cli/internal/segment"
)

// Extract produces candidate blocks from eligible parcels. An empty result
// is a valid outcome; only engine-level failures that are not recoverable
// per feature become errors.
func Extract(ctx context.Context, eng engine.Engine, cfg config.BlocksConfig, seg *segment.Result, parcels []model.ParcelPolygon, buildings []model.BuildingPoint) ([]model.CandidateBlock, error) {
	log := zap.L().With(zap.String("phase", "block"))

	if seg.NetworkBuffer == nil {
		log.Warn("no network buffer, candidate block set is empty")
		return nil, nil
	}

	// Step 1: inset the exclusion zone so blocks never touch its boundary.
	var inset geom.T
	if seg.ExclusionZone != nil {
		shrunk, err := eng.Buffer(seg.ExclusionZone, -cfg.ExclusionInset)
		if err != nil {
			return nil, eris.Wrap(err, "block: inset exclusion zone")
		}
		inset = shrunk
	}

	// Step 2: candidate area = network buffer minus inset exclusion.
	area, err := eng.Difference(seg.NetworkBuffer, inset)
	if err != nil {
		return nil, eris.Wrap(err, "block: carve candidate area")
	}
	if area == nil {
		log.Warn("exclusion zone covers the whole network buffer")
		return nil, nil
	}

	// Eligibility is two predicates: the parcel reaches the candidate area
	// and stays disjoint from the inset exclusion zone. A parcel straddling
	// the exclusion boundary would otherwise carry its full geometry into a
	// block overlapping the zone.
	var eligible []model.ParcelPolygon
	for _, p := range parcels {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ok, predErr := eng.Intersects(p.Geom, area)
		if predErr != nil {
			gerr := &model.GeometryError{Op: "intersects", FeatureID: p.ID, Err: predErr}
			log.Warn("skipping parcel", zap.Error(gerr))
			continue
		}
		if !ok {
			continue
		}
		if inset != nil {
			hit, exErr := eng.Intersects(p.Geom, inset)
			if exErr != nil {
				gerr := &model.GeometryError{Op: "intersects", FeatureID: p.ID, Err: exErr}
				log.Warn("skipping parcel", zap.Error(gerr))
				continue
			}
			if hit {
				continue
			}
		}
		eligible = append(eligible, p)
	}
	log.Info("parcel eligibility", zap.Int("in", len(parcels)), zap.Int("eligible", len(eligible)))

	// Step 3: building presence.
	byParcel, err := assignBuildings(ctx, eng, log, eligible, buildings)
	if err != nil {
		return nil, err
	}
	var qualifying []model.ParcelPolygon
	for _, p := range eligible {
		if len(byParcel[p.ID]) > 0 {
			qualifying = append(qualifying, p)
		}
	}
	log.Info("building presence", zap.Int("qualifying", len(qualifying)))
	if len(qualifying) == 0 {
		log.Warn("no parcel qualifies, candidate block set is empty")
		return nil, nil
	}

	// Step 4: dissolve mutually touching parcels.
	groups, err := groupTouching(ctx, eng, qualifying)
	if err != nil {
		return nil, err
	}

	// Steps 5-6: split oversized or component-spanning merges back along
	// parcel boundaries, then materialize blocks.
	var blocks []model.CandidateBlock
	for _, group := range groups {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		members := make([]model.ParcelPolygon, len(group))
		for i, gi := range group {
			members[i] = qualifying[gi]
		}

		gs := make([]geom.T, len(members))
		for i, p := range members {
			gs[i] = p.Geom
		}
		merged, unionErr := eng.Union(gs)
		if unionErr != nil {
			return nil, eris.Wrap(unionErr, "block: dissolve parcels")
		}

		split := false
		if len(members) > 1 {
			if geomArea(merged) > cfg.MaxBlockArea {
				split = true
			} else {
				spanned, spanErr := componentsSpanned(eng, seg.Components, merged)
				if spanErr != nil {
					return nil, spanErr
				}
				split = spanned > 1
			}
		}

		if split {
			for _, p := range members {
				blocks = append(blocks, newBlock(p.Geom, []model.ParcelPolygon{p}, byParcel))
			}
		} else {
			blocks = append(blocks, newBlock(merged, members, byParcel))
		}
	}

	sort.Slice(blocks, func(i, j int) bool { return blocks[i].ID < blocks[j].ID })
	log.Info("blocks extracted", zap.Int("blocks", len(blocks)))
	return blocks, nil
}

func newBlock(g geom.T, members []model.ParcelPolygon, byParcel map[int64][]model.BuildingPoint) model.CandidateBlock {
	b := model.CandidateBlock{Geom: g}
	for _, p := range members {
		b.ParcelIDs = append(b.ParcelIDs, p.ID)
		b.Buildings = append(b.Buildings, byParcel[p.ID]...)
	}
	sort.Slice(b.ParcelIDs, func(i, j int) bool { return b.ParcelIDs[i] < b.ParcelIDs[j] })
	// The smallest constituent parcel id is the stable block identifier.
	b.ID = b.ParcelIDs[0]
	return b
}

// assignBuildings maps each building to exactly one parcel: the containing
// parcel, or for boundary cases the intersecting parcel with the nearest
// centroid (ties by lowest parcel id). Nothing is duplicated or silently
// dropped when a point sits on a shared boundary.
func assignBuildings(ctx context.Context, eng engine.Engine, log *zap.Logger, parcels []model.ParcelPolygon, buildings []model.BuildingPoint) (map[int64][]model.BuildingPoint, error) {
	out := make(map[int64][]model.BuildingPoint)

	for _, bp := range buildings {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pb := bp.Geom.Bounds()

		var owner *model.ParcelPolygon
		bestDist := math.Inf(1)
		for i := range parcels {
			p := &parcels[i]
			if !boundsOverlap(p.Geom.Bounds(), pb) {
				continue
			}
			contained, err := eng.Contains(p.Geom, bp.Geom)
			if err != nil {
				gerr := &model.GeometryError{Op: "contains", FeatureID: bp.ID, Err: err}
				log.Warn("skipping building candidate", zap.Error(gerr))
				continue
			}
			if contained {
				owner = p
				break
			}
			touching, err := eng.Intersects(p.Geom, bp.Geom)
			if err != nil || !touching {
				continue
			}
			d := centroidDistance(p.Geom, bp.Geom)
			if d < bestDist || (d == bestDist && owner != nil && p.ID < owner.ID) {
				bestDist = d
				owner = p
			}
		}
		if owner != nil {
			out[owner.ID] = append(out[owner.ID], bp)
		}
	}
	return out, nil
}

// groupTouching unions parcels into groups of mutually touching geometry.
func groupTouching(ctx context.Context, eng engine.Engine, parcels []model.ParcelPolygon) ([][]int, error) {
	parent := make([]int, len(parcels))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}

	for i := 0; i < len(parcels); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for j := i + 1; j < len(parcels); j++ {
			if !boundsOverlap(parcels[i].Geom.Bounds(), parcels[j].Geom.Bounds()) {
				continue
			}
			touching, err := eng.Intersects(parcels[i].Geom, parcels[j].Geom)
			if err != nil {
				gerr := &model.GeometryError{Op: "intersects", FeatureID: parcels[j].ID, Err: err}
				zap.L().Warn("skipping parcel pair", zap.Error(gerr))
				continue
			}
			if touching {
				parent[find(i)] = find(j)
			}
		}
	}

	order := make(map[int]int)
	var groups [][]int
	for i := range parcels {
		root := find(i)
		gi, ok := order[root]
		if !ok {
			gi = len(groups)
			order[root] = gi
			groups = append(groups, nil)
		}
		groups[gi] = append(groups[gi], i)
	}
	return groups, nil
}

// componentsSpanned counts network components whose lines reach the merged
// geometry.
func componentsSpanned(eng engine.Engine, comps []model.NetworkComponent, merged geom.T) (int, error) {
	spanned := 0
	for _, comp := range comps {
		for _, ls := range comp.Lines {
			hit, err := eng.Intersects(ls, merged)
			if err != nil {
				return 0, eris.Wrap(err, "block: component span test")
			}
			if hit {
				spanned++
				break
			}
		}
	}
	return spanned, nil
}

func boundsOverlap(a, b *geom.Bounds) bool {
	return a.Min(0) <= b.Max(0) && b.Min(0) <= a.Max(0) &&
		a.Min(1) <= b.Max(1) && b.Min(1) <= a.Max(1)
}

// geomArea sums the area of any polygonal geometry.
func geomArea(g geom.T) float64 {
	switch t := g.(type) {
	case nil:
		return 0
	case *geom.Polygon:
		return t.Area()
	case *geom.MultiPolygon:
		return t.Area()
	case *geom.GeometryCollection:
		var sum float64
		for i := 0; i < t.NumGeoms(); i++ {
			sum += geomArea(t.Geom(i))
		}
		return sum
	default:
		return 0
	}
}

// centroidDistance measures from the parcel's ring centroid to the point.
func centroidDistance(p *geom.Polygon, pt *geom.Point) float64 {
	cx, cy := ringCentroid(p.LinearRing(0))
	return math.Hypot(cx-pt.X(), cy-pt.Y())
}

// ringCentroid is the area-weighted centroid of a linear ring, falling back
// to the vertex mean for degenerate rings.
func ringCentroid(r *geom.LinearRing) (float64, float64) {
	n := r.NumCoords()
	var a, cx, cy float64
	for i := 0; i < n-1; i++ {
		p, q := r.Coord(i), r.Coord(i+1)
		cross := p[0]*q[1] - q[0]*p[1]
		a += cross
		cx += (p[0] + q[0]) * cross
		cy += (p[1] + q[1]) * cross
	}
	if a == 0 {
		var sx, sy float64
		for i := 0; i < n; i++ {
			c := r.Coord(i)
			sx += c[0]
			sy += c[1]
		}
		return sx / float64(n), sy / float64(n)
	}
	return cx / (3 * a), cy / (3 * a)
}
