package segment

import (
	"math"

	"github.com/twpayne/go-geom"
)

// nodeIndex snaps endpoints to shared nodes within a tolerance. Candidates
// are looked up across the 3x3 cell neighborhood so near-boundary points
// still snap together.
type nodeIndex struct {
	tol    float64
	cells  map[[2]int64][]int
	coords []geom.Coord
	degree []int
}

func newNodeIndex(tol float64) *nodeIndex {
	if tol <= 0 {
		tol = 1e-9
	}
	return &nodeIndex{tol: tol, cells: make(map[[2]int64][]int)}
}

func (ix *nodeIndex) cell(c geom.Coord) [2]int64 {
	return [2]int64{int64(math.Floor(c[0] / ix.tol)), int64(math.Floor(c[1] / ix.tol))}
}

// snap returns the node id for a coordinate, registering a new node if none
// lies within the tolerance. Each call counts one incident line end.
func (ix *nodeIndex) snap(c geom.Coord) int {
	base := ix.cell(c)
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for _, id := range ix.cells[[2]int64{base[0] + dx, base[1] + dy}] {
				n := ix.coords[id]
				if math.Hypot(n[0]-c[0], n[1]-c[1]) <= ix.tol {
					ix.degree[id]++
					return id
				}
			}
		}
	}
	id := len(ix.coords)
	ix.coords = append(ix.coords, geom.Coord{c[0], c[1]})
	ix.degree = append(ix.degree, 1)
	ix.cells[base] = append(ix.cells[base], id)
	return id
}

// unionFind is a plain disjoint-set over line indices.
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(i int) int {
	for uf.parent[i] != i {
		uf.parent[i] = uf.parent[uf.parent[i]]
		i = uf.parent[i]
	}
	return i
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra != rb {
		uf.parent[rb] = ra
	}
}

// connectivity holds the grouped line graph of the cleaned network.
type connectivity struct {
	// groups maps each group to the indices of its member lines.
	groups [][]int
	// nodeCoord and nodeDegree describe the snapped endpoint nodes.
	nodeCoord  []geom.Coord
	nodeDegree []int
	// nodeGroup maps each node to its group index.
	nodeGroup []int
}

// groupLines decomposes line segments into connected groups: two segments
// belong together iff they share an endpoint within the snap tolerance.
func groupLines(lines []*geom.LineString, tol float64) *connectivity {
	ix := newNodeIndex(tol)
	uf := newUnionFind(len(lines))

	// nodeLine remembers one line per node so later lines hitting the same
	// node can be unioned with it.
	nodeLine := make(map[int]int)

	for i, ls := range lines {
		n := ls.NumCoords()
		if n == 0 {
			continue
		}
		start := ix.snap(ls.Coord(0))
		end := ix.snap(ls.Coord(n - 1))
		for _, node := range []int{start, end} {
			if first, ok := nodeLine[node]; ok {
				uf.union(first, i)
			} else {
				nodeLine[node] = i
			}
		}
	}

	// Collect groups in first-seen order for determinism.
	groupOf := make(map[int]int)
	var groups [][]int
	for i := range lines {
		root := uf.find(i)
		gi, ok := groupOf[root]
		if !ok {
			gi = len(groups)
			groupOf[root] = gi
			groups = append(groups, nil)
		}
		groups[gi] = append(groups[gi], i)
	}

	nodeGroup := make([]int, len(ix.coords))
	for node, line := range nodeLine {
		nodeGroup[node] = groupOf[uf.find(line)]
	}

	return &connectivity{
		groups:     groups,
		nodeCoord:  ix.coords,
		nodeDegree: ix.degree,
		nodeGroup:  nodeGroup,
	}
}
