package roads

import "github.com/paulmach/orb"

// unionFind is a disjoint-set over vertex indices with path halving and
// union by size.
type unionFind struct {
	parent []int
	size   []int
}

func newUnionFind(n int) *unionFind {
	parent := make([]int, n)
	size := make([]int, n)
	for i := range n {
		parent[i] = i
		size[i] = 1
	}
	return &unionFind{parent: parent, size: size}
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]] // path halving
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(x, y int) {
	rx, ry := uf.find(x), uf.find(y)
	if rx == ry {
		return
	}
	if uf.size[rx] < uf.size[ry] {
		rx, ry = ry, rx
	}
	uf.parent[ry] = rx
	uf.size[rx] += uf.size[ry]
}

// Components groups the vertices into connected road systems. Groups are
// ordered by their first vertex; vertices within a group keep point order.
func (n *Network) Components() [][]orb.Point {
	vertices := n.Vertices()
	if len(vertices) == 0 {
		return nil
	}

	idx := make(map[orb.Point]int, len(vertices))
	for i, p := range vertices {
		idx[p] = i
	}

	uf := newUnionFind(len(vertices))
	for _, s := range n.Segments() {
		uf.union(idx[s.From], idx[s.To])
	}

	groupOf := make(map[int]int)
	var groups [][]orb.Point
	for i, p := range vertices {
		root := uf.find(i)
		g, ok := groupOf[root]
		if !ok {
			g = len(groups)
			groupOf[root] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], p)
	}
	return groups
}

// LargestComponent returns the vertices of the biggest connected road system.
func (n *Network) LargestComponent() []orb.Point {
	var best []orb.Point
	for _, g := range n.Components() {
		if len(g) > len(best) {
			best = g
		}
	}
	return best
}
