package roads

import (
	"math"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"roadgen/pkg/geo"
)

// PathFinder returns the points visited when travelling from a to b.
//
// The first and last points are the closest approach the network offers; they
// are not guaranteed to equal a or b. Consecutive points are always joined by
// a stored segment.
type PathFinder interface {
	Path(a, b orb.Point) []orb.Point
}

// Router builds a PathFinder over a network.
type Router func(n *Network) PathFinder

// Greedy is the Router for Network.Path.
func Greedy(n *Network) PathFinder {
	return greedyPaths{n: n}
}

type greedyPaths struct {
	n *Network
}

func (g greedyPaths) Path(a, b orb.Point) []orb.Point {
	return g.n.Path(a, b)
}

// Path walks greedily from a toward b: at every step it moves to the
// neighbor closest to b, and stops at b or when no neighbor is strictly
// closer than the current point. It is not a shortest path and may stop
// short of b, even at a itself.
func (n *Network) Path(a, b orb.Point) []orb.Point {
	route := []orb.Point{a}
	if n == nil {
		return route
	}

	cur := a
	for cur != b {
		next := cur
		best := geo.Distance(cur, b)
		for _, q := range n.adj[cur] {
			if d := geo.Distance(q, b); d < best {
				next, best = q, d
			}
		}
		if next == cur {
			break
		}
		route = append(route, next)
		cur = next
	}
	return route
}

// Shortest returns a Router that runs Dijkstra over the network with the
// given segment cost. Endpoints that are not vertices are snapped to the
// nearest vertex; when the two vertices are not connected the path is just
// the start vertex.
func Shortest(cost func(Segment) float64) Router {
	return func(n *Network) PathFinder {
		return newShortestPaths(n, cost)
	}
}

type shortestPaths struct {
	points []orb.Point
	ids    map[orb.Point]int64
	g      *simple.WeightedUndirectedGraph

	// trees caches one shortest-path tree per source vertex.
	trees map[int64]path.Shortest
}

func newShortestPaths(n *Network, cost func(Segment) float64) *shortestPaths {
	points := n.Vertices()
	ids := make(map[orb.Point]int64, len(points))
	g := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	for i, p := range points {
		ids[p] = int64(i)
		g.AddNode(simple.Node(i))
	}
	for _, s := range n.Segments() {
		g.SetWeightedEdge(simple.WeightedEdge{
			F: simple.Node(ids[s.From]),
			T: simple.Node(ids[s.To]),
			W: cost(s),
		})
	}
	return &shortestPaths{
		points: points,
		ids:    ids,
		g:      g,
		trees:  make(map[int64]path.Shortest),
	}
}

func (sp *shortestPaths) Path(a, b orb.Point) []orb.Point {
	if len(sp.points) == 0 {
		return []orb.Point{a}
	}

	from := sp.nearest(a)
	to := sp.nearest(b)

	tree, ok := sp.trees[from]
	if !ok {
		tree = path.DijkstraFrom(simple.Node(from), sp.g)
		sp.trees[from] = tree
	}

	nodes, weight := tree.To(to)
	if len(nodes) == 0 || math.IsInf(weight, 1) {
		return []orb.Point{sp.points[from]}
	}

	route := make([]orb.Point, len(nodes))
	for i, nd := range nodes {
		route[i] = sp.points[nd.ID()]
	}
	return route
}

// nearest returns the id of the vertex closest to p.
func (sp *shortestPaths) nearest(p orb.Point) int64 {
	if id, ok := sp.ids[p]; ok {
		return id
	}
	best := int64(0)
	bestDist := math.Inf(1)
	for i, q := range sp.points {
		if d := geo.Distance(p, q); d < bestDist {
			best, bestDist = int64(i), d
		}
	}
	return best
}
