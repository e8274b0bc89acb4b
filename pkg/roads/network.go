// Package roads implements the road network: a set of non-crossing segments
// with a vertex adjacency index.
//
// Every exported operation is a pure transformation. It leaves the receiver
// untouched and returns a new *Network, so older versions stay valid and can
// be shared freely.
package roads

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/paulmach/orb"
	"github.com/tidwall/rtree"

	"roadgen/pkg/geo"
)

// maxConflictDepth bounds the nesting of crossing resolutions in Add.
// Hitting it means grid rounding keeps producing new crossings.
var maxConflictDepth = 256

// maxReconnect is the largest number of segments RemoveVertex will build to
// rejoin the neighbors of a removed vertex.
const maxReconnect = 3

var (
	// ErrConflictDepth is returned when crossing resolution does not converge.
	ErrConflictDepth = errors.New("crossing resolution exceeded depth limit")
	// ErrMissingSegment is returned when adjacent path points have no stored segment.
	ErrMissingSegment = errors.New("no segment between adjacent path points")
)

// Network is an immutable road network.
type Network struct {
	segments map[Key]Segment
	adj      map[orb.Point][]orb.Point

	// index holds segment bounding boxes for crossing candidate lookup.
	index *rtree.RTreeG[Key]
	// cow guards index.Copy, which marks the source tree. It is shared by
	// every version derived from the same New call.
	cow *sync.Mutex
}

// New returns an empty network.
func New() *Network {
	return &Network{
		segments: make(map[Key]Segment),
		adj:      make(map[orb.Point][]orb.Point),
		index:    &rtree.RTreeG[Key]{},
		cow:      &sync.Mutex{},
	}
}

// clone returns a copy that may be mutated without affecting n. Adjacency
// slices are shared; mutators replace them instead of writing into them.
func (n *Network) clone() *Network {
	if n == nil {
		return New()
	}
	c := &Network{
		segments: maps.Clone(n.segments),
		adj:      maps.Clone(n.adj),
		index:    &rtree.RTreeG[Key]{},
		cow:      n.cow,
	}
	if c.cow == nil {
		c.cow = &sync.Mutex{}
	}
	if n.index != nil {
		c.cow.Lock()
		c.index = n.index.Copy()
		c.cow.Unlock()
	}
	if c.segments == nil {
		c.segments = make(map[Key]Segment)
	}
	if c.adj == nil {
		c.adj = make(map[orb.Point][]orb.Point)
	}
	return c
}

// Len returns the number of stored segments.
func (n *Network) Len() int {
	if n == nil {
		return 0
	}
	return len(n.segments)
}

// Segments returns every stored segment in key order.
func (n *Network) Segments() []Segment {
	if n == nil {
		return nil
	}
	keys := slices.SortedFunc(maps.Keys(n.segments), compareKeys)
	out := make([]Segment, len(keys))
	for i, k := range keys {
		out[i] = n.segments[k]
	}
	return out
}

// Vertices returns the distinct segment endpoints in point order.
func (n *Network) Vertices() []orb.Point {
	if n == nil {
		return nil
	}
	return slices.SortedFunc(maps.Keys(n.adj), comparePoints)
}

// HasVertex reports whether p is an endpoint of a stored segment.
func (n *Network) HasVertex(p orb.Point) bool {
	if n == nil {
		return false
	}
	_, ok := n.adj[p]
	return ok
}

// Neighbors returns the points directly connected to p.
func (n *Network) Neighbors(p orb.Point) []orb.Point {
	if n == nil {
		return nil
	}
	return slices.Clone(n.adj[p])
}

// Find looks up the segment between a and b.
func (n *Network) Find(a, b orb.Point) (Segment, bool) {
	if n == nil {
		return Segment{}, false
	}
	s, ok := n.segments[KeyOf(a, b)]
	return s, ok
}

// Add inserts s, splitting it and any segment it crosses at their rounded
// intersection point. Adding an empty segment is a no-op.
func (n *Network) Add(s Segment) (*Network, error) {
	if s.Empty() {
		return n, nil
	}
	c := n.clone()
	if err := c.add(s, 0); err != nil {
		return nil, err
	}
	return c, nil
}

// AddNonIntersecting stores s without checking for crossings. A stored
// segment with the same endpoints is replaced.
func (n *Network) AddNonIntersecting(s Segment) *Network {
	if s.Empty() {
		return n
	}
	c := n.clone()
	c.insert(s)
	return c
}

// Remove deletes the segment with the endpoints of s. Quality is ignored.
func (n *Network) Remove(s Segment) *Network {
	if _, ok := n.Find(s.From, s.To); !ok {
		return n
	}
	c := n.clone()
	c.delete(s.Key())
	return c
}

// ChangeQuality replaces the grade of the segment with the endpoints of s.
func (n *Network) ChangeQuality(s Segment, q Quality) (*Network, error) {
	c := n.clone()
	c.delete(s.Key())
	if s.Empty() {
		return c, nil
	}
	if err := c.add(s.WithQuality(q), 0); err != nil {
		return nil, err
	}
	return c, nil
}

// MoveVertex re-attaches every segment at from to the point to, keeping
// grades. The moved segments go through crossing resolution again.
func (n *Network) MoveVertex(from, to orb.Point) (*Network, error) {
	incident := n.incident(from)
	if len(incident) == 0 {
		return n, nil
	}

	c := n.clone()
	for _, s := range incident {
		c.delete(s.Key())
	}
	for _, s := range incident {
		moved := NewSegment(to, s.other(from), s.Quality)
		if moved.Empty() {
			continue
		}
		if err := c.add(moved, 0); err != nil {
			return nil, fmt.Errorf("move vertex %v: %w", from, err)
		}
	}
	return c, nil
}

// RemoveVertex deletes every segment at p. When rejoining the former
// neighbors takes at most three segments, each pair of neighbors is
// connected directly using the lowest grade among the removed segments.
func (n *Network) RemoveVertex(p orb.Point) (*Network, error) {
	incident := n.incident(p)
	if len(incident) == 0 {
		return n, nil
	}

	lowest := SuperHighway
	neighbors := make([]orb.Point, 0, len(incident))
	for _, s := range incident {
		lowest = min(lowest, s.Quality)
		neighbors = append(neighbors, s.other(p))
	}

	var links []Segment
	seen := make(map[Key]struct{})
	for i := range neighbors {
		for j := i + 1; j < len(neighbors); j++ {
			link := NewSegment(neighbors[i], neighbors[j], lowest)
			if link.Empty() {
				continue
			}
			if _, dup := seen[link.Key()]; dup {
				continue
			}
			seen[link.Key()] = struct{}{}
			links = append(links, link)
		}
	}

	c := n.clone()
	for _, s := range incident {
		c.delete(s.Key())
	}
	if len(links) > maxReconnect {
		return c, nil
	}
	for _, link := range links {
		if err := c.add(link, 0); err != nil {
			return nil, fmt.Errorf("remove vertex %v: %w", p, err)
		}
	}
	return c, nil
}

// Split describes the result of splitting a segment.
type Split struct {
	Point  orb.Point
	Halves [2]Segment
}

// Split cuts the stored segment with the endpoints of s at parameter t,
// rounded to the grid. Both halves keep the stored grade.
func (n *Network) Split(s Segment, t float64) (*Network, Split, error) {
	stored, ok := n.Find(s.From, s.To)
	if !ok {
		return n, Split{}, nil
	}

	point := geo.Round(geo.Lerp(stored.From, stored.To, t))
	split := Split{
		Point: point,
		Halves: [2]Segment{
			NewSegment(stored.From, point, stored.Quality),
			NewSegment(stored.To, point, stored.Quality),
		},
	}

	c := n.clone()
	c.delete(stored.Key())
	for _, half := range split.Halves {
		if half.Empty() {
			continue
		}
		if err := c.add(half, 0); err != nil {
			return nil, Split{}, fmt.Errorf("split %v: %w", stored.Key(), err)
		}
	}
	return c, split, nil
}

// incident returns the stored segments with an endpoint at p.
func (n *Network) incident(p orb.Point) []Segment {
	if n == nil {
		return nil
	}
	out := make([]Segment, 0, len(n.adj[p]))
	for _, q := range n.adj[p] {
		if s, ok := n.segments[KeyOf(p, q)]; ok {
			out = append(out, s)
		}
	}
	return out
}

// add inserts s in place, resolving the first crossing it finds.
func (n *Network) add(s Segment, depth int) error {
	if s.Empty() {
		return nil
	}
	if depth > maxConflictDepth {
		return fmt.Errorf("%w: adding %v", ErrConflictDepth, s.Key())
	}

	crossed, at, ok := n.firstCrossing(s)
	if !ok {
		n.insert(s)
		return nil
	}

	ip := geo.Round(at)
	n.delete(crossed.Key())
	pieces := [4]Segment{
		NewSegment(ip, s.From, s.Quality),
		NewSegment(ip, s.To, s.Quality),
		NewSegment(ip, crossed.From, crossed.Quality),
		NewSegment(ip, crossed.To, crossed.Quality),
	}
	for _, piece := range pieces {
		if err := n.add(piece, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// firstCrossing finds the stored segment crossing s with the smallest key.
func (n *Network) firstCrossing(s Segment) (Segment, orb.Point, bool) {
	var (
		best   Segment
		bestAt orb.Point
		found  bool
	)
	b := s.Bound()
	n.index.Search(b.Min, b.Max, func(_, _ [2]float64, k Key) bool {
		other := n.segments[k]
		at, ok := s.Crossing(other)
		if ok && (!found || k.Less(best.Key())) {
			best, bestAt, found = other, at, true
		}
		return true
	})
	return best, bestAt, found
}

// insert stores s and links its endpoints, replacing an existing segment
// with the same key.
func (n *Network) insert(s Segment) {
	k := s.Key()
	if _, ok := n.segments[k]; ok {
		n.delete(k)
	}
	n.segments[k] = s
	b := s.Bound()
	n.index.Insert(b.Min, b.Max, k)
	n.link(s.From, s.To)
	n.link(s.To, s.From)
}

// delete removes the segment stored under k, if any.
func (n *Network) delete(k Key) {
	s, ok := n.segments[k]
	if !ok {
		return
	}
	delete(n.segments, k)
	b := s.Bound()
	n.index.Delete(b.Min, b.Max, k)
	n.unlink(s.From, s.To)
	n.unlink(s.To, s.From)
}

func (n *Network) link(a, b orb.Point) {
	n.adj[a] = append(slices.Clip(n.adj[a]), b)
}

func (n *Network) unlink(a, b orb.Point) {
	rest := make([]orb.Point, 0, len(n.adj[a]))
	for _, q := range n.adj[a] {
		if q != b {
			rest = append(rest, q)
		}
	}
	if len(rest) == 0 {
		delete(n.adj, a)
		return
	}
	n.adj[a] = rest
}

// other returns the endpoint of s that is not p.
func (s Segment) other(p orb.Point) orb.Point {
	if s.From == p {
		return s.To
	}
	return s.From
}

func comparePoints(a, b orb.Point) int {
	switch {
	case PointLess(a, b):
		return -1
	case PointLess(b, a):
		return 1
	}
	return 0
}

func compareKeys(a, b Key) int {
	switch {
	case a.Less(b):
		return -1
	case b.Less(a):
		return 1
	}
	return 0
}
