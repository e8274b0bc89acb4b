package evolve

import (
	"github.com/paulmach/orb"

	"roadgen/pkg/rnd"
	"roadgen/pkg/roads"
)

// Env is what an operator may draw on besides the network itself.
type Env struct {
	Rand   rnd.Source
	Cities []orb.Point
	// Radius bounds how far new and moved points land from their origin.
	Radius int
}

// Operator is one structural mutation. Operators whose precondition is not
// met, such as needing a segment on an empty network, return the input
// network unchanged.
type Operator interface {
	Name() string
	Apply(env Env, n *roads.Network) (*roads.Network, error)
}

// Catalog returns every operator, each picked with equal probability by
// the engine.
func Catalog() []Operator {
	return []Operator{
		CreateSegment{},
		NudgeVertex{},
		RemoveVertex{},
		RemoveSegment{},
		SplitSegment{},
		SplitExtend{},
		SplitRequalify{},
		SplitNudge{},
		ChangeQuality{},
	}
}

func randomQuality(src rnd.Source) roads.Quality {
	return roads.Qualities[src.Intn(roads.NumQualities)]
}

func nearby(env Env, p orb.Point) orb.Point {
	return rnd.Offset(env.Rand, p, env.Radius)
}

// extend adds a segment from p to a random point nearby.
func extend(env Env, n *roads.Network, p orb.Point, q roads.Quality) (*roads.Network, error) {
	return n.Add(roads.NewSegment(p, nearby(env, p), q))
}

// CreateSegment grows a road of random grade from a random city or vertex.
type CreateSegment struct{}

func (CreateSegment) Name() string { return "create_segment" }

func (CreateSegment) Apply(env Env, n *roads.Network) (*roads.Network, error) {
	starts := append(append([]orb.Point(nil), env.Cities...), n.Vertices()...)
	p, ok := rnd.Pick(env.Rand, starts)
	if !ok {
		return n, nil
	}
	return extend(env, n, p, randomQuality(env.Rand))
}

// NudgeVertex moves a random vertex to a point nearby.
type NudgeVertex struct{}

func (NudgeVertex) Name() string { return "nudge_vertex" }

func (NudgeVertex) Apply(env Env, n *roads.Network) (*roads.Network, error) {
	v, ok := rnd.Pick(env.Rand, n.Vertices())
	if !ok {
		return n, nil
	}
	return n.MoveVertex(v, nearby(env, v))
}

// RemoveVertex deletes a random vertex.
type RemoveVertex struct{}

func (RemoveVertex) Name() string { return "remove_vertex" }

func (RemoveVertex) Apply(env Env, n *roads.Network) (*roads.Network, error) {
	v, ok := rnd.Pick(env.Rand, n.Vertices())
	if !ok {
		return n, nil
	}
	return n.RemoveVertex(v)
}

// RemoveSegment deletes a random segment.
type RemoveSegment struct{}

func (RemoveSegment) Name() string { return "remove_segment" }

func (RemoveSegment) Apply(env Env, n *roads.Network) (*roads.Network, error) {
	s, ok := rnd.Pick(env.Rand, n.Segments())
	if !ok {
		return n, nil
	}
	return n.Remove(s), nil
}

// ChangeQuality regrades a random segment. The new grade may equal the old.
type ChangeQuality struct{}

func (ChangeQuality) Name() string { return "change_quality" }

func (ChangeQuality) Apply(env Env, n *roads.Network) (*roads.Network, error) {
	s, ok := rnd.Pick(env.Rand, n.Segments())
	if !ok {
		return n, nil
	}
	return n.ChangeQuality(s, randomQuality(env.Rand))
}

// splitRandom splits a random segment at a uniform position. The returned
// segment is the one that was split.
func splitRandom(env Env, n *roads.Network) (*roads.Network, roads.Segment, roads.Split, bool, error) {
	s, ok := rnd.Pick(env.Rand, n.Segments())
	if !ok {
		return n, roads.Segment{}, roads.Split{}, false, nil
	}
	out, split, err := n.Split(s, env.Rand.Float64())
	if err != nil {
		return nil, s, split, false, err
	}
	return out, s, split, true, nil
}

// SplitSegment splits a random segment in two.
type SplitSegment struct{}

func (SplitSegment) Name() string { return "split_segment" }

func (SplitSegment) Apply(env Env, n *roads.Network) (*roads.Network, error) {
	out, _, _, _, err := splitRandom(env, n)
	return out, err
}

// SplitExtend splits a random segment and grows a new road from the split
// point with the grade of the split segment.
type SplitExtend struct{}

func (SplitExtend) Name() string { return "split_extend" }

func (SplitExtend) Apply(env Env, n *roads.Network) (*roads.Network, error) {
	out, _, split, ok, err := splitRandom(env, n)
	if !ok || err != nil {
		return out, err
	}
	return extend(env, out, split.Point, split.Halves[0].Quality)
}

// SplitRequalify splits a random segment and regrades one of the halves.
type SplitRequalify struct{}

func (SplitRequalify) Name() string { return "split_requalify" }

func (SplitRequalify) Apply(env Env, n *roads.Network) (*roads.Network, error) {
	out, _, split, ok, err := splitRandom(env, n)
	if !ok || err != nil {
		return out, err
	}
	half := split.Halves[env.Rand.Intn(2)]
	q := randomQuality(env.Rand)
	// Crossing resolution or a split at an endpoint may leave no such half.
	if _, stored := out.Find(half.From, half.To); !stored {
		return out, nil
	}
	return out.ChangeQuality(half, q)
}

// SplitNudge splits a random segment and moves one of its original
// endpoints. The split point stays.
type SplitNudge struct{}

func (SplitNudge) Name() string { return "split_nudge" }

func (SplitNudge) Apply(env Env, n *roads.Network) (*roads.Network, error) {
	out, s, _, ok, err := splitRandom(env, n)
	if !ok || err != nil {
		return out, err
	}
	end := [2]orb.Point{s.From, s.To}[env.Rand.Intn(2)]
	return out.MoveVertex(end, nearby(env, end))
}
