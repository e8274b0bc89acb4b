package roads

import (
	"fmt"

	"github.com/paulmach/orb"

	"roadgen/pkg/geo"
)

// Quality is the ordinal grade of a road. Higher grades are faster to travel,
// more expensive to build and noisier.
type Quality int

const (
	Road Quality = iota
	Highway
	SuperHighway
)

// NumQualities is the number of road grades.
const NumQualities = 3

// Qualities lists every grade from lowest to highest.
var Qualities = [NumQualities]Quality{Road, Highway, SuperHighway}

// Valid reports whether q is one of the known grades.
func (q Quality) Valid() bool {
	return q >= Road && q <= SuperHighway
}

func (q Quality) String() string {
	switch q {
	case Road:
		return "road"
	case Highway:
		return "highway"
	case SuperHighway:
		return "super_highway"
	}
	return fmt.Sprintf("quality(%d)", int(q))
}

// Segment is an undirected straight road between two points.
type Segment struct {
	From    orb.Point
	To      orb.Point
	Quality Quality
}

// NewSegment returns a segment between from and to.
func NewSegment(from, to orb.Point, q Quality) Segment {
	return Segment{From: from, To: to, Quality: q}
}

// Length is the Euclidean distance between the endpoints.
func (s Segment) Length() float64 {
	return geo.Distance(s.From, s.To)
}

// Empty reports whether both endpoints coincide. Empty segments are never stored.
func (s Segment) Empty() bool {
	return s.From == s.To
}

// Equal compares endpoints regardless of order. Quality is ignored.
func (s Segment) Equal(o Segment) bool {
	return (s.From == o.From && s.To == o.To) || (s.From == o.To && s.To == o.From)
}

// Key identifies the segment by its endpoint pair.
func (s Segment) Key() Key {
	return KeyOf(s.From, s.To)
}

// WithQuality returns a copy of s with a different grade.
func (s Segment) WithQuality(q Quality) Segment {
	s.Quality = q
	return s
}

// Bound is the axis-aligned bounding box of the segment.
func (s Segment) Bound() orb.Bound {
	return orb.MultiPoint{s.From, s.To}.Bound()
}

// Crossing returns the interior intersection point of two segments.
func (s Segment) Crossing(o Segment) (orb.Point, bool) {
	return geo.SegmentIntersection(s.From, s.To, o.From, o.To)
}

// Key is the order-independent identity of a segment. A precedes B in
// point order (by y, then x).
type Key struct {
	A, B orb.Point
}

// KeyOf builds the key of the segment between a and b.
func KeyOf(a, b orb.Point) Key {
	if PointLess(b, a) {
		a, b = b, a
	}
	return Key{A: a, B: b}
}

// Less orders keys by their first point, then their second.
func (k Key) Less(o Key) bool {
	if k.A != o.A {
		return PointLess(k.A, o.A)
	}
	return PointLess(k.B, o.B)
}

func (k Key) String() string {
	return fmt.Sprintf("%g|%g|%g|%g", k.A[0], k.A[1], k.B[0], k.B[1])
}

// PointLess orders points by y, then x.
func PointLess(a, b orb.Point) bool {
	if a[1] != b[1] {
		return a[1] < b[1]
	}
	return a[0] < b[0]
}
