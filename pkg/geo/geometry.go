package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Distance returns the Euclidean distance between two points.
func Distance(a, b orb.Point) float64 {
	return planar.Distance(a, b)
}

// PointToSegmentDist computes the shortest distance from point P to segment AB,
// and returns the projection ratio along AB (clamped to [0,1]).
func PointToSegmentDist(p, a, b orb.Point) (dist float64, ratio float64) {
	// Degenerate segment: every projection lands on A.
	if a == b {
		return planar.Distance(p, a), 0
	}

	dx := b[0] - a[0]
	dy := b[1] - a[1]
	lenSq := dx*dx + dy*dy

	// Project P onto line AB, clamp to [0,1].
	t := ((p[0]-a[0])*dx + (p[1]-a[1])*dy) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	return planar.DistanceFromSegment(a, b, p), t
}

// SegmentIntersection returns the point where segments A1A2 and B1B2 cross.
//
// Parallel and coincident segments never intersect. A crossing that lands
// exactly on an endpoint of either segment (parameter 0 or 1) is not reported,
// so segments that merely share a vertex are not in conflict.
func SegmentIntersection(a1, a2, b1, b2 orb.Point) (orb.Point, bool) {
	uaT := (b2[0]-b1[0])*(a1[1]-b1[1]) - (b2[1]-b1[1])*(a1[0]-b1[0])
	ubT := (a2[0]-a1[0])*(a1[1]-b1[1]) - (a2[1]-a1[1])*(a1[0]-b1[0])
	uB := (b2[1]-b1[1])*(a2[0]-a1[0]) - (b2[0]-b1[0])*(a2[1]-a1[1])

	if uB == 0 {
		return orb.Point{}, false
	}

	ua := uaT / uB
	ub := ubT / uB

	if ua <= 0 || ua >= 1 || ub <= 0 || ub >= 1 {
		return orb.Point{}, false
	}

	return orb.Point{
		a1[0] + ua*(a2[0]-a1[0]),
		a1[1] + ua*(a2[1]-a1[1]),
	}, true
}

// Round snaps both coordinates to the nearest integer.
func Round(p orb.Point) orb.Point {
	return orb.Point{math.Round(p[0]), math.Round(p[1])}
}

// Lerp returns the point at parameter t along AB.
func Lerp(a, b orb.Point, t float64) orb.Point {
	return orb.Point{
		a[0] + t*(b[0]-a[0]),
		a[1] + t*(b[1]-a[1]),
	}
}

// Finite reports whether both coordinates are finite numbers.
func Finite(p orb.Point) bool {
	return !math.IsNaN(p[0]) && !math.IsNaN(p[1]) && !math.IsInf(p[0], 0) && !math.IsInf(p[1], 0)
}
