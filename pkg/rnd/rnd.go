// Package rnd defines the random source consumed by the generator.
//
// *math/rand.Rand satisfies Source, so callers pick determinism by seeding.
package rnd

import "github.com/paulmach/orb"

// Source provides uniform random numbers.
type Source interface {
	// Float64 returns a number in [0,1).
	Float64() float64
	// Intn returns a number in [0,n). It panics if n <= 0.
	Intn(n int) int
}

// Pick returns a uniformly chosen element of items.
// The second result is false when items is empty.
func Pick[T any](src Source, items []T) (T, bool) {
	var zero T
	if len(items) == 0 {
		return zero, false
	}
	return items[src.Intn(len(items))], true
}

// Offset returns p moved by an integer amount in [-r, r] on each axis.
func Offset(src Source, p orb.Point, r int) orb.Point {
	return orb.Point{
		p[0] + float64(src.Intn(2*r+1)-r),
		p[1] + float64(src.Intn(2*r+1)-r),
	}
}
