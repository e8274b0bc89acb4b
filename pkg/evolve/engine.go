// Package evolve mutates road networks and decides which mutations to keep.
package evolve

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"

	"roadgen/pkg/rnd"
	"roadgen/pkg/roads"
)

// DefaultRadius is how far, per axis, mutations place new points.
const DefaultRadius = 3

// ErrNoOperators is returned by Mutate when the catalog is empty.
var ErrNoOperators = errors.New("no mutation operators")

// Engine applies randomly chosen operators.
type Engine struct {
	Rand      rnd.Source
	Operators []Operator
	Radius    int
}

// New returns an engine over the full catalog.
func New(src rnd.Source) *Engine {
	return &Engine{
		Rand:      src,
		Operators: Catalog(),
		Radius:    DefaultRadius,
	}
}

// Mutate picks one operator uniformly and applies it to n. It returns the
// candidate network and the operator used.
func (e *Engine) Mutate(n *roads.Network, cities []orb.Point) (*roads.Network, Operator, error) {
	op, ok := rnd.Pick(e.Rand, e.Operators)
	if !ok {
		return nil, nil, ErrNoOperators
	}

	env := Env{Rand: e.Rand, Cities: cities, Radius: e.Radius}
	cand, err := op.Apply(env, n)
	if err != nil {
		return nil, op, fmt.Errorf("%s: %w", op.Name(), err)
	}
	return cand, op, nil
}

// Accept reports whether a candidate replaces the current network, given
// both weighted costs. Ties go to the candidate so the search can drift
// across plateaus.
func Accept(current, candidate float64) bool {
	return candidate <= current
}
