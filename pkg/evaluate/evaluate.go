// Package evaluate scores road networks. Every evaluator returns a cost
// normalized by a theoretical worst case, so costs of different kinds are
// roughly comparable and usually fall in [0, 1].
package evaluate

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/sourcegraph/conc/pool"

	"roadgen/pkg/demand"
	"roadgen/pkg/roads"
)

var (
	// ErrEmptyInput is returned when there is nothing to normalize by: no
	// trips, no cities, or only zero-length trips.
	ErrEmptyInput = errors.New("empty evaluation input")
	// ErrUnknownEvaluator is returned by Named for an unregistered name.
	ErrUnknownEvaluator = errors.New("unknown evaluator")
)

// Input is everything an evaluator may look at.
type Input struct {
	Network *roads.Network
	Trips   demand.TrainingSet
	Cities  []orb.Point
}

// Evaluator maps a network and its demand to a normalized cost.
type Evaluator interface {
	Name() string
	Evaluate(in Input) (float64, error)
}

// Defaults returns the commute time, construction and noise evaluators with
// their standard constants, in that order.
func Defaults() []Evaluator {
	return []Evaluator{NewCommuteTime(), NewConstruction(), NewNoise()}
}

// Named returns a default-configured evaluator by name.
func Named(name string) (Evaluator, error) {
	for _, e := range Defaults() {
		if e.Name() == name {
			return e, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEvaluator, name)
}

// Names lists the names of evals in order.
func Names(evals []Evaluator) []string {
	out := make([]string, len(evals))
	for i, e := range evals {
		out[i] = e.Name()
	}
	return out
}

// All runs every evaluator on in and returns the costs in evaluator order.
// When parallel is set the evaluators run concurrently; they share in
// read-only.
func All(evals []Evaluator, in Input, parallel bool) ([]float64, error) {
	costs := make([]float64, len(evals))
	if !parallel || len(evals) < 2 {
		for i, e := range evals {
			c, err := e.Evaluate(in)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", e.Name(), err)
			}
			costs[i] = c
		}
		return costs, nil
	}

	p := pool.New().WithErrors().WithMaxGoroutines(len(evals))
	for i, e := range evals {
		p.Go(func() error {
			c, err := e.Evaluate(in)
			if err != nil {
				return fmt.Errorf("%s: %w", e.Name(), err)
			}
			costs[i] = c
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return costs, nil
}
