package session

import (
	"github.com/paulmach/orb"

	"roadgen/pkg/evaluate"
	"roadgen/pkg/roads"
)

// Snapshot is a read-only view of a state for display and export.
type Snapshot struct {
	Generation int
	Width      int
	Height     int
	Bound      orb.Bound
	Evaluators []string
	Costs      []float64
	// Weights are the normalized weights Weighted was computed with.
	Weights    []float64
	Weighted   float64
	Cities     []orb.Point
	Segments   []roads.Segment
	Vertices   []orb.Point
	Components int

	// LargestComponent is the vertex count of the biggest connected system.
	LargestComponent int
}

// Snapshot captures s under the given weights.
func (s State) Snapshot(weights []float64) (Snapshot, error) {
	norm, err := evaluate.NormalizeWeights(weights)
	if err != nil {
		return Snapshot{}, err
	}
	weighted, err := s.WeightedCost(weights)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Generation: s.generation,
		Width:      s.problem.Width,
		Height:     s.problem.Height,
		Bound:      s.problem.Bound(),
		Evaluators: evaluate.Names(s.problem.Evaluators),
		Costs:      s.Cost(),
		Weights:    norm,
		Weighted:   weighted,
		Cities:     s.Cities(),
		Segments:   s.Segments(),
		Vertices:   s.Vertices(),
		Components: len(s.network.Components()),

		LargestComponent: len(s.network.LargestComponent()),
	}, nil
}
