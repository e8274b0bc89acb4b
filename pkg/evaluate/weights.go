package evaluate

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidWeights is returned for a weight vector of the wrong length, with
// a negative or non-finite entry, or summing to zero.
var ErrInvalidWeights = errors.New("invalid weight vector")

// NormalizeWeights scales w to sum to 1.
func NormalizeWeights(w []float64) ([]float64, error) {
	var sum float64
	for i, v := range w {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: weight %d is %v", ErrInvalidWeights, i, v)
		}
		sum += v
	}
	if sum == 0 {
		return nil, fmt.Errorf("%w: weights sum to zero", ErrInvalidWeights)
	}

	out := make([]float64, len(w))
	for i, v := range w {
		out[i] = v / sum
	}
	return out, nil
}

// Weighted multiplies costs element-wise by the normalized weights.
func Weighted(costs, weights []float64) ([]float64, error) {
	if len(costs) != len(weights) {
		return nil, fmt.Errorf("%w: %d weights for %d costs", ErrInvalidWeights, len(weights), len(costs))
	}
	norm, err := NormalizeWeights(weights)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(costs))
	for i := range costs {
		out[i] = costs[i] * norm[i]
	}
	return out, nil
}

// Sum adds up v.
func Sum(v []float64) float64 {
	var total float64
	for _, x := range v {
		total += x
	}
	return total
}

// Score is the weighted cost compared during acceptance.
func Score(costs, weights []float64) (float64, error) {
	w, err := Weighted(costs, weights)
	if err != nil {
		return 0, err
	}
	return Sum(w), nil
}
