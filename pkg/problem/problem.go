// Package problem describes what the road network is built for: the map, the
// cities on it and the evaluators that score a network.
package problem

import (
	"errors"
	"fmt"
	"slices"

	"github.com/paulmach/orb"

	"roadgen/pkg/evaluate"
	"roadgen/pkg/geo"
	"roadgen/pkg/rnd"
)

// Margin keeps random cities this many cells away from the map border.
const Margin = 1

var (
	ErrInvalidPoint = errors.New("point has non-finite coordinates")
	ErrCityIndex    = errors.New("city index out of range")
	ErrTooFewCities = errors.New("need at least two cities at distinct locations")
	ErrInvalidSize  = errors.New("map is too small")
	ErrNoEvaluators = errors.New("no evaluators configured")
)

// Description is an immutable problem. Setters return modified copies.
type Description struct {
	Width      int
	Height     int
	Cities     []orb.Point
	Evaluators []evaluate.Evaluator
}

// Random places n cities uniformly on integer cells of a width x height map.
func Random(src rnd.Source, width, height, n int, evals []evaluate.Evaluator) (Description, error) {
	if width <= 2*Margin || height <= 2*Margin {
		return Description{}, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	if n < 2 {
		return Description{}, fmt.Errorf("%w: got %d", ErrTooFewCities, n)
	}
	d := Description{Width: width, Height: height, Evaluators: evals}
	return d.SetCities(RandomCities(src, width, height, n))
}

// RandomCities returns n integer points at least Margin away from the border.
// It returns nil when n is not positive or the map has no inner cells.
func RandomCities(src rnd.Source, width, height, n int) []orb.Point {
	if n <= 0 || width <= 2*Margin || height <= 2*Margin {
		return nil
	}
	cities := make([]orb.Point, n)
	for i := range cities {
		cities[i] = orb.Point{
			float64(Margin + src.Intn(width-2*Margin)),
			float64(Margin + src.Intn(height-2*Margin)),
		}
	}
	return cities
}

// SetCities replaces the whole city list.
func (d Description) SetCities(cities []orb.Point) (Description, error) {
	for i, c := range cities {
		if !geo.Finite(c) {
			return d, fmt.Errorf("city %d: %w", i, ErrInvalidPoint)
		}
	}
	d.Cities = slices.Clone(cities)
	return d, nil
}

// SetCity moves the city at index i to p.
func (d Description) SetCity(i int, p orb.Point) (Description, error) {
	if i < 0 || i >= len(d.Cities) {
		return d, fmt.Errorf("%w: %d of %d", ErrCityIndex, i, len(d.Cities))
	}
	if !geo.Finite(p) {
		return d, fmt.Errorf("city %d: %w", i, ErrInvalidPoint)
	}
	d.Cities = slices.Clone(d.Cities)
	d.Cities[i] = p
	return d, nil
}

// Validate checks that d can be evaluated.
func (d Description) Validate() error {
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, d.Width, d.Height)
	}
	if len(d.Evaluators) == 0 {
		return ErrNoEvaluators
	}
	distinct := false
	for i, c := range d.Cities {
		if !geo.Finite(c) {
			return fmt.Errorf("city %d: %w", i, ErrInvalidPoint)
		}
		if c != d.Cities[0] {
			distinct = true
		}
	}
	if !distinct {
		return fmt.Errorf("%w: got %d", ErrTooFewCities, len(d.Cities))
	}
	return nil
}

// Bound is the map rectangle.
func (d Description) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{float64(d.Width), float64(d.Height)}}
}
