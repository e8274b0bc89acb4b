// Package demand models commute traffic between cities.
package demand

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"

	"roadgen/pkg/geo"
	"roadgen/pkg/rnd"
)

// DefaultPerCity is the number of destinations sampled for every city.
const DefaultPerCity = 3

// ErrNoDestinations is returned when a city has no other city to commute to.
var ErrNoDestinations = errors.New("no destination at a different location")

// Trip is one commute from an origin city to a destination city.
type Trip struct {
	Origin      orb.Point
	Destination orb.Point
}

// Distance is the straight-line length of the trip.
func (t Trip) Distance() float64 {
	return geo.Distance(t.Origin, t.Destination)
}

// TrainingSet is the ordered list of trips used to score commute time.
type TrainingSet []Trip

// Sample draws perCity trips for every city, in city order. Destinations are
// picked uniformly among the cities at a different location than the origin,
// so the same destination may repeat.
func Sample(src rnd.Source, cities []orb.Point, perCity int) (TrainingSet, error) {
	if perCity <= 0 {
		perCity = DefaultPerCity
	}

	set := make(TrainingSet, 0, len(cities)*perCity)
	for i, origin := range cities {
		valid := destinations(cities, origin)
		if len(valid) == 0 {
			return nil, fmt.Errorf("city %d at %v: %w", i, origin, ErrNoDestinations)
		}
		for range perCity {
			dest, _ := rnd.Pick(src, valid)
			set = append(set, Trip{Origin: origin, Destination: dest})
		}
	}
	return set, nil
}

func destinations(cities []orb.Point, origin orb.Point) []orb.Point {
	out := make([]orb.Point, 0, len(cities))
	for _, c := range cities {
		if c != origin {
			out = append(out, c)
		}
	}
	return out
}

// Distance is the summed straight-line length of all trips.
func (ts TrainingSet) Distance() float64 {
	var total float64
	for _, t := range ts {
		total += t.Distance()
	}
	return total
}
