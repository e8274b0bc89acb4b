package evaluate

import (
	"fmt"
	"math"

	"roadgen/pkg/geo"
	"roadgen/pkg/roads"
)

// CommuteTime scores how long the training set trips take. Travel on a
// segment costs its length times the grade's travel time factor; the
// stretches between a trip's endpoints and where its route starts and ends
// are charged at Penalty per unit. The worst case is walking every trip
// entirely off-road.
type CommuteTime struct {
	Penalty    float64
	TravelTime [roads.NumQualities]float64

	// Router picks routes. Nil means the greedy walk.
	Router roads.Router
}

// NewCommuteTime returns a commute time evaluator with the standard factors.
func NewCommuteTime() *CommuteTime {
	return &CommuteTime{
		Penalty:    10,
		TravelTime: [roads.NumQualities]float64{3.0, 1.5, 1.0},
	}
}

func (c *CommuteTime) Name() string { return "commute_time" }

func (c *CommuteTime) Evaluate(in Input) (float64, error) {
	router := c.Router
	if router == nil {
		router = roads.Greedy
	}
	finder := router(in.Network)

	var total, worst float64
	for _, trip := range in.Trips {
		route := finder.Path(trip.Origin, trip.Destination)
		for i := 1; i < len(route); i++ {
			s, ok := in.Network.Find(route[i-1], route[i])
			if !ok {
				return 0, fmt.Errorf("%w: %v-%v", roads.ErrMissingSegment, route[i-1], route[i])
			}
			total += c.TravelTime[s.Quality] * s.Length()
		}
		offRoad := geo.Distance(trip.Origin, route[0]) + geo.Distance(trip.Destination, route[len(route)-1])
		total += c.Penalty * offRoad
		worst += c.Penalty * trip.Distance()
	}
	if worst == 0 {
		return 0, fmt.Errorf("commute time: %w", ErrEmptyInput)
	}
	return total / worst, nil
}

// Construction scores what the network costs to build: every segment costs
// its length plus a fixed overhead, times the grade's unit cost. The worst
// case is a top grade road along every trip.
type Construction struct {
	Overhead float64
	UnitCost [roads.NumQualities]float64
}

// NewConstruction returns a construction evaluator with the standard costs.
func NewConstruction() *Construction {
	return &Construction{
		Overhead: 1,
		UnitCost: [roads.NumQualities]float64{1, 2, 4},
	}
}

func (c *Construction) Name() string { return "construction" }

func (c *Construction) cost(length float64, q roads.Quality) float64 {
	return (c.Overhead + length) * c.UnitCost[q]
}

func (c *Construction) Evaluate(in Input) (float64, error) {
	var worst float64
	for _, trip := range in.Trips {
		worst += c.cost(trip.Distance(), roads.SuperHighway)
	}
	if worst == 0 {
		return 0, fmt.Errorf("construction: %w", ErrEmptyInput)
	}

	var total float64
	for _, s := range in.Network.Segments() {
		total += c.cost(s.Length(), s.Quality)
	}
	return total / worst, nil
}

// Noise scores how loud the roads are in the cities. A segment adds its
// grade's factor to every city, decaying exponentially with the distance
// from the city to the segment. The worst case is a top grade road running
// through every city.
type Noise struct {
	HalfLife float64
	Factor   [roads.NumQualities]float64
}

// NewNoise returns a noise evaluator with the standard factors. Plain roads
// are silent.
func NewNoise() *Noise {
	return &Noise{
		HalfLife: 2,
		Factor:   [roads.NumQualities]float64{0, 1, 3},
	}
}

func (n *Noise) Name() string { return "noise" }

func (n *Noise) Evaluate(in Input) (float64, error) {
	worst := float64(len(in.Cities)) * n.Factor[roads.SuperHighway]
	if worst == 0 {
		return 0, fmt.Errorf("noise: %w", ErrEmptyInput)
	}

	segs := in.Network.Segments()
	var total float64
	for _, city := range in.Cities {
		for _, s := range segs {
			f := n.Factor[s.Quality]
			if f == 0 {
				continue
			}
			d, _ := geo.PointToSegmentDist(city, s.From, s.To)
			total += f * math.Exp(-d/n.HalfLife)
		}
	}
	return total / worst, nil
}
