package evaluate

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"

	"roadgen/pkg/demand"
	"roadgen/pkg/roads"
)

const eps = 1e-9

func network(t *testing.T, segs ...roads.Segment) *roads.Network {
	t.Helper()
	n := roads.New()
	for _, s := range segs {
		var err error
		if n, err = n.Add(s); err != nil {
			t.Fatal(err)
		}
	}
	return n
}

var oneTrip = demand.TrainingSet{{Origin: orb.Point{0, 0}, Destination: orb.Point{10, 0}}}

func TestCommuteTime(t *testing.T) {
	tests := []struct {
		name string
		segs []roads.Segment
		want float64
	}{
		{"no roads", nil, 1},
		{"road", []roads.Segment{roads.NewSegment(orb.Point{0, 0}, orb.Point{10, 0}, roads.Road)}, 0.3},
		{"highway", []roads.Segment{roads.NewSegment(orb.Point{0, 0}, orb.Point{10, 0}, roads.Highway)}, 0.15},
		{"super highway", []roads.Segment{roads.NewSegment(orb.Point{0, 0}, orb.Point{10, 0}, roads.SuperHighway)}, 0.1},
		// Half the trip on a super highway, the rest off-road.
		{"partial", []roads.Segment{roads.NewSegment(orb.Point{0, 0}, orb.Point{5, 0}, roads.SuperHighway)}, 0.55},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewCommuteTime().Evaluate(Input{Network: network(t, tt.segs...), Trips: oneTrip})
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if math.Abs(got-tt.want) > eps {
				t.Errorf("cost = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCommuteTimeRouterChoice(t *testing.T) {
	// Reaching (10,0) from (0,0) needs a detour the greedy walk will not take.
	n := network(t,
		roads.NewSegment(orb.Point{0, 0}, orb.Point{0, 5}, roads.SuperHighway),
		roads.NewSegment(orb.Point{0, 5}, orb.Point{10, 5}, roads.SuperHighway),
		roads.NewSegment(orb.Point{10, 5}, orb.Point{10, 0}, roads.SuperHighway),
	)
	in := Input{Network: n, Trips: oneTrip}

	greedy, err := NewCommuteTime().Evaluate(in)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(greedy-1) > eps {
		t.Errorf("greedy cost = %v, want 1", greedy)
	}

	ct := NewCommuteTime()
	ct.Router = roads.Shortest(func(s roads.Segment) float64 {
		return ct.TravelTime[s.Quality] * s.Length()
	})
	shortest, err := ct.Evaluate(in)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(shortest-0.2) > eps {
		t.Errorf("shortest cost = %v, want 0.2", shortest)
	}
}

type brokenFinder struct{}

func (brokenFinder) Path(a, b orb.Point) []orb.Point { return []orb.Point{a, b} }

func TestCommuteTimeMissingSegment(t *testing.T) {
	ct := NewCommuteTime()
	ct.Router = func(*roads.Network) roads.PathFinder { return brokenFinder{} }

	_, err := ct.Evaluate(Input{Network: roads.New(), Trips: oneTrip})
	if !errors.Is(err, roads.ErrMissingSegment) {
		t.Errorf("err = %v, want ErrMissingSegment", err)
	}
}

func TestConstruction(t *testing.T) {
	tests := []struct {
		name string
		segs []roads.Segment
		want float64
	}{
		{"no roads", nil, 0},
		{"road", []roads.Segment{roads.NewSegment(orb.Point{0, 0}, orb.Point{10, 0}, roads.Road)}, 0.25},
		{"super highway", []roads.Segment{roads.NewSegment(orb.Point{0, 0}, orb.Point{10, 0}, roads.SuperHighway)}, 1},
		{
			"two pieces pay overhead twice",
			[]roads.Segment{
				roads.NewSegment(orb.Point{0, 0}, orb.Point{5, 0}, roads.SuperHighway),
				roads.NewSegment(orb.Point{5, 0}, orb.Point{10, 0}, roads.SuperHighway),
			},
			48.0 / 44.0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewConstruction().Evaluate(Input{Network: network(t, tt.segs...), Trips: oneTrip})
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if math.Abs(got-tt.want) > eps {
				t.Errorf("cost = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNoise(t *testing.T) {
	cities := []orb.Point{{0, 0}}
	tests := []struct {
		name string
		seg  roads.Segment
		want float64
	}{
		{"silent road", roads.NewSegment(orb.Point{-5, 0}, orb.Point{5, 0}, roads.Road), 0},
		{"super highway through city", roads.NewSegment(orb.Point{-5, 0}, orb.Point{5, 0}, roads.SuperHighway), 1},
		{"distant highway", roads.NewSegment(orb.Point{-5, 2}, orb.Point{5, 2}, roads.Highway), math.Exp(-1) / 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewNoise().Evaluate(Input{Network: network(t, tt.seg), Cities: cities})
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if math.Abs(got-tt.want) > eps {
				t.Errorf("cost = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEmptyInput(t *testing.T) {
	in := Input{Network: roads.New()}
	for _, e := range Defaults() {
		t.Run(e.Name(), func(t *testing.T) {
			if _, err := e.Evaluate(in); !errors.Is(err, ErrEmptyInput) {
				t.Errorf("err = %v, want ErrEmptyInput", err)
			}
		})
	}
}

func TestCostsNonNegative(t *testing.T) {
	in := Input{
		Network: network(t,
			roads.NewSegment(orb.Point{0, 0}, orb.Point{6, 3}, roads.Highway),
			roads.NewSegment(orb.Point{6, 3}, orb.Point{10, 0}, roads.Road),
			roads.NewSegment(orb.Point{6, 3}, orb.Point{6, 9}, roads.SuperHighway),
		),
		Trips: demand.TrainingSet{
			{Origin: orb.Point{0, 0}, Destination: orb.Point{10, 0}},
			{Origin: orb.Point{10, 0}, Destination: orb.Point{6, 9}},
		},
		Cities: []orb.Point{{0, 0}, {10, 0}, {6, 9}},
	}
	costs, err := All(Defaults(), in, false)
	if err != nil {
		t.Fatal(err)
	}
	for i, c := range costs {
		if c < 0 || math.IsNaN(c) {
			t.Errorf("cost %d = %v", i, c)
		}
	}
}

type failing struct{}

func (failing) Name() string { return "failing" }

func (failing) Evaluate(Input) (float64, error) {
	return 0, errors.New("boom")
}

func TestAll(t *testing.T) {
	in := Input{
		Network: network(t, roads.NewSegment(orb.Point{0, 0}, orb.Point{10, 0}, roads.Highway)),
		Trips:   oneTrip,
		Cities:  []orb.Point{{0, 0}, {10, 0}},
	}

	seq, err := All(Defaults(), in, false)
	if err != nil {
		t.Fatalf("sequential: %v", err)
	}
	par, err := All(Defaults(), in, true)
	if err != nil {
		t.Fatalf("parallel: %v", err)
	}
	if len(seq) != 3 || len(par) != 3 {
		t.Fatalf("len = %d, %d; want 3", len(seq), len(par))
	}
	for i := range seq {
		if seq[i] != par[i] {
			t.Errorf("cost %d: sequential %v, parallel %v", i, seq[i], par[i])
		}
	}

	for _, parallel := range []bool{false, true} {
		evals := append(Defaults(), failing{})
		if _, err := All(evals, in, parallel); err == nil {
			t.Errorf("parallel=%v: expected error", parallel)
		}
	}
}

func TestNamed(t *testing.T) {
	for _, name := range []string{"commute_time", "construction", "noise"} {
		e, err := Named(name)
		if err != nil {
			t.Fatalf("Named(%q): %v", name, err)
		}
		if e.Name() != name {
			t.Errorf("Name = %q, want %q", e.Name(), name)
		}
	}
	if _, err := Named("traffic"); !errors.Is(err, ErrUnknownEvaluator) {
		t.Errorf("err = %v, want ErrUnknownEvaluator", err)
	}
	if got := Names(Defaults()); len(got) != 3 || got[0] != "commute_time" {
		t.Errorf("Names = %v", got)
	}
}

func BenchmarkAll(b *testing.B) {
	n := roads.New()
	var trips demand.TrainingSet
	var cities []orb.Point
	for i := range 20 {
		p := orb.Point{float64(i * 3), float64(i % 5)}
		q := orb.Point{float64(i*3 + 2), float64(i%5 + 4)}
		n, _ = n.Add(roads.NewSegment(p, q, roads.Quality(i%roads.NumQualities)))
		cities = append(cities, p)
		trips = append(trips, demand.Trip{Origin: p, Destination: orb.Point{0, 0}})
	}
	in := Input{Network: n, Trips: trips[1:], Cities: cities}
	for b.Loop() {
		All(Defaults(), in, false)
	}
}
