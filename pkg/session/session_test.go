package session

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/paulmach/orb"

	"roadgen/pkg/evaluate"
	"roadgen/pkg/evolve"
	"roadgen/pkg/problem"
)

var equalWeights = []float64{1, 1, 1}

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.Width, cfg.Height, cfg.Cities = 30, 20, 6
	return cfg
}

func newState(t *testing.T, seed int64) State {
	t.Helper()
	s, err := New(rand.New(rand.NewSource(seed)), smallConfig(), evaluate.Defaults())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestNew(t *testing.T) {
	s := newState(t, 1)

	if s.Generation() != 0 {
		t.Errorf("Generation = %d, want 0", s.Generation())
	}
	if s.Network().Len() != 0 {
		t.Errorf("network has %d segments, want 0", s.Network().Len())
	}
	if got := len(s.Cities()); got != 6 {
		t.Errorf("cities = %d, want 6", got)
	}
	if got := len(s.Trips()); got != 6*3 {
		t.Errorf("trips = %d, want 18", got)
	}

	// Without roads every commute is off-road and nothing is built or heard.
	want := []float64{1, 0, 0}
	cost := s.Cost()
	for i := range want {
		if math.Abs(cost[i]-want[i]) > 1e-9 {
			t.Errorf("cost[%d] = %v, want %v", i, cost[i], want[i])
		}
	}
}

func TestNewInvalidConfig(t *testing.T) {
	cfg := smallConfig()
	cfg.Width = 1
	if _, err := New(rand.New(rand.NewSource(1)), cfg, evaluate.Defaults()); !errors.Is(err, problem.ErrInvalidSize) {
		t.Errorf("err = %v, want ErrInvalidSize", err)
	}
}

func TestStepMonotonic(t *testing.T) {
	s := newState(t, 2)
	e := s.Config().Engine(rand.New(rand.NewSource(2)))

	prev, err := s.WeightedCost(equalWeights)
	if err != nil {
		t.Fatal(err)
	}
	for i := range 400 {
		next, err := s.Step(e, equalWeights)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if next.Generation() != s.Generation()+1 {
			t.Fatalf("generation %d -> %d", s.Generation(), next.Generation())
		}
		cur, err := next.WeightedCost(equalWeights)
		if err != nil {
			t.Fatal(err)
		}
		if cur > prev {
			t.Fatalf("step %d: weighted cost rose from %v to %v", i, prev, cur)
		}
		s, prev = next, cur
	}
	if s.Generation() != 400 {
		t.Errorf("Generation = %d, want 400", s.Generation())
	}
}

func TestStepLeavesReceiverUntouched(t *testing.T) {
	s := newState(t, 3)
	e := s.Config().Engine(rand.New(rand.NewSource(3)))
	before := s.Cost()

	for range 50 {
		if _, err := s.Step(e, equalWeights); err != nil {
			t.Fatal(err)
		}
	}
	if s.Generation() != 0 || s.Network().Len() != 0 {
		t.Errorf("receiver changed: generation %d, %d segments", s.Generation(), s.Network().Len())
	}
	for i, c := range s.Cost() {
		if c != before[i] {
			t.Errorf("cost[%d] changed from %v to %v", i, before[i], c)
		}
	}
}

func TestStepCostMatchesNetwork(t *testing.T) {
	s := newState(t, 4)
	s, err := s.Advance(context.Background(), s.Config().Engine(rand.New(rand.NewSource(4))), equalWeights, 300)
	if err != nil {
		t.Fatal(err)
	}

	in := evaluate.Input{Network: s.Network(), Trips: s.Trips(), Cities: s.Cities()}
	want, err := evaluate.All(s.Problem().Evaluators, in, false)
	if err != nil {
		t.Fatal(err)
	}
	for i, c := range s.Cost() {
		if math.Abs(c-want[i]) > 1e-9 {
			t.Errorf("cost[%d] = %v, recomputed %v", i, c, want[i])
		}
	}
}

func TestStepInvalidWeights(t *testing.T) {
	s := newState(t, 5)
	e := s.Config().Engine(rand.New(rand.NewSource(5)))
	tests := []struct {
		name    string
		weights []float64
	}{
		{"wrong arity", []float64{1, 1}},
		{"all zero", []float64{0, 0, 0}},
		{"negative", []float64{1, -1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := s.Step(e, tt.weights)
			if !errors.Is(err, evaluate.ErrInvalidWeights) {
				t.Errorf("err = %v, want ErrInvalidWeights", err)
			}
			if next.Generation() != 0 {
				t.Errorf("Generation = %d after failed step", next.Generation())
			}
		})
	}
}

func TestStepNoOperators(t *testing.T) {
	s := newState(t, 5)
	_, err := s.Step(&evolve.Engine{Rand: rand.New(rand.NewSource(1))}, equalWeights)
	if !errors.Is(err, evolve.ErrNoOperators) {
		t.Errorf("err = %v, want ErrNoOperators", err)
	}
}

func TestAdvanceCancelled(t *testing.T) {
	s := newState(t, 6)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	next, err := s.Advance(ctx, s.Config().Engine(rand.New(rand.NewSource(6))), equalWeights, 10)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if next.Generation() != 0 {
		t.Errorf("Generation = %d, want 0", next.Generation())
	}
}

func TestTick(t *testing.T) {
	s := newState(t, 7)
	s, err := s.Tick(context.Background(), s.Config().Engine(rand.New(rand.NewSource(7))), equalWeights)
	if err != nil {
		t.Fatal(err)
	}
	if s.Generation() != s.Config().StepsPerTick {
		t.Errorf("Generation = %d, want %d", s.Generation(), s.Config().StepsPerTick)
	}
}

func TestSetCityPosition(t *testing.T) {
	s := newState(t, 8)
	src := rand.New(rand.NewSource(8))
	p := orb.Point{3, 4}

	moved, err := s.SetCityPosition(src, 2, p)
	if err != nil {
		t.Fatalf("SetCityPosition: %v", err)
	}
	if moved.Cities()[2] != p {
		t.Errorf("city 2 = %v, want %v", moved.Cities()[2], p)
	}
	found := false
	for _, trip := range moved.Trips() {
		if trip.Origin == p {
			found = true
		}
	}
	if !found {
		t.Error("training set was not resampled for the moved city")
	}
	if s.Cities()[2] == p {
		t.Error("receiver changed")
	}

	tests := []struct {
		name string
		i    int
		p    orb.Point
		want error
	}{
		{"bad index", 99, p, problem.ErrCityIndex},
		{"nan", 0, orb.Point{math.NaN(), 0}, problem.ErrInvalidPoint},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.SetCityPosition(src, tt.i, tt.p); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSetCities(t *testing.T) {
	s := newState(t, 9)
	src := rand.New(rand.NewSource(9))

	next, err := s.SetCities(src, []orb.Point{{0, 0}, {10, 0}})
	if err != nil {
		t.Fatalf("SetCities: %v", err)
	}
	if len(next.Trips()) != 2*3 {
		t.Errorf("trips = %d, want 6", len(next.Trips()))
	}
	if _, err := s.SetCities(src, []orb.Point{{1, 1}}); !errors.Is(err, problem.ErrTooFewCities) {
		t.Errorf("err = %v, want ErrTooFewCities", err)
	}
}

func TestReset(t *testing.T) {
	s := newState(t, 10)
	s, err := s.Advance(context.Background(), s.Config().Engine(rand.New(rand.NewSource(10))), equalWeights, 50)
	if err != nil {
		t.Fatal(err)
	}

	r, err := s.Reset(rand.New(rand.NewSource(11)))
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if r.Generation() != 0 || r.Network().Len() != 0 {
		t.Errorf("Reset state: generation %d, %d segments", r.Generation(), r.Network().Len())
	}
	if len(r.Cities()) != len(s.Cities()) {
		t.Errorf("cities = %d, want %d", len(r.Cities()), len(s.Cities()))
	}
}

func TestSnapshot(t *testing.T) {
	s := newState(t, 12)
	s, err := s.Advance(context.Background(), s.Config().Engine(rand.New(rand.NewSource(12))), equalWeights, 100)
	if err != nil {
		t.Fatal(err)
	}

	snap, err := s.Snapshot([]float64{2, 1, 1})
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Generation != 100 {
		t.Errorf("Generation = %d, want 100", snap.Generation)
	}
	if len(snap.Evaluators) != 3 || snap.Evaluators[0] != "commute_time" {
		t.Errorf("Evaluators = %v", snap.Evaluators)
	}
	if math.Abs(evaluate.Sum(snap.Weights)-1) > 1e-9 {
		t.Errorf("weights sum to %v", evaluate.Sum(snap.Weights))
	}
	want, _ := s.WeightedCost([]float64{2, 1, 1})
	if snap.Weighted != want {
		t.Errorf("Weighted = %v, want %v", snap.Weighted, want)
	}
	if len(snap.Segments) != s.Network().Len() {
		t.Errorf("segments = %d, want %d", len(snap.Segments), s.Network().Len())
	}
	if len(snap.Segments) > 0 && snap.Components == 0 {
		t.Error("segments without components")
	}
	if snap.LargestComponent > len(snap.Vertices) || (len(snap.Segments) > 0 && snap.LargestComponent < 2) {
		t.Errorf("LargestComponent = %d with %d vertices", snap.LargestComponent, len(snap.Vertices))
	}
	if snap.Bound != s.Problem().Bound() || snap.Bound.Max != (orb.Point{float64(snap.Width), float64(snap.Height)}) {
		t.Errorf("Bound = %v, want the %dx%d map", snap.Bound, snap.Width, snap.Height)
	}

	if _, err := s.Snapshot([]float64{1}); !errors.Is(err, evaluate.ErrInvalidWeights) {
		t.Errorf("err = %v, want ErrInvalidWeights", err)
	}
}

func BenchmarkStep(b *testing.B) {
	s, err := New(rand.New(rand.NewSource(1)), DefaultConfig(), evaluate.Defaults())
	if err != nil {
		b.Fatal(err)
	}
	e := s.Config().Engine(rand.New(rand.NewSource(1)))
	for b.Loop() {
		s, _ = s.Step(e, equalWeights)
	}
}
