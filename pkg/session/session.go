// Package session holds the evolving state of one generator run.
//
// State is an immutable value. Every transition returns a new State and
// leaves the receiver valid, so a host keeps exactly one mutable slot for the
// current state and swaps it after each call.
package session

import (
	"context"
	"fmt"
	"slices"

	"github.com/paulmach/orb"

	"roadgen/pkg/demand"
	"roadgen/pkg/evaluate"
	"roadgen/pkg/evolve"
	"roadgen/pkg/problem"
	"roadgen/pkg/rnd"
	"roadgen/pkg/roads"
)

// Config controls how sessions are created and advanced.
type Config struct {
	Width  int
	Height int
	Cities int
	// PerCity is the number of commute destinations sampled per city.
	PerCity int
	// Radius is how far mutations place new points.
	Radius int
	// StepsPerTick is the number of steps Tick runs.
	StepsPerTick int
	// Parallel evaluates the evaluators concurrently.
	Parallel bool
}

// DefaultConfig returns the standard map and run settings.
func DefaultConfig() Config {
	return Config{
		Width:        90,
		Height:       60,
		Cities:       30,
		PerCity:      demand.DefaultPerCity,
		Radius:       evolve.DefaultRadius,
		StepsPerTick: 10,
	}
}

// Engine returns a mutation engine over the full catalog using cfg's radius.
func (c Config) Engine(src rnd.Source) *evolve.Engine {
	e := evolve.New(src)
	if c.Radius > 0 {
		e.Radius = c.Radius
	}
	return e
}

// State is one point of a run. The cost vector always matches the current
// network and training set.
type State struct {
	cfg        Config
	problem    problem.Description
	network    *roads.Network
	trips      demand.TrainingSet
	cost       []float64
	generation int
}

// New creates a session with random cities and an empty network.
func New(src rnd.Source, cfg Config, evals []evaluate.Evaluator) (State, error) {
	p, err := problem.Random(src, cfg.Width, cfg.Height, cfg.Cities, evals)
	if err != nil {
		return State{}, err
	}
	return FromProblem(src, cfg, p)
}

// FromProblem creates a session for an existing problem with an empty
// network.
func FromProblem(src rnd.Source, cfg Config, p problem.Description) (State, error) {
	if err := p.Validate(); err != nil {
		return State{}, err
	}
	trips, err := demand.Sample(src, p.Cities, cfg.PerCity)
	if err != nil {
		return State{}, err
	}
	cfg.Width, cfg.Height, cfg.Cities = p.Width, p.Height, len(p.Cities)
	return State{cfg: cfg, problem: p, network: roads.New()}.withDemand(trips)
}

// withDemand swaps in a training set and recomputes the cost.
func (s State) withDemand(trips demand.TrainingSet) (State, error) {
	cost, err := s.costOf(s.network, trips)
	if err != nil {
		return s, err
	}
	s.trips = trips
	s.cost = cost
	return s, nil
}

func (s State) costOf(n *roads.Network, trips demand.TrainingSet) ([]float64, error) {
	in := evaluate.Input{Network: n, Trips: trips, Cities: s.problem.Cities}
	return evaluate.All(s.problem.Evaluators, in, s.cfg.Parallel)
}

// Step applies one random mutation and keeps it when its weighted cost is
// not worse. The generation advances whether or not the mutation is kept.
func (s State) Step(e *evolve.Engine, weights []float64) (State, error) {
	current, err := evaluate.Score(s.cost, weights)
	if err != nil {
		return s, err
	}
	cand, op, err := e.Mutate(s.network, s.problem.Cities)
	if err != nil {
		return s, fmt.Errorf("generation %d: %w", s.generation, err)
	}

	next := s
	next.generation++
	if cand == s.network {
		return next, nil
	}

	cost, err := s.costOf(cand, s.trips)
	if err != nil {
		return s, fmt.Errorf("generation %d %s: %w", s.generation, op.Name(), err)
	}
	score, err := evaluate.Score(cost, weights)
	if err != nil {
		return s, err
	}
	if evolve.Accept(current, score) {
		next.network = cand
		next.cost = cost
	}
	return next, nil
}

// Advance runs steps steps, stopping early when ctx is done.
func (s State) Advance(ctx context.Context, e *evolve.Engine, weights []float64, steps int) (State, error) {
	for range steps {
		if err := ctx.Err(); err != nil {
			return s, err
		}
		next, err := s.Step(e, weights)
		if err != nil {
			return s, err
		}
		s = next
	}
	return s, nil
}

// Tick runs the configured number of steps per tick.
func (s State) Tick(ctx context.Context, e *evolve.Engine, weights []float64) (State, error) {
	return s.Advance(ctx, e, weights, s.cfg.StepsPerTick)
}

// SetCityPosition moves one city, resamples the training set and recomputes
// the cost. The network is kept.
func (s State) SetCityPosition(src rnd.Source, i int, p orb.Point) (State, error) {
	prob, err := s.problem.SetCity(i, p)
	if err != nil {
		return s, err
	}
	return s.withProblem(src, prob)
}

// SetCities replaces every city, like SetCityPosition.
func (s State) SetCities(src rnd.Source, cities []orb.Point) (State, error) {
	prob, err := s.problem.SetCities(cities)
	if err != nil {
		return s, err
	}
	if err := prob.Validate(); err != nil {
		return s, err
	}
	return s.withProblem(src, prob)
}

func (s State) withProblem(src rnd.Source, p problem.Description) (State, error) {
	trips, err := demand.Sample(src, p.Cities, s.cfg.PerCity)
	if err != nil {
		return s, err
	}
	next := s
	next.problem = p
	next.cfg.Cities = len(p.Cities)
	return next.withDemand(trips)
}

// Reset discards the run and starts over with new random cities on the same
// map and evaluators.
func (s State) Reset(src rnd.Source) (State, error) {
	return New(src, s.cfg, s.problem.Evaluators)
}

func (s State) Config() Config               { return s.cfg }
func (s State) Problem() problem.Description { return s.problem }
func (s State) Network() *roads.Network      { return s.network }
func (s State) Trips() demand.TrainingSet    { return slices.Clone(s.trips) }
func (s State) Cost() []float64              { return slices.Clone(s.cost) }
func (s State) Generation() int              { return s.generation }
func (s State) Segments() []roads.Segment    { return s.network.Segments() }
func (s State) Vertices() []orb.Point        { return s.network.Vertices() }
func (s State) Cities() []orb.Point          { return slices.Clone(s.problem.Cities) }

// WeightedCost is the score acceptance compares.
func (s State) WeightedCost(weights []float64) (float64, error) {
	return evaluate.Score(s.cost, weights)
}
