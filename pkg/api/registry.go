package api

import (
	"context"
	"errors"
	"math/rand"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"roadgen/pkg/evaluate"
	"roadgen/pkg/evolve"
	"roadgen/pkg/problem"
	"roadgen/pkg/session"
)

var (
	// ErrSessionNotFound is returned for an unknown session id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrTooManySessions is returned when the registry is full.
	ErrTooManySessions = errors.New("too many sessions")
)

// CreateOptions describes a new session.
type CreateOptions struct {
	Config     session.Config
	Seed       int64
	Evaluators []evaluate.Evaluator
	// Weights default to equal weights for every evaluator.
	Weights []float64
	// Cities replaces the random cities when set.
	Cities []orb.Point
}

// Sessions is the interface the handlers use to manage generator runs.
type Sessions interface {
	Create(opts CreateOptions) (string, session.Snapshot, error)
	Get(id string) (session.Snapshot, error)
	Step(ctx context.Context, id string, steps int, weights []float64) (session.Snapshot, error)
	SetCity(id string, index int, p orb.Point) (session.Snapshot, error)
	Reset(id string) (session.Snapshot, error)
	Delete(id string) error
	Len() int
}

// slot is the single mutable holder of one session's current state.
type slot struct {
	mu      sync.Mutex
	state   session.State
	engine  *evolve.Engine
	rng     *rand.Rand
	weights []float64
}

func (s *slot) snapshot() (session.Snapshot, error) {
	return s.state.Snapshot(s.weights)
}

// Registry keeps sessions in memory. It implements Sessions.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*slot
	limit    int
}

// NewRegistry returns an empty registry holding at most limit sessions.
// Zero means no limit.
func NewRegistry(limit int) *Registry {
	return &Registry{sessions: make(map[string]*slot), limit: limit}
}

func (r *Registry) Create(opts CreateOptions) (string, session.Snapshot, error) {
	evals := opts.Evaluators
	if len(evals) == 0 {
		evals = evaluate.Defaults()
	}
	weights := opts.Weights
	if weights == nil {
		weights = make([]float64, len(evals))
		for i := range weights {
			weights[i] = 1
		}
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	var (
		st  session.State
		err error
	)
	if len(opts.Cities) > 0 {
		p := problem.Description{Width: opts.Config.Width, Height: opts.Config.Height, Evaluators: evals}
		if p, err = p.SetCities(opts.Cities); err != nil {
			return "", session.Snapshot{}, err
		}
		st, err = session.FromProblem(rng, opts.Config, p)
	} else {
		st, err = session.New(rng, opts.Config, evals)
	}
	if err != nil {
		return "", session.Snapshot{}, err
	}

	s := &slot{
		state:   st,
		engine:  opts.Config.Engine(rng),
		rng:     rng,
		weights: slices.Clone(weights),
	}
	snap, err := s.snapshot()
	if err != nil {
		return "", session.Snapshot{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.limit > 0 && len(r.sessions) >= r.limit {
		return "", session.Snapshot{}, ErrTooManySessions
	}
	id := uuid.NewString()
	r.sessions[id] = s
	return id, snap, nil
}

func (r *Registry) lookup(id string) (*slot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (r *Registry) Get(id string) (session.Snapshot, error) {
	s, err := r.lookup(id)
	if err != nil {
		return session.Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Step advances a session. Nil weights reuse the session's current weights;
// otherwise they replace them once validated.
func (r *Registry) Step(ctx context.Context, id string, steps int, weights []float64) (session.Snapshot, error) {
	s, err := r.lookup(id)
	if err != nil {
		return session.Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if weights == nil {
		weights = s.weights
	}
	if _, err := s.state.WeightedCost(weights); err != nil {
		return session.Snapshot{}, err
	}
	s.weights = slices.Clone(weights)

	next, err := s.state.Advance(ctx, s.engine, s.weights, steps)
	// Steps completed before a cancellation are kept.
	s.state = next
	if err != nil {
		return session.Snapshot{}, err
	}
	return s.snapshot()
}

func (r *Registry) SetCity(id string, index int, p orb.Point) (session.Snapshot, error) {
	s, err := r.lookup(id)
	if err != nil {
		return session.Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.state.SetCityPosition(s.rng, index, p)
	if err != nil {
		return session.Snapshot{}, err
	}
	s.state = next
	return s.snapshot()
}

func (r *Registry) Reset(id string) (session.Snapshot, error) {
	s, err := r.lookup(id)
	if err != nil {
		return session.Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.state.Reset(s.rng)
	if err != nil {
		return session.Snapshot{}, err
	}
	s.state = next
	return s.snapshot()
}

func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	return nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
