package placement

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/guimove/placefit/internal/model"
)

// Engine places services onto servers one at a time, largest demand first,
// picking for each service the feasible server with the highest score.
type Engine struct {
	Scorer   Scorer
	Observer Observer

	// Candidates of a single service are scored on up to this many
	// goroutines. 1 scores them inline.
	Parallelism int
}

// Option configures an Engine.
type Option func(*Engine)

// WithScorer replaces the default cosine scorer.
func WithScorer(s Scorer) Option {
	return func(e *Engine) { e.Scorer = s }
}

// WithObserver attaches an observer to every run.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.Observer = o }
}

// WithParallelism sets how many candidates are scored concurrently.
func WithParallelism(n int) Option {
	return func(e *Engine) { e.Parallelism = n }
}

// NewEngine creates an engine with the cosine scorer and no observer.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		Scorer:      CosineScorer{},
		Observer:    NopObserver{},
		Parallelism: 1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Place runs a placement against fresh copies of the servers' capacities.
// Calling it twice with the same input yields the same report.
func (e *Engine) Place(ctx context.Context, services []model.Service, servers []model.Server) (*model.RunReport, error) {
	pool, err := NewServerPool(servers)
	if err != nil {
		return nil, err
	}
	return e.PlaceOnPool(ctx, pool, services)
}

// PlaceOnPool runs a placement against a caller-owned pool. Capacity consumed
// by the run stays consumed, so a second call sees a smaller pool.
//
// If ctx is cancelled between services, PlaceOnPool returns ctx.Err() together
// with a partial report holding the assignments already committed to pool.
// Services that were never reached are absent from that report.
func (e *Engine) PlaceOnPool(ctx context.Context, pool *ServerPool, services []model.Service) (*model.RunReport, error) {
	start := time.Now()

	if err := checkServices(pool, services); err != nil {
		return nil, err
	}

	queue := NewQueue(services)
	order := queue.IDs()
	e.observe(Event{Kind: EventOrderDecided, Order: order})

	assignments := make([]model.Assignment, 0, queue.Len())
	for _, svc := range queue.Services() {
		if err := ctx.Err(); err != nil {
			return e.buildReport(pool, order, assignments, start), err
		}

		a, err := e.placeOne(pool, svc)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}

	report := e.buildReport(pool, order, assignments, start)

	e.observe(Event{
		Kind:       EventRunCompleted,
		Placed:     report.PlacedCount(),
		Unassigned: report.UnassignedCount(),
	})

	return report, nil
}

func (e *Engine) buildReport(
	pool *ServerPool,
	order []string,
	assignments []model.Assignment,
	start time.Time,
) *model.RunReport {
	states := pool.States()
	return &model.RunReport{
		Scorer:        e.scorer().Name(),
		Order:         order,
		Result:        model.NewPlacementResult(assignments),
		Servers:       states,
		Fragmentation: AnalyzeFragmentation(states),
		Duration:      time.Since(start),
	}
}

// placeOne decides and commits a single service.
func (e *Engine) placeOne(pool *ServerPool, svc model.Service) (model.Assignment, error) {
	candidates, err := pool.Feasible(svc.Demand)
	if err != nil {
		return model.Assignment{}, fmt.Errorf("service %q: %w", svc.ID, err)
	}

	e.observeSkipped(pool, svc, candidates)

	if len(candidates) == 0 {
		e.observe(Event{
			Kind:      EventServiceUnassigned,
			ServiceID: svc.ID,
			Demand:    svc.Demand.Clone(),
		})
		return model.Assignment{ServiceID: svc.ID, Status: model.StatusUnassigned}, nil
	}

	scores, available, err := e.scoreCandidates(pool, svc.Demand, candidates)
	if err != nil {
		return model.Assignment{}, fmt.Errorf("scoring service %q: %w", svc.ID, err)
	}

	// Strict > keeps the earliest server on ties.
	bestIdx := -1
	bestScore := -1.0
	for i, id := range candidates {
		e.observe(Event{
			Kind:      EventCandidateEvaluated,
			ServiceID: svc.ID,
			ServerID:  id,
			Score:     scores[i],
			Demand:    svc.Demand.Clone(),
			Available: available[i],
		})
		if scores[i] > bestScore {
			bestScore = scores[i]
			bestIdx = i
		}
	}

	if bestIdx < 0 {
		return model.Assignment{}, fmt.Errorf("service %q: %w: no candidate scored", svc.ID, ErrInvalidScore)
	}

	serverID := candidates[bestIdx]
	if err := pool.Commit(serverID, svc.ID, svc.Demand); err != nil {
		return model.Assignment{}, err
	}

	e.observe(Event{
		Kind:       EventAssignmentCommitted,
		ServiceID:  svc.ID,
		ServerID:   serverID,
		Score:      bestScore,
		Demand:     svc.Demand.Clone(),
		Candidates: len(candidates),
	})

	return model.Assignment{
		ServiceID: svc.ID,
		ServerID:  serverID,
		Score:     bestScore,
		Status:    model.StatusPlaced,
	}, nil
}

// scoreCandidates returns one score per candidate, index-aligned with
// candidates regardless of the order goroutines finish in.
func (e *Engine) scoreCandidates(
	pool *ServerPool,
	demand model.ResourceVector,
	candidates []string,
) ([]float64, []model.ResourceVector, error) {
	available := make([]model.ResourceVector, len(candidates))
	for i, id := range candidates {
		avail, err := pool.Available(id)
		if err != nil {
			return nil, nil, err
		}
		available[i] = avail
	}

	scorer := e.scorer()
	scores := make([]float64, len(candidates))
	errs := make([]error, len(candidates))

	if e.Parallelism <= 1 || len(candidates) < 2 {
		for i := range candidates {
			scores[i], errs[i] = scorer.Score(demand, available[i])
		}
	} else {
		sem := make(chan struct{}, e.Parallelism)
		var wg sync.WaitGroup

		for i := range candidates {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()

				scores[idx], errs[idx] = scorer.Score(demand, available[idx])
			}(i)
		}

		wg.Wait()
	}

	for i, err := range errs {
		if err != nil {
			return nil, nil, fmt.Errorf("server %q: %w", candidates[i], err)
		}
		if s := scores[i]; math.IsNaN(s) || s < 0 || s > 1 {
			return nil, nil, fmt.Errorf("server %q: %w: %s returned %v", candidates[i], ErrInvalidScore, scorer.Name(), s)
		}
	}
	return scores, available, nil
}

func (e *Engine) observeSkipped(pool *ServerPool, svc model.Service, candidates []string) {
	if _, nop := e.Observer.(NopObserver); nop || e.Observer == nil {
		return
	}
	feasible := make(map[string]bool, len(candidates))
	for _, id := range candidates {
		feasible[id] = true
	}
	for _, id := range pool.IDs() {
		if feasible[id] {
			continue
		}
		avail, _ := pool.Available(id)
		e.observe(Event{
			Kind:      EventCandidateSkipped,
			ServiceID: svc.ID,
			ServerID:  id,
			Demand:    svc.Demand.Clone(),
			Available: avail,
		})
	}
}

func (e *Engine) observe(ev Event) {
	if e.Observer != nil {
		e.Observer.Observe(ev)
	}
}

func (e *Engine) scorer() Scorer {
	if e.Scorer == nil {
		return CosineScorer{}
	}
	return e.Scorer
}

// checkServices rejects inputs that make the run meaningless: duplicate IDs,
// negative demands, and demands whose length differs from the pool's.
func checkServices(pool *ServerPool, services []model.Service) error {
	dims := pool.Dimensions()
	if pool.Len() == 0 && len(services) > 0 {
		dims = services[0].Demand.Len()
	}

	seen := make(map[string]bool, len(services))
	for _, s := range services {
		if seen[s.ID] {
			return fmt.Errorf("service %q: %w", s.ID, model.ErrDuplicateID)
		}
		seen[s.ID] = true

		if s.Demand.Len() != dims {
			return fmt.Errorf("service %q: %w: demand has %d dimensions, servers have %d",
				s.ID, model.ErrInvalidDimension, s.Demand.Len(), dims)
		}
		if err := s.Demand.Validate(); err != nil {
			return fmt.Errorf("service %q: %w", s.ID, err)
		}
	}
	return nil
}
