package placement

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/guimove/placefit/internal/model"
)

// Runner executes independent placement scenarios concurrently. Every
// scenario gets its own pool, so no run sees another's capacity.
type Runner struct {
	Engine      *Engine
	Parallelism int
}

// NewRunner creates a runner that runs up to GOMAXPROCS scenarios at once.
func NewRunner(engine *Engine) *Runner {
	return &Runner{
		Engine:      engine,
		Parallelism: runtime.GOMAXPROCS(0),
	}
}

// Scenario is one what-if variant of an inventory.
type Scenario struct {
	Name     string
	Services []model.Service
	Servers  []model.Server
}

// RunAll executes all scenarios and returns them ranked.
func (r *Runner) RunAll(ctx context.Context, scenarios []Scenario) ([]model.ScenarioResult, error) {
	if len(scenarios) == 0 {
		return nil, fmt.Errorf("no placement scenarios provided")
	}

	parallelism := r.Parallelism
	if parallelism < 1 {
		parallelism = 1
	}

	reports := make([]*model.RunReport, len(scenarios))
	errs := make([]error, len(scenarios))

	sem := make(chan struct{}, parallelism)
	var wg sync.WaitGroup

	for i, sc := range scenarios {
		wg.Add(1)
		go func(idx int, scenario Scenario) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			report, err := r.Engine.Place(ctx, scenario.Services, scenario.Servers)
			if err != nil {
				err = fmt.Errorf("scenario %q: %w", scenario.Name, err)
			}
			reports[idx] = report
			errs[idx] = err
		}(i, sc)
	}

	wg.Wait()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	results := make([]model.ScenarioResult, 0, len(scenarios))
	for i, err := range errs {
		if err != nil {
			return nil, err
		}
		results = append(results, model.ScenarioResult{
			Name:   scenarios[i].Name,
			Report: *reports[i],
		})
	}

	return RankScenarios(results), nil
}

// GenerateScenarios derives what-if variants from an inventory: the baseline,
// one scenario per removed server (single failure), and the services scaled
// by each factor above 1.
func GenerateScenarios(inv model.Inventory, dropEachServer bool, scaleFactors []float64) []Scenario {
	scenarios := []Scenario{{
		Name:     "baseline",
		Services: inv.Services,
		Servers:  inv.Servers,
	}}

	if dropEachServer {
		for i := range inv.Servers {
			servers := make([]model.Server, 0, len(inv.Servers)-1)
			servers = append(servers, inv.Servers[:i]...)
			servers = append(servers, inv.Servers[i+1:]...)
			scenarios = append(scenarios, Scenario{
				Name:     fmt.Sprintf("without-%s", inv.Servers[i].ID),
				Services: inv.Services,
				Servers:  servers,
			})
		}
	}

	for _, f := range scaleFactors {
		if f <= 1.0 {
			continue
		}
		scenarios = append(scenarios, Scenario{
			Name:     fmt.Sprintf("scaled-%gx", f),
			Services: ScaleServices(inv.Services, f),
			Servers:  inv.Servers,
		})
	}

	return scenarios
}

// ScaleServices repeats services round-robin until there are
// len(services)*factor of them. Copies get a "#n" suffix; suffixes already
// used by an input ID are skipped so every ID stays unique.
func ScaleServices(services []model.Service, factor float64) []model.Service {
	if len(services) == 0 {
		return nil
	}
	target := int(float64(len(services)) * factor)
	scaled := make([]model.Service, target)

	taken := make(map[string]bool, target)
	for _, s := range services {
		taken[s.ID] = true
	}
	next := make(map[string]int, len(services))

	for i := 0; i < target; i++ {
		s := services[i%len(services)]
		if i >= len(services) {
			base := s.ID
			for {
				next[base]++
				id := fmt.Sprintf("%s#%d", base, next[base])
				if !taken[id] {
					taken[id] = true
					s.ID = id
					break
				}
			}
		}
		s.Demand = s.Demand.Clone()
		scaled[i] = s
	}
	return scaled
}
