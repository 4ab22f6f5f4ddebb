package placement

import (
	"context"
	"errors"
	"testing"

	"github.com/guimove/placefit/internal/model"
)

func exampleModelInventory() model.Inventory {
	services, servers := exampleInventory()
	return model.Inventory{
		Dimensions: model.DefaultDimensions,
		Services:   services,
		Servers:    servers,
	}
}

func TestRunner_RunAll(t *testing.T) {
	inv := exampleModelInventory()
	scenarios := GenerateScenarios(inv, true, []float64{2})

	runner := NewRunner(NewEngine())
	results, err := runner.RunAll(context.Background(), scenarios)
	if err != nil {
		t.Fatal(err)
	}

	if len(results) != len(scenarios) {
		t.Fatalf("expected %d results, got %d", len(scenarios), len(results))
	}
	for i, r := range results {
		if r.Rank != i+1 {
			t.Errorf("results[%d].Rank = %d, want %d", i, r.Rank, i+1)
		}
	}

	byName := make(map[string]model.ScenarioResult, len(results))
	for _, r := range results {
		byName[r.Name] = r
	}

	base := byName["baseline"]
	if base.PlacedFraction != 1.0 {
		t.Errorf("baseline placed fraction = %v, want 1", base.PlacedFraction)
	}
	// The baseline matches a direct run: each scenario had a fresh pool.
	if a, _ := base.Report.Result.Lookup("C"); a.ServerID != "Z" {
		t.Errorf("baseline placed C on %s, want Z", a.ServerID)
	}

	// Without X, services compete for Y and Z only
	withoutX := byName["without-X"]
	if withoutX.PlacedFraction >= 1.0 {
		t.Errorf("without-X should leave something unassigned, got fraction %v", withoutX.PlacedFraction)
	}
	if len(withoutX.Warnings) == 0 {
		t.Error("expected warnings for without-X")
	}

	scaled := byName["scaled-2x"]
	if scaled.Report.Result.Len() != 6 {
		t.Errorf("scaled-2x has %d services, want 6", scaled.Report.Result.Len())
	}
}

func TestRunner_SequentialMatchesParallel(t *testing.T) {
	scenarios := GenerateScenarios(exampleModelInventory(), true, []float64{1.5, 3})

	seq := &Runner{Engine: NewEngine(), Parallelism: 1}
	par := &Runner{Engine: NewEngine(), Parallelism: 8}

	a, err := seq.RunAll(context.Background(), scenarios)
	if err != nil {
		t.Fatal(err)
	}
	b, err := par.RunAll(context.Background(), scenarios)
	if err != nil {
		t.Fatal(err)
	}

	for i := range a {
		if a[i].Name != b[i].Name || a[i].PlacedFraction != b[i].PlacedFraction {
			t.Errorf("rank %d: sequential %s (%v), parallel %s (%v)",
				i+1, a[i].Name, a[i].PlacedFraction, b[i].Name, b[i].PlacedFraction)
		}
	}
}

func TestRunner_NoScenarios(t *testing.T) {
	if _, err := NewRunner(NewEngine()).RunAll(context.Background(), nil); err == nil {
		t.Error("expected error for empty scenario list")
	}
}

func TestRunner_PropagatesScenarioError(t *testing.T) {
	bad := Scenario{
		Name:     "bad",
		Services: []model.Service{makeService("a", 1, 1, 1)},
		Servers:  []model.Server{makeServer("X", 8, 8)},
	}
	_, err := NewRunner(NewEngine()).RunAll(context.Background(), []Scenario{bad})
	if !errors.Is(err, model.ErrInvalidDimension) {
		t.Errorf("expected ErrInvalidDimension, got %v", err)
	}
}

func TestGenerateScenarios(t *testing.T) {
	inv := exampleModelInventory()

	scenarios := GenerateScenarios(inv, false, nil)
	if len(scenarios) != 1 || scenarios[0].Name != "baseline" {
		t.Fatalf("expected only baseline, got %d scenarios", len(scenarios))
	}

	scenarios = GenerateScenarios(inv, true, []float64{0.5, 1, 2})
	want := []string{"baseline", "without-X", "without-Y", "without-Z", "scaled-2x"}
	if len(scenarios) != len(want) {
		t.Fatalf("got %d scenarios, want %d", len(scenarios), len(want))
	}
	for i, sc := range scenarios {
		if sc.Name != want[i] {
			t.Errorf("scenarios[%d] = %s, want %s", i, sc.Name, want[i])
		}
	}
	if len(scenarios[2].Servers) != 2 || scenarios[2].Servers[0].ID != "X" || scenarios[2].Servers[1].ID != "Z" {
		t.Errorf("without-Y servers = %+v", scenarios[2].Servers)
	}
	// The source inventory is untouched
	if len(inv.Servers) != 3 {
		t.Errorf("inventory servers changed: %d", len(inv.Servers))
	}
}

func TestScaleServices(t *testing.T) {
	services := []model.Service{makeService("a", 1, 1), makeService("b", 2, 2)}
	scaled := ScaleServices(services, 2.5)

	want := []string{"a", "b", "a#1", "b#1", "a#2"}
	if len(scaled) != len(want) {
		t.Fatalf("got %d services, want %d", len(scaled), len(want))
	}
	for i, s := range scaled {
		if s.ID != want[i] {
			t.Errorf("scaled[%d] = %s, want %s", i, s.ID, want[i])
		}
	}

	scaled[0].Demand[0] = 99
	if services[0].Demand[0] != 1 {
		t.Error("ScaleServices shares demand vectors with its input")
	}

	if ScaleServices(nil, 3) != nil {
		t.Error("expected nil for empty input")
	}
}

func TestScaleServices_SkipsTakenSuffixes(t *testing.T) {
	services := []model.Service{
		makeService("a", 1, 1),
		makeService("a#1", 2, 2),
	}
	scaled := ScaleServices(services, 2)

	want := []string{"a", "a#1", "a#2", "a#1#1"}
	if len(scaled) != len(want) {
		t.Fatalf("got %d services, want %d", len(scaled), len(want))
	}
	for i, s := range scaled {
		if s.ID != want[i] {
			t.Errorf("scaled[%d] = %s, want %s", i, s.ID, want[i])
		}
	}

	_, servers := exampleInventory()
	if _, err := NewEngine().Place(context.Background(), scaled, servers); err != nil {
		t.Fatalf("scaled services should place cleanly: %v", err)
	}
}
