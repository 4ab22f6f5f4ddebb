package placement

import (
	"strings"
	"testing"

	"github.com/guimove/placefit/internal/model"
)

func makeScenarioResult(name string, placed, unassigned int, balance float64) model.ScenarioResult {
	var assignments []model.Assignment
	for i := 0; i < placed; i++ {
		assignments = append(assignments, model.Assignment{
			ServiceID: name + "-p" + string(rune('a'+i)),
			ServerID:  "x",
			Status:    model.StatusPlaced,
		})
	}
	for i := 0; i < unassigned; i++ {
		assignments = append(assignments, model.Assignment{
			ServiceID: name + "-u" + string(rune('a'+i)),
			Status:    model.StatusUnassigned,
		})
	}
	return model.ScenarioResult{
		Name: name,
		Report: model.RunReport{
			Result: model.NewPlacementResult(assignments),
			Fragmentation: model.FragmentationReport{
				ResourceBalanceScore: balance,
			},
		},
	}
}

func TestRankScenarios_PlacedFractionWins(t *testing.T) {
	results := []model.ScenarioResult{
		makeScenarioResult("half", 2, 2, 0.99),
		makeScenarioResult("all", 4, 0, 0.50),
		makeScenarioResult("most", 3, 1, 0.90),
	}

	ranked := RankScenarios(results)

	want := []string{"all", "most", "half"}
	for i, r := range ranked {
		if r.Name != want[i] {
			t.Errorf("rank %d = %s, want %s", i+1, r.Name, want[i])
		}
		if r.Rank != i+1 {
			t.Errorf("%s has Rank %d, want %d", r.Name, r.Rank, i+1)
		}
	}
	if ranked[2].PlacedFraction != 0.5 {
		t.Errorf("half placed fraction = %v, want 0.5", ranked[2].PlacedFraction)
	}
}

func TestRankScenarios_BalanceBreaksTies(t *testing.T) {
	ranked := RankScenarios([]model.ScenarioResult{
		makeScenarioResult("uneven", 3, 0, 0.4),
		makeScenarioResult("even", 3, 0, 0.9),
		makeScenarioResult("even-too", 3, 0, 0.9),
	})

	want := []string{"even", "even-too", "uneven"}
	for i, r := range ranked {
		if r.Name != want[i] {
			t.Errorf("rank %d = %s, want %s", i+1, r.Name, want[i])
		}
	}
}

func TestRankScenarios_Warnings(t *testing.T) {
	r := makeScenarioResult("tight", 2, 1, 0.5)
	r.Report.Fragmentation.AvgUtilization = []float64{0.95, 0.40}
	r.Report.Fragmentation.UnderutilizedServerFraction = 0.75

	ranked := RankScenarios([]model.ScenarioResult{r})
	warnings := strings.Join(ranked[0].Warnings, "\n")

	for _, want := range []string{"1 services could not be placed", "dimension 0 averages 95%", "75% of used servers"} {
		if !strings.Contains(warnings, want) {
			t.Errorf("warnings missing %q:\n%s", want, warnings)
		}
	}
	if strings.Contains(warnings, "dimension 1") {
		t.Errorf("dimension 1 should not warn:\n%s", warnings)
	}
}

func TestRankScenarios_EmptyInventoryIsFullyPlaced(t *testing.T) {
	ranked := RankScenarios([]model.ScenarioResult{makeScenarioResult("empty", 0, 0, 1)})
	if ranked[0].PlacedFraction != 1.0 {
		t.Errorf("PlacedFraction = %v, want 1", ranked[0].PlacedFraction)
	}
	if len(ranked[0].Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", ranked[0].Warnings)
	}
}

func TestRankScenarios_DoesNotMutateInput(t *testing.T) {
	results := []model.ScenarioResult{
		makeScenarioResult("b", 1, 1, 0.5),
		makeScenarioResult("a", 2, 0, 0.5),
	}
	RankScenarios(results)
	if results[0].Name != "b" || results[0].Rank != 0 {
		t.Errorf("input was reordered or modified: %+v", results[0])
	}
	if RankScenarios(nil) != nil {
		t.Error("expected nil for no results")
	}
}
