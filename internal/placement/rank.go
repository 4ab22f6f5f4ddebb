package placement

import (
	"fmt"
	"sort"

	"github.com/guimove/placefit/internal/model"
)

// HighUtilThreshold marks a dimension with little headroom left for growth.
const HighUtilThreshold = 0.90

// RankScenarios orders scenario results by placed fraction, then resource
// balance, keeping input order among equals, and assigns ranks and warnings.
func RankScenarios(results []model.ScenarioResult) []model.ScenarioResult {
	if len(results) == 0 {
		return nil
	}

	ranked := make([]model.ScenarioResult, len(results))
	copy(ranked, results)

	for i := range ranked {
		r := &ranked[i]
		if n := r.Report.Result.Len(); n > 0 {
			r.PlacedFraction = float64(r.Report.PlacedCount()) / float64(n)
		} else {
			r.PlacedFraction = 1.0
		}
		r.Warnings = generateWarnings(r.Report)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].PlacedFraction != ranked[j].PlacedFraction {
			return ranked[i].PlacedFraction > ranked[j].PlacedFraction
		}
		return ranked[i].Report.Fragmentation.ResourceBalanceScore >
			ranked[j].Report.Fragmentation.ResourceBalanceScore
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	return ranked
}

func generateWarnings(r model.RunReport) []string {
	var warnings []string

	if n := r.UnassignedCount(); n > 0 {
		warnings = append(warnings, fmt.Sprintf("%d services could not be placed", n))
	}

	for d, u := range r.Fragmentation.AvgUtilization {
		if u > HighUtilThreshold {
			warnings = append(warnings,
				fmt.Sprintf("dimension %d averages %.0f%% utilization on used servers", d, u*100))
		}
	}

	if r.Fragmentation.UnderutilizedServerFraction > LowUtilThreshold {
		warnings = append(warnings,
			fmt.Sprintf("%.0f%% of used servers are underutilized (<%d%% on one dimension)",
				r.Fragmentation.UnderutilizedServerFraction*100, int(LowUtilThreshold*100)))
	}

	return warnings
}
