package placement

import (
	"github.com/guimove/placefit/internal/model"
)

const (
	// A dimension above this utilization is considered exhausted.
	StrandedHighThreshold = 0.85
	// A dimension below this utilization is considered underused.
	LowUtilThreshold = 0.50
)

// AnalyzeFragmentation computes fragmentation metrics over the servers that
// received at least one service.
func AnalyzeFragmentation(servers []model.ServerState) model.FragmentationReport {
	var report model.FragmentationReport
	var underutilized int
	var balanceSum float64

	for i := range servers {
		s := &servers[i]
		if !s.InUse() {
			continue
		}
		report.ServersUsed++
		report.MonthlyCost += s.HourlyCost * model.HoursPerMonth

		util := s.Utilization()
		if report.AvgUtilization == nil {
			report.AvgUtilization = make([]float64, len(util))
			report.Stranded = make(model.ResourceVector, len(util))
		}

		minU, maxU := 1.0, 0.0
		for d, u := range util {
			if d < len(report.AvgUtilization) {
				report.AvgUtilization[d] += u
			}
			if u < minU {
				minU = u
			}
			if u > maxU {
				maxU = u
			}
		}

		// Stranded: one dimension nearly full, another underused. The free
		// capacity on the underused dimensions can no longer be sold.
		if maxU > StrandedHighThreshold {
			for d, u := range util {
				if u < LowUtilThreshold && d < len(report.Stranded) {
					report.Stranded[d] += s.Remaining[d]
				}
			}
		}

		if minU < LowUtilThreshold {
			underutilized++
		}

		// How close the dimensions' utilizations are to each other
		balanceSum += 1.0 - (maxU - minU)
	}

	if report.ServersUsed == 0 {
		report.ResourceBalanceScore = 1.0
		return report
	}

	n := float64(report.ServersUsed)
	for d := range report.AvgUtilization {
		report.AvgUtilization[d] /= n
	}
	report.UnderutilizedServerFraction = float64(underutilized) / n
	report.ResourceBalanceScore = balanceSum / n

	return report
}
