package report

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/guimove/placefit/internal/model"
	"github.com/guimove/placefit/internal/placement"
)

// TableReporter outputs results as formatted terminal tables.
type TableReporter struct {
	w io.Writer
}

func (r *TableReporter) header(title string, meta ReportMeta) {
	fmt.Fprintf(r.w, "\n")
	fmt.Fprintf(r.w, "%s\n", title)
	fmt.Fprintf(r.w, "%s\n", strings.Repeat("=", 60))
	fmt.Fprintf(r.w, "Source:      %s\n", dash(meta.Source))
	if !meta.CollectedAt.IsZero() {
		fmt.Fprintf(r.w, "Collected:   %s\n", meta.CollectedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(r.w, "Services:    %d\n", meta.Services)
	fmt.Fprintf(r.w, "Servers:     %d\n", meta.Servers)
	fmt.Fprintf(r.w, "Dimensions:  %s\n", strings.Join(meta.Dimensions, ", "))
	fmt.Fprintf(r.w, "%s\n\n", strings.Repeat("=", 60))
}

func (r *TableReporter) ReportPlacement(ctx context.Context, report *model.RunReport, meta ReportMeta) error {
	r.header("placefit Placement", meta)

	if len(meta.Trace) > 0 {
		r.narrate(report, meta)
	}

	fmt.Fprintf(r.w, "Order: %s\n\n", strings.Join(report.Order, ", "))

	fmt.Fprintf(r.w, "%-30s %-24s %7s %s\n", "Service", "Server", "Score", "Status")
	fmt.Fprintf(r.w, "%s\n", strings.Repeat("-", 76))
	for _, a := range report.Result.Assignments() {
		score := "-"
		if a.IsPlaced() {
			score = fmt.Sprintf("%.4f", a.Score)
		}
		fmt.Fprintf(r.w, "%-30s %-24s %7s %s\n", a.ServiceID, dash(a.ServerID), score, a.Status)
	}
	fmt.Fprintf(r.w, "%s\n\n", strings.Repeat("-", 76))

	fmt.Fprintf(r.w, "%-24s %8s  %-32s %s\n", "Server", "Services", "Remaining", "Utilization")
	fmt.Fprintf(r.w, "%s\n", strings.Repeat("-", 100))
	for _, s := range report.Servers {
		fmt.Fprintf(r.w, "%-24s %8d  %-32s %s\n",
			s.ID,
			len(s.Services),
			formatVector(s.Remaining, meta.Dimensions),
			formatUtilization(s.Utilization(), meta.Dimensions),
		)
	}
	fmt.Fprintf(r.w, "%s\n", strings.Repeat("-", 100))

	frag := report.Fragmentation
	fmt.Fprintf(r.w, "\nSummary (%s scorer, %s)\n", report.Scorer, report.Duration)
	fmt.Fprintf(r.w, "  Placed:         %d/%d\n", report.PlacedCount(), report.Result.Len())
	fmt.Fprintf(r.w, "  Servers used:   %d/%d\n", frag.ServersUsed, len(report.Servers))
	if frag.ServersUsed > 0 {
		fmt.Fprintf(r.w, "  Utilization:    %s\n", formatUtilization(frag.AvgUtilization, meta.Dimensions))
		fmt.Fprintf(r.w, "  Stranded:       %s\n", formatVector(frag.Stranded, meta.Dimensions))
	}
	fmt.Fprintf(r.w, "  Balance score:  %.2f\n", frag.ResourceBalanceScore)
	if frag.MonthlyCost > 0 {
		fmt.Fprintf(r.w, "  Monthly cost:   $%.0f\n", frag.MonthlyCost)
	}

	if unassigned := report.Result.Unassigned(); len(unassigned) > 0 {
		fmt.Fprintf(r.w, "\n  Unassigned:\n")
		for _, a := range unassigned {
			fmt.Fprintf(r.w, "    - %s\n", a.ServiceID)
		}
	}

	fmt.Fprintf(r.w, "\n")
	return nil
}

// narrate replays recorded events as a per-service decision log. Servers are
// listed in pool order whether they were scored or skipped.
func (r *TableReporter) narrate(report *model.RunReport, meta ReportMeta) {
	position := make(map[string]int, len(report.Servers))
	for i, s := range report.Servers {
		position[s.ID] = i
	}

	var checks []placement.Event
	flush := func() {
		sort.SliceStable(checks, func(i, j int) bool {
			return position[checks[i].ServerID] < position[checks[j].ServerID]
		})
		for _, ev := range checks {
			if ev.Kind == placement.EventCandidateSkipped {
				fmt.Fprintf(r.w, "   -> %s: Insufficient resources (Skip).\n", ev.ServerID)
				continue
			}
			fmt.Fprintf(r.w, "   -> Checking %s: Available %s -> Score: %.4f\n",
				ev.ServerID, formatVector(ev.Available, meta.Dimensions), ev.Score)
		}
		checks = checks[:0]
	}

	fmt.Fprintf(r.w, "Decisions\n")
	fmt.Fprintf(r.w, "%s\n", strings.Repeat("-", 60))

	current := ""
	for _, ev := range meta.Trace {
		switch ev.Kind {
		case placement.EventCandidateSkipped, placement.EventCandidateEvaluated:
			if ev.ServiceID != current {
				current = ev.ServiceID
				fmt.Fprintf(r.w, "\nProcessing %s %s\n", ev.ServiceID, formatVector(ev.Demand, meta.Dimensions))
			}
			checks = append(checks, ev)
		case placement.EventAssignmentCommitted:
			flush()
			fmt.Fprintf(r.w, "   SELECTED: %s (score %.4f)\n", ev.ServerID, ev.Score)
		case placement.EventServiceUnassigned:
			if ev.ServiceID != current {
				current = ev.ServiceID
				fmt.Fprintf(r.w, "\nProcessing %s %s\n", ev.ServiceID, formatVector(ev.Demand, meta.Dimensions))
			}
			flush()
			fmt.Fprintf(r.w, "   FAILED: No suitable server found!\n")
		}
	}
	fmt.Fprintf(r.w, "%s\n\n", strings.Repeat("-", 60))
}

func (r *TableReporter) ReportScenarios(ctx context.Context, results []model.ScenarioResult, meta ReportMeta) error {
	r.header("placefit What-If", meta)

	if len(results) == 0 {
		fmt.Fprintf(r.w, "No scenarios evaluated.\n")
		return nil
	}

	fmt.Fprintf(r.w, "%-4s %-30s %8s %7s %8s %8s %s\n",
		"Rank", "Scenario", "Placed", "Servers", "Balance", "$/month", "Notes")
	fmt.Fprintf(r.w, "%s\n", strings.Repeat("-", 90))

	for _, sr := range results {
		name := sr.Name
		if len(name) > 30 {
			name = name[:27] + "..."
		}

		notes := ""
		if n := sr.Report.UnassignedCount(); n > 0 {
			notes = fmt.Sprintf("[%d unassigned]", n)
		}

		cost := "-"
		if c := sr.Report.Fragmentation.MonthlyCost; c > 0 {
			cost = fmt.Sprintf("%.0f", c)
		}

		fmt.Fprintf(r.w, "#%-3d %-30s %7.1f%% %7d %8.2f %8s %s\n",
			sr.Rank,
			name,
			sr.PlacedFraction*100,
			sr.Report.Fragmentation.ServersUsed,
			sr.Report.Fragmentation.ResourceBalanceScore,
			cost,
			notes,
		)
	}

	fmt.Fprintf(r.w, "%s\n", strings.Repeat("-", 90))

	topN := meta.TopN
	if topN <= 0 || topN > len(results) {
		topN = len(results)
	}
	for _, sr := range results[:topN] {
		if len(sr.Warnings) == 0 {
			continue
		}
		fmt.Fprintf(r.w, "\n%s warnings:\n", sr.Name)
		for _, w := range sr.Warnings {
			fmt.Fprintf(r.w, "    - %s\n", w)
		}
	}

	fmt.Fprintf(r.w, "\n")
	return nil
}
