package report

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/guimove/placefit/internal/model"
)

// MarkdownReporter outputs results as GitHub-flavored markdown tables.
type MarkdownReporter struct {
	w io.Writer
}

func (r *MarkdownReporter) ReportPlacement(ctx context.Context, report *model.RunReport, meta ReportMeta) error {
	fmt.Fprintf(r.w, "# Placement\n\n")
	r.meta(meta)

	fmt.Fprintf(r.w, "## Assignments\n\n")
	fmt.Fprintf(r.w, "| # | Service | Server | Score | Status |\n")
	fmt.Fprintf(r.w, "|---|---------|--------|-------|--------|\n")
	for i, a := range report.Result.Assignments() {
		score := "-"
		if a.IsPlaced() {
			score = fmt.Sprintf("%.4f", a.Score)
		}
		fmt.Fprintf(r.w, "| %d | `%s` | %s | %s | %s |\n", i+1, a.ServiceID, dash(a.ServerID), score, a.Status)
	}

	fmt.Fprintf(r.w, "\n## Servers\n\n")
	fmt.Fprintf(r.w, "| Server | Services | Remaining | Utilization |\n")
	fmt.Fprintf(r.w, "|--------|----------|-----------|-------------|\n")
	for _, s := range report.Servers {
		fmt.Fprintf(r.w, "| %s | %s | %s | %s |\n",
			s.ID,
			dash(strings.Join(s.Services, ", ")),
			formatVector(s.Remaining, meta.Dimensions),
			formatUtilization(s.Utilization(), meta.Dimensions),
		)
	}

	frag := report.Fragmentation
	fmt.Fprintf(r.w, "\n## Summary\n\n")
	fmt.Fprintf(r.w, "- **Placed:** %d/%d\n", report.PlacedCount(), report.Result.Len())
	fmt.Fprintf(r.w, "- **Servers used:** %d/%d\n", frag.ServersUsed, len(report.Servers))
	fmt.Fprintf(r.w, "- **Balance score:** %.2f\n", frag.ResourceBalanceScore)
	if frag.ServersUsed > 0 {
		fmt.Fprintf(r.w, "- **Stranded:** %s\n", formatVector(frag.Stranded, meta.Dimensions))
	}
	if frag.MonthlyCost > 0 {
		fmt.Fprintf(r.w, "- **Monthly cost:** $%.0f\n", frag.MonthlyCost)
	}
	return nil
}

func (r *MarkdownReporter) ReportScenarios(ctx context.Context, results []model.ScenarioResult, meta ReportMeta) error {
	fmt.Fprintf(r.w, "# What-If Scenarios\n\n")
	r.meta(meta)

	if len(results) == 0 {
		fmt.Fprintf(r.w, "_No scenarios evaluated._\n")
		return nil
	}

	fmt.Fprintf(r.w, "| Rank | Scenario | Placed | Servers used | Balance | Warnings |\n")
	fmt.Fprintf(r.w, "|------|----------|--------|--------------|---------|----------|\n")
	for _, sr := range results {
		fmt.Fprintf(r.w, "| %d | %s | %.1f%% | %d | %.2f | %s |\n",
			sr.Rank,
			sr.Name,
			sr.PlacedFraction*100,
			sr.Report.Fragmentation.ServersUsed,
			sr.Report.Fragmentation.ResourceBalanceScore,
			dash(strings.Join(sr.Warnings, "; ")),
		)
	}
	return nil
}

func (r *MarkdownReporter) meta(meta ReportMeta) {
	fmt.Fprintf(r.w, "| | |\n|---|---|\n")
	fmt.Fprintf(r.w, "| Source | %s |\n", dash(meta.Source))
	fmt.Fprintf(r.w, "| Services | %d |\n", meta.Services)
	fmt.Fprintf(r.w, "| Servers | %d |\n", meta.Servers)
	fmt.Fprintf(r.w, "| Dimensions | %s |\n\n", strings.Join(meta.Dimensions, ", "))
}
