package report

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/guimove/placefit/internal/model"
	"github.com/guimove/placefit/internal/placement"
)

// Reporter formats and writes placement results to an output destination.
type Reporter interface {
	// ReportPlacement writes the outcome of a single placement run.
	ReportPlacement(ctx context.Context, report *model.RunReport, meta ReportMeta) error

	// ReportScenarios writes ranked what-if scenario results.
	ReportScenarios(ctx context.Context, results []model.ScenarioResult, meta ReportMeta) error
}

// ReportMeta contains contextual metadata for the report.
type ReportMeta struct {
	Source      string    `json:"source"`
	Backend     string    `json:"backend,omitempty"`
	CollectedAt time.Time `json:"collected_at,omitzero"`
	Dimensions  []string  `json:"dimensions"`
	Services    int       `json:"services"`
	Servers     int       `json:"servers"`

	// Scenarios shown in detail (what-if only)
	TopN int `json:"-"`

	// Recorded engine events; when set, table output narrates every decision
	Trace []placement.Event `json:"-"`
}

// NewReporter creates a reporter for the given format writing to w.
func NewReporter(format string, w io.Writer) Reporter {
	switch format {
	case "json":
		return &JSONReporter{w: w}
	case "markdown":
		return &MarkdownReporter{w: w}
	default:
		return &TableReporter{w: w}
	}
}

// formatVector renders a vector with dimension names, e.g. [cpu:4, memory:8].
func formatVector(v model.ResourceVector, dims []string) string {
	parts := make([]string, len(v))
	for i, x := range v {
		if i < len(dims) {
			parts[i] = fmt.Sprintf("%s:%g", dims[i], round(x))
		} else {
			parts[i] = fmt.Sprintf("%g", round(x))
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// formatUtilization renders per-dimension utilization, e.g. cpu 100% memory 75%.
func formatUtilization(util []float64, dims []string) string {
	parts := make([]string, len(util))
	for i, u := range util {
		name := fmt.Sprint(i)
		if i < len(dims) {
			name = dims[i]
		}
		parts[i] = fmt.Sprintf("%s %.1f%%", name, u*100)
	}
	return strings.Join(parts, " ")
}

// round trims float noise from subtraction for display.
func round(x float64) float64 {
	const scale = 1e6
	if x < 0 {
		return -round(-x)
	}
	return float64(int64(x*scale+0.5)) / scale
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
