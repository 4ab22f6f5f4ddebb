package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/guimove/placefit/internal/model"
)

// JSONReporter outputs results as JSON.
type JSONReporter struct {
	w io.Writer
}

type placementOutput struct {
	Meta   ReportMeta       `json:"meta"`
	Report *model.RunReport `json:"report"`
}

type scenariosOutput struct {
	Meta      ReportMeta             `json:"meta"`
	Scenarios []model.ScenarioResult `json:"scenarios"`
}

func (r *JSONReporter) ReportPlacement(ctx context.Context, report *model.RunReport, meta ReportMeta) error {
	return r.encode(placementOutput{Meta: meta, Report: report})
}

func (r *JSONReporter) ReportScenarios(ctx context.Context, results []model.ScenarioResult, meta ReportMeta) error {
	if results == nil {
		results = []model.ScenarioResult{}
	}
	return r.encode(scenariosOutput{Meta: meta, Scenarios: results})
}

func (r *JSONReporter) encode(v any) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}
	return nil
}
