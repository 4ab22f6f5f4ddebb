package orchestrator

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/guimove/placefit/internal/config"
	"github.com/guimove/placefit/internal/metrics"
	"github.com/guimove/placefit/internal/model"
	"github.com/guimove/placefit/internal/placement"
	"github.com/guimove/placefit/internal/report"
	"github.com/guimove/placefit/internal/telemetry"
)

// Orchestrator coordinates the end-to-end pipeline: collect the inventory,
// place it, report the outcome.
type Orchestrator struct {
	Source metrics.InventorySource
	Config config.Config

	// Report output
	Writer io.Writer
	// Progress lines; kept apart from Writer so JSON output stays parseable
	Progress io.Writer

	Logger log.FieldLogger
}

// New creates an orchestrator with the given dependencies.
func New(source metrics.InventorySource, cfg config.Config) *Orchestrator {
	return &Orchestrator{
		Source:   source,
		Config:   cfg,
		Writer:   os.Stdout,
		Progress: os.Stderr,
		Logger:   log.StandardLogger(),
	}
}

// Collect checks the source and loads the inventory from it.
func (o *Orchestrator) Collect(ctx context.Context) (*model.Inventory, error) {
	cfg := o.Config

	o.progressf("Collecting inventory from %s source...\n", o.Source.BackendType())

	if err := o.Source.Ping(ctx); err != nil {
		return nil, fmt.Errorf("checking %s source: %w", o.Source.BackendType(), err)
	}

	opts := metrics.CollectOptions{
		Dimensions:        cfg.Placement.Dimensions,
		Window:            cfg.Metrics.Window,
		Namespace:         cfg.Kubernetes.Namespace,
		LabelSelector:     cfg.Kubernetes.LabelSelector,
		NodeSelector:      cfg.Kubernetes.NodeSelector,
		ExcludeNamespaces: cfg.Metrics.ExcludeNamespaces,
		Percentile:        cfg.Metrics.Percentile,
		StepInterval:      cfg.Metrics.Step,
	}

	inv, err := o.Source.Collect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("collecting inventory: %w", err)
	}

	o.progressf("Found %d services and %d servers (%v)\n",
		len(inv.Services), len(inv.Servers), inv.Dimensions)

	return inv, nil
}

// Place runs the full pipeline: collect -> place -> report -> export metrics.
func (o *Orchestrator) Place(ctx context.Context) (*model.RunReport, error) {
	inv, err := o.Collect(ctx)
	if err != nil {
		return nil, err
	}
	return o.PlaceInventory(ctx, inv)
}

// PlaceInventory places an already collected inventory and reports it.
func (o *Orchestrator) PlaceInventory(ctx context.Context, inv *model.Inventory) (*model.RunReport, error) {
	cfg := o.Config

	var recorder *placement.Recorder
	observers := placement.Observers{telemetry.NewLogObserver(o.logger())}
	if cfg.Output.Explain {
		recorder = &placement.Recorder{}
		observers = append(observers, recorder)
	}
	var metricsObs *telemetry.MetricsObserver
	if cfg.Output.MetricsFile != "" {
		metricsObs = telemetry.NewMetricsObserver(inv.Dimensions)
		observers = append(observers, metricsObs)
	}

	engine := placement.NewEngine(
		placement.WithObserver(observers),
		placement.WithParallelism(cfg.Placement.Parallelism),
	)

	o.progressf("Placing %d services on %d servers...\n", len(inv.Services), len(inv.Servers))

	runReport, err := engine.Place(ctx, inv.Services, inv.Servers)
	if err != nil {
		return nil, fmt.Errorf("running placement: %w", err)
	}

	meta := o.meta(inv)
	if recorder != nil {
		meta.Trace = recorder.Events()
	}

	reporter := report.NewReporter(cfg.Output.Format, o.Writer)
	if err := reporter.ReportPlacement(ctx, runReport, meta); err != nil {
		return nil, fmt.Errorf("generating report: %w", err)
	}

	if metricsObs != nil {
		metricsObs.RecordServers(runReport.Servers)
		if err := metricsObs.WriteTextfile(cfg.Output.MetricsFile); err != nil {
			return nil, fmt.Errorf("writing metrics: %w", err)
		}
		o.progressf("Metrics written to %s\n", cfg.Output.MetricsFile)
	}

	return runReport, nil
}

// WhatIf collects the inventory, runs the configured what-if scenarios and
// reports them ranked.
func (o *Orchestrator) WhatIf(ctx context.Context) ([]model.ScenarioResult, error) {
	inv, err := o.Collect(ctx)
	if err != nil {
		return nil, err
	}
	return o.WhatIfInventory(ctx, inv)
}

// WhatIfInventory runs the what-if scenarios of an already collected inventory.
func (o *Orchestrator) WhatIfInventory(ctx context.Context, inv *model.Inventory) ([]model.ScenarioResult, error) {
	cfg := o.Config

	observers := placement.Observers{telemetry.NewLogObserver(o.logger())}
	var metricsObs *telemetry.MetricsObserver
	if cfg.Output.MetricsFile != "" {
		metricsObs = telemetry.NewMetricsObserver(inv.Dimensions)
		observers = append(observers, metricsObs)
	}

	engine := placement.NewEngine(
		placement.WithObserver(observers),
		placement.WithParallelism(cfg.Placement.Parallelism),
	)

	scenarios := placement.GenerateScenarios(*inv, cfg.WhatIf.DropEachServer, cfg.WhatIf.ScaleFactors)
	o.progressf("Running %d what-if scenarios...\n", len(scenarios))

	start := time.Now()
	results, err := placement.NewRunner(engine).RunAll(ctx, scenarios)
	if err != nil {
		return nil, fmt.Errorf("running scenarios: %w", err)
	}
	o.logger().WithFields(log.Fields{
		"scenarios": len(results),
		"duration":  time.Since(start).String(),
	}).Info("what-if scenarios completed")

	meta := o.meta(inv)
	meta.TopN = cfg.Output.TopN

	reporter := report.NewReporter(cfg.Output.Format, o.Writer)
	if err := reporter.ReportScenarios(ctx, results, meta); err != nil {
		return nil, fmt.Errorf("generating report: %w", err)
	}

	if metricsObs != nil {
		if err := metricsObs.WriteTextfile(cfg.Output.MetricsFile); err != nil {
			return nil, fmt.Errorf("writing metrics: %w", err)
		}
	}

	return results, nil
}

func (o *Orchestrator) meta(inv *model.Inventory) report.ReportMeta {
	meta := report.ReportMeta{
		Source:      inv.Source,
		CollectedAt: inv.CollectedAt,
		Dimensions:  inv.Dimensions,
		Services:    len(inv.Services),
		Servers:     len(inv.Servers),
	}
	if o.Source != nil {
		meta.Backend = o.Source.BackendType()
	}
	return meta
}

func (o *Orchestrator) logger() log.FieldLogger {
	if o.Logger == nil {
		return log.StandardLogger()
	}
	return o.Logger
}

func (o *Orchestrator) progressf(format string, args ...any) {
	if o.Progress == nil {
		return
	}
	_, _ = fmt.Fprintf(o.Progress, format, args...)
}
