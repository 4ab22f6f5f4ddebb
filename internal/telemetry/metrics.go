package telemetry

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/guimove/placefit/internal/model"
	"github.com/guimove/placefit/internal/placement"
)

const namespace = "placefit"

// MetricsObserver turns placement events into Prometheus metrics on its own
// registry.
type MetricsObserver struct {
	registry *prometheus.Registry

	placed     prometheus.Counter
	unassigned prometheus.Counter
	skipped    prometheus.Counter
	scores     prometheus.Histogram
	remaining  *prometheus.GaugeVec
	runs       prometheus.Counter

	mu         sync.Mutex
	dimensions []string
}

// NewMetricsObserver registers the placement metrics. Dimension names label
// the remaining-capacity gauge; missing names fall back to the index.
func NewMetricsObserver(dimensions []string) *MetricsObserver {
	m := &MetricsObserver{
		registry: prometheus.NewRegistry(),
		placed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "services_placed_total",
			Help:      "Services assigned to a server.",
		}),
		unassigned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "services_unassigned_total",
			Help:      "Services for which no server had enough capacity.",
		}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_skipped_total",
			Help:      "Servers excluded by the feasibility filter.",
		}),
		scores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "candidate_score",
			Help:      "Similarity scores of evaluated candidates.",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
		remaining: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "server_remaining",
			Help:      "Remaining capacity per server and dimension after the last run.",
		}, []string{"server", "dimension"}),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed placement runs.",
		}),
		dimensions: dimensions,
	}

	m.registry.MustRegister(m.placed, m.unassigned, m.skipped, m.scores, m.remaining, m.runs)
	return m
}

// Registry returns the registry holding the placement metrics.
func (m *MetricsObserver) Registry() *prometheus.Registry { return m.registry }

// Observe implements placement.Observer.
func (m *MetricsObserver) Observe(e placement.Event) {
	switch e.Kind {
	case placement.EventCandidateEvaluated:
		m.scores.Observe(e.Score)
	case placement.EventCandidateSkipped:
		m.skipped.Inc()
	case placement.EventAssignmentCommitted:
		m.placed.Inc()
	case placement.EventServiceUnassigned:
		m.unassigned.Inc()
	case placement.EventRunCompleted:
		m.runs.Inc()
	}
}

// RecordServers sets the remaining-capacity gauge from a run's final state.
func (m *MetricsObserver) RecordServers(servers []model.ServerState) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.remaining.Reset()
	for _, s := range servers {
		for d, r := range s.Remaining {
			m.remaining.WithLabelValues(s.ID, m.dimensionName(d)).Set(r)
		}
	}
}

func (m *MetricsObserver) dimensionName(d int) string {
	if d < len(m.dimensions) && m.dimensions[d] != "" {
		return m.dimensions[d]
	}
	return strconv.Itoa(d)
}

// WriteText writes every metric in the Prometheus text exposition format.
func (m *MetricsObserver) WriteText(w io.Writer) error {
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("encoding %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// WriteTextfile writes the metrics to path for the node_exporter textfile
// collector. The file is replaced atomically.
func (m *MetricsObserver) WriteTextfile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating metrics directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".placefit-metrics-*")
	if err != nil {
		return fmt.Errorf("creating metrics file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := m.WriteText(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing metrics file: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}
