package telemetry

import (
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/guimove/placefit/internal/placement"
)

// NewLogger builds a logrus logger writing to w. Format is "text" or "json".
func NewLogger(level, format string, w io.Writer) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("logging.level: %w", err)
	}

	logger := log.New()
	logger.SetOutput(w)
	logger.SetLevel(lvl)

	switch strings.ToLower(format) {
	case "", "text":
		logger.SetFormatter(&log.TextFormatter{
			DisableTimestamp: true,
		})
	case "json":
		logger.SetFormatter(&log.JSONFormatter{})
	default:
		return nil, fmt.Errorf("logging.format must be text or json, got %q", format)
	}

	return logger, nil
}

// LogObserver writes placement events as structured log entries.
type LogObserver struct {
	Logger log.FieldLogger
}

// NewLogObserver creates a log observer. A nil logger uses the standard logger.
func NewLogObserver(logger log.FieldLogger) *LogObserver {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &LogObserver{Logger: logger}
}

// Observe implements placement.Observer.
func (o *LogObserver) Observe(e placement.Event) {
	switch e.Kind {
	case placement.EventOrderDecided:
		o.Logger.WithFields(log.Fields{
			"order": e.Order,
		}).Debug("placement order decided")

	case placement.EventCandidateEvaluated:
		o.Logger.WithFields(log.Fields{
			"service":   e.ServiceID,
			"server":    e.ServerID,
			"available": e.Available,
			"score":     e.Score,
		}).Debug("candidate evaluated")

	case placement.EventCandidateSkipped:
		o.Logger.WithFields(log.Fields{
			"service":   e.ServiceID,
			"server":    e.ServerID,
			"demand":    e.Demand,
			"available": e.Available,
		}).Debug("insufficient resources")

	case placement.EventAssignmentCommitted:
		o.Logger.WithFields(log.Fields{
			"service":    e.ServiceID,
			"server":     e.ServerID,
			"score":      e.Score,
			"candidates": e.Candidates,
		}).Info("service placed")

	case placement.EventServiceUnassigned:
		o.Logger.WithFields(log.Fields{
			"service": e.ServiceID,
			"demand":  e.Demand,
		}).Warn("no suitable server found")

	case placement.EventRunCompleted:
		o.Logger.WithFields(log.Fields{
			"placed":     e.Placed,
			"unassigned": e.Unassigned,
		}).Info("placement run completed")
	}
}
