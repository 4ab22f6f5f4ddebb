package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/guimove/placefit/internal/model"
)

var (
	ErrPrometheusUnreachable = errors.New("prometheus endpoint unreachable")
	ErrNoMetricsFound        = errors.New("no pod metrics found for the specified criteria")
	ErrNoInventory           = errors.New("inventory has no services and no servers")
)

//go:generate mockgen -destination=mocks/mock_collector.go -package=mocks github.com/guimove/placefit/internal/metrics InventorySource

// InventorySource abstracts where the services and servers of a placement
// run come from.
type InventorySource interface {
	// Collect builds the inventory. Services and servers are returned in a
	// stable order so repeated runs place identically.
	Collect(ctx context.Context, opts CollectOptions) (*model.Inventory, error)

	// Ping validates that the backend is reachable.
	Ping(ctx context.Context) error

	// BackendType returns the detected backend type.
	BackendType() string
}

// CollectOptions configures inventory collection.
type CollectOptions struct {
	Dimensions        []string      // Vector dimensions, e.g. cpu, memory
	Window            time.Duration // Usage lookback
	End               time.Time     // Zero = now
	Namespace         string        // Empty = all namespaces
	LabelSelector     string        // Optional workload label filter
	NodeSelector      string        // Optional node label filter
	ExcludeNamespaces []string      // Namespaces to exclude
	Percentile        float64       // Which percentile of usage sizes a service (default 0.95)
	StepInterval      time.Duration // PromQL step interval
}

func (o CollectOptions) dimensions() []string {
	if len(o.Dimensions) == 0 {
		return model.DefaultDimensions
	}
	return o.Dimensions
}

func (o CollectOptions) end() time.Time {
	if o.End.IsZero() {
		return time.Now()
	}
	return o.End
}
