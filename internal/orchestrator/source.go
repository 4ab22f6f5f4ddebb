package orchestrator

import (
	"fmt"

	"github.com/guimove/placefit/internal/config"
	"github.com/guimove/placefit/internal/kube"
	"github.com/guimove/placefit/internal/metrics"
)

// NewSource creates the inventory source named by cfg.Inventory.Source.
func NewSource(cfg config.Config) (metrics.InventorySource, error) {
	switch cfg.Inventory.Source {
	case config.SourceStatic, "":
		if cfg.Inventory.Path == "" {
			return nil, fmt.Errorf("inventory.path is required for the static source (use - for stdin)")
		}
		return metrics.NewStaticCollector(cfg.Inventory.Path), nil

	case config.SourceKubernetes:
		client, _, err := kube.NewClient(kube.ClientOptions{
			Kubeconfig: cfg.Kubernetes.Kubeconfig,
			Context:    cfg.Kubernetes.Context,
			Timeout:    cfg.Kubernetes.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting to Kubernetes: %w", err)
		}
		return kube.NewInventoryCollector(client), nil

	case config.SourcePrometheus:
		c, err := metrics.NewPrometheusCollector(cfg.Prometheus.URL,
			metrics.WithTimeout(cfg.Prometheus.Timeout))
		if err != nil {
			return nil, err
		}
		return c, nil

	default:
		return nil, fmt.Errorf("unknown inventory source %q", cfg.Inventory.Source)
	}
}
