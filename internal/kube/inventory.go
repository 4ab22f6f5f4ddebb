package kube

import (
	"context"
	"fmt"
	"sort"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/guimove/placefit/internal/metrics"
	"github.com/guimove/placefit/internal/model"
)

const gib = 1024 * 1024 * 1024

// Label carrying the node's instance type, copied onto servers.
const instanceTypeLabel = "node.kubernetes.io/instance-type"

// InventoryCollector reads an inventory from the Kubernetes API: schedulable
// nodes become servers and Deployments become services sized by their pod
// template requests.
type InventoryCollector struct {
	client kubernetes.Interface
}

// NewInventoryCollector creates a collector backed by client.
func NewInventoryCollector(client kubernetes.Interface) *InventoryCollector {
	return &InventoryCollector{client: client}
}

// Ping checks that the API server answers.
func (c *InventoryCollector) Ping(ctx context.Context) error {
	if _, err := c.client.Discovery().ServerVersion(); err != nil {
		return fmt.Errorf("kubernetes API unreachable: %w", err)
	}
	return nil
}

// BackendType returns "kubernetes".
func (c *InventoryCollector) BackendType() string {
	return "kubernetes"
}

// Collect lists nodes and Deployments. Servers are ordered by node name,
// services by namespace/name.
func (c *InventoryCollector) Collect(ctx context.Context, opts metrics.CollectOptions) (*model.Inventory, error) {
	dims := opts.Dimensions
	if len(dims) == 0 {
		dims = model.DefaultDimensions
	}

	servers, err := c.servers(ctx, dims, opts.NodeSelector)
	if err != nil {
		return nil, err
	}
	services, err := c.services(ctx, dims, opts)
	if err != nil {
		return nil, err
	}

	if len(servers) == 0 && len(services) == 0 {
		return nil, metrics.ErrNoInventory
	}

	return &model.Inventory{
		CollectedAt: time.Now(),
		Source:      "kubernetes",
		Dimensions:  append([]string(nil), dims...),
		Services:    services,
		Servers:     servers,
	}, nil
}

func (c *InventoryCollector) servers(ctx context.Context, dims []string, selector string) ([]model.Server, error) {
	nodes, err := c.client.CoreV1().Nodes().List(ctx, metav1.ListOptions{LabelSelector: selector})
	if err != nil {
		return nil, fmt.Errorf("listing nodes: %w", err)
	}

	items := nodes.Items
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })

	var servers []model.Server
	for i := range items {
		node := &items[i]
		if node.Spec.Unschedulable {
			continue
		}

		capacity := make(model.ResourceVector, len(dims))
		for d, name := range dims {
			q, ok := node.Status.Allocatable[corev1.ResourceName(name)]
			if !ok {
				continue
			}
			capacity[d] = quantityValue(name, q)
		}

		server := model.Server{ID: node.Name, Capacity: capacity}
		if it := node.Labels[instanceTypeLabel]; it != "" {
			server.Labels = map[string]string{instanceTypeLabel: it}
		}
		servers = append(servers, server)
	}
	return servers, nil
}

func (c *InventoryCollector) services(ctx context.Context, dims []string, opts metrics.CollectOptions) ([]model.Service, error) {
	deployments, err := c.client.AppsV1().Deployments(opts.Namespace).List(ctx, metav1.ListOptions{
		LabelSelector: opts.LabelSelector,
	})
	if err != nil {
		return nil, fmt.Errorf("listing deployments: %w", err)
	}

	excluded := make(map[string]bool, len(opts.ExcludeNamespaces))
	for _, ns := range opts.ExcludeNamespaces {
		excluded[ns] = true
	}

	var services []model.Service
	for i := range deployments.Items {
		dep := &deployments.Items[i]
		if excluded[dep.Namespace] {
			continue
		}
		services = append(services, model.Service{
			ID:     dep.Namespace + "/" + dep.Name,
			Demand: podDemand(dep, dims),
			Labels: map[string]string{
				"namespace": dep.Namespace,
				"kind":      "Deployment",
			},
		})
	}

	sort.Slice(services, func(i, j int) bool { return services[i].ID < services[j].ID })
	return services, nil
}

// podDemand returns what one pod of the Deployment asks the scheduler for:
// the sum of its containers' requests, or the largest init container request
// if that is higher, plus pod overhead.
func podDemand(dep *appsv1.Deployment, dims []string) model.ResourceVector {
	spec := &dep.Spec.Template.Spec
	demand := make(model.ResourceVector, len(dims))

	for d, name := range dims {
		rn := corev1.ResourceName(name)

		var sum float64
		for _, ctr := range spec.Containers {
			if q, ok := ctr.Resources.Requests[rn]; ok {
				sum += quantityValue(name, q)
			}
		}
		for _, ctr := range spec.InitContainers {
			if q, ok := ctr.Resources.Requests[rn]; ok {
				if v := quantityValue(name, q); v > sum {
					sum = v
				}
			}
		}
		if q, ok := spec.Overhead[rn]; ok {
			sum += quantityValue(name, q)
		}

		demand[d] = sum
	}
	return demand
}

// quantityValue converts a Kubernetes quantity into the dimension's unit:
// cores for cpu, GiB for memory, plain count otherwise.
func quantityValue(dim string, q resource.Quantity) float64 {
	switch dim {
	case "cpu":
		return float64(q.MilliValue()) / 1000
	case "memory":
		return float64(q.Value()) / gib
	default:
		return float64(q.Value())
	}
}
