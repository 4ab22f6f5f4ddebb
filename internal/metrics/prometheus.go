package metrics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	promapi "github.com/prometheus/client_golang/api"
	promv1 "github.com/prometheus/client_golang/api/prometheus/v1"
	prommodel "github.com/prometheus/common/model"

	"github.com/guimove/placefit/internal/model"
)

const gib = 1024 * 1024 * 1024

// Floors applied to observed demand (10m CPU, 64MiB memory).
const (
	minCPUCores  = 0.01
	minMemoryGiB = 64.0 / 1024
)

// PrometheusCollector builds an inventory from Prometheus, Thanos, or Cortex:
// nodes become servers and running pods become services.
type PrometheusCollector struct {
	api      promv1.API
	endpoint string
	backend  string
	timeout  time.Duration
}

// PrometheusOption configures the Prometheus collector.
type PrometheusOption func(*PrometheusCollector)

// WithTimeout sets the query timeout.
func WithTimeout(d time.Duration) PrometheusOption {
	return func(c *PrometheusCollector) { c.timeout = d }
}

// NewPrometheusCollector creates a collector connected to the given endpoint.
func NewPrometheusCollector(endpoint string, opts ...PrometheusOption) (*PrometheusCollector, error) {
	client, err := promapi.NewClient(promapi.Config{
		Address: endpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("creating prometheus client: %w", err)
	}
	return newPrometheusCollector(promv1.NewAPI(client), endpoint, opts...), nil
}

func newPrometheusCollector(api promv1.API, endpoint string, opts ...PrometheusOption) *PrometheusCollector {
	c := &PrometheusCollector{
		api:      api,
		endpoint: endpoint,
		backend:  "prometheus",
		timeout:  60 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ping checks connectivity and detects the backend type.
func (c *PrometheusCollector) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, _, err := c.api.Query(ctx, "up", time.Now())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPrometheusUnreachable, err)
	}

	c.detectBackend(ctx)
	return nil
}

// BackendType returns the detected backend type.
func (c *PrometheusCollector) BackendType() string {
	return c.backend
}

// detectBackend tries to identify Thanos or Cortex.
func (c *PrometheusCollector) detectBackend(ctx context.Context) {
	result, _, err := c.api.Query(ctx, "thanos_store_nodes_total", time.Now())
	if err == nil && result != nil && result.String() != "" {
		c.backend = "thanos"
		return
	}

	result, _, err = c.api.Query(ctx, "cortex_ingester_active_series", time.Now())
	if err == nil && result != nil && result.String() != "" {
		c.backend = "cortex"
	}
}

// Collect queries node allocatable capacity and per-pod requests and usage.
// A pod's demand on cpu and memory is the larger of its request and its usage
// at the configured percentile; other dimensions use the request alone.
func (c *PrometheusCollector) Collect(ctx context.Context, opts CollectOptions) (*model.Inventory, error) {
	dims := opts.dimensions()

	windowStr := formatDuration(opts.Window)
	if windowStr == "" {
		windowStr = "7d"
	}
	stepStr := formatDuration(opts.StepInterval)
	if stepStr == "" {
		stepStr = "5m"
	}

	pct := opts.Percentile
	if pct == 0 {
		pct = 0.95
	}

	type queryResult struct {
		name string
		data prommodel.Value
		err  error
	}

	queries := map[string]string{
		"pod_owner": queryPodOwner(),
	}
	for _, d := range dims {
		res := resourceName(d)
		queries["alloc/"+d] = queryNodeAllocatable(res)
		queries["req/"+d] = queryPodResourceRequests(res)
		switch d {
		case "cpu":
			queries["usage/"+d] = queryCPUPercentile(pct, windowStr, stepStr)
		case "memory":
			queries["usage/"+d] = queryMemoryPercentile(pct, windowStr, stepStr)
		}
	}

	results := make(chan queryResult, len(queries))
	queryCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	end := opts.end()
	for name, q := range queries {
		go func(n, query string) {
			data, _, err := c.api.Query(queryCtx, query, end)
			results <- queryResult{name: n, data: data, err: err}
		}(name, q)
	}

	collected := make(map[string]prommodel.Value)
	var errs []string
	for i := 0; i < len(queries); i++ {
		r := <-results
		if r.err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", r.name, r.err))
			continue
		}
		collected[r.name] = r.data
	}
	sort.Strings(errs)

	return buildInventory(collected, dims, opts, errs)
}

// podKey creates a unique key for a pod.
type podKey struct {
	Namespace string
	Pod       string
}

func (k podKey) String() string { return k.Namespace + "/" + k.Pod }

// buildInventory assembles servers and services from query results.
func buildInventory(
	data map[string]prommodel.Value,
	dims []string,
	opts CollectOptions,
	queryErrors []string,
) (*model.Inventory, error) {
	alloc := make([]map[string]float64, len(dims))
	requests := make([]map[podKey]float64, len(dims))
	usage := make([]map[podKey]float64, len(dims))

	nodes := make(map[string]bool)
	pods := make(map[podKey]bool)

	for i, d := range dims {
		alloc[i] = extractNodeVector(data["alloc/"+d])
		requests[i] = extractVector(data["req/"+d])
		usage[i] = extractVector(data["usage/"+d])

		for n := range alloc[i] {
			nodes[n] = true
		}
		for k := range requests[i] {
			pods[k] = true
		}
		for k := range usage[i] {
			pods[k] = true
		}
	}

	if len(nodes) == 0 && len(pods) == 0 {
		errDetail := ""
		if len(queryErrors) > 0 {
			errDetail = "; query errors: " + strings.Join(queryErrors, ", ")
		}
		return nil, fmt.Errorf("%w%s", ErrNoMetricsFound, errDetail)
	}

	inv := &model.Inventory{
		CollectedAt: time.Now(),
		Source:      "prometheus",
		Dimensions:  append([]string(nil), dims...),
	}

	nodeNames := make([]string, 0, len(nodes))
	for n := range nodes {
		nodeNames = append(nodeNames, n)
	}
	sort.Strings(nodeNames)

	for _, n := range nodeNames {
		capacity := make(model.ResourceVector, len(dims))
		for i, d := range dims {
			capacity[i] = toDimensionUnit(d, alloc[i][n])
		}
		inv.Servers = append(inv.Servers, model.Server{
			ID:       n,
			Capacity: capacity,
		})
	}

	excludeNS := make(map[string]bool)
	for _, ns := range opts.ExcludeNamespaces {
		excludeNS[ns] = true
	}
	owners := extractOwnerInfo(data["pod_owner"])

	keys := make([]podKey, 0, len(pods))
	for pk := range pods {
		if excludeNS[pk.Namespace] {
			continue
		}
		if opts.Namespace != "" && pk.Namespace != opts.Namespace {
			continue
		}
		// DaemonSet pods run on every node and are not placed
		if owners[pk].Kind == "DaemonSet" {
			continue
		}
		keys = append(keys, pk)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

	for _, pk := range keys {
		demand := make(model.ResourceVector, len(dims))
		for i, d := range dims {
			v := math.Max(requests[i][pk], usage[i][pk])
			demand[i] = applyFloor(d, toDimensionUnit(d, v))
		}

		labels := map[string]string{
			"namespace": pk.Namespace,
			"pod":       pk.Pod,
		}
		if owner, ok := owners[pk]; ok {
			labels["owner_kind"] = owner.Kind
			labels["owner_name"] = owner.Name
		}

		inv.Services = append(inv.Services, model.Service{
			ID:     pk.String(),
			Demand: demand,
			Labels: labels,
		})
	}

	return inv, nil
}

// resourceName maps a dimension to the kube-state-metrics resource label.
func resourceName(dim string) string {
	return strings.NewReplacer("/", "_", ".", "_", "-", "_").Replace(dim)
}

// toDimensionUnit converts raw metric values: memory to GiB, the rest unchanged
// (cpu is already in cores).
func toDimensionUnit(dim string, v float64) float64 {
	if dim == "memory" {
		return v / gib
	}
	return v
}

func applyFloor(dim string, v float64) float64 {
	switch dim {
	case "cpu":
		return math.Max(v, minCPUCores)
	case "memory":
		return math.Max(v, minMemoryGiB)
	}
	return v
}

// ownerInfo holds parsed pod owner reference data.
type ownerInfo struct {
	Kind string
	Name string
}

// extractVector converts a Prometheus Value to a map of (namespace, pod) -> float64.
func extractVector(v prommodel.Value) map[podKey]float64 {
	result := make(map[podKey]float64)
	vec, ok := v.(prommodel.Vector)
	if !ok {
		return result
	}

	for _, sample := range vec {
		ns := string(sample.Metric["namespace"])
		pod := string(sample.Metric["pod"])
		if ns == "" || pod == "" {
			continue
		}
		result[podKey{ns, pod}] = float64(sample.Value)
	}
	return result
}

// extractNodeVector converts a Prometheus Value to a map of node -> float64.
func extractNodeVector(v prommodel.Value) map[string]float64 {
	result := make(map[string]float64)
	vec, ok := v.(prommodel.Vector)
	if !ok {
		return result
	}

	for _, sample := range vec {
		node := string(sample.Metric["node"])
		if node == "" {
			continue
		}
		result[node] = float64(sample.Value)
	}
	return result
}

// extractOwnerInfo parses pod owner references from kube_pod_owner metric.
func extractOwnerInfo(v prommodel.Value) map[podKey]ownerInfo {
	result := make(map[podKey]ownerInfo)
	vec, ok := v.(prommodel.Vector)
	if !ok {
		return result
	}

	for _, sample := range vec {
		ns := string(sample.Metric["namespace"])
		pod := string(sample.Metric["pod"])
		if ns == "" || pod == "" {
			continue
		}
		result[podKey{ns, pod}] = ownerInfo{
			Kind: string(sample.Metric["owner_kind"]),
			Name: string(sample.Metric["owner_name"]),
		}
	}
	return result
}

// formatDuration formats a time.Duration to a Prometheus-compatible duration string.
func formatDuration(d time.Duration) string {
	if d == 0 {
		return ""
	}
	hours := int(d.Hours())
	if hours >= 24 && hours%24 == 0 {
		return fmt.Sprintf("%dd", hours/24)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh", hours)
	}
	minutes := int(d.Minutes())
	if minutes > 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%ds", int(d.Seconds()))
}
