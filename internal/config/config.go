package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config is the top-level configuration for placefit.
type Config struct {
	Placement  PlacementConfig  `yaml:"placement" mapstructure:"placement"`
	Inventory  InventoryConfig  `yaml:"inventory" mapstructure:"inventory"`
	Kubernetes KubernetesConfig `yaml:"kubernetes" mapstructure:"kubernetes"`
	Prometheus PrometheusConfig `yaml:"prometheus" mapstructure:"prometheus"`
	Metrics    MetricsConfig    `yaml:"metrics" mapstructure:"metrics"`
	AWS        AWSConfig        `yaml:"aws" mapstructure:"aws"`
	WhatIf     WhatIfConfig     `yaml:"what_if" mapstructure:"what_if"`
	Logging    LoggingConfig    `yaml:"logging" mapstructure:"logging"`
	Output     OutputConfig     `yaml:"output" mapstructure:"output"`
}

type PlacementConfig struct {
	// Names of the resource dimensions, in vector order
	Dimensions []string `yaml:"dimensions" mapstructure:"dimensions"`
	// Goroutines used to score the candidates of one service
	Parallelism int `yaml:"parallelism" mapstructure:"parallelism"`
}

// Inventory sources.
const (
	SourceStatic     = "static"
	SourceKubernetes = "kubernetes"
	SourcePrometheus = "prometheus"
)

type InventoryConfig struct {
	Source string `yaml:"source" mapstructure:"source"`
	Path   string `yaml:"path" mapstructure:"path"` // static source only
}

type KubernetesConfig struct {
	Kubeconfig    string `yaml:"kubeconfig" mapstructure:"kubeconfig"`
	Context       string `yaml:"context" mapstructure:"context"`
	Namespace     string `yaml:"namespace" mapstructure:"namespace"` // empty = all namespaces
	LabelSelector string `yaml:"label_selector" mapstructure:"label_selector"`
	NodeSelector  string `yaml:"node_selector" mapstructure:"node_selector"`

	// Timeout bounds each API server request.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

type PrometheusConfig struct {
	URL     string        `yaml:"url" mapstructure:"url"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

type MetricsConfig struct {
	Window            time.Duration `yaml:"window" mapstructure:"window"`
	Step              time.Duration `yaml:"step" mapstructure:"step"`
	Percentile        float64       `yaml:"percentile" mapstructure:"percentile"`
	ExcludeNamespaces []string      `yaml:"exclude_namespaces" mapstructure:"exclude_namespaces"`
}

type AWSConfig struct {
	Region   string        `yaml:"region" mapstructure:"region"`
	CacheDir string        `yaml:"cache_dir" mapstructure:"cache_dir"`
	CacheTTL time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
}

type WhatIfConfig struct {
	DropEachServer bool      `yaml:"drop_each_server" mapstructure:"drop_each_server"`
	ScaleFactors   []float64 `yaml:"scale_factors" mapstructure:"scale_factors"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

type OutputConfig struct {
	Format      string `yaml:"format" mapstructure:"format"`
	File        string `yaml:"file" mapstructure:"file"`
	MetricsFile string `yaml:"metrics_file" mapstructure:"metrics_file"`
	Explain     bool   `yaml:"explain" mapstructure:"explain"`
	TopN        int    `yaml:"top_n" mapstructure:"top_n"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Placement: PlacementConfig{
			Dimensions:  []string{"cpu", "memory"},
			Parallelism: 1,
		},
		Inventory: InventoryConfig{
			Source: SourceStatic,
		},
		Kubernetes: KubernetesConfig{
			Timeout: 30 * time.Second,
		},
		Prometheus: PrometheusConfig{
			Timeout: 60 * time.Second,
		},
		Metrics: MetricsConfig{
			Window:     7 * 24 * time.Hour,
			Step:       5 * time.Minute,
			Percentile: 0.95,
			ExcludeNamespaces: []string{
				"kube-system",
				"kube-node-lease",
			},
		},
		AWS: AWSConfig{
			Region:   detectRegion(),
			CacheDir: defaultCacheDir(),
			CacheTTL: 24 * time.Hour,
		},
		WhatIf: WhatIfConfig{
			DropEachServer: true,
			ScaleFactors:   []float64{1.5, 2},
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
		Output: OutputConfig{
			Format: "table",
			TopN:   5,
		},
	}
}

// Validate checks the config for consistency.
func (c *Config) Validate() error {
	if len(c.Placement.Dimensions) == 0 {
		return fmt.Errorf("placement.dimensions must name at least one dimension")
	}
	seen := make(map[string]bool, len(c.Placement.Dimensions))
	for _, d := range c.Placement.Dimensions {
		if d == "" {
			return fmt.Errorf("placement.dimensions contains an empty name")
		}
		if seen[d] {
			return fmt.Errorf("placement.dimensions lists %q twice", d)
		}
		seen[d] = true
	}
	if c.Placement.Parallelism < 1 {
		c.Placement.Parallelism = 1
	}

	switch c.Inventory.Source {
	case SourceStatic:
		// path is checked when the inventory is loaded; some commands read stdin
	case SourceKubernetes:
		if c.Kubernetes.Timeout < 0 {
			return fmt.Errorf("kubernetes.timeout must not be negative, got %v", c.Kubernetes.Timeout)
		}
	case SourcePrometheus:
		if c.Prometheus.URL == "" {
			return fmt.Errorf("prometheus.url is required for the prometheus inventory source")
		}
	default:
		return fmt.Errorf("inventory source must be static, kubernetes, or prometheus, got %q", c.Inventory.Source)
	}

	if c.Metrics.Percentile < 0 || c.Metrics.Percentile > 1.0 {
		return fmt.Errorf("percentile must be between 0 and 1.0, got %v", c.Metrics.Percentile)
	}
	if c.Metrics.Window <= 0 {
		return fmt.Errorf("metrics window must be positive, got %v", c.Metrics.Window)
	}
	if c.Metrics.Step <= 0 || c.Metrics.Step > c.Metrics.Window {
		return fmt.Errorf("metrics step must be positive and at most the window, got %v", c.Metrics.Step)
	}

	for _, f := range c.WhatIf.ScaleFactors {
		if f <= 0 {
			return fmt.Errorf("what_if.scale_factors must be positive, got %v", f)
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("logging format must be text or json, got %q", c.Logging.Format)
	}

	validFormats := map[string]bool{"table": true, "json": true, "markdown": true}
	if !validFormats[c.Output.Format] {
		return fmt.Errorf("output format must be table, json, or markdown, got %q", c.Output.Format)
	}
	if c.Output.TopN <= 0 {
		c.Output.TopN = 5
	}
	if c.AWS.CacheTTL < 0 {
		return fmt.Errorf("aws cache_ttl must not be negative, got %v", c.AWS.CacheTTL)
	}
	return nil
}

// detectRegion checks environment variables for the AWS region.
func detectRegion() string {
	if r := os.Getenv("AWS_REGION"); r != "" {
		return r
	}
	if r := os.Getenv("AWS_DEFAULT_REGION"); r != "" {
		return r
	}
	return "us-east-1"
}

func defaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "placefit")
	}
	return filepath.Join(os.TempDir(), "placefit")
}
