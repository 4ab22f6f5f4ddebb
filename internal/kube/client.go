package kube

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// ClientOptions selects the cluster to read the inventory from.
type ClientOptions struct {
	Kubeconfig string
	Context    string
	Timeout    time.Duration
}

// NewClient creates a Kubernetes clientset and returns it with the name of the
// context in use. The kubeconfig is resolved in this order:
// 1. Explicit path (--kubeconfig flag)
// 2. KUBECONFIG environment variable
// 3. ~/.kube/config
// 4. In-cluster config (when running as a pod)
func NewClient(opts ClientOptions) (kubernetes.Interface, string, error) {
	config, currentContext, err := buildConfig(opts.Kubeconfig, opts.Context)
	if err != nil {
		return nil, "", fmt.Errorf("building kubernetes config: %w", err)
	}

	config.UserAgent = "placefit"
	if opts.Timeout > 0 {
		config.Timeout = opts.Timeout
	}

	client, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, "", fmt.Errorf("creating kubernetes client: %w", err)
	}

	return client, currentContext, nil
}

func buildConfig(kubeconfig, context string) (*rest.Config, string, error) {
	path := resolveKubeconfig(kubeconfig)
	if path == "" {
		restConfig, err := rest.InClusterConfig()
		if err != nil {
			return nil, "", fmt.Errorf("no kubeconfig found and not running in-cluster: %w", err)
		}
		return restConfig, "", nil
	}

	rules := &clientcmd.ClientConfigLoadingRules{ExplicitPath: path}
	overrides := &clientcmd.ConfigOverrides{CurrentContext: context}
	clientConfig := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, overrides)

	rawConfig, err := clientConfig.RawConfig()
	if err != nil {
		return nil, "", err
	}
	currentContext := rawConfig.CurrentContext
	if context != "" {
		currentContext = context
	}

	restConfig, err := clientConfig.ClientConfig()
	if err != nil {
		return nil, "", err
	}
	return restConfig, currentContext, nil
}

// resolveKubeconfig returns the kubeconfig path to load, or "" to use the
// in-cluster config.
func resolveKubeconfig(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv("KUBECONFIG"); env != "" {
		return env
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	defaultPath := filepath.Join(home, ".kube", "config")
	if _, err := os.Stat(defaultPath); err != nil {
		return ""
	}
	return defaultPath
}
