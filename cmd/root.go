package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/guimove/placefit/internal/config"
	"github.com/guimove/placefit/internal/telemetry"
)

var (
	cfgFile string
	cfg     config.Config
	verbose bool
	logger  *log.Logger
)

var rootCmd = &cobra.Command{
	Use:   "placefit",
	Short: "Shape-aware service placement for server fleets",
	Long: `placefit assigns services to servers one at a time, largest first, picking
for each service the server whose free capacity points in the same direction
as the service's demand (cosine similarity).

Inventories come from a YAML/JSON file, a Kubernetes cluster, or Prometheus
metrics. The what-if command replays the placement under server failures
and load growth.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
}

// Execute runs the root command. SIGINT and SIGTERM cancel the running placement.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// persistent flag name -> config key
var flagKeys = map[string]string{
	"source":         "inventory.source",
	"inventory":      "inventory.path",
	"dimensions":     "placement.dimensions",
	"prometheus-url": "prometheus.url",
	"kubeconfig":     "kubernetes.kubeconfig",
	"kube-context":   "kubernetes.context",
	"kube-timeout":   "kubernetes.timeout",
	"namespace":      "kubernetes.namespace",
	"selector":       "kubernetes.label_selector",
	"node-selector":  "kubernetes.node_selector",
	"region":         "aws.region",
	"log-level":      "logging.level",
	"log-format":     "logging.format",
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&cfgFile, "config", "", "config file (default: placefit.yaml)")
	f.BoolVarP(&verbose, "verbose", "v", false, "log every placement decision")

	f.String("source", "", "inventory source: static, kubernetes, prometheus")
	f.StringP("inventory", "f", "", "inventory file for the static source (- for stdin)")
	f.StringSlice("dimensions", nil, "resource dimensions in vector order (default cpu,memory)")
	f.String("prometheus-url", "", "Prometheus/Thanos endpoint URL")
	f.String("kubeconfig", "", "path to kubeconfig file")
	f.String("kube-context", "", "Kubernetes context name")
	f.Duration("kube-timeout", 30*time.Second, "timeout for Kubernetes API requests")
	f.StringP("namespace", "n", "", "limit services to a namespace")
	f.StringP("selector", "l", "", "label selector for services")
	f.String("node-selector", "", "label selector for servers")
	f.String("region", "", "AWS region")
	f.String("log-level", "", "log level: debug, info, warn, error")
	f.String("log-format", "", "log format: text, json")
}

func loadConfig(cmd *cobra.Command) error {
	// Start with defaults
	cfg = config.Default()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("placefit")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.placefit")
	}

	// Environment variable overrides, e.g. PLACEFIT_OUTPUT_FORMAT
	viper.SetEnvPrefix("PLACEFIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Only flags given on the command line override the file; unset flags
	// would otherwise replace defaults with zero values.
	for name, key := range flagKeys {
		if cmd.Flags().Changed(name) {
			if err := viper.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
				return fmt.Errorf("binding --%s: %w", name, err)
			}
		}
	}

	// Read config file (not an error if missing)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			return fmt.Errorf("reading config file: %w", err)
		}
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}

	// A file given with -f implies the static source
	if cmd.Flags().Changed("inventory") && !cmd.Flags().Changed("source") {
		cfg.Inventory.Source = config.SourceStatic
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	l, err := telemetry.NewLogger(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	if err != nil {
		return err
	}
	logger = l
	return nil
}

// openOutput returns stdout, or the named file when path is set.
func openOutput(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, f.Close, nil
}
