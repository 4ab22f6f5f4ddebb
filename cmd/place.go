package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/guimove/placefit/internal/orchestrator"
)

var placeCmd = &cobra.Command{
	Use:   "place",
	Short: "Place the inventory's services onto its servers",
	Long: `Collects the inventory, places services largest-first on the feasible
server whose free capacity is most similar in shape to the service's demand,
and reports every assignment, the remaining capacity per server, and
fragmentation metrics.

Use --explain to print each candidate server's score as it is evaluated.`,
	Example: `  placefit place -f inventory.yaml
  placefit place -f inventory.yaml --explain
  placefit place --source kubernetes --namespace shop -o json`,
	RunE: runPlace,
}

func init() {
	f := placeCmd.Flags()
	f.Bool("explain", false, "narrate every candidate evaluation")
	f.StringP("output", "o", "", "output format: table, json, markdown")
	f.String("output-file", "", "write output to file")
	f.String("metrics-file", "", "write Prometheus metrics to this textfile")
	f.Int("parallelism", 0, "goroutines scoring the candidates of one service")

	rootCmd.AddCommand(placeCmd)
}

func runPlace(cmd *cobra.Command, args []string) error {
	applyOutputFlags(cmd)
	if e, _ := cmd.Flags().GetBool("explain"); cmd.Flags().Changed("explain") {
		cfg.Output.Explain = e
	}
	if p, _ := cmd.Flags().GetInt("parallelism"); p > 0 {
		cfg.Placement.Parallelism = p
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	source, err := orchestrator.NewSource(cfg)
	if err != nil {
		return fmt.Errorf("creating inventory source: %w", err)
	}

	w, closeOut, err := openOutput(cfg.Output.File)
	if err != nil {
		return err
	}
	defer closeOut()

	orch := orchestrator.New(source, cfg)
	orch.Writer = w
	orch.Logger = logger

	_, err = orch.Place(cmd.Context())
	return err
}

// applyOutputFlags copies the output flags shared by place and what-if.
func applyOutputFlags(cmd *cobra.Command) {
	if f, _ := cmd.Flags().GetString("output"); cmd.Flags().Changed("output") {
		cfg.Output.Format = f
	}
	if f, _ := cmd.Flags().GetString("output-file"); f != "" {
		cfg.Output.File = f
	}
	if f, _ := cmd.Flags().GetString("metrics-file"); f != "" {
		cfg.Output.MetricsFile = f
	}
}
