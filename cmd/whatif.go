package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/guimove/placefit/internal/orchestrator"
)

var whatifCmd = &cobra.Command{
	Use:   "what-if",
	Short: "Compare placements under server failures and load growth",
	Long: `Runs the same inventory through several scenarios side by side: the
baseline, the loss of each single server, and the services scaled by each
factor. Scenarios run concurrently on independent copies of the servers
and are ranked by the fraction of services placed, then by resource balance.`,
	RunE: runWhatIf,
}

func init() {
	f := whatifCmd.Flags()
	f.Bool("no-drop", false, "skip the single-server-failure scenarios")
	f.Float64Slice("scale", nil, "service scale factors to try (e.g. 1.5,2)")
	f.Int("top", 0, "number of scenarios to show warnings for")
	f.StringP("output", "o", "", "output format: table, json, markdown")
	f.String("output-file", "", "write output to file")
	f.String("metrics-file", "", "write Prometheus metrics to this textfile")

	rootCmd.AddCommand(whatifCmd)
}

func runWhatIf(cmd *cobra.Command, args []string) error {
	applyOutputFlags(cmd)
	if noDrop, _ := cmd.Flags().GetBool("no-drop"); noDrop {
		cfg.WhatIf.DropEachServer = false
	}
	if s, _ := cmd.Flags().GetFloat64Slice("scale"); cmd.Flags().Changed("scale") {
		cfg.WhatIf.ScaleFactors = s
	}
	if n, _ := cmd.Flags().GetInt("top"); n > 0 {
		cfg.Output.TopN = n
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

	_, err = orch.WhatIf(cmd.Context())
	return err
}
