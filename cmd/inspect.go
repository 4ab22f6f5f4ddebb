package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/guimove/placefit/internal/metrics"
	"github.com/guimove/placefit/internal/model"
	"github.com/guimove/placefit/internal/orchestrator"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Collect and display the inventory without placing it",
	Long: `Collects services and servers from the configured source and prints them.
Useful for debugging collection and for snapshotting a live cluster: the
yaml and json outputs can be fed back with 'placefit place -f'.`,
	RunE: runInspect,
}

func init() {
	f := inspectCmd.Flags()
	f.StringP("output", "o", "table", "output format: table, yaml, json")
	f.String("sort-by", "demand", "sort services by: demand, name")
	f.String("output-file", "", "write output to file")

	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	source, err := orchestrator.NewSource(cfg)
	if err != nil {
		return fmt.Errorf("creating inventory source: %w", err)
	}

	orch := orchestrator.New(source, cfg)
	orch.Logger = logger
	inv, err := orch.Collect(cmd.Context())
	if err != nil {
		return err
	}

	outFile, _ := cmd.Flags().GetString("output-file")
	w, closeOut, err := openOutput(outFile)
	if err != nil {
		return err
	}
	defer closeOut()

	outputFmt, _ := cmd.Flags().GetString("output")
	if outputFmt != "table" {
		data, err := metrics.MarshalInventory(inv, outputFmt)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}

	sortBy, _ := cmd.Flags().GetString("sort-by")
	printInventory(w, inv, sortBy)
	return nil
}

func printInventory(w io.Writer, inv *model.Inventory, sortBy string) {
	services := make([]model.Service, len(inv.Services))
	copy(services, inv.Services)
	if sortBy == "name" {
		sort.Slice(services, func(i, j int) bool { return services[i].ID < services[j].ID })
	} else {
		sort.SliceStable(services, func(i, j int) bool {
			return services[i].Demand.Sum() > services[j].Demand.Sum()
		})
	}

	fmt.Fprintf(w, "Source: %s\n", inv.Source)
	if !inv.CollectedAt.IsZero() {
		fmt.Fprintf(w, "Collected: %s\n", inv.CollectedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(w, "Dimensions: %s\n", strings.Join(inv.Dimensions, ", "))
	fmt.Fprintf(w, "Services: %d | Servers: %d\n\n", len(inv.Services), len(inv.Servers))

	fmt.Fprintf(w, "%-40s %s\n", "SERVICE", "DEMAND")
	fmt.Fprintf(w, "%s\n", strings.Repeat("-", 80))
	for _, s := range services {
		fmt.Fprintf(w, "%-40s %s\n", truncate(s.ID, 40), fmt.Sprint(s.Demand))
	}

	fmt.Fprintf(w, "\n%-40s %-30s %s\n", "SERVER", "CAPACITY", "$/HOUR")
	fmt.Fprintf(w, "%s\n", strings.Repeat("-", 80))
	for _, s := range inv.Servers {
		price := "-"
		if s.HourlyCost > 0 {
			price = fmt.Sprintf("%.4f", s.HourlyCost)
		}
		fmt.Fprintf(w, "%-40s %-30s %s\n", truncate(s.ID, 40), fmt.Sprint(s.Capacity), price)
	}

	fmt.Fprintf(w, "\nTotal demand:   %v\n", inv.TotalDemand())
	fmt.Fprintf(w, "Total capacity: %v\n", inv.TotalCapacity())
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
