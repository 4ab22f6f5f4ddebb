package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	awspkg "github.com/guimove/placefit/internal/aws"
	"github.com/guimove/placefit/internal/metrics"
	"github.com/guimove/placefit/internal/model"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog INSTANCE_TYPE...",
	Short: "Build servers from EC2 instance types",
	Long: `Describes EC2 instance types, derives the capacity left to workloads after
the EKS kubelet reservation, and prints them. With --output yaml or json the
result is an inventory whose servers are --count copies of each type, ready
for 'placefit place -f'. Use --services to take the services from an
existing inventory file.`,
	Example: `  placefit catalog m6i.xlarge r6i.large --count 3 --prices
  placefit catalog m6i.xlarge --count 4 --services svc.yaml -o yaml > inventory.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCatalog,
}

func init() {
	f := catalogCmd.Flags()
	f.Int("count", 1, "servers to create per instance type")
	f.Bool("prices", false, "look up on-demand prices")
	f.String("services", "", "inventory file whose services are added to the output")
	f.String("sort-by", "", "sort table by: price, vcpu, memory, type (default: as given)")
	f.StringP("output", "o", "table", "output format: table, yaml, json")
	f.Bool("no-cache", false, "disable the on-disk cache")

	rootCmd.AddCommand(catalogCmd)
}

func runCatalog(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cacheDir := cfg.AWS.CacheDir
	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		cacheDir = ""
	}

	catalog, err := awspkg.NewCatalog(ctx, awspkg.CatalogOptions{
		Region:   cfg.AWS.Region,
		CacheDir: cacheDir,
		CacheTTL: cfg.AWS.CacheTTL,
	})
	if err != nil {
		return err
	}

	types, err := catalog.DescribeInstanceTypes(ctx, args)
	if err != nil {
		return err
	}

	if withPrices, _ := cmd.Flags().GetBool("prices"); withPrices {
		if n := catalog.EnrichWithPricing(ctx, types); n < len(types) {
			logger.WithField("missing", len(types)-n).Warn("could not fetch all pricing data")
		}
	}

	outputFmt, _ := cmd.Flags().GetString("output")
	if outputFmt == "table" {
		sortBy, _ := cmd.Flags().GetString("sort-by")
		sortInstanceTypes(types, sortBy)
		printInstanceTypes(cmd.OutOrStdout(), types, catalog.Region())
		return nil
	}

	count, _ := cmd.Flags().GetInt("count")
	servers, err := awspkg.ToServers(types, count, cfg.Placement.Dimensions)
	if err != nil {
		return err
	}

	inv := &model.Inventory{
		CollectedAt: time.Now().UTC(),
		Source:      "ec2",
		Dimensions:  cfg.Placement.Dimensions,
		Services:    []model.Service{},
		Servers:     servers,
	}

	if path, _ := cmd.Flags().GetString("services"); path != "" {
		svcInv, err := metrics.NewStaticCollector(path).Collect(ctx, metrics.CollectOptions{
			Dimensions: cfg.Placement.Dimensions,
		})
		if err != nil {
			return fmt.Errorf("loading services: %w", err)
		}
		if strings.Join(svcInv.Dimensions, ",") != strings.Join(inv.Dimensions, ",") {
			return fmt.Errorf("%w: services file uses %v, catalog uses %v",
				model.ErrInvalidDimension, svcInv.Dimensions, inv.Dimensions)
		}
		inv.Services = svcInv.Services
	}

	data, err := metrics.MarshalInventory(inv, outputFmt)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func printInstanceTypes(w io.Writer, types []awspkg.InstanceType, region string) {
	fmt.Fprintf(w, "%-20s %5s %8s %9s %9s %7s %6s %10s\n",
		"INSTANCE TYPE", "vCPU", "MEM(GiB)", "ALLOC CPU", "ALLOC MEM", "MAXPOD", "ARCH", "$/HOUR")
	fmt.Fprintf(w, "%s\n", strings.Repeat("-", 84))

	for _, t := range types {
		price := "N/A"
		if t.HourlyPrice > 0 {
			price = fmt.Sprintf("%.4f", t.HourlyPrice)
		}
		fmt.Fprintf(w, "%-20s %5d %8.1f %9.2f %9.2f %7d %6s %10s\n",
			t.Name,
			t.VCPUs,
			float64(t.MemoryMiB)/1024.0,
			t.AllocatableCPU,
			t.AllocatableMemory,
			t.MaxPods,
			t.Architecture,
			price,
		)
	}

	fmt.Fprintf(w, "\n%d instance types in %s\n", len(types), region)
}

func sortInstanceTypes(types []awspkg.InstanceType, by string) {
	switch by {
	case "vcpu":
		sort.SliceStable(types, func(i, j int) bool {
			return types[i].VCPUs < types[j].VCPUs
		})
	case "memory":
		sort.SliceStable(types, func(i, j int) bool {
			return types[i].MemoryMiB < types[j].MemoryMiB
		})
	case "type":
		sort.SliceStable(types, func(i, j int) bool {
			return types[i].Name < types[j].Name
		})
	case "price":
		sort.SliceStable(types, func(i, j int) bool {
			return types[i].HourlyPrice < types[j].HourlyPrice
		})
	}
}
