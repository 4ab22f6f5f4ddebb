package aws

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/guimove/placefit/internal/model"
)

const gib = 1024 * 1024 * 1024

// InstanceType is the placement-relevant description of an EC2 instance type.
type InstanceType struct {
	Name         string `json:"name"`
	Family       string `json:"family"`
	Generation   int    `json:"generation"`
	Size         string `json:"size"`
	Architecture string `json:"architecture"`
	VCPUs        int32  `json:"vcpus"`
	MemoryMiB    int64  `json:"memory_mib"`
	MaxPods      int32  `json:"max_pods"`

	// Capacity left to workloads after the kubelet reservation
	AllocatableCPU    float64 `json:"allocatable_cpu"`
	AllocatableMemory float64 `json:"allocatable_memory_gib"`

	// On-demand USD per hour; zero when unknown
	HourlyPrice float64 `json:"hourly_price,omitempty"`
}

// Capacity returns the allocatable capacity for the given dimensions.
// Supported dimensions are cpu (cores), memory (GiB), and pods.
func (it InstanceType) Capacity(dims []string) (model.ResourceVector, error) {
	capacity := make(model.ResourceVector, len(dims))
	for i, d := range dims {
		switch d {
		case "cpu":
			capacity[i] = it.AllocatableCPU
		case "memory":
			capacity[i] = it.AllocatableMemory
		case "pods":
			capacity[i] = float64(it.MaxPods)
		default:
			return nil, fmt.Errorf("%w: instance types have no %q dimension", model.ErrInvalidDimension, d)
		}
	}
	return capacity, nil
}

// DescribeInstanceTypes returns the named instance types in the order given.
// Results are cached per region and name list.
func (c *Catalog) DescribeInstanceTypes(ctx context.Context, names []string) ([]InstanceType, error) {
	if len(names) == 0 {
		return nil, ErrNoInstanceTypes
	}

	key := cacheKey("instances", c.region, strings.Join(names, ","))
	var cached []InstanceType
	if c.cache.Get(key, &cached) {
		return cached, nil
	}

	ids := make([]ec2types.InstanceType, len(names))
	for i, n := range names {
		ids[i] = ec2types.InstanceType(n)
	}

	var infos []ec2types.InstanceTypeInfo
	var nextToken *string
	for {
		output, err := c.ec2Client.DescribeInstanceTypes(ctx, &ec2.DescribeInstanceTypesInput{
			InstanceTypes: ids,
			NextToken:     nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("describing instance types: %w", err)
		}

		infos = append(infos, output.InstanceTypes...)

		if output.NextToken == nil {
			break
		}
		nextToken = output.NextToken
	}

	byName := make(map[string]InstanceType, len(infos))
	for _, info := range infos {
		it := convertInstanceType(info)
		byName[it.Name] = it
	}

	types := make([]InstanceType, 0, len(names))
	var missing []string
	for _, n := range names {
		it, ok := byName[n]
		if !ok {
			missing = append(missing, n)
			continue
		}
		types = append(types, it)
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: %s", ErrNoInstanceTypes, strings.Join(missing, ", "))
	}

	_ = c.cache.Set(key, types)
	return types, nil
}

// ToServers expands instance types into count servers each, named
// "<type>-<n>", in the order the types are given.
func ToServers(types []InstanceType, count int, dims []string) ([]model.Server, error) {
	if count < 1 {
		count = 1
	}

	servers := make([]model.Server, 0, len(types)*count)
	for _, it := range types {
		capacity, err := it.Capacity(dims)
		if err != nil {
			return nil, err
		}
		for n := 1; n <= count; n++ {
			servers = append(servers, model.Server{
				ID:         fmt.Sprintf("%s-%d", it.Name, n),
				Capacity:   capacity.Clone(),
				HourlyCost: it.HourlyPrice,
				Labels: map[string]string{
					"node.kubernetes.io/instance-type": it.Name,
					"kubernetes.io/arch":               it.Architecture,
				},
			})
		}
	}
	return servers, nil
}

// convertInstanceType maps an EC2 InstanceTypeInfo to an InstanceType.
func convertInstanceType(info ec2types.InstanceTypeInfo) InstanceType {
	it := InstanceType{Name: string(info.InstanceType)}
	it.Family, it.Generation, it.Size = parseInstanceType(it.Name)

	if info.VCpuInfo != nil && info.VCpuInfo.DefaultVCpus != nil {
		it.VCPUs = *info.VCpuInfo.DefaultVCpus
	}
	if info.MemoryInfo != nil && info.MemoryInfo.SizeInMiB != nil {
		it.MemoryMiB = *info.MemoryInfo.SizeInMiB
	}

	var maxENIs, ipv4PerENI int32
	if info.NetworkInfo != nil {
		if info.NetworkInfo.MaximumNetworkInterfaces != nil {
			maxENIs = *info.NetworkInfo.MaximumNetworkInterfaces
		}
		if info.NetworkInfo.Ipv4AddressesPerInterface != nil {
			ipv4PerENI = *info.NetworkInfo.Ipv4AddressesPerInterface
		}
	}
	it.MaxPods = ComputeMaxPods(maxENIs, ipv4PerENI)

	if info.ProcessorInfo != nil {
		for _, arch := range info.ProcessorInfo.SupportedArchitectures {
			switch arch {
			case ec2types.ArchitectureTypeX8664:
				it.Architecture = "amd64"
			case ec2types.ArchitectureTypeArm64:
				it.Architecture = "arm64"
			}
		}
	}

	it.AllocatableCPU = float64(computeAllocatableCPU(it.VCPUs)) / 1000
	it.AllocatableMemory = float64(computeAllocatableMemory(it.MemoryMiB)) / gib
	return it
}

// ComputeMaxPods calculates the maximum pods for an instance using the EKS standard formula.
func ComputeMaxPods(maxENIs, ipv4PerENI int32) int32 {
	if maxENIs == 0 || ipv4PerENI == 0 {
		return 110 // Kubernetes default
	}
	return min(max(maxENIs*ipv4PerENI-1, 1), 250)
}

// computeAllocatableCPU applies the EKS kubelet CPU reservation formula.
// Reserve: 60m for first core, 10m for next, 5m for next 2, 2.5m for rest.
func computeAllocatableCPU(vcpus int32) int64 {
	cores := int64(vcpus)
	if cores <= 0 {
		return 0
	}

	reserved := int64(60)
	if cores > 1 {
		reserved += 10
	}
	if cores > 2 {
		reserved += min(cores-2, 2) * 5
	}
	if cores > 4 {
		reserved += (cores - 4) * 2 // 2.5m rounded down per core
	}
	return cores*1000 - reserved
}

// memoryReservation is one tier of the EKS kubelet memory reservation.
type memoryReservation struct {
	sizeMiB int64 // 0 = unbounded
	percent int64
}

var memoryTiers = []memoryReservation{
	{4096, 25},
	{4096, 20},
	{8192, 10},
	{112 * 1024, 6},
	{0, 2},
}

// computeAllocatableMemory applies the EKS kubelet memory reservation formula:
// 255MiB base + 25% of first 4GiB + 20% of next 4GiB + 10% of next 8GiB
// + 6% of next 112GiB + 2% above.
func computeAllocatableMemory(memoryMiB int64) int64 {
	reserved := int64(255 * 1024 * 1024)
	remaining := memoryMiB

	for _, tier := range memoryTiers {
		if remaining <= 0 {
			break
		}
		chunk := remaining
		if tier.sizeMiB > 0 {
			chunk = min(chunk, tier.sizeMiB)
		}
		reserved += chunk * 1024 * 1024 * tier.percent / 100
		remaining -= chunk
	}

	return max(memoryMiB*1024*1024-reserved, 0)
}

// e.g., "m5.xlarge" -> ("m5", 5, "xlarge"), "m7g.large" -> ("m7g", 7, "large")
var instanceTypeRegex = regexp.MustCompile(`^([a-z]+)(\d+)([a-z-]*)\.(.+)$`)

// parseInstanceType extracts family, generation, and size from an instance type name.
func parseInstanceType(instanceType string) (family string, generation int, size string) {
	family, size, ok := strings.Cut(instanceType, ".")
	if !ok {
		return instanceType, 0, ""
	}

	if m := instanceTypeRegex.FindStringSubmatch(instanceType); m != nil {
		generation, _ = strconv.Atoi(m[2])
	}
	return family, generation, size
}
