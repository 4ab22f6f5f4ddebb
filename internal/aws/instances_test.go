package aws

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/guimove/placefit/internal/model"
)

// fakeEC2 serves DescribeInstanceTypes from a fixed table, one type per page.
type fakeEC2 struct {
	types map[string]ec2types.InstanceTypeInfo
	calls int
}

func (f *fakeEC2) DescribeInstanceTypes(ctx context.Context, params *ec2.DescribeInstanceTypesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstanceTypesOutput, error) {
	f.calls++

	start := 0
	if params.NextToken != nil {
		fmt.Sscanf(*params.NextToken, "%d", &start)
	}

	out := &ec2.DescribeInstanceTypesOutput{}
	for i := start; i < len(params.InstanceTypes); i++ {
		if info, ok := f.types[string(params.InstanceTypes[i])]; ok {
			out.InstanceTypes = append(out.InstanceTypes, info)
		}
		if i+1 < len(params.InstanceTypes) {
			out.NextToken = aws.String(fmt.Sprint(i + 1))
		}
		break
	}
	return out, nil
}

func instanceInfo(name string, vcpus int32, memMiB int64, enis, ips int32, arch ec2types.ArchitectureType) ec2types.InstanceTypeInfo {
	return ec2types.InstanceTypeInfo{
		InstanceType: ec2types.InstanceType(name),
		VCpuInfo:     &ec2types.VCpuInfo{DefaultVCpus: aws.Int32(vcpus)},
		MemoryInfo:   &ec2types.MemoryInfo{SizeInMiB: aws.Int64(memMiB)},
		NetworkInfo: &ec2types.NetworkInfo{
			MaximumNetworkInterfaces:  aws.Int32(enis),
			Ipv4AddressesPerInterface: aws.Int32(ips),
		},
		ProcessorInfo: &ec2types.ProcessorInfo{
			SupportedArchitectures: []ec2types.ArchitectureType{arch},
		},
	}
}

func newFakeEC2() *fakeEC2 {
	return &fakeEC2{types: map[string]ec2types.InstanceTypeInfo{
		"m5.xlarge":  instanceInfo("m5.xlarge", 4, 16384, 4, 15, ec2types.ArchitectureTypeX8664),
		"c7g.large":  instanceInfo("c7g.large", 2, 4096, 3, 10, ec2types.ArchitectureTypeArm64),
		"r5.2xlarge": instanceInfo("r5.2xlarge", 8, 65536, 4, 15, ec2types.ArchitectureTypeX8664),
	}}
}

func TestCatalog_DescribeInstanceTypes(t *testing.T) {
	api := newFakeEC2()
	catalog := newCatalog(api, nil, "us-east-1", nil)

	types, err := catalog.DescribeInstanceTypes(context.Background(), []string{"r5.2xlarge", "m5.xlarge", "c7g.large"})
	if err != nil {
		t.Fatal(err)
	}

	// Requested order is kept across pages
	want := []string{"r5.2xlarge", "m5.xlarge", "c7g.large"}
	for i, it := range types {
		if it.Name != want[i] {
			t.Errorf("types[%d] = %s, want %s", i, it.Name, want[i])
		}
	}
	if api.calls != 3 {
		t.Errorf("expected 3 paged calls, got %d", api.calls)
	}

	m5 := types[1]
	if m5.Family != "m5" || m5.Generation != 5 || m5.Size != "xlarge" {
		t.Errorf("unexpected parse: %+v", m5)
	}
	if m5.AllocatableCPU != 3.92 {
		t.Errorf("m5.xlarge allocatable cpu = %v, want 3.92", m5.AllocatableCPU)
	}
	if m5.MaxPods != 59 {
		t.Errorf("m5.xlarge max pods = %d, want 59", m5.MaxPods)
	}
	if types[2].Architecture != "arm64" {
		t.Errorf("c7g.large arch = %q, want arm64", types[2].Architecture)
	}
}

func TestCatalog_DescribeInstanceTypesMissing(t *testing.T) {
	catalog := newCatalog(newFakeEC2(), nil, "us-east-1", nil)

	_, err := catalog.DescribeInstanceTypes(context.Background(), []string{"m5.xlarge", "x9.huge"})
	if !errors.Is(err, ErrNoInstanceTypes) {
		t.Fatalf("expected ErrNoInstanceTypes, got %v", err)
	}

	if _, err := catalog.DescribeInstanceTypes(context.Background(), nil); !errors.Is(err, ErrNoInstanceTypes) {
		t.Errorf("expected ErrNoInstanceTypes for empty request, got %v", err)
	}
}

func TestCatalog_DescribeInstanceTypesCached(t *testing.T) {
	api := newFakeEC2()
	catalog := newCatalog(api, nil, "us-east-1", NewFileCache(t.TempDir(), time.Hour))

	for i := 0; i < 3; i++ {
		if _, err := catalog.DescribeInstanceTypes(context.Background(), []string{"m5.xlarge"}); err != nil {
			t.Fatal(err)
		}
	}
	if api.calls != 1 {
		t.Errorf("expected 1 API call with a warm cache, got %d", api.calls)
	}
}

func TestToServers(t *testing.T) {
	types := []InstanceType{
		{Name: "m5.xlarge", Architecture: "amd64", AllocatableCPU: 3.92, AllocatableMemory: 12.5, MaxPods: 58, HourlyPrice: 0.192},
		{Name: "c7g.large", Architecture: "arm64", AllocatableCPU: 1.93, AllocatableMemory: 2.9, MaxPods: 29},
	}

	servers, err := ToServers(types, 2, []string{"cpu", "memory", "pods"})
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"m5.xlarge-1", "m5.xlarge-2", "c7g.large-1", "c7g.large-2"}
	if len(servers) != len(want) {
		t.Fatalf("got %d servers, want %d", len(servers), len(want))
	}
	for i, s := range servers {
		if s.ID != want[i] {
			t.Errorf("servers[%d] = %s, want %s", i, s.ID, want[i])
		}
	}
	if c := servers[0].Capacity; c[0] != 3.92 || c[1] != 12.5 || c[2] != 58 {
		t.Errorf("m5.xlarge capacity = %v", c)
	}
	if servers[1].HourlyCost != 0.192 {
		t.Errorf("hourly cost not carried: %v", servers[1].HourlyCost)
	}

	servers[0].Capacity[0] = 0
	if servers[1].Capacity[0] != 3.92 {
		t.Error("servers share capacity vectors")
	}

	if _, err := ToServers(types, 1, []string{"cpu", "gpu"}); !errors.Is(err, model.ErrInvalidDimension) {
		t.Errorf("expected ErrInvalidDimension for gpu, got %v", err)
	}
}

func TestComputeMaxPods(t *testing.T) {
	tests := []struct {
		name       string
		maxENIs    int32
		ipv4PerENI int32
		want       int32
	}{
		{"m5.large", 3, 10, 29},
		{"m5.xlarge", 4, 15, 59},
		{"t3.micro", 2, 2, 3},
		{"zero ENIs", 0, 0, 110},
		{"huge instance capped", 15, 50, 250},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeMaxPods(tt.maxENIs, tt.ipv4PerENI)
			if got != tt.want {
				t.Errorf("ComputeMaxPods(%d, %d) = %d, want %d",
					tt.maxENIs, tt.ipv4PerENI, got, tt.want)
			}
		})
	}
}

func TestComputeAllocatableCPU(t *testing.T) {
	tests := []struct {
		vcpus int32
		want  int64
	}{
		{0, 0},
		{1, 940},    // 1000 - 60
		{2, 1930},   // 2000 - 60 - 10
		{4, 3920},   // 4000 - 60 - 10 - 5 - 5
		{8, 7912},   // 8000 - 60 - 10 - 5 - 5 - 2*4
		{16, 15896}, // 16000 - 60 - 10 - 10 - 2*12
		{96, 95736}, // 96000 - 60 - 10 - 10 - 2*92
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_vcpus", tt.vcpus), func(t *testing.T) {
			got := computeAllocatableCPU(tt.vcpus)
			if got != tt.want {
				t.Errorf("computeAllocatableCPU(%d) = %d, want %d", tt.vcpus, got, tt.want)
			}
		})
	}
}

func TestComputeAllocatableMemory(t *testing.T) {
	mib := int64(1024 * 1024)
	tests := []struct {
		memMiB int64
		want   int64
	}{
		// 4096 - 255 - 1024
		{4096, 2817 * mib},
		// 16384 - 255 - 1024 - 819.2 - 819.2
		{16384, 16384*mib - 255*mib - 1024*mib - 4096*mib*20/100 - 8192*mib*10/100},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_MiB", tt.memMiB), func(t *testing.T) {
			got := computeAllocatableMemory(tt.memMiB)
			if got != tt.want {
				t.Errorf("computeAllocatableMemory(%d) = %d, want %d", tt.memMiB, got, tt.want)
			}
		})
	}

	// Never more than 40% reserved for realistic sizes
	for _, memMiB := range []int64{8192, 32768, 262144} {
		got := computeAllocatableMemory(memMiB)
		total := memMiB * mib
		if got <= 0 || float64(got) < float64(total)*0.60 {
			t.Errorf("computeAllocatableMemory(%d) = %d, outside (60%%, 100%%) of %d", memMiB, got, total)
		}
	}

	if got := computeAllocatableMemory(128); got != 0 {
		t.Errorf("tiny instance should clamp to 0, got %d", got)
	}
}

func TestParseInstanceType(t *testing.T) {
	tests := []struct {
		input  string
		family string
		gen    int
		size   string
	}{
		{"m5.xlarge", "m5", 5, "xlarge"},
		{"m7g.large", "m7g", 7, "large"},
		{"c6i.2xlarge", "c6i", 6, "2xlarge"},
		{"r5.metal", "r5", 5, "metal"},
		{"p4d.24xlarge", "p4d", 4, "24xlarge"},
		{"u-6tb1.metal", "u-6tb1", 0, "metal"},
		{"nodot", "nodot", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			family, gen, size := parseInstanceType(tt.input)
			if family != tt.family {
				t.Errorf("family: got %q, want %q", family, tt.family)
			}
			if gen != tt.gen {
				t.Errorf("generation: got %d, want %d", gen, tt.gen)
			}
			if size != tt.size {
				t.Errorf("size: got %q, want %q", size, tt.size)
			}
		})
	}
}

func TestConvertInstanceType_Allocatable(t *testing.T) {
	it := convertInstanceType(instanceInfo("m5.xlarge", 4, 16384, 4, 15, ec2types.ArchitectureTypeX8664))
	wantMem := float64(computeAllocatableMemory(16384)) / gib
	if math.Abs(it.AllocatableMemory-wantMem) > 1e-12 {
		t.Errorf("allocatable memory = %v, want %v", it.AllocatableMemory, wantMem)
	}
	if it.VCPUs != 4 || it.MemoryMiB != 16384 {
		t.Errorf("unexpected raw sizes: %+v", it)
	}
}
