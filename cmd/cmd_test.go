package cmd

import (
	"bytes"
	"strings"
	"testing"

	awspkg "github.com/guimove/placefit/internal/aws"
	"github.com/guimove/placefit/internal/model"
)

func TestPrintInventory_SortsByDemand(t *testing.T) {
	inv := &model.Inventory{
		Source:     "static",
		Dimensions: []string{"cpu", "memory"},
		Services: []model.Service{
			{ID: "small", Demand: model.ResourceVector{1, 1}},
			{ID: "large", Demand: model.ResourceVector{4, 8}},
		},
		Servers: []model.Server{
			{ID: "node-1", Capacity: model.ResourceVector{8, 16}, HourlyCost: 0.192},
		},
	}

	var buf bytes.Buffer
	printInventory(&buf, inv, "demand")
	out := buf.String()

	if strings.Index(out, "large") > strings.Index(out, "small") {
		t.Errorf("expected large before small:\n%s", out)
	}
	for _, want := range []string{"Services: 2 | Servers: 1", "0.1920", "Total demand:   [5 9]"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	// the input order is left alone
	if inv.Services[0].ID != "small" {
		t.Error("printInventory reordered the inventory")
	}
}

func TestSortInstanceTypes(t *testing.T) {
	types := []awspkg.InstanceType{
		{Name: "r6i.large", VCPUs: 2, MemoryMiB: 16384, HourlyPrice: 0.126},
		{Name: "c6i.xlarge", VCPUs: 4, MemoryMiB: 8192, HourlyPrice: 0.17},
		{Name: "m6i.large", VCPUs: 2, MemoryMiB: 8192, HourlyPrice: 0.096},
	}

	tests := []struct {
		by   string
		want []string
	}{
		{"", []string{"r6i.large", "c6i.xlarge", "m6i.large"}},
		{"price", []string{"m6i.large", "r6i.large", "c6i.xlarge"}},
		{"vcpu", []string{"r6i.large", "m6i.large", "c6i.xlarge"}},
		{"memory", []string{"c6i.xlarge", "m6i.large", "r6i.large"}},
		{"type", []string{"c6i.xlarge", "m6i.large", "r6i.large"}},
	}

	for _, tt := range tests {
		t.Run(tt.by, func(t *testing.T) {
			sorted := append([]awspkg.InstanceType(nil), types...)
			sortInstanceTypes(sorted, tt.by)
			for i, name := range tt.want {
				if sorted[i].Name != name {
					t.Errorf("position %d = %s, want %s", i, sorted[i].Name, name)
				}
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate(short) = %q", got)
	}
	if got := truncate("a-very-long-service-name", 10); got != "a-very-..." {
		t.Errorf("truncate(long) = %q", got)
	}
}
