package placement

import (
	"math"
	"testing"

	"github.com/guimove/placefit/internal/model"
)

func makeState(id string, capacity, remaining model.ResourceVector, services ...string) model.ServerState {
	return model.ServerState{ID: id, Capacity: capacity, Remaining: remaining, Services: services}
}

func TestFragmentation_PerfectBalance(t *testing.T) {
	servers := []model.ServerState{
		makeState("a", model.ResourceVector{4, 16}, model.ResourceVector{0.8, 3.2}, "s1"),
		makeState("b", model.ResourceVector{4, 16}, model.ResourceVector{0.8, 3.2}, "s2"),
	}

	report := AnalyzeFragmentation(servers)

	// 80% on both dimensions
	if report.ResourceBalanceScore < 0.99 {
		t.Errorf("expected high balance score, got %v", report.ResourceBalanceScore)
	}
	for d, s := range report.Stranded {
		if s != 0 {
			t.Errorf("expected nothing stranded on dimension %d, got %v", d, s)
		}
	}
	if report.ServersUsed != 2 {
		t.Errorf("ServersUsed = %d, want 2", report.ServersUsed)
	}
	if report.UnderutilizedServerFraction != 0 {
		t.Errorf("UnderutilizedServerFraction = %v, want 0", report.UnderutilizedServerFraction)
	}
}

func TestFragmentation_StrandedCapacity(t *testing.T) {
	// 95% cpu, 25% memory: the free memory cannot be used
	servers := []model.ServerState{
		makeState("a", model.ResourceVector{4, 16}, model.ResourceVector{0.2, 12}, "s1"),
	}

	report := AnalyzeFragmentation(servers)

	if report.Stranded[1] != 12 {
		t.Errorf("stranded memory = %v, want 12", report.Stranded[1])
	}
	if report.Stranded[0] != 0 {
		t.Errorf("stranded cpu = %v, want 0", report.Stranded[0])
	}
	if math.Abs(report.ResourceBalanceScore-0.3) > 1e-9 {
		t.Errorf("balance = %v, want 0.3", report.ResourceBalanceScore)
	}
	if report.UnderutilizedServerFraction != 1 {
		t.Errorf("UnderutilizedServerFraction = %v, want 1", report.UnderutilizedServerFraction)
	}
}

func TestFragmentation_IgnoresUnusedServers(t *testing.T) {
	servers := []model.ServerState{
		makeState("used", model.ResourceVector{10, 10}, model.ResourceVector{5, 5}, "s1"),
		makeState("idle", model.ResourceVector{10, 10}, model.ResourceVector{10, 10}),
	}
	servers[0].HourlyCost = 0.1
	servers[1].HourlyCost = 5

	report := AnalyzeFragmentation(servers)

	if report.ServersUsed != 1 {
		t.Errorf("ServersUsed = %d, want 1", report.ServersUsed)
	}
	if report.AvgUtilization[0] != 0.5 || report.AvgUtilization[1] != 0.5 {
		t.Errorf("AvgUtilization = %v, want [0.5 0.5]", report.AvgUtilization)
	}
	if math.Abs(report.MonthlyCost-73) > 1e-9 {
		t.Errorf("MonthlyCost = %v, want 73", report.MonthlyCost)
	}
}

func TestFragmentation_Empty(t *testing.T) {
	report := AnalyzeFragmentation(nil)
	if report.ServersUsed != 0 {
		t.Errorf("expected 0 servers used, got %d", report.ServersUsed)
	}
	if report.ResourceBalanceScore != 1.0 {
		t.Errorf("empty placement should have balance 1.0, got %v", report.ResourceBalanceScore)
	}
}

func TestFragmentation_ExampleScenario(t *testing.T) {
	services, servers := exampleInventory()
	report, err := NewEngine().Place(t.Context(), services, servers)
	if err != nil {
		t.Fatal(err)
	}

	// X: 8/8 cpu, 6/8 mem. Z: 4/4 cpu, 8/16 mem. Y unused.
	frag := report.Fragmentation
	if frag.ServersUsed != 2 {
		t.Fatalf("ServersUsed = %d, want 2", frag.ServersUsed)
	}
	if math.Abs(frag.AvgUtilization[0]-1.0) > 1e-9 {
		t.Errorf("avg cpu = %v, want 1.0", frag.AvgUtilization[0])
	}
	if math.Abs(frag.AvgUtilization[1]-0.625) > 1e-9 {
		t.Errorf("avg memory = %v, want 0.625", frag.AvgUtilization[1])
	}
	if math.Abs(frag.ResourceBalanceScore-0.625) > 1e-9 {
		t.Errorf("balance = %v, want 0.625", frag.ResourceBalanceScore)
	}
}
