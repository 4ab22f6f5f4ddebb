package model

import (
	"encoding/json"
	"time"
)

// AssignmentStatus is the outcome for one service.
type AssignmentStatus string

const (
	StatusPlaced     AssignmentStatus = "placed"
	StatusUnassigned AssignmentStatus = "unassigned"
)

// Assignment records where a service went. ServerID is empty when Status is
// StatusUnassigned.
type Assignment struct {
	ServiceID string           `json:"service"`
	ServerID  string           `json:"server,omitempty"`
	Score     float64          `json:"score"`
	Status    AssignmentStatus `json:"status"`
}

// IsPlaced reports whether the service received a server.
func (a Assignment) IsPlaced() bool { return a.Status == StatusPlaced }

// PlacementResult maps every processed service to exactly one outcome.
// It is read-only once built.
type PlacementResult struct {
	assignments []Assignment
	index       map[string]int
}

// NewPlacementResult builds a result from assignments in processing order.
// The slice is copied.
func NewPlacementResult(assignments []Assignment) PlacementResult {
	r := PlacementResult{
		assignments: make([]Assignment, len(assignments)),
		index:       make(map[string]int, len(assignments)),
	}
	copy(r.assignments, assignments)
	for i, a := range r.assignments {
		r.index[a.ServiceID] = i
	}
	return r
}

// Lookup returns the assignment for a service.
func (r PlacementResult) Lookup(serviceID string) (Assignment, bool) {
	i, ok := r.index[serviceID]
	if !ok {
		return Assignment{}, false
	}
	return r.assignments[i], true
}

// Assignments returns a copy of all assignments in processing order.
func (r PlacementResult) Assignments() []Assignment {
	out := make([]Assignment, len(r.assignments))
	copy(out, r.assignments)
	return out
}

// Placed returns the assignments that received a server.
func (r PlacementResult) Placed() []Assignment {
	return r.filter(StatusPlaced)
}

// Unassigned returns the assignments that did not.
func (r PlacementResult) Unassigned() []Assignment {
	return r.filter(StatusUnassigned)
}

// Len returns the number of services in the result.
func (r PlacementResult) Len() int { return len(r.assignments) }

func (r PlacementResult) filter(status AssignmentStatus) []Assignment {
	var out []Assignment
	for _, a := range r.assignments {
		if a.Status == status {
			out = append(out, a)
		}
	}
	return out
}

// MarshalJSON encodes the result as an ordered list of assignments.
func (r PlacementResult) MarshalJSON() ([]byte, error) {
	if r.assignments == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r.assignments)
}

// UnmarshalJSON decodes an ordered list of assignments.
func (r *PlacementResult) UnmarshalJSON(data []byte) error {
	var assignments []Assignment
	if err := json.Unmarshal(data, &assignments); err != nil {
		return err
	}
	*r = NewPlacementResult(assignments)
	return nil
}

// FragmentationReport details capacity left stranded after a run.
type FragmentationReport struct {
	// Servers that received at least one service
	ServersUsed int `json:"servers_used"`

	// Mean utilization per dimension across used servers (0.0 - 1.0)
	AvgUtilization []float64 `json:"avg_utilization"`

	// Free capacity per dimension on servers where another dimension is nearly exhausted
	Stranded ResourceVector `json:"stranded"`

	// Fraction of used servers below 50% utilization on some dimension
	UnderutilizedServerFraction float64 `json:"underutilized_server_fraction"`

	// 1.0 = every used server consumes its dimensions evenly
	ResourceBalanceScore float64 `json:"resource_balance_score"`

	// Cost of the servers in use, when prices are known
	MonthlyCost float64 `json:"monthly_cost,omitempty"`
}

// RunReport is everything a placement run produces.
type RunReport struct {
	// Scorer that ranked candidates, e.g. "cosine"
	Scorer string `json:"scorer"`

	// Service IDs in the order they were processed
	Order []string `json:"order"`

	Result PlacementResult `json:"result"`

	// Final state of every server, in canonical order
	Servers []ServerState `json:"servers"`

	Fragmentation FragmentationReport `json:"fragmentation"`

	Duration time.Duration `json:"duration"`
}

// PlacedCount returns how many services received a server.
func (r RunReport) PlacedCount() int { return len(r.Result.Placed()) }

// UnassignedCount returns how many services did not.
func (r RunReport) UnassignedCount() int { return len(r.Result.Unassigned()) }

// ScenarioResult is one what-if scenario's outcome, ranked against the others.
type ScenarioResult struct {
	Rank   int       `json:"rank"`
	Name   string    `json:"name"`
	Report RunReport `json:"report"`

	// Fraction of services placed (0.0 - 1.0)
	PlacedFraction float64 `json:"placed_fraction"`

	Warnings []string `json:"warnings,omitempty"`
}
