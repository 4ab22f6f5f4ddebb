package model

// Server is a placement target with a fixed capacity vector.
type Server struct {
	ID       string         `json:"id"`
	Capacity ResourceVector `json:"capacity"`

	// Optional, filled by the EC2 catalog. Only used for cost reporting.
	HourlyCost float64 `json:"hourly_cost,omitempty"`

	Labels map[string]string `json:"labels,omitempty"`
}

// MonthlyCost returns the estimated monthly cost (730 hours/month).
func (s Server) MonthlyCost() float64 {
	return s.HourlyCost * HoursPerMonth
}

// HoursPerMonth is the standard number of hours used for monthly cost estimates.
const HoursPerMonth = 730.0

// ServerState is the post-run view of one server.
type ServerState struct {
	ID         string         `json:"id"`
	Capacity   ResourceVector `json:"capacity"`
	Remaining  ResourceVector `json:"remaining"`
	Services   []string       `json:"services,omitempty"`
	HourlyCost float64        `json:"hourly_cost,omitempty"`
}

// Used returns capacity minus remaining.
func (s ServerState) Used() ResourceVector {
	used := make(ResourceVector, len(s.Capacity))
	for i := range s.Capacity {
		if i < len(s.Remaining) {
			used[i] = s.Capacity[i] - s.Remaining[i]
		}
	}
	return used
}

// Utilization returns the used fraction per dimension. Dimensions with zero
// capacity report 0.
func (s ServerState) Utilization() []float64 {
	used := s.Used()
	util := make([]float64, len(used))
	for i := range used {
		if s.Capacity[i] > 0 {
			util[i] = used[i] / s.Capacity[i]
		}
	}
	return util
}

// InUse reports whether at least one service was committed to the server.
func (s ServerState) InUse() bool {
	return len(s.Services) > 0
}

// Service is a unit of work with a resource demand.
type Service struct {
	ID     string            `json:"id"`
	Demand ResourceVector    `json:"demand"`
	Labels map[string]string `json:"labels,omitempty"`
}
