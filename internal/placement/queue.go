package placement

import (
	"sort"

	"github.com/guimove/placefit/internal/model"
)

// Queue holds services in the order they are placed: largest aggregate
// demand first, input order among equals.
type Queue struct {
	services []model.Service
}

// NewQueue sorts a copy of the services by descending demand sum.
func NewQueue(services []model.Service) *Queue {
	ordered := make([]model.Service, len(services))
	copy(ordered, services)

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Demand.Sum() > ordered[j].Demand.Sum()
	})

	return &Queue{services: ordered}
}

// Services returns the ordered services.
func (q *Queue) Services() []model.Service {
	out := make([]model.Service, len(q.services))
	copy(out, q.services)
	return out
}

// IDs returns the ordered service identifiers.
func (q *Queue) IDs() []string {
	ids := make([]string, len(q.services))
	for i := range q.services {
		ids[i] = q.services[i].ID
	}
	return ids
}

// Len returns the number of queued services.
func (q *Queue) Len() int { return len(q.services) }
