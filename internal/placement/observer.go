package placement

import (
	"sync"

	"github.com/guimove/placefit/internal/model"
)

// EventKind identifies a step of a placement run.
type EventKind string

const (
	EventOrderDecided        EventKind = "order-decided"
	EventCandidateEvaluated  EventKind = "candidate-evaluated"
	EventCandidateSkipped    EventKind = "candidate-skipped"
	EventAssignmentCommitted EventKind = "assignment-committed"
	EventServiceUnassigned   EventKind = "service-unassigned"
	EventRunCompleted        EventKind = "run-completed"
)

// Event describes one step of a run. Fields that do not apply to a kind are
// left zero.
type Event struct {
	Kind      EventKind
	ServiceID string
	ServerID  string
	Score     float64
	Demand    model.ResourceVector
	Available model.ResourceVector

	// Number of feasible servers (committed / unassigned events)
	Candidates int

	// Processing order (order-decided) or nil
	Order []string

	// Placed and unassigned totals (run-completed)
	Placed     int
	Unassigned int
}

// Observer receives events from the engine. It must not block for long and
// cannot influence placement decisions.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

// Observe calls f(e).
func (f ObserverFunc) Observe(e Event) { f(e) }

// NopObserver discards events.
type NopObserver struct{}

// Observe does nothing.
func (NopObserver) Observe(Event) {}

// Observers fans an event out to several observers in order.
type Observers []Observer

// Observe forwards e to every observer.
func (os Observers) Observe(e Event) {
	for _, o := range os {
		if o != nil {
			o.Observe(e)
		}
	}
}

// Recorder keeps every event it sees.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Observe appends e.
func (r *Recorder) Observe(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfKind returns the recorded events of one kind.
func (r *Recorder) OfKind(kind EventKind) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}
