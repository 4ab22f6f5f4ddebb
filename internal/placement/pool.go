package placement

import (
	"errors"
	"fmt"

	"github.com/guimove/placefit/internal/model"
)

var (
	ErrInvalidCommit = errors.New("commit against a server that cannot hold the demand")
	ErrUnknownServer = errors.New("unknown server")
)

// serverState tracks the remaining capacity of one server during a run.
type serverState struct {
	server    model.Server
	remaining model.ResourceVector
	services  []string
}

// ServerPool owns the mutable capacity of a set of servers for a single run.
// Servers keep the order they were given in; that order breaks score ties.
// A pool is not safe for concurrent mutation.
type ServerPool struct {
	states []serverState
	index  map[string]int
	dims   int
}

// NewServerPool copies the servers' capacities into fresh remaining vectors.
func NewServerPool(servers []model.Server) (*ServerPool, error) {
	p := &ServerPool{
		states: make([]serverState, len(servers)),
		index:  make(map[string]int, len(servers)),
	}

	for i, s := range servers {
		if _, dup := p.index[s.ID]; dup {
			return nil, fmt.Errorf("server %q: %w", s.ID, model.ErrDuplicateID)
		}
		if i == 0 {
			p.dims = s.Capacity.Len()
		} else if s.Capacity.Len() != p.dims {
			return nil, fmt.Errorf("server %q: %w: capacity has %d dimensions, pool has %d",
				s.ID, model.ErrInvalidDimension, s.Capacity.Len(), p.dims)
		}
		if err := s.Capacity.Validate(); err != nil {
			return nil, fmt.Errorf("server %q: %w", s.ID, err)
		}

		s.Capacity = s.Capacity.Clone()
		p.states[i] = serverState{
			server:    s,
			remaining: s.Capacity.Clone(),
		}
		p.index[s.ID] = i
	}

	return p, nil
}

// Len returns the number of servers.
func (p *ServerPool) Len() int { return len(p.states) }

// Dimensions returns the vector length shared by every server. It is 0 for an
// empty pool.
func (p *ServerPool) Dimensions() int { return p.dims }

// IDs returns every server identifier in pool order.
func (p *ServerPool) IDs() []string {
	ids := make([]string, len(p.states))
	for i := range p.states {
		ids[i] = p.states[i].server.ID
	}
	return ids
}

// Feasible returns, in pool order, the servers whose remaining capacity covers
// the demand in every dimension.
func (p *ServerPool) Feasible(demand model.ResourceVector) ([]string, error) {
	var ids []string
	for i := range p.states {
		ok, err := demand.FitsIn(p.states[i].remaining)
		if err != nil {
			return nil, fmt.Errorf("server %q: %w", p.states[i].server.ID, err)
		}
		if ok {
			ids = append(ids, p.states[i].server.ID)
		}
	}
	return ids, nil
}

// Available returns a copy of a server's remaining capacity.
func (p *ServerPool) Available(serverID string) (model.ResourceVector, error) {
	i, ok := p.index[serverID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownServer, serverID)
	}
	return p.states[i].remaining.Clone(), nil
}

// Commit subtracts demand from a server's remaining capacity on behalf of a
// service. The server must be feasible for the demand; anything else is an
// ErrInvalidCommit and leaves the pool untouched.
func (p *ServerPool) Commit(serverID, serviceID string, demand model.ResourceVector) error {
	i, ok := p.index[serverID]
	if !ok {
		return fmt.Errorf("%w: %w: %q", ErrInvalidCommit, ErrUnknownServer, serverID)
	}

	st := &p.states[i]
	next, err := st.remaining.Sub(demand)
	if err != nil {
		return fmt.Errorf("%w: server %q, service %q: %w", ErrInvalidCommit, serverID, serviceID, err)
	}

	st.remaining = next
	st.services = append(st.services, serviceID)
	return nil
}

// States returns a snapshot of every server in pool order.
func (p *ServerPool) States() []model.ServerState {
	out := make([]model.ServerState, len(p.states))
	for i := range p.states {
		st := &p.states[i]
		out[i] = model.ServerState{
			ID:         st.server.ID,
			Capacity:   st.server.Capacity.Clone(),
			Remaining:  st.remaining.Clone(),
			HourlyCost: st.server.HourlyCost,
		}
		if len(st.services) > 0 {
			out[i].Services = append([]string(nil), st.services...)
		}
	}
	return out
}
