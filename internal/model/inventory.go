package model

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
)

var (
	ErrDuplicateID = errors.New("duplicate identifier")
	ErrEmptyID     = errors.New("empty identifier")
)

// DefaultDimensions are the resource dimensions used when none are configured.
var DefaultDimensions = []string{"cpu", "memory"}

// Inventory is the input to a placement run: the services to place and the
// servers to place them on, both in a stable, caller-defined order.
type Inventory struct {
	// When the inventory was collected (zero for hand-written files)
	CollectedAt time.Time `json:"collected_at,omitzero"`

	// Where it came from: "static", "kubernetes", "prometheus", "ec2"
	Source string `json:"source,omitempty"`

	// Names of the vector dimensions, e.g. ["cpu", "memory"]
	Dimensions []string `json:"dimensions"`

	Services []Service `json:"services"`
	Servers  []Server  `json:"servers"`
}

// Validate reports every structural problem in the inventory at once.
func (inv Inventory) Validate() error {
	var err error
	dims := len(inv.Dimensions)
	if dims == 0 {
		err = multierr.Append(err, fmt.Errorf("%w: no dimensions declared", ErrInvalidDimension))
	}

	seen := make(map[string]bool, len(inv.Services))
	for i, s := range inv.Services {
		if s.ID == "" {
			err = multierr.Append(err, fmt.Errorf("service #%d: %w", i, ErrEmptyID))
		} else if seen[s.ID] {
			err = multierr.Append(err, fmt.Errorf("service %q: %w", s.ID, ErrDuplicateID))
		}
		seen[s.ID] = true
		if dims > 0 && s.Demand.Len() != dims {
			err = multierr.Append(err, fmt.Errorf("service %q: %w: demand has %d dimensions, want %d",
				s.ID, ErrInvalidDimension, s.Demand.Len(), dims))
		}
		if vErr := s.Demand.Validate(); vErr != nil {
			err = multierr.Append(err, fmt.Errorf("service %q: %w", s.ID, vErr))
		}
	}

	seen = make(map[string]bool, len(inv.Servers))
	for i, s := range inv.Servers {
		if s.ID == "" {
			err = multierr.Append(err, fmt.Errorf("server #%d: %w", i, ErrEmptyID))
		} else if seen[s.ID] {
			err = multierr.Append(err, fmt.Errorf("server %q: %w", s.ID, ErrDuplicateID))
		}
		seen[s.ID] = true
		if dims > 0 && s.Capacity.Len() != dims {
			err = multierr.Append(err, fmt.Errorf("server %q: %w: capacity has %d dimensions, want %d",
				s.ID, ErrInvalidDimension, s.Capacity.Len(), dims))
		}
		if vErr := s.Capacity.Validate(); vErr != nil {
			err = multierr.Append(err, fmt.Errorf("server %q: %w", s.ID, vErr))
		}
	}

	return err
}

// TotalDemand returns the element-wise sum of all service demands.
func (inv Inventory) TotalDemand() ResourceVector {
	total := make(ResourceVector, len(inv.Dimensions))
	for _, s := range inv.Services {
		for i := range total {
			if i < len(s.Demand) {
				total[i] += s.Demand[i]
			}
		}
	}
	return total
}

// TotalCapacity returns the element-wise sum of all server capacities.
func (inv Inventory) TotalCapacity() ResourceVector {
	total := make(ResourceVector, len(inv.Dimensions))
	for _, s := range inv.Servers {
		for i := range total {
			if i < len(s.Capacity) {
				total[i] += s.Capacity[i]
			}
		}
	}
	return total
}

// ServiceCount returns the number of services.
func (inv Inventory) ServiceCount() int {
	return len(inv.Services)
}
