package model

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidDimension  = errors.New("resource vector dimension mismatch")
	ErrNegativeComponent = errors.New("resource vector component is negative")
)

// ResourceVector is an ordered tuple of non-negative resource magnitudes,
// e.g. [cpu cores, memory GiB]. Every vector compared within a run has the
// same length.
type ResourceVector []float64

// Len returns the number of dimensions.
func (v ResourceVector) Len() int { return len(v) }

// Clone returns a copy that shares no storage with v.
func (v ResourceVector) Clone() ResourceVector {
	if v == nil {
		return nil
	}
	out := make(ResourceVector, len(v))
	copy(out, v)
	return out
}

// Validate returns ErrNegativeComponent if any component is negative, NaN or infinite.
func (v ResourceVector) Validate() error {
	for i, x := range v {
		if x < 0 || math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("%w: index %d is %v", ErrNegativeComponent, i, x)
		}
	}
	return nil
}

// Add returns the element-wise sum of two vectors.
func (v ResourceVector) Add(other ResourceVector) (ResourceVector, error) {
	if err := sameLen(v, other); err != nil {
		return nil, err
	}
	out := make(ResourceVector, len(v))
	for i := range v {
		out[i] = v[i] + other[i]
	}
	return out, nil
}

// Sub returns v - other. The result is rejected, not clamped, when any
// component would drop below zero.
func (v ResourceVector) Sub(other ResourceVector) (ResourceVector, error) {
	if err := sameLen(v, other); err != nil {
		return nil, err
	}
	out := make(ResourceVector, len(v))
	for i := range v {
		d := v[i] - other[i]
		if d < 0 {
			return nil, fmt.Errorf("%w: index %d would be %v", ErrNegativeComponent, i, d)
		}
		out[i] = d
	}
	return out, nil
}

// Dot returns the sum of element-wise products.
func (v ResourceVector) Dot(other ResourceVector) (float64, error) {
	if err := sameLen(v, other); err != nil {
		return 0, err
	}
	var sum float64
	for i := range v {
		sum += v[i] * other[i]
	}
	return sum, nil
}

// Magnitude returns the Euclidean norm.
func (v ResourceVector) Magnitude() float64 {
	var sq float64
	for _, x := range v {
		sq += x * x
	}
	return math.Sqrt(sq)
}

// Sum returns the scalar sum of all components (aggregate demand).
func (v ResourceVector) Sum() float64 {
	var total float64
	for _, x := range v {
		total += x
	}
	return total
}

// FitsIn reports whether every component of v is within the matching
// component of capacity.
func (v ResourceVector) FitsIn(capacity ResourceVector) (bool, error) {
	if err := sameLen(v, capacity); err != nil {
		return false, err
	}
	for i := range v {
		if v[i] > capacity[i] {
			return false, nil
		}
	}
	return true, nil
}

// IsZero returns true if every component is zero.
func (v ResourceVector) IsZero() bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

func sameLen(a, b ResourceVector) error {
	if len(a) != len(b) {
		return fmt.Errorf("%w: %d vs %d", ErrInvalidDimension, len(a), len(b))
	}
	return nil
}
