package placement

import (
	"errors"
	"fmt"
	"math"

	"github.com/guimove/placefit/internal/model"
)

// ErrInvalidScore is returned when a scorer produces NaN, an infinity, or a
// value outside [0, 1].
var ErrInvalidScore = errors.New("score outside [0, 1]")

// Scorer rates how well a server's free capacity suits a demand.
type Scorer interface {
	// Score returns a value in [0, 1]; higher is a better fit.
	Score(demand, available model.ResourceVector) (float64, error)

	// Name returns the scorer name.
	Name() string
}

// CosineScorer scores by the cosine of the angle between the demand and the
// available capacity. It measures how closely the shape of the free capacity
// matches the shape of the request, not how much headroom is left.
type CosineScorer struct{}

// Name returns "cosine".
func (CosineScorer) Name() string { return "cosine" }

// Score returns dot(demand, available) / (|demand| * |available|), or 0 when
// either vector has zero magnitude. Both vectors are divided by their largest
// component first so that huge or tiny capacities neither overflow nor
// underflow the norms.
func (CosineScorer) Score(demand, available model.ResourceVector) (float64, error) {
	if demand.Len() != available.Len() {
		return 0, fmt.Errorf("%w: %d vs %d", model.ErrInvalidDimension, demand.Len(), available.Len())
	}

	maxD := maxComponent(demand)
	maxA := maxComponent(available)
	if maxD == 0 || maxA == 0 {
		return 0, nil
	}

	var dot, sqD, sqA float64
	for i := range demand {
		d := demand[i] / maxD
		a := available[i] / maxA
		dot += d * a
		sqD += d * d
		sqA += a * a
	}

	score := dot / (math.Sqrt(sqD) * math.Sqrt(sqA))
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0, fmt.Errorf("%w: cosine of %v and %v is %v", ErrInvalidScore, demand, available, score)
	}
	// Rounding can push parallel vectors a hair above 1.
	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return score, nil
}

// maxComponent returns the largest absolute component, or 0 for a zero vector.
func maxComponent(v model.ResourceVector) float64 {
	var m float64
	for _, x := range v {
		if ax := math.Abs(x); ax > m {
			m = ax
		}
	}
	return m
}
