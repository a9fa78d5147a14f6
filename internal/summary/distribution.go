package summary

import (
	"fmt"
	"math"
)

// Distribution estimates how probability mass is spread over frequency
// ranks. It is consulted only during capacity planning, never on the
// record path.
type Distribution interface {
	// ProbabilityOfRank is the probability that a single observation
	// lands on the element of true rank k, where rank 0 is the most
	// frequent element.
	ProbabilityOfRank(k int) float64
}

// Pareto models power-law rank/frequency workloads, approximating the
// Zipf-like tails common in real traffic.
type Pareto struct {
	scale float64
	shape float64
}

// NewPareto creates a Pareto distribution with the given scale and shape,
// both of which must be positive.
func NewPareto(scale, shape float64) (Pareto, error) {
	if scale <= 0 {
		return Pareto{}, fmt.Errorf("%w: pareto scale must be positive, got %v", ErrInvalidArgument, scale)
	}
	if shape <= 0 {
		return Pareto{}, fmt.Errorf("%w: pareto shape must be positive, got %v", ErrInvalidArgument, shape)
	}
	return Pareto{scale: scale, shape: shape}, nil
}

// ProbabilityOfRank returns cdf(scale+k+1) - cdf(scale+k).
func (p Pareto) ProbabilityOfRank(k int) float64 {
	return p.cdf(p.scale+float64(k)+1) - p.cdf(p.scale+float64(k))
}

func (p Pareto) cdf(x float64) float64 {
	return 1 - math.Pow(p.scale/x, p.shape)
}

func (p Pareto) String() string {
	return fmt.Sprintf("Pareto{scale=%v, shape=%v}", p.scale, p.shape)
}
