package summary

import "fmt"

// Builder plans the capacity of a Summary from an expected workload.
//
// Space-Saving guarantees per-element error of at most N/capacity for N
// recorded observations. Sizing capacity so that the expected count at the
// target rank is at least N/capacity, with a 2x safety margin, keeps that
// rank inside the low-error region with high confidence. The estimate
// comes either from a Distribution or from an explicit observation count
// for the target rank.
type Builder struct {
	dist         Distribution
	observations uint64
	rank         int
	estimate     uint64
	hasEstimate  bool
	err          error
}

// NewBuilder creates an empty capacity planner.
func NewBuilder() *Builder {
	return &Builder{}
}

// Distribution sets the rank/frequency distribution of the planned workload.
func (b *Builder) Distribution(d Distribution) *Builder {
	b.dist = d
	return b
}

// Pareto is shorthand for Distribution with a Pareto workload model.
func (b *Builder) Pareto(scale, shape float64) *Builder {
	d, err := NewPareto(scale, shape)
	if err != nil {
		b.err = err
		return b
	}
	return b.Distribution(d)
}

// Observations sets the total number of observations planned for.
func (b *Builder) Observations(n uint64) *Builder {
	b.observations = n
	return b
}

// Rank sets the lowest rank that must stay inside the low-error region.
func (b *Builder) Rank(k int) *Builder {
	b.rank = k
	b.hasEstimate = false
	return b
}

// Estimate sets an explicit expected observation count for the target
// rank, bypassing the distribution.
func (b *Builder) Estimate(n uint64) *Builder {
	b.estimate = n
	b.hasEstimate = true
	return b
}

// Build computes the required capacity and constructs the summary.
func (b *Builder) Build() (*Summary, error) {
	if b.err != nil {
		return nil, b.err
	}
	var estimate uint64
	switch {
	case b.hasEstimate:
		estimate = b.estimate
	case b.dist != nil:
		estimate = uint64(b.dist.ProbabilityOfRank(b.rank) * float64(b.observations))
	default:
		return nil, fmt.Errorf("%w: missing either a rank observation estimate or a distribution", ErrInvalidArgument)
	}
	if estimate == 0 {
		return nil, fmt.Errorf("%w: rank observation estimate is zero", ErrInvalidArgument)
	}
	// The 2x factor and the floor division come straight from the
	// algorithm's error guarantee and are not tunable.
	return New(int(2 * b.observations / estimate))
}
