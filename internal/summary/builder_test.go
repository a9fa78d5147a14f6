package summary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedDistribution assigns the same probability to every rank.
type fixedDistribution float64

func (p fixedDistribution) ProbabilityOfRank(int) float64 { return float64(p) }

func TestBuildFromDistribution(t *testing.T) {
	const n = 1_000_000
	const p = 0.004

	s, err := NewBuilder().
		Distribution(fixedDistribution(p)).
		Observations(n).
		Rank(10).
		Build()
	require.NoError(t, err)

	// capacity = floor(2N / (p*N))
	assert.Equal(t, int(2*uint64(n)/uint64(p*n)), s.Capacity())
	assert.Equal(t, 500, s.Capacity())
}

func TestBuildFromExplicitEstimate(t *testing.T) {
	s, err := NewBuilder().
		Observations(900).
		Estimate(200).
		Build()
	require.NoError(t, err)
	assert.Equal(t, 9, s.Capacity()) // floor(1800/200)
}

func TestBuildFromPareto(t *testing.T) {
	s, err := NewBuilder().
		Pareto(50, 0.5).
		Observations(200_000_000).
		Rank(10).
		Build()
	require.NoError(t, err)
	assert.Greater(t, s.Capacity(), 0)
}

func TestBuildFailsOnZeroEstimate(t *testing.T) {
	_, err := NewBuilder().Observations(1000).Estimate(0).Build()
	assert.ErrorIs(t, err, ErrInvalidArgument)

	// A vanishing tail probability rounds the derived estimate to zero.
	_, err = NewBuilder().
		Distribution(fixedDistribution(0)).
		Observations(1000).
		Rank(5).
		Build()
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestBuildFailsWithoutEstimateSource(t *testing.T) {
	_, err := NewBuilder().Observations(1000).Rank(5).Build()
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestBuildFailsOnInvalidPareto(t *testing.T) {
	_, err := NewBuilder().Pareto(0, 0.5).Observations(1000).Rank(5).Build()
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
