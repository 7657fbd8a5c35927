package embedding

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opinionmap/opinionmap/internal/domain"
)

func sampleEmbedding() *Embedding {
	return &Embedding{
		ParticipantIDs:    []int{2, 5, 9},
		Coordinates:       [][]float64{{1, -2}, {0.5, 0.5}, {-3, 1}},
		ExplainedVariance: []float64{2.5, 1.0},
	}
}

func TestRescale(t *testing.T) {
	e := sampleEmbedding()
	out, err := Rescale(e, map[int]int{2: 4, 5: 1, 9: 16}, 4)
	require.NoError(t, err)

	assert.Equal(t, []float64{1, -2}, out.Coordinates[0], "voted on everything: factor 1")
	assert.InDelta(t, 1.0, out.Coordinates[1][0], 1e-12)
	assert.InDelta(t, 1.0, out.Coordinates[1][1], 1e-12)
	assert.InDelta(t, -1.5, out.Coordinates[2][0], 1e-12)
	assert.InDelta(t, 0.5, out.Coordinates[2][1], 1e-12)
	assert.Equal(t, e.ExplainedVariance, out.ExplainedVariance)

	// Input untouched.
	assert.Equal(t, sampleEmbedding(), e)
}

func TestRescale_ZeroCount(t *testing.T) {
	_, err := Rescale(sampleEmbedding(), map[int]int{2: 4, 5: 0, 9: 1}, 4)
	require.ErrorIs(t, err, ErrZeroVoteCount)
	assert.ErrorIs(t, err, domain.ErrDivideByZero)
	assert.Contains(t, err.Error(), "participant 5")

	_, err = Rescale(sampleEmbedding(), map[int]int{2: 4, 5: 1}, 4)
	require.ErrorIs(t, err, ErrZeroVoteCount)
	assert.Contains(t, err.Error(), "participant 9")
}

func TestScaleFactor(t *testing.T) {
	assert.Equal(t, 1.0, ScaleFactor(30, 30))
	assert.InDelta(t, math.Sqrt(3), ScaleFactor(30, 10), 1e-12)
}
