package embedding

import (
	"fmt"
	"math"
)

// Rescale multiplies participant i's coordinates by sqrt(numStatements / c_i),
// where c_i is counts[pid]. Mean imputation pulls sparse voters towards the
// origin; the factor pushes them back out. A participant who voted on every
// statement keeps a factor of 1.
//
// A missing or non-positive count fails with ErrZeroVoteCount.
func Rescale(e *Embedding, counts map[int]int, numStatements int) (*Embedding, error) {
	out := e.Clone()
	for i, pid := range out.ParticipantIDs {
		c := counts[pid]
		if c <= 0 {
			return nil, fmt.Errorf("%w: participant %d", ErrZeroVoteCount, pid)
		}
		factor := ScaleFactor(numStatements, c)
		for k := range out.Coordinates[i] {
			out.Coordinates[i][k] *= factor
		}
	}
	return out, nil
}

// ScaleFactor returns sqrt(numStatements / voteCount).
func ScaleFactor(numStatements, voteCount int) float64 {
	return math.Sqrt(float64(numStatements) / float64(voteCount))
}
