package matrix

import (
	"fmt"

	"github.com/opinionmap/opinionmap/internal/domain/vote"
)

// Build pivots a vote log into a VoteMatrix.
//
// Rows cover participant ids 0..max and columns statement ids 0..max, so ids
// that never voted or were never voted on appear as all-absent rows and
// columns. When a participant voted on the same statement more than once, the
// last record in log order wins. An empty log yields a 0×0 matrix.
// Votes are expected to have passed vote.Validate. Build does not bound the
// allocation; logs from untrusted input go through BuildBounded.
func Build(votes []vote.Vote) *VoteMatrix {
	maxPID, maxTID := maxIDs(votes)
	return fill(votes, maxPID+1, maxTID+1)
}

// BuildBounded is Build with a ceiling on rows × cols. A log whose dense form
// would exceed maxCells fails with ErrTooLarge before anything is allocated.
func BuildBounded(votes []vote.Vote, maxCells int) (*VoteMatrix, error) {
	maxPID, maxTID := maxIDs(votes)
	if maxPID < 0 || maxTID < 0 {
		return fill(votes, 0, 0), nil
	}
	if maxPID >= maxCells || maxTID >= maxCells || maxPID+1 > maxCells/(maxTID+1) {
		return nil, fmt.Errorf("%w: %d participants × %d statements, limit %d cells", ErrTooLarge, uint(maxPID)+1, uint(maxTID)+1, maxCells)
	}
	return fill(votes, maxPID+1, maxTID+1), nil
}

func maxIDs(votes []vote.Vote) (int, int) {
	maxPID, maxTID := -1, -1
	for _, v := range votes {
		if v.ParticipantID > maxPID {
			maxPID = v.ParticipantID
		}
		if v.StatementID > maxTID {
			maxTID = v.StatementID
		}
	}
	return maxPID, maxTID
}

func fill(votes []vote.Vote, rows, cols int) *VoteMatrix {
	m := newVoteMatrix(sequence(rows), sequence(cols))
	for _, v := range votes {
		m.set(v.ParticipantID, v.StatementID, float64(v.Value))
	}
	return m
}

func sequence(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
