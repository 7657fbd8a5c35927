package vote

import "fmt"

// Limits bounds the ids a conversation accepts. The vote matrix is dense over
// [0, max pid] × [0, max tid], so ids drive its size directly.
type Limits struct {
	MaxParticipantID int
	MaxStatementID   int
	// MaxCells bounds (max pid + 1) × (max tid + 1) over the whole log.
	MaxCells int
}

// DefaultLimits allows a million participants, a hundred thousand statements
// and a matrix of 1<<26 cells.
var DefaultLimits = Limits{
	MaxParticipantID: 1_000_000,
	MaxStatementID:   100_000,
	MaxCells:         1 << 26,
}

// Validate checks that every bound is positive.
func (l Limits) Validate() error {
	if l.MaxParticipantID < 1 || l.MaxStatementID < 1 || l.MaxCells < 1 {
		return fmt.Errorf("vote limits must be positive, got %+v", l)
	}
	return nil
}

// Admit validates a batch that would extend a log whose largest ids so far
// are maxPID and maxTID (-1 for an empty log). The first failure is returned
// with its position, wrapping ErrInvalidVote.
func (l Limits) Admit(votes []Vote, maxPID, maxTID int) error {
	for i, v := range votes {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("vote %d: %w", i, err)
		}
		if v.ParticipantID > l.MaxParticipantID {
			return fmt.Errorf("vote %d: %w: participant id %d above limit %d", i, ErrInvalidVote, v.ParticipantID, l.MaxParticipantID)
		}
		if v.StatementID > l.MaxStatementID {
			return fmt.Errorf("vote %d: %w: statement id %d above limit %d", i, ErrInvalidVote, v.StatementID, l.MaxStatementID)
		}
		maxPID = max(maxPID, v.ParticipantID)
		maxTID = max(maxTID, v.StatementID)
	}
	if maxPID < 0 || maxTID < 0 {
		return nil
	}
	rows, cols := maxPID+1, maxTID+1
	if maxPID >= l.MaxCells || maxTID >= l.MaxCells || rows > l.MaxCells/cols {
		return fmt.Errorf("%w: %d participants × %d statements exceeds %d matrix cells", ErrInvalidVote, rows, cols, l.MaxCells)
	}
	return nil
}
