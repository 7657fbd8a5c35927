package vote

import (
	"fmt"

	"github.com/opinionmap/opinionmap/internal/domain"
)

// Value is the encoded reaction of a participant to a statement.
type Value int

const (
	Disagree Value = -1
	Pass     Value = 0
	Agree    Value = 1
)

// ErrInvalidVote is returned for records whose value or ids fall outside the
// accepted domain.
var ErrInvalidVote = fmt.Errorf("%w: vote record rejected", domain.ErrInvalidVote)

// Valid reports whether v is one of Disagree, Pass or Agree.
func (v Value) Valid() bool {
	return v == Disagree || v == Pass || v == Agree
}

func (v Value) String() string {
	switch v {
	case Disagree:
		return "disagree"
	case Pass:
		return "pass"
	case Agree:
		return "agree"
	default:
		return fmt.Sprintf("Value(%d)", int(v))
	}
}

// Vote is a single immutable vote event.
type Vote struct {
	ParticipantID int   `json:"pid"`
	StatementID   int   `json:"tid"`
	Value         Value `json:"vote"`
	// Modified is the event time in unix milliseconds.
	Modified int64 `json:"modified"`
}

// Validate checks the record against the accepted domain.
func (v Vote) Validate() error {
	if !v.Value.Valid() {
		return fmt.Errorf("%w: value %d for participant %d on statement %d", ErrInvalidVote, int(v.Value), v.ParticipantID, v.StatementID)
	}
	if v.ParticipantID < 0 {
		return fmt.Errorf("%w: negative participant id %d", ErrInvalidVote, v.ParticipantID)
	}
	if v.StatementID < 0 {
		return fmt.Errorf("%w: negative statement id %d", ErrInvalidVote, v.StatementID)
	}
	return nil
}

// ValidateAll validates a batch and returns the first failure with its position.
func ValidateAll(votes []Vote) error {
	for i, v := range votes {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("vote %d: %w", i, err)
		}
	}
	return nil
}
