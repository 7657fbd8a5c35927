package vote

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opinionmap/opinionmap/internal/domain"
)

func TestValue_Valid(t *testing.T) {
	tests := []struct {
		value Value
		valid bool
	}{
		{Disagree, true},
		{Pass, true},
		{Agree, true},
		{Value(2), false},
		{Value(-2), false},
	}
	for _, tt := range tests {
		t.Run(tt.value.String(), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.value.Valid())
		})
	}
}

func TestVote_Validate(t *testing.T) {
	t.Run("accepts pass vote", func(t *testing.T) {
		require.NoError(t, Vote{ParticipantID: 1, StatementID: 2, Value: Pass}.Validate())
	})

	t.Run("rejects out of range value", func(t *testing.T) {
		err := Vote{ParticipantID: 1, StatementID: 2, Value: Value(5)}.Validate()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidVote))
		assert.True(t, errors.Is(err, domain.ErrInvalidVote))
		assert.Contains(t, err.Error(), "value 5")
	})

	t.Run("rejects negative ids", func(t *testing.T) {
		assert.ErrorIs(t, Vote{ParticipantID: -1, StatementID: 0, Value: Agree}.Validate(), ErrInvalidVote)
		assert.ErrorIs(t, Vote{ParticipantID: 0, StatementID: -3, Value: Agree}.Validate(), ErrInvalidVote)
	})
}

func TestValidateAll(t *testing.T) {
	votes := []Vote{
		{ParticipantID: 0, StatementID: 0, Value: Agree},
		{ParticipantID: 0, StatementID: 1, Value: Value(9)},
	}
	err := ValidateAll(votes)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidVote)
	assert.Contains(t, err.Error(), "vote 1")

	require.NoError(t, ValidateAll(votes[:1]))
	require.NoError(t, ValidateAll(nil))
}
