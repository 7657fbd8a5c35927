package statement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opinionmap/opinionmap/internal/domain"
)

func fixtureStatements() []Statement {
	return []Statement{
		{ID: 4, Moderation: Approved},
		{ID: 0, Moderation: Approved},
		{ID: 1, Moderation: Unmoderated},
		{ID: 2, Moderation: Rejected},
		{ID: 3, Moderation: Unmoderated, IsMeta: true},
		{ID: 5, Moderation: Rejected, IsMeta: true},
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeUnset, false},
		{"strict", ModeStrict, false},
		{"lenient", ModeLenient, false},
		{"STRICT", ModeUnset, true},
		{"loose", ModeUnset, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownMode)
				assert.ErrorIs(t, err, domain.ErrConfiguration)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestActiveIDs(t *testing.T) {
	t.Run("strict keeps approved only", func(t *testing.T) {
		ids, err := ActiveIDs(fixtureStatements(), ModeStrict)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 4}, ids)
	})

	t.Run("lenient keeps approved and unmoderated", func(t *testing.T) {
		ids, err := ActiveIDs(fixtureStatements(), ModeLenient)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1, 3, 4}, ids)
	})

	t.Run("unset mode refuses", func(t *testing.T) {
		_, err := ActiveIDs(fixtureStatements(), ModeUnset)
		require.ErrorIs(t, err, ErrModerationModeUnset)
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})

	t.Run("unknown mode refuses", func(t *testing.T) {
		_, err := ActiveIDs(fixtureStatements(), Mode("everything"))
		require.ErrorIs(t, err, ErrUnknownMode)
	})

	t.Run("empty metadata", func(t *testing.T) {
		ids, err := ActiveIDs(nil, ModeStrict)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})
}

func TestStatement_Validate(t *testing.T) {
	require.NoError(t, Statement{ID: 1, Moderation: Unmoderated}.Validate())
	assert.ErrorIs(t, Statement{ID: 1, Moderation: ModerationState(2)}.Validate(), ErrUnknownModeration)
	assert.ErrorIs(t, Statement{ID: -1}.Validate(), domain.ErrConfiguration)
}

func TestRule(t *testing.T) {
	t.Run("empty expression is nil rule", func(t *testing.T) {
		r, err := NewRule("   ")
		require.NoError(t, err)
		assert.Nil(t, r)
		ok, err := r.Match(Statement{ID: 1})
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("excludes meta statements", func(t *testing.T) {
		r, err := NewRule("!is_meta")
		require.NoError(t, err)
		assert.Equal(t, "!is_meta", r.String())

		ids, err := Select(fixtureStatements(), ModeLenient, r)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1, 4}, ids)
	})

	t.Run("numeric parameters", func(t *testing.T) {
		r, err := NewRule("tid < 4 && mod >= 0")
		require.NoError(t, err)
		ids, err := Select(fixtureStatements(), ModeLenient, r)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1, 3}, ids)
	})

	t.Run("parse failure", func(t *testing.T) {
		_, err := NewRule("tid <")
		require.ErrorIs(t, err, ErrInvalidRule)
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})

	t.Run("non boolean result", func(t *testing.T) {
		r, err := NewRule("tid + 1")
		require.NoError(t, err)
		_, err = Select(fixtureStatements(), ModeStrict, r)
		require.ErrorIs(t, err, ErrInvalidRule)
	})

	t.Run("mode still required", func(t *testing.T) {
		r, err := NewRule("!is_meta")
		require.NoError(t, err)
		_, err = Select(fixtureStatements(), ModeUnset, r)
		require.ErrorIs(t, err, ErrModerationModeUnset)
	})
}

func TestComputeBookkeeping(t *testing.T) {
	b := ComputeBookkeeping(fixtureStatements())
	assert.Equal(t, []int{0, 3, 4, 5}, b.ModIn)
	assert.Equal(t, []int{2, 3, 5}, b.ModOut)
	assert.Equal(t, []int{3, 5}, b.Meta)

	empty := ComputeBookkeeping(nil)
	assert.NotNil(t, empty.ModIn)
	assert.Empty(t, empty.ModIn)
}
