package polisfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opinionmap/opinionmap/internal/domain"
	"github.com/opinionmap/opinionmap/internal/domain/statement"
	"github.com/opinionmap/opinionmap/internal/domain/vote"
)

const votesJSON = `[
	{"pid": 0, "tid": 1, "vote": 1, "modified": 1700000000123456789, "conversation_id": "abc"},
	{"pid": 1, "tid": 0, "vote": -1, "modified": 1.7000000005e18},
	{"pid": 1, "tid": 1, "vote": 0, "modified": 1700000001000000000}
]`

const commentsJSON = `[
	{"tid": 0, "mod": 1, "is_meta": false, "txt": "More parks", "created": 1},
	{"tid": 1, "mod": -1, "is_meta": true, "txt": "Where do you live?"}
]`

const mathJSON = `{
	"n": 2,
	"group-clusters": [{"id": 0, "center": [1.0, 2.0], "members": [0]}],
	"base-clusters": {"x": [5.0], "y": [7.0]},
	"in-conv": [1, 0],
	"user-vote-counts": {"0": 1, "1": 2},
	"lastVoteTimestamp": 1700000001000
}`

func writeExport(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}
	return dir
}

func TestReadVotes(t *testing.T) {
	votes, err := ReadVotes(strings.NewReader(votesJSON), vote.DefaultLimits)
	require.NoError(t, err)
	assert.Equal(t, []vote.Vote{
		{ParticipantID: 0, StatementID: 1, Value: vote.Agree, Modified: 1700000000123},
		{ParticipantID: 1, StatementID: 0, Value: vote.Disagree, Modified: 1700000000500},
		{ParticipantID: 1, StatementID: 1, Value: vote.Pass, Modified: 1700000001000},
	}, votes)
}

func TestReadVotes_Invalid(t *testing.T) {
	_, err := ReadVotes(strings.NewReader(`[{"pid": 0, "tid": 0, "vote": 3, "modified": 0}]`), vote.DefaultLimits)
	assert.ErrorIs(t, err, domain.ErrInvalidVote)

	_, err = ReadVotes(strings.NewReader(`{"pid": 0}`), vote.DefaultLimits)
	assert.Error(t, err)
}

func TestReadVotes_Limits(t *testing.T) {
	limits := vote.Limits{MaxParticipantID: 10, MaxStatementID: 10, MaxCells: 20}

	_, err := ReadVotes(strings.NewReader(`[{"pid": 4294967295, "tid": 0, "vote": 1, "modified": 0}]`), limits)
	assert.ErrorIs(t, err, domain.ErrInvalidVote)
	assert.Contains(t, err.Error(), "participant id 4294967295")

	_, err = ReadVotes(strings.NewReader(`[{"pid": 0, "tid": 11, "vote": 1, "modified": 0}]`), limits)
	assert.ErrorIs(t, err, domain.ErrInvalidVote)

	// 5 participants × 5 statements.
	_, err = ReadVotes(strings.NewReader(`[
		{"pid": 4, "tid": 0, "vote": 1, "modified": 0},
		{"pid": 0, "tid": 4, "vote": 1, "modified": 0}
	]`), limits)
	assert.ErrorIs(t, err, domain.ErrInvalidVote)

	votes, err := ReadVotes(strings.NewReader(votesJSON), limits)
	require.NoError(t, err)
	assert.Len(t, votes, 3)
}

func TestReadStatements(t *testing.T) {
	statements, err := ReadStatements(strings.NewReader(commentsJSON))
	require.NoError(t, err)
	assert.Equal(t, []statement.Statement{
		{ID: 0, Moderation: statement.Approved, Text: "More parks"},
		{ID: 1, Moderation: statement.Rejected, IsMeta: true, Text: "Where do you live?"},
	}, statements)

	_, err = ReadStatements(strings.NewReader(`[{"tid": 0, "mod": 4}]`))
	assert.ErrorIs(t, err, statement.ErrUnknownModeration)
}

func TestLoadDir(t *testing.T) {
	dir := writeExport(t, map[string]string{
		VotesFile:    votesJSON,
		CommentsFile: commentsJSON,
		MathFile:     mathJSON,
	})

	exp, err := LoadDir(dir, vote.DefaultLimits)
	require.NoError(t, err)
	assert.Len(t, exp.Votes, 3)
	assert.Len(t, exp.Statements, 2)
	require.NotNil(t, exp.Math)
	assert.Equal(t, []int{0, 1}, exp.Math.InConversation())
	counts, err := exp.Math.VoteCounts()
	require.NoError(t, err)
	assert.Equal(t, map[int]int{0: 1, 1: 2}, counts)
}

func TestLoadDir_OptionalMath(t *testing.T) {
	dir := writeExport(t, map[string]string{VotesFile: votesJSON, CommentsFile: commentsJSON})
	exp, err := LoadDir(dir, vote.DefaultLimits)
	require.NoError(t, err)
	assert.Nil(t, exp.Math)
}

func TestLoadDir_MissingVotes(t *testing.T) {
	dir := writeExport(t, map[string]string{CommentsFile: commentsJSON})
	_, err := LoadDir(dir, vote.DefaultLimits)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadDir_VotesBeyondLimits(t *testing.T) {
	dir := writeExport(t, map[string]string{VotesFile: votesJSON, CommentsFile: commentsJSON})
	_, err := LoadDir(dir, vote.Limits{MaxParticipantID: 0, MaxStatementID: 1, MaxCells: 4})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidVote)
	assert.Contains(t, err.Error(), VotesFile)
}

func TestLoadDir_MalformedMath(t *testing.T) {
	dir := writeExport(t, map[string]string{VotesFile: votesJSON, CommentsFile: commentsJSON, MathFile: `{`})
	_, err := LoadDir(dir, vote.DefaultLimits)
	require.Error(t, err)
	assert.Contains(t, err.Error(), MathFile)
}
