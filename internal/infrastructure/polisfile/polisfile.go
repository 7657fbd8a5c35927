// Package polisfile reads Polis conversation exports: votes.json,
// comments.json and the optional math-pca2.json.
package polisfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"

	"github.com/opinionmap/opinionmap/internal/domain/embedding"
	"github.com/opinionmap/opinionmap/internal/domain/statement"
	"github.com/opinionmap/opinionmap/internal/domain/vote"
)

// File names inside an export directory.
const (
	VotesFile    = "votes.json"
	CommentsFile = "comments.json"
	MathFile     = "math-pca2.json"
)

// nanosPerMilli converts export timestamps, which are nanoseconds, to the
// milliseconds used by the vote log.
const nanosPerMilli = 1_000_000

// Export is the parsed content of an export directory.
type Export struct {
	Votes      []vote.Vote
	Statements []statement.Statement
	// Math is nil when the directory has no math file.
	Math *embedding.MathData
}

type wireVote struct {
	PID      int         `json:"pid"`
	TID      int         `json:"tid"`
	Vote     int         `json:"vote"`
	Modified json.Number `json:"modified"`
}

type wireComment struct {
	TID    int    `json:"tid"`
	Mod    int    `json:"mod"`
	IsMeta bool   `json:"is_meta"`
	Text   string `json:"txt"`
}

// LoadDir reads an export directory. Votes and comments are required, and
// votes must fit within limits.
func LoadDir(dir string, limits vote.Limits) (*Export, error) {
	var exp Export
	var err error
	readVotes := func(r io.Reader) ([]vote.Vote, error) { return ReadVotes(r, limits) }
	if exp.Votes, err = readFile(filepath.Join(dir, VotesFile), readVotes); err != nil {
		return nil, err
	}
	if exp.Statements, err = readFile(filepath.Join(dir, CommentsFile), ReadStatements); err != nil {
		return nil, err
	}
	exp.Math, err = readFile(filepath.Join(dir, MathFile), ReadMath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return &exp, nil
}

func readFile[T any](path string, read func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, err
	}
	defer f.Close()
	out, err := read(f)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return out, nil
}

// ReadVotes decodes a votes array in file order and converts modified from
// nanoseconds to milliseconds. Records are validated against limits.
func ReadVotes(r io.Reader, limits vote.Limits) ([]vote.Vote, error) {
	var wire []wireVote
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&wire); err != nil {
		return nil, fmt.Errorf("decode votes: %w", err)
	}
	out := make([]vote.Vote, 0, len(wire))
	for i, w := range wire {
		modified, err := parseTimestamp(w.Modified)
		if err != nil {
			return nil, fmt.Errorf("vote %d: modified: %w", i, err)
		}
		out = append(out, vote.Vote{
			ParticipantID: w.PID,
			StatementID:   w.TID,
			Value:         vote.Value(w.Vote),
			Modified:      modified / nanosPerMilli,
		})
	}
	if err := limits.Admit(out, -1, -1); err != nil {
		return nil, err
	}
	return out, nil
}

func parseTimestamp(n json.Number) (int64, error) {
	if n == "" {
		return 0, nil
	}
	if i, err := n.Int64(); err == nil {
		return i, nil
	}
	f, err := n.Float64()
	if err != nil {
		return 0, err
	}
	return int64(math.Round(f)), nil
}

// ReadStatements decodes a comments array. Records are validated.
func ReadStatements(r io.Reader) ([]statement.Statement, error) {
	var wire []wireComment
	if err := json.NewDecoder(r).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decode comments: %w", err)
	}
	out := make([]statement.Statement, 0, len(wire))
	for _, w := range wire {
		s := statement.Statement{
			ID:         w.TID,
			Moderation: statement.ModerationState(w.Mod),
			IsMeta:     w.IsMeta,
			Text:       w.Text,
		}
		if err := s.Validate(); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// ReadMath decodes a math export.
func ReadMath(r io.Reader) (*embedding.MathData, error) {
	var data embedding.MathData
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode math: %w", err)
	}
	return &data, nil
}
