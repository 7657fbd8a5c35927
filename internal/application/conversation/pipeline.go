package conversation

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/opinionmap/opinionmap/internal/domain/conversation"
	"github.com/opinionmap/opinionmap/internal/domain/embedding"
	"github.com/opinionmap/opinionmap/internal/domain/matrix"
	"github.com/opinionmap/opinionmap/internal/domain/statement"
	"github.com/opinionmap/opinionmap/internal/domain/vote"
)

// Result is one run of the pipeline over a snapshot of the vote log.
type Result struct {
	Embedding          *embedding.Embedding `json:"embedding"`
	Raw                *embedding.Embedding `json:"raw"`
	Matrix             *matrix.VoteMatrix   `json:"-"`
	ActiveStatementIDs []int                `json:"active_statement_ids"`
	VoteCounts         map[int]int          `json:"vote_counts"`
	LastVoteTimestamp  int64                `json:"last_vote_timestamp"`
	ComputedAt         time.Time            `json:"computed_at"`
}

// Pipeline holds the in-memory state of one conversation: its vote log,
// statement metadata and settings, plus the cached raw matrix and result.
//
// Any vote invalidates both caches through the store. Statement and settings
// changes invalidate only the result.
type Pipeline struct {
	store  *vote.Store
	raw    vote.Cache[*matrix.VoteMatrix]
	result vote.Cache[*Result]

	maxCells int

	mu         sync.RWMutex
	settings   conversation.Settings
	rule       *statement.Rule
	statements map[int]statement.Statement
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithMaxCells bounds the raw matrix. Larger logs fail with matrix.ErrTooLarge.
func WithMaxCells(n int) PipelineOption {
	return func(p *Pipeline) { p.maxCells = n }
}

// NewPipeline creates an empty pipeline.
func NewPipeline(settings conversation.Settings, opts ...PipelineOption) (*Pipeline, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	rule, err := statement.NewRule(settings.StatementRule)
	if err != nil {
		return nil, err
	}
	p := &Pipeline{
		store:      vote.NewStore(),
		settings:   settings,
		rule:       rule,
		statements: make(map[int]statement.Statement),
		maxCells:   vote.DefaultLimits.MaxCells,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.store.Attach(&p.raw, &p.result)
	return p, nil
}

// Store returns the vote log.
func (p *Pipeline) Store() *vote.Store { return p.store }

// Settings returns the current settings.
func (p *Pipeline) Settings() conversation.Settings {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.settings
}

// SetSettings replaces the settings.
func (p *Pipeline) SetSettings(settings conversation.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	rule, err := statement.NewRule(settings.StatementRule)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.settings = settings
	p.rule = rule
	p.mu.Unlock()
	p.result.Invalidate()
	return nil
}

// UpsertStatements inserts or replaces statement metadata by id. Nothing is
// applied when any statement is invalid.
func (p *Pipeline) UpsertStatements(statements []statement.Statement) error {
	for _, s := range statements {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	p.mu.Lock()
	for _, s := range statements {
		p.statements[s.ID] = s
	}
	p.mu.Unlock()
	p.result.Invalidate()
	return nil
}

// Statements returns the known statements ordered by id.
func (p *Pipeline) Statements() []statement.Statement {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]statement.Statement, 0, len(p.statements))
	for _, s := range p.statements {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// RawMatrix returns the unfiltered matrix of the whole vote log.
func (p *Pipeline) RawMatrix() (*matrix.VoteMatrix, error) {
	return p.raw.Get(func() (*matrix.VoteMatrix, error) {
		return matrix.BuildBounded(p.store.Votes(), p.maxCells)
	})
}

// FilteredMatrix applies the moderation mode, the statement rule and the
// unvoted policy to the raw matrix.
func (p *Pipeline) FilteredMatrix() (*matrix.VoteMatrix, []int, error) {
	raw, err := p.RawMatrix()
	if err != nil {
		return nil, nil, err
	}
	p.mu.RLock()
	settings, rule := p.settings, p.rule
	statements := make([]statement.Statement, 0, len(p.statements))
	for _, s := range p.statements {
		statements = append(statements, s)
	}
	p.mu.RUnlock()

	active, err := statement.Select(statements, settings.ModerationMode, rule)
	if err != nil {
		return nil, nil, err
	}
	filtered, err := matrix.Filter(raw, active, settings.FilterOptions())
	if err != nil {
		return nil, nil, err
	}
	return filtered, active, nil
}

// Result returns the cached pipeline result, recomputing it when stale.
// The boolean reports whether this call did the computation.
func (p *Pipeline) Result() (*Result, bool, error) {
	computed := false
	res, err := p.result.Get(func() (*Result, error) {
		computed = true
		return p.compute()
	})
	return res, computed, err
}

func (p *Pipeline) compute() (*Result, error) {
	lastTimestamp := p.store.LastTimestamp()
	filtered, active, err := p.FilteredMatrix()
	if err != nil {
		return nil, err
	}
	imputed, err := matrix.Impute(filtered)
	if err != nil {
		return nil, err
	}
	settings := p.Settings()
	raw, err := embedding.Project(imputed, settings.Components)
	if err != nil {
		return nil, err
	}

	var counts map[int]int
	switch settings.CountSource {
	case conversation.CountMatrix:
		counts = filtered.RowCounts()
	default:
		counts = p.store.VoteCounts()
	}
	scaled, err := embedding.Rescale(raw, counts, filtered.Cols())
	if err != nil {
		return nil, fmt.Errorf("rescale: %w", err)
	}

	used := make(map[int]int, len(scaled.ParticipantIDs))
	for _, pid := range scaled.ParticipantIDs {
		used[pid] = counts[pid]
	}
	return &Result{
		Embedding:          scaled,
		Raw:                raw,
		Matrix:             filtered,
		ActiveStatementIDs: active,
		VoteCounts:         used,
		LastVoteTimestamp:  lastTimestamp,
		ComputedAt:         time.Now().UTC(),
	}, nil
}

// Bookkeeping derives the mod-in, mod-out and meta lists.
func (p *Pipeline) Bookkeeping() statement.Bookkeeping {
	return statement.ComputeBookkeeping(p.Statements())
}

// VoteCountMismatches compares the store's running counts with the number of
// distinct statements each participant has a vote on. Participants who changed
// a vote show up here.
func (p *Pipeline) VoteCountMismatches() ([]vote.CountMismatch, error) {
	raw, err := p.RawMatrix()
	if err != nil {
		return nil, err
	}
	actual := raw.RowCounts()
	for pid, c := range actual {
		if c == 0 {
			delete(actual, pid)
		}
	}
	return vote.DiffCounts(p.store.VoteCounts(), actual), nil
}
