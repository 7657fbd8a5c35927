package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/opinionmap/opinionmap/internal/domain/conversation"
	"github.com/opinionmap/opinionmap/internal/domain/embedding"
	"github.com/opinionmap/opinionmap/internal/domain/matrix"
	"github.com/opinionmap/opinionmap/internal/domain/notification"
	"github.com/opinionmap/opinionmap/internal/domain/statement"
	"github.com/opinionmap/opinionmap/internal/domain/vote"
)

// Publisher delivers change events to subscribers of a conversation.
type Publisher interface {
	Publish(conversationID uuid.UUID, event string, payload any)
}

type nopPublisher struct{}

func (nopPublisher) Publish(uuid.UUID, string, any) {}

// Repositories groups the persistence ports the service depends on.
type Repositories struct {
	Conversations conversation.Repository
	Snapshots     conversation.SnapshotRepository
	Votes         vote.Repository
	Statements    statement.Repository
}

// Service handles conversations and the opinion-space computation over their
// votes.
type Service struct {
	conversations conversation.Repository
	snapshots     conversation.SnapshotRepository
	votes         vote.Repository
	statements    statement.Repository
	publisher     Publisher
	logger        zerolog.Logger
	limits        vote.Limits

	mu      sync.Mutex
	loaded  map[uuid.UUID]*entry
	loading singleflight.Group
}

// Option configures a Service.
type Option func(*Service)

// WithVoteLimits sets the id and matrix size bounds enforced on new votes.
func WithVoteLimits(limits vote.Limits) Option {
	return func(s *Service) { s.limits = limits }
}

// entry is a hydrated conversation. writeMu orders persist-then-apply so the
// in-memory log matches the repository order.
type entry struct {
	writeMu  sync.Mutex
	pipeline *Pipeline

	mu   sync.RWMutex
	conv conversation.Conversation
}

func (e *entry) current() *conversation.Conversation {
	e.mu.RLock()
	defer e.mu.RUnlock()
	c := e.conv
	return &c
}

// NewService creates a conversation service. A nil publisher discards events.
func NewService(repos Repositories, publisher Publisher, logger zerolog.Logger, opts ...Option) *Service {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	s := &Service{
		conversations: repos.Conversations,
		snapshots:     repos.Snapshots,
		votes:         repos.Votes,
		statements:    repos.Statements,
		publisher:     publisher,
		logger:        logger.With().Str("service", "conversation").Logger(),
		loaded:        make(map[uuid.UUID]*entry),
		limits:        vote.DefaultLimits,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) newPipeline(settings conversation.Settings) (*Pipeline, error) {
	return NewPipeline(settings, WithMaxCells(s.limits.MaxCells))
}

// CreateConversation creates a conversation with the given settings.
func (s *Service) CreateConversation(ctx context.Context, name string, settings conversation.Settings) (*conversation.Conversation, error) {
	conv, err := conversation.NewConversation(name, settings)
	if err != nil {
		return nil, err
	}
	pipeline, err := s.newPipeline(conv.Settings)
	if err != nil {
		return nil, err
	}
	if err := s.conversations.Create(ctx, conv); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	s.mu.Lock()
	s.loaded[conv.ID] = &entry{pipeline: pipeline, conv: *conv}
	s.mu.Unlock()

	s.logger.Info().
		Str("conversation_id", conv.ID.String()).
		Str("name", conv.Name).
		Msg("conversation created")
	return conv, nil
}

// ListConversations lists conversations.
func (s *Service) ListConversations(ctx context.Context, limit, offset int) ([]*conversation.Conversation, error) {
	return s.conversations.List(ctx, limit, offset)
}

// GetConversation retrieves a conversation by id.
func (s *Service) GetConversation(ctx context.Context, id uuid.UUID) (*conversation.Conversation, error) {
	e, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return e.current(), nil
}

// UpdateSettings replaces the settings of a conversation.
func (s *Service) UpdateSettings(ctx context.Context, id uuid.UUID, settings conversation.Settings) (*conversation.Conversation, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	e, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	if err := s.conversations.UpdateSettings(ctx, id, settings); err != nil {
		return nil, fmt.Errorf("failed to update settings: %w", err)
	}
	if err := e.pipeline.SetSettings(settings); err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.conv.Settings = settings
	e.conv.UpdatedAt = time.Now().UTC()
	e.mu.Unlock()

	s.publisher.Publish(id, notification.EventSettingsUpdated, settings)
	s.logger.Info().Str("conversation_id", id.String()).Msg("settings updated")
	return e.current(), nil
}

// RecordVotes validates the whole batch, persists it and applies it to the
// in-memory log. An invalid record, or ids beyond the configured limits,
// reject the batch before anything is written.
func (s *Service) RecordVotes(ctx context.Context, id uuid.UUID, votes []vote.Vote) error {
	if err := vote.ValidateAll(votes); err != nil {
		return err
	}
	if len(votes) == 0 {
		return nil
	}
	e, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	maxPID, maxTID := e.pipeline.Store().MaxIDs()
	if err := s.limits.Admit(votes, maxPID, maxTID); err != nil {
		return err
	}
	if err := s.votes.Append(ctx, id, votes); err != nil {
		return fmt.Errorf("failed to persist votes: %w", err)
	}
	if err := e.pipeline.Store().BulkRecord(votes); err != nil {
		return err
	}

	store := e.pipeline.Store()
	s.publisher.Publish(id, notification.EventVotesRecorded, map[string]any{
		"count":               len(votes),
		"total":               store.Len(),
		"last_vote_timestamp": store.LastTimestamp(),
	})
	s.logger.Debug().
		Str("conversation_id", id.String()).
		Int("count", len(votes)).
		Msg("votes recorded")
	return nil
}

// UpsertStatements inserts or replaces statement metadata.
func (s *Service) UpsertStatements(ctx context.Context, id uuid.UUID, statements []statement.Statement) error {
	for _, st := range statements {
		if err := st.Validate(); err != nil {
			return err
		}
	}
	e, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	if err := s.statements.Upsert(ctx, id, statements); err != nil {
		return fmt.Errorf("failed to persist statements: %w", err)
	}
	if err := e.pipeline.UpsertStatements(statements); err != nil {
		return err
	}
	s.publisher.Publish(id, notification.EventStatementsUpdated, map[string]int{"count": len(statements)})
	return nil
}

// Statements returns the statement metadata of a conversation.
func (s *Service) Statements(ctx context.Context, id uuid.UUID) ([]statement.Statement, error) {
	e, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return e.pipeline.Statements(), nil
}

// Matrix returns the raw matrix, or the filtered one when filtered is set.
func (s *Service) Matrix(ctx context.Context, id uuid.UUID, filtered bool) (*matrix.VoteMatrix, error) {
	e, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !filtered {
		return e.pipeline.RawMatrix()
	}
	m, _, err := e.pipeline.FilteredMatrix()
	return m, err
}

// Embedding returns the current pipeline result. A fresh computation is
// snapshotted and announced to subscribers.
func (s *Service) Embedding(ctx context.Context, id uuid.UUID) (*Result, error) {
	e, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	res, computed, err := e.pipeline.Result()
	if err != nil {
		s.logger.Warn().Err(err).Str("conversation_id", id.String()).Msg("embedding failed")
		return nil, err
	}
	if computed {
		s.saveSnapshot(ctx, id, res)
		s.publisher.Publish(id, notification.EventEmbeddingComputed, map[string]any{
			"participants":        len(res.Embedding.ParticipantIDs),
			"statements":          res.Matrix.Cols(),
			"last_vote_timestamp": res.LastVoteTimestamp,
		})
	}
	return res, nil
}

func (s *Service) saveSnapshot(ctx context.Context, id uuid.UUID, res *Result) {
	payload, err := json.Marshal(res)
	if err != nil {
		s.logger.Error().Err(err).Str("conversation_id", id.String()).Msg("failed to encode snapshot")
		return
	}
	snap := &conversation.Snapshot{
		SnapshotID:        uuid.New(),
		ConversationID:    id,
		LastVoteTimestamp: res.LastVoteTimestamp,
		Payload:           payload,
		ComputedAt:        res.ComputedAt,
	}
	if err := s.snapshots.SaveSnapshot(ctx, snap); err != nil {
		s.logger.Error().Err(err).Str("conversation_id", id.String()).Msg("failed to save snapshot")
	}
}

// LatestSnapshot returns the most recently persisted result of a conversation.
func (s *Service) LatestSnapshot(ctx context.Context, id uuid.UUID) (*conversation.Snapshot, error) {
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	snap, err := s.snapshots.LatestSnapshot(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	if snap == nil {
		return nil, fmt.Errorf("%w: no snapshot for %s", conversation.ErrNotFound, id)
	}
	return snap, nil
}

// VoteSummary is the per-participant vote count view of a conversation.
type VoteSummary struct {
	Counts            map[int]int `json:"counts"`
	Total             int         `json:"total"`
	LastVoteTimestamp int64       `json:"last_vote_timestamp"`
}

// VoteCounts returns the running per-participant counts.
func (s *Service) VoteCounts(ctx context.Context, id uuid.UUID) (*VoteSummary, error) {
	e, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	store := e.pipeline.Store()
	return &VoteSummary{
		Counts:            store.VoteCounts(),
		Total:             store.Len(),
		LastVoteTimestamp: store.LastTimestamp(),
	}, nil
}

// Bookkeeping returns the mod-in, mod-out and meta lists.
func (s *Service) Bookkeeping(ctx context.Context, id uuid.UUID) (statement.Bookkeeping, error) {
	e, err := s.load(ctx, id)
	if err != nil {
		return statement.Bookkeeping{}, err
	}
	return e.pipeline.Bookkeeping(), nil
}

// VoteCountMismatches reports participants whose running count differs from
// their number of distinct voted statements.
func (s *Service) VoteCountMismatches(ctx context.Context, id uuid.UUID) ([]vote.CountMismatch, error) {
	e, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return e.pipeline.VoteCountMismatches()
}

// CorrectCentroids applies the centroid sign correction to externally computed
// cluster data.
func (s *Service) CorrectCentroids(data embedding.MathData, source embedding.Source, opts ...embedding.CentroidOption) ([][2]float64, error) {
	return embedding.CorrectCentroids(data, source, opts...)
}

// load returns the hydrated conversation. The first access replays its
// statements and votes from the repositories; concurrent first accesses to
// the same id share one hydration and other conversations are not blocked.
func (s *Service) load(ctx context.Context, id uuid.UUID) (*entry, error) {
	s.mu.Lock()
	e, ok := s.loaded[id]
	s.mu.Unlock()
	if ok {
		return e, nil
	}

	v, err, _ := s.loading.Do(id.String(), func() (interface{}, error) {
		s.mu.Lock()
		e, ok := s.loaded[id]
		s.mu.Unlock()
		if ok {
			return e, nil
		}
		e, err := s.hydrate(ctx, id)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.loaded[id] = e
		s.mu.Unlock()
		return e, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*entry), nil
}

func (s *Service) hydrate(ctx context.Context, id uuid.UUID) (*entry, error) {
	conv, err := s.conversations.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	if conv == nil {
		return nil, fmt.Errorf("%w: %s", conversation.ErrNotFound, id)
	}
	pipeline, err := s.newPipeline(conv.Settings)
	if err != nil {
		return nil, err
	}
	statements, err := s.statements.List(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list statements: %w", err)
	}
	if err := pipeline.UpsertStatements(statements); err != nil {
		return nil, err
	}
	votes, err := s.votes.List(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}
	if err := pipeline.Store().BulkRecord(votes); err != nil {
		return nil, fmt.Errorf("failed to replay votes: %w", err)
	}

	s.logger.Info().
		Str("conversation_id", id.String()).
		Int("votes", len(votes)).
		Int("statements", len(statements)).
		Msg("conversation loaded")
	return &entry{pipeline: pipeline, conv: *conv}, nil
}
