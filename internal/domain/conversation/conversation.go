package conversation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/opinionmap/opinionmap/internal/domain"
	"github.com/opinionmap/opinionmap/internal/domain/embedding"
	"github.com/opinionmap/opinionmap/internal/domain/matrix"
	"github.com/opinionmap/opinionmap/internal/domain/statement"
)

// CountSource selects which vote counts feed scale correction.
type CountSource string

const (
	// CountIngested uses the running per-record counts of the vote store,
	// including votes on statements that were later moderated out.
	CountIngested CountSource = "ingested"
	// CountMatrix uses the present cells of the filtered matrix.
	CountMatrix CountSource = "matrix"
)

var (
	ErrNotFound           = errors.New("conversation not found")
	ErrNameRequired       = fmt.Errorf("%w: conversation name is required", domain.ErrConfiguration)
	ErrInvalidComponents  = fmt.Errorf("%w: n_components must be >= 1", domain.ErrConfiguration)
	ErrInvalidMinVotes    = fmt.Errorf("%w: min_votes must be >= 1", domain.ErrConfiguration)
	ErrUnknownCountSource = fmt.Errorf("%w: count_source must be `ingested` or `matrix`", domain.ErrConfiguration)
)

// Settings controls how a conversation's votes are turned into an embedding.
type Settings struct {
	ModerationMode statement.Mode       `json:"moderation_mode"`
	MinVotes       int                  `json:"min_votes"`
	Components     int                  `json:"n_components"`
	UnvotedPolicy  matrix.UnvotedPolicy `json:"unvoted_policy"`
	CountSource    CountSource          `json:"count_source"`
	StatementRule  string               `json:"statement_rule,omitempty"`
}

// DefaultSettings returns the defaults with the moderation mode left unset.
func DefaultSettings() Settings {
	return Settings{
		ModerationMode: statement.ModeUnset,
		MinVotes:       matrix.DefaultMinVotes,
		Components:     embedding.DefaultComponents,
		UnvotedPolicy:  matrix.PolicyDrop,
		CountSource:    CountIngested,
	}
}

// Validate checks every field. An unset moderation mode is valid here; it is
// refused when the active statement set is computed. MinVotes must be at least
// one: a zero threshold keeps all-absent rows, which have no count to rescale by.
func (s Settings) Validate() error {
	if _, err := statement.ParseMode(string(s.ModerationMode)); err != nil {
		return err
	}
	if s.MinVotes < 1 {
		return fmt.Errorf("%w, got %d", ErrInvalidMinVotes, s.MinVotes)
	}
	if s.Components < 1 {
		return fmt.Errorf("%w, got %d", ErrInvalidComponents, s.Components)
	}
	switch s.UnvotedPolicy {
	case matrix.PolicyDrop, matrix.PolicyZero:
	default:
		return fmt.Errorf("%w, got %q", matrix.ErrUnknownPolicy, string(s.UnvotedPolicy))
	}
	switch s.CountSource {
	case CountIngested, CountMatrix:
	default:
		return fmt.Errorf("%w, got %q", ErrUnknownCountSource, string(s.CountSource))
	}
	if _, err := statement.NewRule(s.StatementRule); err != nil {
		return err
	}
	return nil
}

// FilterOptions returns the matrix filter configuration.
func (s Settings) FilterOptions() matrix.FilterOptions {
	return matrix.FilterOptions{MinVotes: s.MinVotes, Policy: s.UnvotedPolicy}
}

// Conversation is a deliberation whose votes are embedded together.
type Conversation struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Settings  Settings  `json:"settings"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewConversation creates a conversation with a fresh id.
func NewConversation(name string, settings Settings) (*Conversation, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &Conversation{
		ID:        uuid.New(),
		Name:      name,
		Settings:  settings,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Snapshot is a persisted embedding computation.
type Snapshot struct {
	SnapshotID        uuid.UUID       `json:"snapshot_id"`
	ConversationID    uuid.UUID       `json:"conversation_id"`
	LastVoteTimestamp int64           `json:"last_vote_timestamp"`
	Payload           json.RawMessage `json:"payload"`
	ComputedAt        time.Time       `json:"computed_at"`
}
