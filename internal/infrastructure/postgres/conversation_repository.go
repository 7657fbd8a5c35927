package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opinionmap/opinionmap/internal/domain/conversation"
)

var (
	_ conversation.Repository         = (*ConversationRepository)(nil)
	_ conversation.SnapshotRepository = (*ConversationRepository)(nil)
)

// ConversationRepository implements conversation.Repository and
// conversation.SnapshotRepository.
type ConversationRepository struct {
	pool *pgxpool.Pool
}

func NewConversationRepository(pool *pgxpool.Pool) *ConversationRepository {
	return &ConversationRepository{pool: pool}
}

func (r *ConversationRepository) Create(ctx context.Context, c *conversation.Conversation) error {
	settings, err := json.Marshal(c.Settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO conversations (id, name, settings, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5)
	`, c.ID, c.Name, settings, c.CreatedAt, c.UpdatedAt)
	return err
}

func (r *ConversationRepository) GetByID(ctx context.Context, id uuid.UUID) (*conversation.Conversation, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, settings, created_at, updated_at
		FROM conversations
		WHERE id=$1
	`, id)
	return scanConversation(row)
}

func (r *ConversationRepository) List(ctx context.Context, limit, offset int) ([]*conversation.Conversation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, settings, created_at, updated_at
		FROM conversations
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*conversation.Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *ConversationRepository) UpdateSettings(ctx context.Context, id uuid.UUID, settings conversation.Settings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE conversations
		SET settings=$1, updated_at=NOW()
		WHERE id=$2
	`, data, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", conversation.ErrNotFound, id)
	}
	return nil
}

func (r *ConversationRepository) SaveSnapshot(ctx context.Context, s *conversation.Snapshot) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO embedding_snapshots (snapshot_id, conversation_id, last_vote_timestamp, payload, computed_at)
		VALUES ($1,$2,$3,$4,$5)
	`, s.SnapshotID, s.ConversationID, s.LastVoteTimestamp, []byte(s.Payload), s.ComputedAt)
	return err
}

func (r *ConversationRepository) LatestSnapshot(ctx context.Context, conversationID uuid.UUID) (*conversation.Snapshot, error) {
	var s conversation.Snapshot
	var payload []byte
	err := r.pool.QueryRow(ctx, `
		SELECT snapshot_id, conversation_id, last_vote_timestamp, payload, computed_at
		FROM embedding_snapshots
		WHERE conversation_id=$1
		ORDER BY computed_at DESC
		LIMIT 1
	`, conversationID).Scan(&s.SnapshotID, &s.ConversationID, &s.LastVoteTimestamp, &payload, &s.ComputedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	s.Payload = json.RawMessage(payload)
	return &s, nil
}

func scanConversation(row pgx.Row) (*conversation.Conversation, error) {
	var c conversation.Conversation
	var settings []byte
	if err := row.Scan(&c.ID, &c.Name, &settings, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	c.Settings = conversation.DefaultSettings()
	if err := json.Unmarshal(settings, &c.Settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings of %s: %w", c.ID, err)
	}
	return &c, nil
}
