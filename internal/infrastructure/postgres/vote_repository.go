package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opinionmap/opinionmap/internal/domain/vote"
)

var _ vote.Repository = (*VoteRepository)(nil)

// VoteRepository implements vote.Repository. Arrival order is the seq column.
type VoteRepository struct {
	pool *pgxpool.Pool
}

func NewVoteRepository(pool *pgxpool.Pool) *VoteRepository {
	return &VoteRepository{pool: pool}
}

func (r *VoteRepository) Append(ctx context.Context, conversationID uuid.UUID, votes []vote.Vote) error {
	if len(votes) == 0 {
		return nil
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, v := range votes {
		batch.Queue(`
			INSERT INTO votes (conversation_id, participant_id, statement_id, value, modified)
			VALUES ($1,$2,$3,$4,$5)
		`, conversationID, v.ParticipantID, v.StatementID, int16(v.Value), v.Modified)
	}
	br := tx.SendBatch(ctx, batch)
	for i := range votes {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("insert vote %d: %w", i, err)
		}
	}
	if err := br.Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *VoteRepository) List(ctx context.Context, conversationID uuid.UUID) ([]vote.Vote, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT participant_id, statement_id, value, modified
		FROM votes
		WHERE conversation_id=$1
		ORDER BY seq
	`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []vote.Vote
	for rows.Next() {
		var v vote.Vote
		var value int16
		if err := rows.Scan(&v.ParticipantID, &v.StatementID, &value, &v.Modified); err != nil {
			return nil, err
		}
		v.Value = vote.Value(value)
		out = append(out, v)
	}
	return out, rows.Err()
}
