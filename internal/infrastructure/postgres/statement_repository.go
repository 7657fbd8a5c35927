package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opinionmap/opinionmap/internal/domain/statement"
)

var _ statement.Repository = (*StatementRepository)(nil)

// StatementRepository implements statement.Repository.
type StatementRepository struct {
	pool *pgxpool.Pool
}

func NewStatementRepository(pool *pgxpool.Pool) *StatementRepository {
	return &StatementRepository{pool: pool}
}

func (r *StatementRepository) Upsert(ctx context.Context, conversationID uuid.UUID, statements []statement.Statement) error {
	if len(statements) == 0 {
		return nil
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, s := range statements {
		batch.Queue(`
			INSERT INTO statements (conversation_id, statement_id, moderation, is_meta, text)
			VALUES ($1,$2,$3,$4,$5)
			ON CONFLICT (conversation_id, statement_id)
			DO UPDATE SET moderation=EXCLUDED.moderation, is_meta=EXCLUDED.is_meta, text=EXCLUDED.text
		`, conversationID, s.ID, int16(s.Moderation), s.IsMeta, s.Text)
	}
	br := tx.SendBatch(ctx, batch)
	for _, s := range statements {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("upsert statement %d: %w", s.ID, err)
		}
	}
	if err := br.Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *StatementRepository) List(ctx context.Context, conversationID uuid.UUID) ([]statement.Statement, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT statement_id, moderation, is_meta, text
		FROM statements
		WHERE conversation_id=$1
		ORDER BY statement_id
	`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []statement.Statement
	for rows.Next() {
		var s statement.Statement
		var mod int16
		if err := rows.Scan(&s.ID, &mod, &s.IsMeta, &s.Text); err != nil {
			return nil, err
		}
		s.Moderation = statement.ModerationState(mod)
		out = append(out, s)
	}
	return out, rows.Err()
}
