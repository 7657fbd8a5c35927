package statement

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists statement metadata per conversation.
type Repository interface {
	// Upsert inserts or replaces statements by id.
	Upsert(ctx context.Context, conversationID uuid.UUID, statements []Statement) error
	// List returns all statements of a conversation ordered by id.
	List(ctx context.Context, conversationID uuid.UUID) ([]Statement, error)
}
