package vote

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists the vote log of each conversation.
type Repository interface {
	// Append stores a batch atomically, preserving input order.
	Append(ctx context.Context, conversationID uuid.UUID, votes []Vote) error
	// List returns every vote of a conversation in arrival order.
	List(ctx context.Context, conversationID uuid.UUID) ([]Vote, error)
}
