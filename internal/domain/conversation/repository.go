package conversation

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository,SnapshotRepository

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists conversations.
type Repository interface {
	Create(ctx context.Context, c *Conversation) error
	// GetByID returns nil, nil when the conversation does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*Conversation, error)
	List(ctx context.Context, limit, offset int) ([]*Conversation, error)
	UpdateSettings(ctx context.Context, id uuid.UUID, settings Settings) error
}

// SnapshotRepository persists computed embeddings.
type SnapshotRepository interface {
	SaveSnapshot(ctx context.Context, snapshot *Snapshot) error
	// LatestSnapshot returns nil, nil when nothing was computed yet.
	LatestSnapshot(ctx context.Context, conversationID uuid.UUID) (*Snapshot, error)
}
