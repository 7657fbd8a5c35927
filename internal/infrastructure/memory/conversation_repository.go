// Package memory provides process-local implementations of the repository
// ports, used by the memory storage mode, the batch CLI and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/opinionmap/opinionmap/internal/domain/conversation"
)

var (
	_ conversation.Repository         = (*ConversationRepository)(nil)
	_ conversation.SnapshotRepository = (*ConversationRepository)(nil)
)

// ConversationRepository implements conversation.Repository and
// conversation.SnapshotRepository.
type ConversationRepository struct {
	mu            sync.RWMutex
	conversations map[uuid.UUID]conversation.Conversation
	snapshots     map[uuid.UUID][]conversation.Snapshot
}

func NewConversationRepository() *ConversationRepository {
	return &ConversationRepository{
		conversations: make(map[uuid.UUID]conversation.Conversation),
		snapshots:     make(map[uuid.UUID][]conversation.Snapshot),
	}
}

func (r *ConversationRepository) Create(_ context.Context, c *conversation.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conversations[c.ID]; ok {
		return fmt.Errorf("conversation %s already exists", c.ID)
	}
	r.conversations[c.ID] = *c
	return nil
}

func (r *ConversationRepository) GetByID(_ context.Context, id uuid.UUID) (*conversation.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conversations[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *ConversationRepository) List(_ context.Context, limit, offset int) ([]*conversation.Conversation, error) {
	r.mu.RLock()
	all := make([]*conversation.Conversation, 0, len(r.conversations))
	for _, c := range r.conversations {
		c := c
		all = append(all, &c)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *ConversationRepository) UpdateSettings(_ context.Context, id uuid.UUID, settings conversation.Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[id]
	if !ok {
		return fmt.Errorf("%w: %s", conversation.ErrNotFound, id)
	}
	c.Settings = settings
	c.UpdatedAt = time.Now().UTC()
	r.conversations[id] = c
	return nil
}

func (r *ConversationRepository) SaveSnapshot(_ context.Context, s *conversation.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots[s.ConversationID] = append(r.snapshots[s.ConversationID], *s)
	return nil
}

func (r *ConversationRepository) LatestSnapshot(_ context.Context, conversationID uuid.UUID) (*conversation.Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snaps := r.snapshots[conversationID]
	if len(snaps) == 0 {
		return nil, nil
	}
	s := snaps[len(snaps)-1]
	return &s, nil
}
