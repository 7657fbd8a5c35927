package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/opinionmap/opinionmap/internal/domain/vote"
)

var _ vote.Repository = (*VoteRepository)(nil)

// VoteRepository implements vote.Repository.
type VoteRepository struct {
	mu    sync.RWMutex
	votes map[uuid.UUID][]vote.Vote
}

func NewVoteRepository() *VoteRepository {
	return &VoteRepository{votes: make(map[uuid.UUID][]vote.Vote)}
}

func (r *VoteRepository) Append(_ context.Context, conversationID uuid.UUID, votes []vote.Vote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.votes[conversationID] = append(r.votes[conversationID], votes...)
	return nil
}

func (r *VoteRepository) List(_ context.Context, conversationID uuid.UUID) ([]vote.Vote, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src := r.votes[conversationID]
	out := make([]vote.Vote, len(src))
	copy(out, src)
	return out, nil
}
