package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/opinionmap/opinionmap/internal/domain/statement"
)

var _ statement.Repository = (*StatementRepository)(nil)

// StatementRepository implements statement.Repository.
type StatementRepository struct {
	mu         sync.RWMutex
	statements map[uuid.UUID]map[int]statement.Statement
}

func NewStatementRepository() *StatementRepository {
	return &StatementRepository{statements: make(map[uuid.UUID]map[int]statement.Statement)}
}

func (r *StatementRepository) Upsert(_ context.Context, conversationID uuid.UUID, statements []statement.Statement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	byID, ok := r.statements[conversationID]
	if !ok {
		byID = make(map[int]statement.Statement)
		r.statements[conversationID] = byID
	}
	for _, s := range statements {
		byID[s.ID] = s
	}
	return nil
}

func (r *StatementRepository) List(_ context.Context, conversationID uuid.UUID) ([]statement.Statement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]statement.Statement, 0, len(r.statements[conversationID]))
	for _, s := range r.statements[conversationID] {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
