package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/opinionmap/opinionmap/internal/domain/statement"
)

// MockRepository is a mock implementation of statement.Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Upsert(ctx context.Context, conversationID uuid.UUID, statements []statement.Statement) error {
	args := m.Called(ctx, conversationID, statements)
	return args.Error(0)
}

func (m *MockRepository) List(ctx context.Context, conversationID uuid.UUID) ([]statement.Statement, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]statement.Statement), args.Error(1)
}
