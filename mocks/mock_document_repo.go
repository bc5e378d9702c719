package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"apflow/internal/domain"
)

// MockDocumentRepo is a mock implementation of port.DocumentRepository.
type MockDocumentRepo struct {
	mock.Mock
}

func (m *MockDocumentRepo) Create(ctx context.Context, doc *domain.CanonicalDocument) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockDocumentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.CanonicalDocument, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CanonicalDocument), args.Error(1)
}

func (m *MockDocumentRepo) GetByContentHash(ctx context.Context, hash string) (*domain.CanonicalDocument, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CanonicalDocument), args.Error(1)
}

func (m *MockDocumentRepo) Save(ctx context.Context, doc *domain.CanonicalDocument, expectedVersion int64) error {
	args := m.Called(ctx, doc, expectedVersion)
	return args.Error(0)
}

func (m *MockDocumentRepo) ListPending(ctx context.Context, limit int) ([]domain.CanonicalDocument, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CanonicalDocument), args.Error(1)
}
