package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"apflow/internal/domain"
)

// MockAuditRepo is a mock implementation of port.AuditRepository.
type MockAuditRepo struct {
	mock.Mock
}

func (m *MockAuditRepo) Create(ctx context.Context, entry *domain.TransitionAudit) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditRepo) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]domain.TransitionAudit, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TransitionAudit), args.Error(1)
}
