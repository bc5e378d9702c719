package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"apflow/internal/domain"
)

// MockReferenceRepo is a mock implementation of port.ReferenceRepository.
type MockReferenceRepo struct {
	mock.Mock
}

func (m *MockReferenceRepo) ListByVendor(ctx context.Context, vendorName string) ([]domain.ReferenceDocument, error) {
	args := m.Called(ctx, vendorName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReferenceDocument), args.Error(1)
}
