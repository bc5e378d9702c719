package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"apflow/internal/port"
)

// MockFieldExtractor is a mock implementation of port.FieldExtractor.
type MockFieldExtractor struct {
	mock.Mock
}

func (m *MockFieldExtractor) Extract(ctx context.Context, input port.ExtractInput) (*port.ExtractResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.ExtractResult), args.Error(1)
}
