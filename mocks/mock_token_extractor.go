package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"fakturscan/internal/port"
)

// MockTokenExtractor is a mock implementation of port.TokenExtractor.
type MockTokenExtractor struct {
	mock.Mock
	StrategyName string
}

func (m *MockTokenExtractor) Name() string {
	return m.StrategyName
}

func (m *MockTokenExtractor) Extract(ctx context.Context, input port.ExtractInput) (*port.Extraction, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.Extraction), args.Error(1)
}
