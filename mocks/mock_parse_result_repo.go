package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"fakturscan/internal/domain"
	"fakturscan/internal/port"
)

// MockParseResultRepo is a mock implementation of port.ParseResultRepository.
type MockParseResultRepo struct {
	mock.Mock
}

func (m *MockParseResultRepo) Create(ctx context.Context, rec *domain.ParseRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockParseResultRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ParseRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ParseRecord), args.Error(1)
}

func (m *MockParseResultRepo) List(ctx context.Context, filter port.ListFilter, offset, limit int) ([]domain.ParseRecord, int, error) {
	args := m.Called(ctx, filter, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.ParseRecord), args.Int(1), args.Error(2)
}

func (m *MockParseResultRepo) SetArchiveKey(ctx context.Context, id uuid.UUID, key string) error {
	args := m.Called(ctx, id, key)
	return args.Error(0)
}

func (m *MockParseResultRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockParseResultRepo) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
