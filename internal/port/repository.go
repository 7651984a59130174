package port

import (
	"context"

	"github.com/google/uuid"

	"fakturscan/internal/domain"
)

// ParseResultRepository defines the contract for parse result persistence.
type ParseResultRepository interface {
	Create(ctx context.Context, rec *domain.ParseRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ParseRecord, error)
	List(ctx context.Context, filter ListFilter, offset, limit int) ([]domain.ParseRecord, int, error)
	SetArchiveKey(ctx context.Context, id uuid.UUID, key string) error
	Delete(ctx context.Context, id uuid.UUID) error
	Ping(ctx context.Context) error
}

// ListFilter narrows a result listing. Zero values match everything.
type ListFilter struct {
	Status domain.ParseStatus
}
