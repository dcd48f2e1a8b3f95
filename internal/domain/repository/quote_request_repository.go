package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/resona/rental-api/internal/domain/entity"
	"github.com/resona/rental-api/internal/domain/enum"
	"github.com/resona/rental-api/pkg/pagination"
)

// QuoteRequestRepository defines the interface for quote request data operations
type QuoteRequestRepository interface {
	Create(ctx context.Context, quote *entity.QuoteRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.QuoteRequest, error)
	GetByReference(ctx context.Context, reference string) (*entity.QuoteRequest, error)
	Update(ctx context.Context, quote *entity.QuoteRequest) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params *QuoteRequestFilterParams) ([]entity.QuoteRequest, int64, error)
	// CountByStatus returns the number of requests per status. Statuses with
	// no requests are absent from the map.
	CountByStatus(ctx context.Context) (map[enum.QuoteRequestStatus]int64, error)
	GetNextReferenceNumber(ctx context.Context) (int, error)
}

// QuoteRequestFilterParams contains filtering parameters for quote request queries
type QuoteRequestFilterParams struct {
	Pagination *pagination.PaginationParams
	Search     string
	Status     *enum.QuoteRequestStatus
	SortBy     string
	SortOrder  string
}
