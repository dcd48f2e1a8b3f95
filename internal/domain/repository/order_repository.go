package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/resona/rental-api/internal/domain/entity"
	"github.com/resona/rental-api/internal/domain/enum"
	"github.com/resona/rental-api/pkg/pagination"
)

// ErrQuoteAlreadyConverted is returned by CreateForQuote when another
// conversion of the same quote request committed first
var ErrQuoteAlreadyConverted = errors.New("quote request already converted")

// OrderRepository defines the interface for order data operations
type OrderRepository interface {
	// CreateForQuote stores the order with its items and saves the converted
	// quote request in a single transaction. The quote must not have an order yet.
	CreateForQuote(ctx context.Context, order *entity.Order, quote *entity.QuoteRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error)
	GetByOrderNumber(ctx context.Context, number string) (*entity.Order, error)
	List(ctx context.Context, params *OrderFilterParams) ([]entity.Order, int64, error)
	// GetLastOrderNumber returns the highest order number starting with prefix,
	// or "" when there is none
	GetLastOrderNumber(ctx context.Context, prefix string) (string, error)
}

// OrderFilterParams contains filtering parameters for order queries
type OrderFilterParams struct {
	Pagination *pagination.PaginationParams
	Search     string
	Status     *enum.OrderStatus
	SortBy     string
	SortOrder  string
}
