package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/resona/rental-api/internal/domain/entity"
	"github.com/resona/rental-api/internal/domain/enum"
	domainRepo "github.com/resona/rental-api/internal/domain/repository"
	"gorm.io/gorm"
)

type quoteRequestRepository struct {
	db *gorm.DB
}

// NewQuoteRequestRepository creates a new quote request repository
func NewQuoteRequestRepository(db *gorm.DB) domainRepo.QuoteRequestRepository {
	return &quoteRequestRepository{db: db}
}

func (r *quoteRequestRepository) Create(ctx context.Context, quote *entity.QuoteRequest) error {
	return r.db.WithContext(ctx).Create(quote).Error
}

func (r *quoteRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.QuoteRequest, error) {
	var quote entity.QuoteRequest
	err := r.db.WithContext(ctx).First(&quote, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &quote, err
}

func (r *quoteRequestRepository) GetByReference(ctx context.Context, reference string) (*entity.QuoteRequest, error) {
	var quote entity.QuoteRequest
	err := r.db.WithContext(ctx).First(&quote, "reference = ?", reference).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &quote, err
}

func (r *quoteRequestRepository) Update(ctx context.Context, quote *entity.QuoteRequest) error {
	return r.db.WithContext(ctx).Save(quote).Error
}

func (r *quoteRequestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.QuoteRequest{}, "id = ?", id).Error
}

func (r *quoteRequestRepository) List(ctx context.Context, params *domainRepo.QuoteRequestFilterParams) ([]entity.QuoteRequest, int64, error) {
	var quotes []entity.QuoteRequest
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.QuoteRequest{}).
		Scopes(SearchScope(params.Search, "reference", "customer_name", "customer_email", "event_type"))

	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Scopes(PaginateScope(params.Pagination), SortScope(params.SortBy, params.SortOrder, "event_date", "estimated_total", "created_at")).
		Find(&quotes).Error

	return quotes, total, err
}

func (r *quoteRequestRepository) CountByStatus(ctx context.Context) (map[enum.QuoteRequestStatus]int64, error) {
	var rows []struct {
		Status enum.QuoteRequestStatus
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&entity.QuoteRequest{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[enum.QuoteRequestStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// GetNextReferenceNumber counts deleted requests too, so references are never reused
func (r *quoteRequestRepository) GetNextReferenceNumber(ctx context.Context) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Unscoped().Model(&entity.QuoteRequest{}).Count(&count).Error
	return int(count) + 1, err
}
