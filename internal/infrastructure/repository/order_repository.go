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

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *gorm.DB) domainRepo.OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) CreateForQuote(ctx context.Context, order *entity.Order, quote *entity.QuoteRequest) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Claim the quote first so a concurrent conversion waits on the row
		// and then finds it taken.
		claim := tx.Model(&entity.QuoteRequest{}).
			Where("id = ? AND order_id IS NULL AND status <> ?", quote.ID, enum.QuoteRequestStatusConverted).
			Update("status", enum.QuoteRequestStatusConverted)
		if claim.Error != nil {
			return claim.Error
		}
		if claim.RowsAffected == 0 {
			return domainRepo.ErrQuoteAlreadyConverted
		}

		if err := tx.Omit("User").Create(order).Error; err != nil {
			return err
		}
		quote.OrderID = &order.ID
		return tx.Save(quote).Error
	})
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	var order entity.Order
	err := r.db.WithContext(ctx).
		Preload("Items").Preload("User").
		First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &order, err
}

func (r *orderRepository) GetByOrderNumber(ctx context.Context, number string) (*entity.Order, error) {
	var order entity.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "order_number = ?", number).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &order, err
}

func (r *orderRepository) List(ctx context.Context, params *domainRepo.OrderFilterParams) ([]entity.Order, int64, error) {
	var orders []entity.Order
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Order{}).
		Scopes(SearchScope(params.Search, "order_number", "contact_person", "event_type"))

	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Scopes(PaginateScope(params.Pagination), SortScope(params.SortBy, params.SortOrder, "start_date", "total", "created_at")).
		Preload("Items").
		Find(&orders).Error

	return orders, total, err
}

func (r *orderRepository) GetLastOrderNumber(ctx context.Context, prefix string) (string, error) {
	var order entity.Order
	err := r.db.WithContext(ctx).Unscoped().
		Select("order_number").
		Where("order_number LIKE ?", prefix+"%").
		Order("order_number DESC").
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	return order.OrderNumber, err
}
