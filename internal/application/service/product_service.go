package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/resona/rental-api/internal/domain/entity"
	"github.com/resona/rental-api/internal/domain/pricing"
	"github.com/resona/rental-api/internal/domain/repository"
	"github.com/resona/rental-api/internal/infrastructure/cache"
	"github.com/resona/rental-api/pkg/apperror"
	"github.com/resona/rental-api/pkg/pagination"
	"github.com/resona/rental-api/pkg/utils"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// CatalogService handles products and categories
type CatalogService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	cache        cache.ProductCache
}

// NewCatalogService creates a new catalog service
func NewCatalogService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	productCache cache.ProductCache,
) *CatalogService {
	if productCache == nil {
		productCache = cache.NoopProductCache{}
	}
	return &CatalogService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		cache:        productCache,
	}
}

// ProductInput represents the create/update product input. Nil fields are
// left unchanged on update.
type ProductInput struct {
	CategoryID       *uuid.UUID
	Name             *string
	Description      *string
	PricePerDay      *decimal.Decimal
	PricePerUnit     *decimal.Decimal
	PurchasePrice    *decimal.Decimal
	ShippingCost     *decimal.Decimal
	InstallationCost *decimal.Decimal
	IsConsumable     *bool
	IsPack           *bool
	Stock            *int
	Active           *bool
}

// CreateProduct creates a new product
func (s *CatalogService) CreateProduct(ctx context.Context, input *ProductInput) (*entity.Product, error) {
	if input.Name == nil || *input.Name == "" {
		return nil, apperror.NewValidationError([]apperror.FieldError{{Field: "name", Message: "name is required"}})
	}

	slug := utils.Slugify(*input.Name)
	existing, err := s.productRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.NewConflictError("Product with this name already exists")
	}

	product := &entity.Product{Slug: slug, Active: true}
	if err := s.applyProductInput(ctx, product, input); err != nil {
		return nil, err
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	return s.productRepo.GetByID(ctx, product.ID)
}

// GetProduct retrieves a product by ID, going through the cache
func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	cached, err := s.cache.Get(ctx, id)
	if err != nil {
		log.WithError(err).WithField("product_id", id).Warn("product cache read failed")
	}
	if cached != nil {
		return cached, nil
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, apperror.NewNotFoundError("Product")
	}

	if err := s.cache.Set(ctx, product); err != nil {
		log.WithError(err).WithField("product_id", id).Warn("product cache write failed")
	}
	return product, nil
}

// ListProducts lists products with filtering
func (s *CatalogService) ListProducts(ctx context.Context, params *repository.ProductFilterParams) (*pagination.PaginatedResult[entity.Product], error) {
	if params.Pagination == nil {
		params.Pagination = pagination.DefaultPagination()
	}
	params.Pagination.Validate()

	products, total, err := s.productRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}

	pag := pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total)
	return pagination.NewPaginatedResult(products, pag), nil
}

// UpdateProduct updates a product
func (s *CatalogService) UpdateProduct(ctx context.Context, id uuid.UUID, input *ProductInput) (*entity.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, apperror.NewNotFoundError("Product")
	}

	if input.Name != nil && *input.Name != product.Name {
		slug := utils.Slugify(*input.Name)
		existing, err := s.productRepo.GetBySlug(ctx, slug)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != product.ID {
			return nil, apperror.NewConflictError("Product with this name already exists")
		}
		product.Slug = slug
	}

	if err := s.applyProductInput(ctx, product, input); err != nil {
		return nil, err
	}
	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}
	s.invalidate(ctx, product.ID)

	return s.productRepo.GetByID(ctx, product.ID)
}

// DeleteProduct soft-deletes a product
func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if product == nil {
		return apperror.NewNotFoundError("Product")
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *CatalogService) invalidate(ctx context.Context, id uuid.UUID) {
	if err := s.cache.Invalidate(ctx, id); err != nil {
		log.WithError(err).WithField("product_id", id).Warn("product cache invalidation failed")
	}
}

func (s *CatalogService) applyProductInput(ctx context.Context, product *entity.Product, input *ProductInput) error {
	var fieldErrors []apperror.FieldError
	checkMoney := func(field string, d *decimal.Decimal) {
		if d != nil && d.IsNegative() {
			fieldErrors = append(fieldErrors, apperror.FieldError{Field: field, Message: field + " must not be negative"})
		}
	}
	checkMoney("price_per_day", input.PricePerDay)
	checkMoney("price_per_unit", input.PricePerUnit)
	checkMoney("purchase_price", input.PurchasePrice)
	checkMoney("shipping_cost", input.ShippingCost)
	checkMoney("installation_cost", input.InstallationCost)
	if input.Stock != nil && *input.Stock < 0 {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "stock", Message: "stock must not be negative"})
	}
	if len(fieldErrors) > 0 {
		return apperror.NewValidationError(fieldErrors)
	}

	if input.CategoryID != nil {
		category, err := s.categoryRepo.GetByID(ctx, *input.CategoryID)
		if err != nil {
			return err
		}
		if category == nil {
			return apperror.NewNotFoundError("Category")
		}
		product.CategoryID = &category.ID
		product.Category = category
	}

	if input.Name != nil {
		product.Name = *input.Name
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.PricePerDay != nil {
		product.PricePerDay = *input.PricePerDay
	}
	if input.PricePerUnit != nil {
		product.PricePerUnit = *input.PricePerUnit
	}
	if input.PurchasePrice != nil {
		product.PurchasePrice = *input.PurchasePrice
	}
	if input.ShippingCost != nil {
		product.ShippingCost = *input.ShippingCost
	}
	if input.InstallationCost != nil {
		product.InstallationCost = *input.InstallationCost
	}
	if input.IsConsumable != nil {
		product.IsConsumable = *input.IsConsumable
	}
	if input.IsPack != nil {
		product.IsPack = *input.IsPack
	}
	if input.Stock != nil {
		product.Stock = *input.Stock
	}
	if input.Active != nil {
		product.Active = *input.Active
	}
	return nil
}

// ProductSelection is a catalog product picked for a quote
type ProductSelection struct {
	ProductID      uuid.UUID
	Quantity       int
	PeopleCount    int
	HoursPerPerson decimal.Decimal

	// UnitSalePrice replaces the catalog price when set
	UnitSalePrice *decimal.Decimal
}

// BuildLineItems resolves selections against the catalog in one query
func (s *CatalogService) BuildLineItems(ctx context.Context, selections []ProductSelection) ([]pricing.LineItem, error) {
	ids := make([]uuid.UUID, 0, len(selections))
	for _, sel := range selections {
		ids = append(ids, sel.ProductID)
	}

	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*entity.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	items := make([]pricing.LineItem, 0, len(selections))
	for _, sel := range selections {
		product, ok := byID[sel.ProductID]
		if !ok {
			return nil, apperror.NewNotFoundError("Product " + sel.ProductID.String())
		}
		items = append(items, LineItemFromProduct(product, sel))
	}
	return items, nil
}

// LineItemFromProduct prices a selection with the product's catalog data
func LineItemFromProduct(product *entity.Product, sel ProductSelection) pricing.LineItem {
	unitPrice := product.SalePrice()
	if sel.UnitSalePrice != nil {
		unitPrice = *sel.UnitSalePrice
	}
	return pricing.LineItem{
		ProductID:            product.ID.String(),
		Name:                 product.Name,
		Kind:                 product.Kind(),
		UnitSalePrice:        unitPrice,
		UnitPurchasePrice:    product.PurchasePrice,
		Quantity:             sel.Quantity,
		PeopleCount:          sel.PeopleCount,
		HoursPerPerson:       sel.HoursPerPerson,
		ShippingUnitCost:     product.ShippingCost,
		InstallationUnitCost: product.InstallationCost,
	}
}
