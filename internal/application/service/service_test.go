package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/resona/rental-api/internal/domain/entity"
	"github.com/resona/rental-api/internal/domain/pricing"
	"github.com/resona/rental-api/internal/infrastructure/cache"
	"github.com/resona/rental-api/internal/infrastructure/database"
	"github.com/resona/rental-api/internal/infrastructure/export"
	infraRepo "github.com/resona/rental-api/internal/infrastructure/repository"
	"github.com/resona/rental-api/internal/infrastructure/storage"
	"github.com/resona/rental-api/pkg/email"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2026, time.May, 4, 9, 30, 0, 0, time.UTC)

type testEnv struct {
	db         *gorm.DB
	catalog    *CatalogService
	calculator *QuoteCalculatorService
	quotes     *QuoteRequestService
	orders     *OrderService
	store      *storage.MemoryStore
	mail       *recordingNotifier
}

type recordingNotifier struct {
	sent []email.OrderConfirmation
}

func (n *recordingNotifier) SendOrderConfirmation(msg email.OrderConfirmation) error {
	n.sent = append(n.sent, msg)
	return nil
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewSQLiteDB(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()), false)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := setupTestDB(t)

	productRepo := infraRepo.NewProductRepository(db)
	catalog := NewCatalogService(productRepo, infraRepo.NewCategoryRepository(db), cache.NoopProductCache{})
	calculator := NewQuoteCalculatorService(catalog, pricing.NewEngine(pricing.DefaultConfig()), export.Company{Name: "Resona Events"})
	calculator.now = func() time.Time { return fixedNow }

	store := storage.NewMemoryStore()
	mail := &recordingNotifier{}
	quotes := NewQuoteRequestService(
		infraRepo.NewQuoteRequestRepository(db),
		infraRepo.NewOrderRepository(db),
		productRepo,
		infraRepo.NewUserRepository(db),
		calculator,
		store,
		mail,
	)
	quotes.now = func() time.Time { return fixedNow }

	return &testEnv{
		db:         db,
		catalog:    catalog,
		calculator: calculator,
		quotes:     quotes,
		orders:     NewOrderService(infraRepo.NewOrderRepository(db)),
		store:      store,
		mail:       mail,
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func strPtr(s string) *string {
	return &s
}

func boolPtr(b bool) *bool {
	return &b
}

func (e *testEnv) createCategory(t *testing.T, name string) *entity.Category {
	t.Helper()
	c, err := e.catalog.CreateCategory(context.Background(), name)
	if err != nil {
		t.Fatalf("create category %s: %v", name, err)
	}
	return c
}

func (e *testEnv) createProduct(t *testing.T, input *ProductInput) *entity.Product {
	t.Helper()
	p, err := e.catalog.CreateProduct(context.Background(), input)
	if err != nil {
		t.Fatalf("create product %s: %v", *input.Name, err)
	}
	return p
}

func assertDecimal(t *testing.T, field string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Errorf("%s = %s, want %s", field, got.String(), want)
	}
}

func uuidPtr(id uuid.UUID) *uuid.UUID {
	return &id
}
