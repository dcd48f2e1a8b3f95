package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/resona/rental-api/internal/domain/entity"
	"github.com/resona/rental-api/internal/domain/enum"
	"github.com/resona/rental-api/internal/domain/repository"
	infraRepo "github.com/resona/rental-api/internal/infrastructure/repository"
	"github.com/resona/rental-api/pkg/apperror"
)

type mapCache struct {
	items       map[uuid.UUID]entity.Product
	hits        int
	sets        int
	invalidated int
}

func newMapCache() *mapCache {
	return &mapCache{items: make(map[uuid.UUID]entity.Product)}
}

func (c *mapCache) Get(_ context.Context, id uuid.UUID) (*entity.Product, error) {
	p, ok := c.items[id]
	if !ok {
		return nil, nil
	}
	c.hits++
	return &p, nil
}

func (c *mapCache) Set(_ context.Context, p *entity.Product) error {
	c.sets++
	c.items[p.ID] = *p
	return nil
}

func (c *mapCache) Invalidate(_ context.Context, id uuid.UUID) error {
	c.invalidated++
	delete(c.items, id)
	return nil
}

func TestCatalogProductLifecycle(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	mc := newMapCache()
	svc := NewCatalogService(infraRepo.NewProductRepository(db), infraRepo.NewCategoryRepository(db), mc)

	audio, err := svc.CreateCategory(ctx, "Audio")
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	if _, err := svc.CreateCategory(ctx, "audio"); apperror.GetAppError(err).Code != http.StatusConflict {
		t.Errorf("duplicate category error = %v", err)
	}

	p, err := svc.CreateProduct(ctx, &ProductInput{
		CategoryID:    &audio.ID,
		Name:          strPtr("Line Array Speaker"),
		PricePerDay:   decPtr("120"),
		PurchasePrice: decPtr("2000"),
		Stock:         intPtr(4),
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if p.Slug != "line-array-speaker" || !p.Active {
		t.Errorf("created product = %+v", p)
	}
	if p.Kind() != enum.ItemKindProduct {
		t.Errorf("Kind() = %v", p.Kind())
	}

	if _, err := svc.GetProduct(ctx, p.ID); err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if _, err := svc.GetProduct(ctx, p.ID); err != nil {
		t.Fatalf("GetProduct (cached): %v", err)
	}
	if mc.sets != 1 || mc.hits != 1 {
		t.Errorf("cache sets=%d hits=%d, want 1/1", mc.sets, mc.hits)
	}

	updated, err := svc.UpdateProduct(ctx, p.ID, &ProductInput{PricePerDay: decPtr("150")})
	if err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}
	assertDecimal(t, "price_per_day", updated.PricePerDay, "150")
	if _, cached := mc.items[p.ID]; cached {
		t.Error("update did not invalidate the cache")
	}

	if err := svc.DeleteProduct(ctx, p.ID); err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}
	if _, err := svc.GetProduct(ctx, p.ID); !apperror.HasReason(err, apperror.ReasonNotFound) {
		t.Errorf("GetProduct after delete error = %v", err)
	}
}

func TestCatalogProductValidation(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := NewCatalogService(infraRepo.NewProductRepository(db), infraRepo.NewCategoryRepository(db), nil)

	tests := []struct {
		name  string
		input *ProductInput
	}{
		{"missing name", &ProductInput{PricePerDay: decPtr("10")}},
		{"negative price", &ProductInput{Name: strPtr("Table"), PricePerDay: decPtr("-1")}},
		{"negative stock", &ProductInput{Name: strPtr("Chair"), Stock: intPtr(-3)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateProduct(ctx, tt.input)
			if !apperror.HasReason(err, apperror.ReasonValidation) {
				t.Errorf("error = %v, want validation error", err)
			}
		})
	}

	missing := uuid.New()
	_, err := svc.CreateProduct(ctx, &ProductInput{Name: strPtr("Stage"), CategoryID: &missing})
	if !apperror.HasReason(err, apperror.ReasonNotFound) {
		t.Errorf("unknown category error = %v", err)
	}
}

func TestBuildLineItems(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	staff := env.createCategory(t, "Personal")
	waiter := env.createProduct(t, &ProductInput{
		CategoryID:    &staff.ID,
		Name:          strPtr("Waiter"),
		PricePerDay:   decPtr("25"),
		PurchasePrice: decPtr("15"),
	})
	ice := env.createProduct(t, &ProductInput{
		Name:          strPtr("Ice bag"),
		PricePerDay:   decPtr("99"),
		PricePerUnit:  decPtr("3"),
		PurchasePrice: decPtr("1"),
		IsConsumable:  boolPtr(true),
	})

	items, err := env.catalog.BuildLineItems(ctx, []ProductSelection{
		{ProductID: waiter.ID, PeopleCount: 2, HoursPerPerson: dec("5")},
		{ProductID: ice.ID, Quantity: 10, UnitSalePrice: decPtr("2.5")},
	})
	if err != nil {
		t.Fatalf("BuildLineItems: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items", len(items))
	}
	if items[0].Kind != enum.ItemKindPersonnel || items[0].ProductID != waiter.ID.String() {
		t.Errorf("waiter item = %+v", items[0])
	}
	assertDecimal(t, "waiter unit price", items[0].UnitSalePrice, "25")
	if items[1].Kind != enum.ItemKindConsumable {
		t.Errorf("ice kind = %v", items[1].Kind)
	}
	assertDecimal(t, "overridden unit price", items[1].UnitSalePrice, "2.5")

	_, err = env.catalog.BuildLineItems(ctx, []ProductSelection{{ProductID: uuid.New(), Quantity: 1}})
	if !apperror.HasReason(err, apperror.ReasonNotFound) {
		t.Errorf("unknown product error = %v", err)
	}
}

func TestListProductsFilters(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	env.createProduct(t, &ProductInput{Name: strPtr("Wedding Pack"), PricePerDay: decPtr("900"), IsPack: boolPtr(true)})
	env.createProduct(t, &ProductInput{Name: strPtr("Subwoofer"), PricePerDay: decPtr("80")})
	env.createProduct(t, &ProductInput{Name: strPtr("Old Mixer"), PricePerDay: decPtr("30"), Active: boolPtr(false)})

	packs, err := env.catalog.ListProducts(ctx, &repository.ProductFilterParams{PacksOnly: true})
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if packs.Pagination.Total != 1 || packs.Items[0].Name != "Wedding Pack" {
		t.Errorf("packs = %+v", packs.Items)
	}

	active, err := env.catalog.ListProducts(ctx, &repository.ProductFilterParams{ActiveOnly: true, Search: "MIX"})
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if active.Pagination.Total != 0 {
		t.Errorf("inactive product listed: %+v", active.Items)
	}
}

func intPtr(i int) *int {
	return &i
}
