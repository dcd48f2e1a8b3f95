package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/resona/rental-api/internal/domain/entity"
)

func TestNilClientFallsBackToNoop(t *testing.T) {
	ctx := context.Background()

	products := NewProductCache(nil, time.Minute)
	if _, ok := products.(NoopProductCache); !ok {
		t.Fatalf("NewProductCache(nil) = %T", products)
	}
	p := &entity.Product{ID: uuid.New(), Name: "Speaker"}
	if err := products.Set(ctx, p); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := products.Get(ctx, p.ID)
	if err != nil || got != nil {
		t.Errorf("noop Get = %v, %v", got, err)
	}

	tokens := NewTokenBlacklist(nil)
	if err := tokens.Revoke(ctx, "abc", time.Hour); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if revoked, _ := tokens.IsRevoked(ctx, "abc"); revoked {
		t.Error("noop blacklist reported a revoked token")
	}
}

func TestKeys(t *testing.T) {
	id := uuid.MustParse("7c0e6f8a-1f2b-4a3c-9d4e-5f6a7b8c9d0e")
	if got := productKey(id); got != "product:7c0e6f8a-1f2b-4a3c-9d4e-5f6a7b8c9d0e" {
		t.Errorf("productKey = %q", got)
	}

	k := blacklistKey("header.payload.signature")
	if !strings.HasPrefix(k, blacklistKeyPrefix) || len(k) != len(blacklistKeyPrefix)+64 {
		t.Errorf("blacklistKey = %q", k)
	}
	if k == blacklistKey("other") {
		t.Error("different tokens share a key")
	}
}
