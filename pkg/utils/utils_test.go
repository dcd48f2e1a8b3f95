package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, expect string
	}{
		{"Sound System Pro", "sound-system-pro"},
		{"  Mesa  Imperial ", "mesa-imperial"},
		{"Pack Boda (Premium)!", "pack-boda-premium"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Slugify(tt.in); got != tt.expect {
				t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.expect)
			}
		})
	}
}

func TestGenerateQuoteReference(t *testing.T) {
	if got := GenerateQuoteReference(42); got != "QR-000042" {
		t.Errorf("GenerateQuoteReference(42) = %q", got)
	}
}

func TestNextOrderNumber(t *testing.T) {
	tests := []struct {
		name   string
		last   string
		expect string
	}{
		{"first of the year", "", "ORD-2026-0001"},
		{"continues sequence", "ORD-2026-0041", "ORD-2026-0042"},
		{"previous year restarts", "ORD-2025-0099", "ORD-2026-0001"},
		{"malformed restarts", "ORD-2026-XX", "ORD-2026-0001"},
		{"grows past four digits", "ORD-2026-9999", "ORD-2026-10000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextOrderNumber(2026, tt.last); got != tt.expect {
				t.Errorf("NextOrderNumber(2026, %q) = %q, want %q", tt.last, got, tt.expect)
			}
		})
	}
}

func TestGeneratePaymentToken(t *testing.T) {
	now := time.UnixMilli(1760000000000)
	token := GeneratePaymentToken(now)
	if !strings.HasPrefix(token, "PAY-1760000000000-") {
		t.Errorf("unexpected token prefix: %s", token)
	}
	if len(token) != len("PAY-1760000000000-")+9 {
		t.Errorf("unexpected token length: %s", token)
	}
	if token == GeneratePaymentToken(now) {
		t.Errorf("tokens should differ")
	}
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !CheckPasswordHash("s3cret", hash) {
		t.Error("expected password to match")
	}
	if CheckPasswordHash("wrong", hash) {
		t.Error("expected wrong password to fail")
	}
}

func TestJWTManager(t *testing.T) {
	m := NewJWTManager("test-secret", time.Minute, time.Hour)
	id := uuid.New()

	access, err := m.GenerateAccessToken(id, "admin@example.com", []string{"admin"}, []string{"manage-quotes"})
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	claims, err := m.ValidateAccessToken(access)
	if err != nil {
		t.Fatalf("ValidateAccessToken: %v", err)
	}
	if claims.UserID != id || claims.Email != "admin@example.com" || len(claims.Roles) != 1 {
		t.Errorf("unexpected claims: %+v", claims)
	}

	refresh, err := m.GenerateRefreshToken(id)
	if err != nil {
		t.Fatalf("GenerateRefreshToken: %v", err)
	}
	got, err := m.ValidateRefreshToken(refresh)
	if err != nil || got != id {
		t.Errorf("ValidateRefreshToken = %v, %v", got, err)
	}

	if _, err := m.ValidateAccessToken(refresh); err == nil {
		t.Error("refresh token accepted as access token")
	}
	if _, err := m.ValidateRefreshToken(access); err == nil {
		t.Error("access token accepted as refresh token")
	}
	if ttl := claims.RemainingTTL(time.Now()); ttl <= 0 || ttl > time.Minute {
		t.Errorf("RemainingTTL = %v", ttl)
	}
	if ttl := claims.RemainingTTL(time.Now().Add(time.Hour)); ttl != 0 {
		t.Errorf("RemainingTTL after expiry = %v", ttl)
	}

	other := NewJWTManager("other-secret", time.Minute, time.Hour)
	if _, err := other.ValidateAccessToken(access); err == nil {
		t.Error("expected token signed with another secret to be rejected")
	}

	expired := NewJWTManager("test-secret", -time.Minute, time.Hour)
	old, _ := expired.GenerateAccessToken(id, "admin@example.com", nil, nil)
	if _, err := m.ValidateAccessToken(old); err == nil {
		t.Error("expected expired token to be rejected")
	}
}
