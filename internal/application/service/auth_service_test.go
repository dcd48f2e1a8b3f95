package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/resona/rental-api/internal/config"
	"github.com/resona/rental-api/internal/domain/entity"
	"github.com/resona/rental-api/internal/infrastructure/database"
	infraRepo "github.com/resona/rental-api/internal/infrastructure/repository"
	"github.com/resona/rental-api/pkg/apperror"
	"github.com/resona/rental-api/pkg/utils"
)

type memoryBlacklist struct {
	revoked map[string]time.Duration
}

func (b *memoryBlacklist) Revoke(_ context.Context, token string, ttl time.Duration) error {
	b.revoked[token] = ttl
	return nil
}

func (b *memoryBlacklist) IsRevoked(_ context.Context, token string) (bool, error) {
	_, ok := b.revoked[token]
	return ok, nil
}

func newAuthService(t *testing.T) (*AuthService, *memoryBlacklist) {
	t.Helper()
	db := setupTestDB(t)
	admin := config.AdminConfig{Email: "admin@resona.test", Password: "s3cret-pass", FirstName: "Admin"}
	if err := database.SeedDefaultData(db, admin); err != nil {
		t.Fatalf("seed: %v", err)
	}

	hash, err := utils.HashPassword("disabled-pass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	disabled := &entity.User{FirstName: "Old", Email: "old@resona.test", Password: hash, Active: false}
	if err := db.Create(disabled).Error; err != nil {
		t.Fatalf("seed disabled user: %v", err)
	}

	bl := &memoryBlacklist{revoked: make(map[string]time.Duration)}
	jwtManager := utils.NewJWTManager("test-secret", time.Hour, 24*time.Hour)
	return NewAuthService(infraRepo.NewUserRepository(db), jwtManager, bl), bl
}

func TestLogin(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"valid", "ADMIN@resona.test", "s3cret-pass", nil},
		{"wrong password", "admin@resona.test", "nope", apperror.ErrInvalidCredentials},
		{"unknown user", "ghost@resona.test", "s3cret-pass", apperror.ErrInvalidCredentials},
		{"disabled", "old@resona.test", "disabled-pass", apperror.ErrAccountDisabled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := svc.Login(ctx, &LoginInput{Email: tt.email, Password: tt.password})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Login: %v", err)
			}
			if out.AccessToken == "" || out.RefreshToken == "" {
				t.Fatal("missing tokens")
			}
			if !out.User.HasRole(database.RoleSuperAdmin) {
				t.Errorf("roles = %v", out.User.RoleNames())
			}
		})
	}
}

func TestRefreshAndLogout(t *testing.T) {
	svc, bl := newAuthService(t)
	ctx := context.Background()

	out, err := svc.Login(ctx, &LoginInput{Email: "admin@resona.test", Password: "s3cret-pass"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	refreshed, err := svc.RefreshToken(ctx, out.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshToken: %v", err)
	}
	if refreshed.User.ID != out.User.ID {
		t.Errorf("refreshed user = %v", refreshed.User.ID)
	}
	if _, err := svc.RefreshToken(ctx, out.AccessToken+"x"); !errors.Is(err, apperror.ErrInvalidToken) {
		t.Errorf("bad refresh token error = %v", err)
	}

	if err := svc.Logout(ctx, out.AccessToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	ttl, ok := bl.revoked[out.AccessToken]
	if !ok || ttl <= 0 || ttl > time.Hour {
		t.Errorf("revoked ttl = %v (%v)", ttl, ok)
	}
	revoked, _ := svc.IsRevoked(ctx, out.AccessToken)
	if !revoked {
		t.Error("token not revoked")
	}

	if err := svc.Logout(ctx, "garbage"); !errors.Is(err, apperror.ErrInvalidToken) {
		t.Errorf("logout with garbage error = %v", err)
	}
}
