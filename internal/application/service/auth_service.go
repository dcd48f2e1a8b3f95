package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/resona/rental-api/internal/domain/entity"
	"github.com/resona/rental-api/internal/domain/repository"
	"github.com/resona/rental-api/internal/infrastructure/cache"
	"github.com/resona/rental-api/pkg/apperror"
	"github.com/resona/rental-api/pkg/utils"
	log "github.com/sirupsen/logrus"
)

// AuthService handles back-office authentication
type AuthService struct {
	userRepo   repository.UserRepository
	jwtManager *utils.JWTManager
	blacklist  cache.TokenBlacklist
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repository.UserRepository,
	jwtManager *utils.JWTManager,
	blacklist cache.TokenBlacklist,
) *AuthService {
	if blacklist == nil {
		blacklist = cache.NoopTokenBlacklist{}
	}
	return &AuthService{
		userRepo:   userRepo,
		jwtManager: jwtManager,
		blacklist:  blacklist,
	}
}

// LoginInput represents the login input
type LoginInput struct {
	Email    string
	Password string
}

// LoginOutput represents the login output
type LoginOutput struct {
	User         *entity.User
	AccessToken  string
	RefreshToken string
}

// Login authenticates a user and returns tokens
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Password == "" {
		return nil, apperror.ErrInvalidCredentials
	}

	if !utils.CheckPasswordHash(input.Password, user.Password) {
		return nil, apperror.ErrInvalidCredentials
	}
	if !user.Active {
		return nil, apperror.ErrAccountDisabled
	}

	user, err = s.userRepo.GetWithRoles(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	log.WithField("user_id", user.ID).Info("user logged in")
	return s.issueTokens(user)
}

// RefreshToken generates new tokens from a refresh token
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*LoginOutput, error) {
	userID, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperror.ErrInvalidToken
	}

	user, err := s.userRepo.GetWithRoles(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.ErrNotFound
	}
	if !user.Active {
		return nil, apperror.ErrAccountDisabled
	}

	return s.issueTokens(user)
}

func (s *AuthService) issueTokens(user *entity.User) (*LoginOutput, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, user.Email, user.RoleNames(), user.GetPermissions())
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}

	return &LoginOutput{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// GetCurrentUser returns the current user by ID
func (s *AuthService) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := s.userRepo.GetWithRoles(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.ErrNotFound
	}
	return user, nil
}

// Logout revokes an access token until it would have expired
func (s *AuthService) Logout(ctx context.Context, accessToken string) error {
	claims, err := s.jwtManager.ValidateAccessToken(accessToken)
	if err != nil {
		return apperror.ErrInvalidToken
	}

	if err := s.blacklist.Revoke(ctx, accessToken, claims.RemainingTTL(time.Now())); err != nil {
		return err
	}

	log.WithField("user_id", claims.UserID).Info("user logged out")
	return nil
}

// IsRevoked reports whether an access token was revoked by Logout
func (s *AuthService) IsRevoked(ctx context.Context, accessToken string) (bool, error) {
	return s.blacklist.IsRevoked(ctx, accessToken)
}
