package service

import (
	"context"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/resona/rental-api/internal/domain/entity"
	"github.com/resona/rental-api/internal/domain/repository"
	"github.com/resona/rental-api/pkg/apperror"
	"github.com/resona/rental-api/pkg/pagination"
	"github.com/resona/rental-api/pkg/utils"
	log "github.com/sirupsen/logrus"
)

const minPasswordLength = 8

// UserService manages back-office accounts and their roles
type UserService struct {
	userRepo repository.UserRepository
	roleRepo repository.RoleRepository
}

// NewUserService creates a new user service
func NewUserService(userRepo repository.UserRepository, roleRepo repository.RoleRepository) *UserService {
	return &UserService{
		userRepo: userRepo,
		roleRepo: roleRepo,
	}
}

// ListUsers returns a page of back-office accounts with their roles
func (s *UserService) ListUsers(ctx context.Context, params *pagination.PaginationParams, search string) (*pagination.PaginatedResult[entity.User], error) {
	if params == nil {
		params = pagination.DefaultPagination()
	}
	params.Validate()

	users, total, err := s.userRepo.ListStaff(ctx, params, search)
	if err != nil {
		return nil, err
	}

	return pagination.NewPaginatedResult(users, pagination.NewPagination(params.Page, params.PerPage, total)), nil
}

// GetUser returns a user by ID with roles and permissions
func (s *UserService) GetUser(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := s.userRepo.GetWithRoles(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NewNotFoundError("User")
	}
	return user, nil
}

// CreateUserInput describes a new back-office account
type CreateUserInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Roles     []string
}

// CreateUser adds a back-office account. A customer record created by an
// earlier order with the same email is promoted instead of duplicated.
func (s *UserService) CreateUser(ctx context.Context, input *CreateUserInput) (*entity.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	var fieldErrors []apperror.FieldError
	if strings.TrimSpace(input.FirstName) == "" {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "first_name", Message: "is required"})
	}
	if _, err := mail.ParseAddress(email); err != nil {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "email", Message: "must be a valid email address"})
	}
	if len(input.Password) < minPasswordLength {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "password", Message: "must be at least 8 characters"})
	}
	if len(input.Roles) == 0 {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "roles", Message: "at least one role is required"})
	}
	if len(fieldErrors) > 0 {
		return nil, apperror.NewValidationError(fieldErrors)
	}

	roles, err := s.resolveRoles(ctx, input.Roles)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user != nil && (user.Password != "" || len(user.Roles) > 0) {
		return nil, apperror.NewConflictError("A user with this email already exists")
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	if user == nil {
		user = &entity.User{Email: email}
	}
	user.FirstName = strings.TrimSpace(input.FirstName)
	user.LastName = strings.TrimSpace(input.LastName)
	user.Password = hashed
	user.Active = true

	if user.ID == uuid.Nil {
		err = s.userRepo.Create(ctx, user)
	} else {
		err = s.userRepo.Update(ctx, user)
	}
	if err != nil {
		return nil, err
	}

	for _, role := range roles {
		if err := s.userRepo.AssignRole(ctx, user.ID, role.ID); err != nil {
			return nil, err
		}
	}

	log.WithFields(log.Fields{"user_id": user.ID, "roles": input.Roles}).Info("back-office user created")
	return s.userRepo.GetWithRoles(ctx, user.ID)
}

// UpdateUserRoles replaces the roles assigned to a user
func (s *UserService) UpdateUserRoles(ctx context.Context, userID uuid.UUID, roleNames []string) (*entity.User, error) {
	if len(roleNames) == 0 {
		return nil, apperror.NewValidationError([]apperror.FieldError{{Field: "roles", Message: "at least one role is required"}})
	}

	user, err := s.userRepo.GetWithRoles(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NewNotFoundError("User")
	}

	roles, err := s.resolveRoles(ctx, roleNames)
	if err != nil {
		return nil, err
	}

	desired := make(map[uint]bool, len(roles))
	for _, role := range roles {
		desired[role.ID] = true
	}
	current := make(map[uint]bool, len(user.Roles))
	for _, role := range user.Roles {
		current[role.ID] = true
	}

	for _, role := range user.Roles {
		if !desired[role.ID] {
			if err := s.userRepo.RemoveRole(ctx, userID, role.ID); err != nil {
				return nil, err
			}
		}
	}
	for roleID := range desired {
		if !current[roleID] {
			if err := s.userRepo.AssignRole(ctx, userID, roleID); err != nil {
				return nil, err
			}
		}
	}

	return s.userRepo.GetWithRoles(ctx, userID)
}

// SetActive enables or disables an account. Users cannot disable themselves.
func (s *UserService) SetActive(ctx context.Context, actorID, userID uuid.UUID, active bool) (*entity.User, error) {
	if !active && actorID == userID {
		return nil, apperror.NewBadRequestError("You cannot deactivate your own account")
	}

	user, err := s.userRepo.GetWithRoles(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NewNotFoundError("User")
	}

	user.Active = active
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"user_id": userID, "active": active, "by": actorID}).Info("user status changed")
	return user, nil
}

// ListRoles returns all roles with their permissions
func (s *UserService) ListRoles(ctx context.Context) ([]entity.Role, error) {
	return s.roleRepo.List(ctx)
}

func (s *UserService) resolveRoles(ctx context.Context, names []string) ([]entity.Role, error) {
	roles := make([]entity.Role, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if seen[name] {
			continue
		}
		seen[name] = true

		role, err := s.roleRepo.GetByName(ctx, name)
		if err != nil {
			return nil, err
		}
		if role == nil {
			return nil, apperror.NewValidationError([]apperror.FieldError{{Field: "roles", Message: "unknown role " + name}})
		}
		roles = append(roles, *role)
	}
	return roles, nil
}
