package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/resona/rental-api/internal/config"
	"github.com/resona/rental-api/internal/domain/entity"
	"github.com/resona/rental-api/pkg/utils"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Role names
const (
	RoleSuperAdmin = "super-admin"
	RoleAdmin      = "admin"
	RoleStaff      = "staff"
)

// Permission names
const (
	PermManageProducts   = "manage-products"
	PermManageCategories = "manage-categories"
	PermManageQuotes     = "manage-quotes"
	PermConvertQuotes    = "convert-quotes"
	PermViewOrders       = "view-orders"
	PermManageUsers      = "manage-users"
)

var allPermissions = []string{
	PermManageProducts,
	PermManageCategories,
	PermManageQuotes,
	PermConvertQuotes,
	PermViewOrders,
	PermManageUsers,
}

var rolePermissions = map[string][]string{
	RoleSuperAdmin: allPermissions,
	RoleAdmin:      {PermManageProducts, PermManageCategories, PermManageQuotes, PermConvertQuotes, PermViewOrders},
	RoleStaff:      {PermManageQuotes, PermViewOrders},
}

// SeedDefaultData creates roles, permissions, the staff category and, when
// configured, the first admin account. It is safe to run on every start.
func SeedDefaultData(db *gorm.DB, admin config.AdminConfig) error {
	log.Info("seeding default data")

	perms := make(map[string]entity.Permission, len(allPermissions))
	for _, name := range allPermissions {
		p := entity.Permission{Name: name, GuardName: "web"}
		if err := db.Where(entity.Permission{Name: name}).FirstOrCreate(&p).Error; err != nil {
			return fmt.Errorf("seed permission %s: %w", name, err)
		}
		perms[name] = p
	}

	for roleName, names := range rolePermissions {
		var role entity.Role
		err := db.Where("name = ?", roleName).First(&role).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("seed role %s: %w", roleName, err)
		}
		role = entity.Role{Name: roleName, GuardName: "web"}
		for _, n := range names {
			role.Permissions = append(role.Permissions, perms[n])
		}
		if err := db.Create(&role).Error; err != nil {
			return fmt.Errorf("seed role %s: %w", roleName, err)
		}
	}

	staff := entity.Category{Name: entity.PersonnelCategory, Slug: entity.PersonnelCategory}
	if err := db.Where(entity.Category{Slug: staff.Slug}).FirstOrCreate(&staff).Error; err != nil {
		return fmt.Errorf("seed staff category: %w", err)
	}

	if err := seedAdmin(db, admin); err != nil {
		return err
	}

	log.Info("default data seeding completed")
	return nil
}

func seedAdmin(db *gorm.DB, admin config.AdminConfig) error {
	if admin.Email == "" || admin.Password == "" {
		return nil
	}
	email := strings.ToLower(strings.TrimSpace(admin.Email))

	var existing entity.User
	err := db.Where("LOWER(email) = ?", email).First(&existing).Error
	if err == nil {
		log.WithField("email", email).Debug("admin user already exists")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("seed admin: %w", err)
	}

	hashed, err := utils.HashPassword(admin.Password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	var role entity.Role
	if err := db.Where("name = ?", RoleSuperAdmin).First(&role).Error; err != nil {
		return fmt.Errorf("load %s role: %w", RoleSuperAdmin, err)
	}

	user := entity.User{
		FirstName: admin.FirstName,
		Email:     email,
		Password:  hashed,
		Active:    true,
		Roles:     []entity.Role{role},
	}
	if err := db.Create(&user).Error; err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}
	log.WithField("email", email).Info("admin user created")
	return nil
}
