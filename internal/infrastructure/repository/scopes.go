package repository

import (
	"strings"

	"github.com/resona/rental-api/pkg/pagination"
	"gorm.io/gorm"
)

// SearchScope matches term case-insensitively against any of the given columns.
// LOWER/LIKE is used instead of ILIKE so the same query runs on sqlite.
func SearchScope(term string, columns ...string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		term = strings.TrimSpace(term)
		if term == "" || len(columns) == 0 {
			return db
		}
		like := "%" + strings.ToLower(term) + "%"
		clauses := make([]string, len(columns))
		args := make([]interface{}, len(columns))
		for i, col := range columns {
			clauses[i] = "LOWER(" + col + ") LIKE ?"
			args[i] = like
		}
		return db.Where(strings.Join(clauses, " OR "), args...)
	}
}

// SortScope orders by sortBy when it is one of the allowed columns, falling
// back to created_at DESC
func SortScope(sortBy, sortOrder string, allowed ...string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		column := "created_at"
		for _, a := range allowed {
			if sortBy == a {
				column = a
				break
			}
		}
		direction := "DESC"
		if strings.EqualFold(sortOrder, "asc") {
			direction = "ASC"
		}
		return db.Order(column + " " + direction)
	}
}

// PaginateScope applies offset and limit. params is validated in place.
func PaginateScope(params *pagination.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if params == nil {
			params = pagination.DefaultPagination()
		}
		params.Validate()
		return db.Offset(params.Offset()).Limit(params.PerPage)
	}
}
