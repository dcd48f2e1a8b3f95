package request

// UserFilterRequest represents query parameters for listing back-office users
type UserFilterRequest struct {
	Page    int    `form:"page"`
	PerPage int    `form:"per_page"`
	Search  string `form:"search"`
}

// CreateUserRequest represents a new back-office account
type CreateUserRequest struct {
	FirstName string   `json:"first_name" binding:"required"`
	LastName  string   `json:"last_name"`
	Email     string   `json:"email" binding:"required,email"`
	Password  string   `json:"password" binding:"required,min=8"`
	Roles     []string `json:"roles" binding:"required,min=1"`
}

// UpdateUserRolesRequest replaces a user's roles
type UpdateUserRolesRequest struct {
	Roles []string `json:"roles" binding:"required,min=1"`
}

// UpdateUserStatusRequest enables or disables an account
type UpdateUserStatusRequest struct {
	Active *bool `json:"active" binding:"required"`
}
