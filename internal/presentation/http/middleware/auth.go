package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/resona/rental-api/internal/presentation/http/dto/response"
	"github.com/resona/rental-api/pkg/utils"
	log "github.com/sirupsen/logrus"
)

// RevocationChecker reports whether an access token was revoked at logout
type RevocationChecker interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// AuthMiddleware creates a JWT authentication middleware. Revoked tokens are
// rejected when revocation is non-nil.
func AuthMiddleware(jwtManager *utils.JWTManager, revocation RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "Authorization header is required")
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			response.Unauthorized(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		tokenString := parts[1]

		claims, err := jwtManager.ValidateAccessToken(tokenString)
		if err != nil {
			response.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		if revocation != nil {
			revoked, err := revocation.IsRevoked(c.Request.Context(), tokenString)
			if err != nil {
				// blacklist unavailable: accept the signed token
				log.WithError(err).Warn("token blacklist check failed")
			}
			if revoked {
				response.Unauthorized(c, "Token has been revoked")
				c.Abort()
				return
			}
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_email", claims.Email)
		c.Set("user_roles", claims.Roles)
		c.Set("user_permissions", claims.Permissions)
		c.Set("access_token", tokenString)

		c.Next()
	}
}

// RequirePermission creates a middleware that requires a specific permission
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userPermissions, ok := c.Get("user_permissions")
		if !ok {
			response.Forbidden(c, "Access denied")
			c.Abort()
			return
		}

		permissions, _ := userPermissions.([]string)
		for _, p := range permissions {
			if p == permission {
				c.Next()
				return
			}
		}

		response.Forbidden(c, "You do not have permission to perform this action")
		c.Abort()
	}
}

// RequireRole creates a middleware that requires one of the given roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRoles, ok := c.Get("user_roles")
		if !ok {
			response.Forbidden(c, "Access denied")
			c.Abort()
			return
		}

		roleList, _ := userRoles.([]string)
		for _, userRole := range roleList {
			for _, requiredRole := range roles {
				if userRole == requiredRole {
					c.Next()
					return
				}
			}
		}

		response.Forbidden(c, "Insufficient role privileges")
		c.Abort()
	}
}
