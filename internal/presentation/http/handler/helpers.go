package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/resona/rental-api/internal/presentation/http/dto/response"
	"github.com/resona/rental-api/pkg/apperror"
	"github.com/resona/rental-api/pkg/pagination"
)

// GetUserID extracts the user ID from the Gin context
func GetUserID(c *gin.Context) *uuid.UUID {
	userIDVal, exists := c.Get("user_id")
	if !exists {
		return nil
	}
	userID, ok := userIDVal.(uuid.UUID)
	if !ok {
		return nil
	}
	return &userID
}

// GetAccessToken returns the bearer token the request was authenticated with
func GetAccessToken(c *gin.Context) string {
	return c.GetString("access_token")
}

// bindJSON decodes the body into req, answering 400 VALIDATION_ERROR on
// malformed input. It reports whether the handler should continue.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, apperror.NewReasonError(apperror.ReasonValidation, "Invalid request body"))
		return false
	}
	return true
}

// paramID parses the :id path parameter
func paramID(c *gin.Context, resource string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid "+resource+" ID")
		return uuid.Nil, false
	}
	return id, true
}

func pageParams(page, perPage int) *pagination.PaginationParams {
	return &pagination.PaginationParams{Page: page, PerPage: perPage}
}
