package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/studentevent/api/internal/domain"
	"github.com/studentevent/api/pkg/response"
)

// handleError maps domain errors to HTTP responses
func handleError(c *gin.Context, err error) {
	switch {
	case domain.IsNotFoundError(err):
		response.NotFound(c, err.Error())
	case domain.IsConflictError(err):
		response.Conflict(c, err.Error())
	case domain.IsValidationError(err):
		response.BadRequest(c, err.Error())
	case domain.IsPermissionError(err):
		response.Forbidden(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}
