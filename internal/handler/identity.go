package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/studentevent/api/internal/domain"
	"github.com/studentevent/api/pkg/middleware"
)

// identityFrom builds the caller's identity from the JWT claims the
// auth middleware stored on the request context
func identityFrom(c *gin.Context) (domain.Identity, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok || userID == "" {
		return domain.Identity{}, false
	}
	name, _ := middleware.GetUserName(c)
	email, _ := middleware.GetUserEmail(c)
	role, _ := middleware.GetUserRole(c)
	return domain.Identity{
		UserID: userID,
		Name:   name,
		Email:  email,
		Role:   domain.Role(role),
	}, true
}
