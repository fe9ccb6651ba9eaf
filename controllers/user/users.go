package userControllers

import (
	"net/http"

	"github.com/Mouuuuu1/valoria/apperr"
	"github.com/Mouuuuu1/valoria/controllers/respond"
	"github.com/Mouuuuu1/valoria/middleware"
	"github.com/Mouuuuu1/valoria/services/account"
	"github.com/gin-gonic/gin"
)

type RoleInput struct {
	Role string `json:"role" binding:"required"`
}

// POST /api/auth/register
func Register(svc *account.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input account.RegisterInput
		if err := c.ShouldBindJSON(&input); err != nil {
			respond.BadRequest(c, err)
			return
		}
		user, err := svc.Register(c.Request.Context(), input)
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusCreated, user)
	}
}

// GET /api/users/me
func GetUser(svc *account.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := middleware.MemberID(c)
		if err != nil {
			respond.Error(c, apperr.Validation("invalid token subject"))
			return
		}
		user, err := svc.Get(c.Request.Context(), userID)
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// PUT /api/users/me
func UpdateUser(svc *account.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := middleware.MemberID(c)
		if err != nil {
			respond.Error(c, apperr.Validation("invalid token subject"))
			return
		}
		var input account.ProfileInput
		if err := c.ShouldBindJSON(&input); err != nil {
			respond.BadRequest(c, err)
			return
		}
		user, err := svc.UpdateProfile(c.Request.Context(), userID, input)
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// GET /api/admin/users
func GetAllUsers(svc *account.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, limit := respond.Page(c)
		users, err := svc.List(c.Request.Context(), page, limit)
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, users)
	}
}

// GET /api/admin/users/:id
func GetUserByID(svc *account.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := respond.ID(c, "id")
		if !ok {
			return
		}
		user, err := svc.Get(c.Request.Context(), id)
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// PUT /api/admin/users/:id/role
func UpdateUserRole(svc *account.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := respond.ID(c, "id")
		if !ok {
			return
		}
		var input RoleInput
		if err := c.ShouldBindJSON(&input); err != nil {
			respond.BadRequest(c, err)
			return
		}
		user, err := svc.UpdateRole(c.Request.Context(), id, input.Role)
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// DELETE /api/admin/users/:id
func DeleteUser(svc *account.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := respond.ID(c, "id")
		if !ok {
			return
		}
		if self, err := middleware.MemberID(c); err == nil && self == id {
			respond.Error(c, apperr.Validation("admins cannot delete their own account"))
			return
		}
		if err := svc.Delete(c.Request.Context(), id); err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
	}
}
