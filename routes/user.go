package routes

import (
	userControllers "github.com/Mouuuuu1/valoria/controllers/user"
	"github.com/Mouuuuu1/valoria/middleware"
	"github.com/gin-gonic/gin"
)

// SetupUserRoutes registers /api/users/me for signed-in customers.
func SetupUserRoutes(api *gin.RouterGroup, d Deps) {
	users := api.Group("/users")
	users.Use(middleware.ValidateToken(d.JWTSecret), middleware.RequireMember())
	{
		users.GET("/me", userControllers.GetUser(d.Accounts))
		users.PUT("/me", userControllers.UpdateUser(d.Accounts))
	}
}
