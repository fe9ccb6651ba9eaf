package routes

import (
	userControllers "github.com/Mouuuuu1/valoria/controllers/user"
	"github.com/gin-gonic/gin"
)

// SetupAuthRoutes registers /api/auth. Tokens are issued by the identity
// provider; only account registration lives here.
func SetupAuthRoutes(api *gin.RouterGroup, d Deps) {
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", userControllers.Register(d.Accounts))
	}
}
