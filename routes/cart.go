package routes

import (
	cartControllers "github.com/Mouuuuu1/valoria/controllers/cart"
	"github.com/Mouuuuu1/valoria/middleware"
	"github.com/gin-gonic/gin"
)

// SetupCartRoutes registers /api/cart. The cart owner is the token subject,
// so members and guests share these routes.
func SetupCartRoutes(api *gin.RouterGroup, d Deps) {
	cart := api.Group("/cart")
	cart.Use(middleware.ValidateToken(d.JWTSecret))
	{
		cart.GET("", cartControllers.GetCart(d.Carts))
		cart.DELETE("", cartControllers.ClearCart(d.Carts))
		cart.POST("/items", cartControllers.AddToCart(d.Carts))
		cart.PUT("/items/:product_id", cartControllers.UpdateCartItem(d.Carts))
		cart.DELETE("/items/:product_id", cartControllers.RemoveCartItem(d.Carts))
	}
}
