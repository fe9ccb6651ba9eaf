package routes

import (
	cartControllers "github.com/Mouuuuu1/valoria/controllers/cart"
	orderControllers "github.com/Mouuuuu1/valoria/controllers/order"
	productcontroller "github.com/Mouuuuu1/valoria/controllers/product"
	userControllers "github.com/Mouuuuu1/valoria/controllers/user"
	"github.com/Mouuuuu1/valoria/middleware"
	"github.com/gin-gonic/gin"
)

// SetupAdminRoutes registers all /api/admin endpoints. Requires an admin
// token; the live feed accepts it as ?token= since browsers cannot set
// headers on websocket upgrades.
func SetupAdminRoutes(api *gin.RouterGroup, d Deps) {
	adminGroup := api.Group("/admin")
	adminGroup.Use(middleware.ValidateToken(d.JWTSecret), middleware.RequireAdmin())
	{
		// ─────────── Product Management ───────────
		productAdmin := adminGroup.Group("/products")
		{
			productAdmin.POST("", productcontroller.CreateProduct(d.Catalog))
			productAdmin.PUT("/:id", productcontroller.UpdateProduct(d.Catalog))
			productAdmin.DELETE("/:id", productcontroller.DeleteProduct(d.Catalog))
			productAdmin.POST("/import", productcontroller.ImportProductsFromExcel(d.Catalog))
			productAdmin.GET("/export", productcontroller.ExportProductsToExcel(d.Catalog))
		}

		// ─────────── Order Management ───────────
		orderAdmin := adminGroup.Group("/orders")
		{
			orderAdmin.GET("", orderControllers.GetAllOrdersHandler(d.Checkout))
			orderAdmin.GET("/statistics", orderControllers.GetStatisticsHandler(d.Checkout))
			orderAdmin.GET("/ws", orderControllers.OrderWebSocketHandler(d.Hub))
			orderAdmin.PUT("/:id/status", orderControllers.UpdateOrderStatusHandler(d.Checkout))
			orderAdmin.PUT("/:id/payment-status", orderControllers.UpdatePaymentStatusHandler(d.Checkout))
		}

		// ─────────── User Management ───────────
		userAdmin := adminGroup.Group("/users")
		{
			userAdmin.GET("", userControllers.GetAllUsers(d.Accounts))
			userAdmin.GET("/:id", userControllers.GetUserByID(d.Accounts))
			userAdmin.PUT("/:id/role", userControllers.UpdateUserRole(d.Accounts))
			userAdmin.DELETE("/:id", userControllers.DeleteUser(d.Accounts))
		}

		adminGroup.GET("/carts/:owner_id", cartControllers.GetAdminUserCart(d.Carts))
	}
}
