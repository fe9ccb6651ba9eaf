package routes

import (
	orderControllers "github.com/Mouuuuu1/valoria/controllers/order"
	"github.com/Mouuuuu1/valoria/middleware"
	"github.com/gin-gonic/gin"
)

func SetupOrderRoutes(api *gin.RouterGroup, d Deps) {
	orders := api.Group("/orders")
	{
		// Guest checkout with an explicit item list and lookup by number.
		orders.POST("/guest", orderControllers.PlaceGuestOrderHandler(d.Checkout))
		orders.GET("/guest/:order_number", orderControllers.GetGuestOrderHandler(d.Checkout))

		auth := middleware.ValidateToken(d.JWTSecret)

		// Checkout of the caller's cart, member or guest token.
		orders.POST("", auth, orderControllers.PlaceOrderHandler(d.Checkout))

		orders.GET("", auth, middleware.RequireMember(), orderControllers.GetUserOrdersHandler(d.Checkout))
		orders.GET("/:id", auth, middleware.RequireMember(), orderControllers.GetOrderHandler(d.Checkout))
	}
}
