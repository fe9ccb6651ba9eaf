package routes

import (
	paymentControllers "github.com/Mouuuuu1/valoria/controllers/payment"
	"github.com/Mouuuuu1/valoria/middleware"
	"github.com/gin-gonic/gin"
)

func SetupPaymentRoutes(api *gin.RouterGroup, d Deps) {
	pay := api.Group("/payment")
	{
		pay.POST("/create-intent", middleware.ValidateToken(d.JWTSecret), paymentControllers.CreateIntentHandler(d.Gateway))
		pay.POST("/webhook", middleware.PaymentWebhookAuth(d.WebhookSecret, d.Logger), paymentControllers.WebhookHandler(d.Checkout, d.Logger))
	}
}
