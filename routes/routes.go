package routes

import (
	"net/http"

	"github.com/Mouuuuu1/valoria/services/account"
	cartsvc "github.com/Mouuuuu1/valoria/services/cart"
	"github.com/Mouuuuu1/valoria/services/catalog"
	"github.com/Mouuuuu1/valoria/services/checkout"
	"github.com/Mouuuuu1/valoria/services/notify"
	"github.com/Mouuuuu1/valoria/services/payment"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Deps carries everything the handlers need. It is built once in main.
type Deps struct {
	Catalog       *catalog.Service
	Carts         *cartsvc.Service
	Checkout      *checkout.Service
	Accounts      *account.Service
	Gateway       payment.Gateway
	Hub           *notify.Hub
	Logger        *zap.Logger
	JWTSecret     string
	WebhookSecret string
}

// SetupRoutes is the single entry-point that wires every route group under
// /api.
func SetupRoutes(r *gin.Engine, d Deps) {
	api := r.Group("/api")

	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public
	SetupAuthRoutes(api, d)
	SetupProductRoutes(api, d)

	// JWT-protected
	SetupCartRoutes(api, d)
	SetupUserRoutes(api, d)
	SetupOrderRoutes(api, d)
	SetupPaymentRoutes(api, d)

	// Admin role
	SetupAdminRoutes(api, d)
}
