package orderControllers

import (
	"github.com/Mouuuuu1/valoria/services/notify"
	"github.com/gin-gonic/gin"
)

// GET /api/admin/orders/ws streams every placed order to the admin
// dashboard.
func OrderWebSocketHandler(hub *notify.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		hub.ServeWS(c.Writer, c.Request)
	}
}
