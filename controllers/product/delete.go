package productcontroller

import (
	"net/http"

	"github.com/Mouuuuu1/valoria/controllers/respond"
	"github.com/Mouuuuu1/valoria/services/catalog"
	"github.com/gin-gonic/gin"
)

// DELETE /api/admin/products/:id
func DeleteProduct(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := respond.ID(c, "id")
		if !ok {
			return
		}
		if err := svc.Delete(c.Request.Context(), id); err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
	}
}
