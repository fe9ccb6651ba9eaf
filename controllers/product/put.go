package productcontroller

import (
	"net/http"

	"github.com/Mouuuuu1/valoria/controllers/respond"
	"github.com/Mouuuuu1/valoria/services/catalog"
	"github.com/gin-gonic/gin"
)

// PUT /api/admin/products/:id
func UpdateProduct(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := respond.ID(c, "id")
		if !ok {
			return
		}
		var patch catalog.ProductPatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			respond.BadRequest(c, err)
			return
		}
		product, err := svc.Update(c.Request.Context(), id, patch)
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}
