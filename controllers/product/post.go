package productcontroller

import (
	"net/http"

	"github.com/Mouuuuu1/valoria/controllers/respond"
	"github.com/Mouuuuu1/valoria/services/catalog"
	"github.com/gin-gonic/gin"
)

// POST /api/admin/products
func CreateProduct(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input catalog.ProductInput
		if err := c.ShouldBindJSON(&input); err != nil {
			respond.BadRequest(c, err)
			return
		}
		product, err := svc.Create(c.Request.Context(), input)
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusCreated, product)
	}
}
