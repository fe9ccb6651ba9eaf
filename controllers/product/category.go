package productcontroller

import (
	"net/http"

	"github.com/Mouuuuu1/valoria/models"
	"github.com/gin-gonic/gin"
)

// GET /api/products/categories
func GetAllCategories() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.Categories)
	}
}
