package routes

import (
	productcontroller "github.com/Mouuuuu1/valoria/controllers/product"
	"github.com/gin-gonic/gin"
)

func SetupProductRoutes(api *gin.RouterGroup, d Deps) {
	products := api.Group("/products")
	{
		products.GET("", productcontroller.GetProducts(d.Catalog))
		products.GET("/featured", productcontroller.GetFeatured(d.Catalog))
		products.GET("/categories", productcontroller.GetAllCategories())
		products.GET("/:id", productcontroller.GetProduct(d.Catalog))
	}
}
