package cartControllers

import (
	"net/http"

	"github.com/Mouuuuu1/valoria/controllers/respond"
	"github.com/Mouuuuu1/valoria/middleware"
	cartsvc "github.com/Mouuuuu1/valoria/services/cart"
	"github.com/gin-gonic/gin"
)

type AddItemInput struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required"`
}

type UpdateItemInput struct {
	Quantity int `json:"quantity" binding:"required"`
}

// GET /api/cart
func GetCart(svc *cartsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := svc.Get(c.Request.Context(), middleware.Subject(c))
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

// POST /api/cart/items
func AddToCart(svc *cartsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input AddItemInput
		if err := c.ShouldBindJSON(&input); err != nil {
			respond.BadRequest(c, err)
			return
		}
		view, err := svc.AddItem(c.Request.Context(), middleware.Subject(c), input.ProductID, input.Quantity)
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

// PUT /api/cart/items/:product_id
func UpdateCartItem(svc *cartsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID, ok := respond.ID(c, "product_id")
		if !ok {
			return
		}
		var input UpdateItemInput
		if err := c.ShouldBindJSON(&input); err != nil {
			respond.BadRequest(c, err)
			return
		}
		view, err := svc.UpdateQuantity(c.Request.Context(), middleware.Subject(c), productID, input.Quantity)
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

// DELETE /api/cart/items/:product_id
func RemoveCartItem(svc *cartsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID, ok := respond.ID(c, "product_id")
		if !ok {
			return
		}
		view, err := svc.RemoveItem(c.Request.Context(), middleware.Subject(c), productID)
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

// DELETE /api/cart
func ClearCart(svc *cartsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := svc.Clear(c.Request.Context(), middleware.Subject(c))
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

// GET /api/admin/carts/:owner_id
func GetAdminUserCart(svc *cartsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := svc.Lookup(c.Request.Context(), c.Param("owner_id"))
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}
