package orderControllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/Mouuuuu1/valoria/apperr"
	"github.com/Mouuuuu1/valoria/controllers/respond"
	"github.com/Mouuuuu1/valoria/middleware"
	"github.com/Mouuuuu1/valoria/models"
	"github.com/Mouuuuu1/valoria/services/checkout"
	"github.com/gin-gonic/gin"
)

// PlaceOrderInput is the body of POST /api/orders. Members may omit the
// address to use their saved shipping profile; guest tokens must send
// guest_email.
type PlaceOrderInput struct {
	ShippingAddress *models.ShippingAddress `json:"shipping_address"`
	PaymentMethod   string                  `json:"payment_method"`
	PaymentIntentID string                  `json:"payment_intent_id"`
	GuestEmail      string                  `json:"guest_email"`
}

type GuestOrderInput struct {
	Email           string                 `json:"email" binding:"required"`
	Items           []checkout.LineRequest `json:"items" binding:"required"`
	ShippingAddress models.ShippingAddress `json:"shipping_address"`
	PaymentMethod   string                 `json:"payment_method"`
	PaymentIntentID string                 `json:"payment_intent_id"`
}

type StatusInput struct {
	Status string `json:"status" binding:"required"`
}

type PaymentStatusInput struct {
	PaymentStatus string `json:"payment_status" binding:"required"`
}

// POST /api/orders
func PlaceOrderHandler(svc *checkout.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input PlaceOrderInput
		if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
			respond.BadRequest(c, err)
			return
		}

		req := checkout.PlaceOrderInput{
			Source:          checkout.FromCart{OwnerID: middleware.Subject(c)},
			PaymentMethod:   input.PaymentMethod,
			PaymentIntentID: input.PaymentIntentID,
		}
		if input.ShippingAddress != nil {
			req.ShippingAddress = *input.ShippingAddress
		}
		if middleware.Role(c) == models.RoleGuest {
			req.Customer = checkout.Guest{Email: input.GuestEmail}
		} else {
			userID, err := middleware.MemberID(c)
			if err != nil {
				respond.Error(c, apperr.Validation("invalid token subject"))
				return
			}
			req.Customer = checkout.Member{UserID: userID}
		}

		order, err := svc.PlaceOrder(c.Request.Context(), req)
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusCreated, order)
	}
}

// POST /api/orders/guest
func PlaceGuestOrderHandler(svc *checkout.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input GuestOrderInput
		if err := c.ShouldBindJSON(&input); err != nil {
			respond.BadRequest(c, err)
			return
		}
		order, err := svc.PlaceOrder(c.Request.Context(), checkout.PlaceOrderInput{
			Source:          checkout.FromItems{Items: input.Items},
			Customer:        checkout.Guest{Email: input.Email},
			ShippingAddress: input.ShippingAddress,
			PaymentMethod:   input.PaymentMethod,
			PaymentIntentID: input.PaymentIntentID,
		})
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusCreated, order)
	}
}

// GET /api/orders/guest/:order_number?email=
func GetGuestOrderHandler(svc *checkout.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := svc.GuestOrder(c.Request.Context(), c.Param("order_number"), c.Query("email"))
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// GET /api/orders
func GetUserOrdersHandler(svc *checkout.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := middleware.MemberID(c)
		if err != nil {
			respond.Error(c, apperr.Validation("invalid token subject"))
			return
		}
		orders, err := svc.ListUserOrders(c.Request.Context(), userID)
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

// GET /api/orders/:id
func GetOrderHandler(svc *checkout.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := respond.ID(c, "id")
		if !ok {
			return
		}
		var (
			order *models.Order
			err   error
		)
		if middleware.Role(c) == models.RoleAdmin {
			order, err = svc.GetOrder(c.Request.Context(), id)
		} else {
			userID, idErr := middleware.MemberID(c)
			if idErr != nil {
				respond.Error(c, apperr.Validation("invalid token subject"))
				return
			}
			order, err = svc.GetOrderForUser(c.Request.Context(), id, userID)
		}
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// GET /api/admin/orders
func GetAllOrdersHandler(svc *checkout.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, limit := respond.Page(c)
		result, err := svc.ListOrders(c.Request.Context(), c.Query("status"), page, limit)
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// GET /api/admin/orders/statistics
func GetStatisticsHandler(svc *checkout.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := svc.Statistics(c.Request.Context())
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

// PUT /api/admin/orders/:id/status
func UpdateOrderStatusHandler(svc *checkout.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := respond.ID(c, "id")
		if !ok {
			return
		}
		var input StatusInput
		if err := c.ShouldBindJSON(&input); err != nil {
			respond.BadRequest(c, err)
			return
		}
		status, valid := models.ParseOrderStatus(input.Status)
		if !valid {
			respond.Error(c, apperr.Validation("unknown order status %q", input.Status))
			return
		}
		order, err := svc.UpdateOrderStatus(c.Request.Context(), id, status)
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// PUT /api/admin/orders/:id/payment-status
func UpdatePaymentStatusHandler(svc *checkout.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := respond.ID(c, "id")
		if !ok {
			return
		}
		var input PaymentStatusInput
		if err := c.ShouldBindJSON(&input); err != nil {
			respond.BadRequest(c, err)
			return
		}
		status, valid := models.ParsePaymentStatus(input.PaymentStatus)
		if !valid {
			respond.Error(c, apperr.Validation("unknown payment status %q", input.PaymentStatus))
			return
		}
		order, err := svc.UpdatePaymentStatus(c.Request.Context(), id, status)
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}
