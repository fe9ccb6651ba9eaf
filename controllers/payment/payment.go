package paymentControllers

import (
	"net/http"

	"github.com/Mouuuuu1/valoria/apperr"
	"github.com/Mouuuuu1/valoria/controllers/respond"
	"github.com/Mouuuuu1/valoria/middleware"
	"github.com/Mouuuuu1/valoria/services/checkout"
	"github.com/Mouuuuu1/valoria/services/payment"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CreateIntentInput struct {
	Amount decimal.Decimal `json:"amount"`
}

// POST /api/payment/create-intent
func CreateIntentHandler(gateway payment.Gateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input CreateIntentInput
		if err := c.ShouldBindJSON(&input); err != nil {
			respond.BadRequest(c, err)
			return
		}
		if !input.Amount.IsPositive() {
			respond.Error(c, apperr.Validation("Invalid amount"))
			return
		}
		intent, err := gateway.CreateIntent(c.Request.Context(), input.Amount)
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, intent)
	}
}

// POST /api/payment/webhook, behind middleware.PaymentWebhookAuth.
func WebhookHandler(svc *checkout.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		event, ok := middleware.PaymentEvent(c)
		if !ok {
			respond.Error(c, apperr.Validation("missing payment event"))
			return
		}

		outcome, ok, err := payment.ParseEvent(event)
		if err != nil {
			respond.BadRequest(c, err)
			return
		}
		if !ok {
			logger.Debug("Ignoring payment event", zap.String("type", string(event.Type)))
			c.JSON(http.StatusOK, gin.H{"received": true})
			return
		}

		order, err := svc.ApplyPaymentResult(c.Request.Context(), checkout.PaymentResult{
			IntentID: outcome.IntentID,
			Status:   outcome.Status,
			Amount:   outcome.Amount,
		})
		if err != nil {
			logger.Warn("Payment webhook not applied",
				zap.String("intent_id", outcome.IntentID),
				zap.String("type", string(event.Type)),
				zap.Error(err))
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"received": true, "order_number": order.OrderNumber, "payment_status": order.PaymentStatus})
	}
}
