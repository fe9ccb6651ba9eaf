package middleware

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
	"go.uber.org/zap"
)

const (
	SignatureHeader     = "Stripe-Signature"
	ContextPaymentEvent = "paymentEvent"
	maxWebhookBody      = 1 << 20
)

// PaymentWebhookAuth verifies the Stripe-Signature header, including its
// timestamp tolerance, and stores the decoded event for the handler.
func PaymentWebhookAuth(secret string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "failed to read webhook body"})
			return
		}
		if secret == "" {
			logger.Error("Payment webhook secret is not configured")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid webhook signature"})
			return
		}

		event, err := webhook.ConstructEventWithOptions(body, c.GetHeader(SignatureHeader), secret,
			webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
		if err != nil {
			logger.Warn("Rejected payment webhook", zap.String("remote", c.ClientIP()), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid webhook signature"})
			return
		}

		c.Set(ContextPaymentEvent, &event)
		c.Next()
	}
}

// PaymentEvent returns the event verified by PaymentWebhookAuth.
func PaymentEvent(c *gin.Context) (*stripe.Event, bool) {
	e, ok := c.Get(ContextPaymentEvent)
	if !ok {
		return nil, false
	}
	event, ok := e.(*stripe.Event)
	return event, ok
}
