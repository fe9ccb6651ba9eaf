// Package payment talks to Stripe: it creates payment intents and reads the
// outcome out of verified webhook events.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Mouuuuu1/valoria/apperr"
	"github.com/Mouuuuu1/valoria/models"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"go.uber.org/zap"
)

type Intent struct {
	ID           string `json:"payment_intent_id"`
	ClientSecret string `json:"client_secret"`
}

type Gateway interface {
	CreateIntent(ctx context.Context, amount decimal.Decimal) (*Intent, error)
}

// StripeGateway creates payment intents through the Stripe API.
type StripeGateway struct {
	api      *client.API
	apiKey   string
	currency string
	logger   *zap.Logger
}

// NewStripeGateway builds a client for apiKey. An empty baseURL means the
// public Stripe endpoint.
func NewStripeGateway(apiKey, baseURL, currency string, logger *zap.Logger) *StripeGateway {
	if baseURL == "" {
		baseURL = stripe.APIURL
	}
	api := &client.API{}
	api.Init(apiKey, &stripe.Backends{
		API: stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
			URL:               stripe.String(baseURL),
			MaxNetworkRetries: stripe.Int64(1),
			LeveledLogger:     logger.Sugar(),
		}),
	})
	return &StripeGateway{
		api:      api,
		apiKey:   apiKey,
		currency: strings.ToLower(currency),
		logger:   logger,
	}
}

// CreateIntent registers amount, converted to minor units, with Stripe.
func (g *StripeGateway) CreateIntent(ctx context.Context, amount decimal.Decimal) (*Intent, error) {
	if !amount.IsPositive() {
		return nil, apperr.Validation("amount must be greater than zero")
	}
	if g.apiKey == "" {
		return nil, apperr.Upstream(nil, "payment provider is not configured")
	}

	cents := amount.Shift(2).Round(0).IntPart()
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(cents),
		Currency: stripe.String(g.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		var serr *stripe.Error
		if errors.As(err, &serr) {
			g.logger.Warn("Payment intent rejected", zap.Int("status", serr.HTTPStatusCode), zap.String("message", serr.Msg))
			return nil, apperr.Upstream(err, "payment error: %s", serr.Msg)
		}
		return nil, apperr.Upstream(err, "payment provider unreachable")
	}
	if pi.ID == "" || pi.ClientSecret == "" {
		return nil, apperr.Upstream(nil, "payment provider returned an empty intent")
	}

	g.logger.Info("Payment intent created", zap.String("intent_id", pi.ID), zap.Int64("amount_cents", cents))
	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// Outcome is what a settled payment intent reports. Amount is in minor units.
type Outcome struct {
	IntentID string
	Status   models.PaymentStatus
	Amount   int64
	Currency string
}

// ParseEvent extracts the payment outcome from a verified event. ok is false
// for events that do not settle a payment.
func ParseEvent(event *stripe.Event) (out *Outcome, ok bool, err error) {
	var status models.PaymentStatus
	switch event.Type {
	case "payment_intent.succeeded":
		status = models.PaymentStatusPaid
	case "payment_intent.payment_failed":
		status = models.PaymentStatusFailed
	default:
		return nil, false, nil
	}
	if event.Data == nil {
		return nil, false, apperr.Validation("event %s has no data", event.ID)
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, false, fmt.Errorf("decode payment intent: %w", err)
	}
	if pi.ID == "" {
		return nil, false, apperr.Validation("event %s carries no payment intent id", event.ID)
	}
	return &Outcome{
		IntentID: pi.ID,
		Status:   status,
		Amount:   pi.AmountReceived,
		Currency: string(pi.Currency),
	}, true, nil
}
