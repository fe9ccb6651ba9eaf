package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/Mouuuuu1/valoria/apperr"
	"github.com/Mouuuuu1/valoria/models"
	"github.com/Mouuuuu1/valoria/services/catalog"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpdateOrderStatus moves an order one step forward, or cancels it. Cancelling
// returns every line's quantity to the catalog in the same transaction.
// Requesting the current status is a no-op.
func (s *Service) UpdateOrderStatus(ctx context.Context, orderID uint, next models.OrderStatus) (*models.Order, error) {
	if _, ok := models.ParseOrderStatus(string(next)); !ok {
		return nil, apperr.Validation("unknown order status %q", next)
	}

	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockOrder(tx, &order, "id = ?", orderID); err != nil {
			return err
		}
		if order.Status == next {
			return nil
		}
		if !order.Status.CanTransitionTo(next) {
			return apperr.Validation("cannot change order status from %s to %s", order.Status, next)
		}

		if next == models.OrderStatusCancelled {
			for _, it := range order.Items {
				if err := catalog.Restore(tx, it.ProductID, it.Quantity); err != nil {
					return err
				}
			}
		}

		if err := tx.Model(&order).Update("status", next).Error; err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		order.Status = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Order status updated",
		zap.String("order_number", order.OrderNumber),
		zap.String("status", string(order.Status)))
	return &order, nil
}

// UpdatePaymentStatus applies an admin payment transition.
func (s *Service) UpdatePaymentStatus(ctx context.Context, orderID uint, next models.PaymentStatus) (*models.Order, error) {
	return s.setPayment(ctx, next, nil, "id = ?", orderID)
}

// PaymentResult is an outcome reported by the payment provider. Amount is in
// minor currency units.
type PaymentResult struct {
	IntentID string
	Status   models.PaymentStatus
	Amount   int64
}

// ApplyPaymentResult records the outcome for the order carrying the intent.
// A successful payment only marks the order PAID when the amount received
// covers exactly the order total.
func (s *Service) ApplyPaymentResult(ctx context.Context, res PaymentResult) (*models.Order, error) {
	if res.IntentID == "" {
		return nil, apperr.Validation("payment intent id is required")
	}
	check := func(order *models.Order) error {
		if res.Status != models.PaymentStatusPaid {
			return nil
		}
		if want := MinorUnits(order.TotalAmount); res.Amount != want {
			return apperr.Conflict("payment of %d does not match order total %d", res.Amount, want)
		}
		return nil
	}
	order, err := s.setPayment(ctx, res.Status, check, "payment_intent_id = ?", res.IntentID)
	if err != nil && apperr.IsKind(err, apperr.KindConflict) {
		s.logger.Warn("Payment amount mismatch",
			zap.String("intent_id", res.IntentID),
			zap.Int64("amount", res.Amount),
			zap.Error(err))
	}
	return order, err
}

// MinorUnits converts a decimal amount to cents.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func (s *Service) setPayment(ctx context.Context, next models.PaymentStatus, check func(*models.Order) error, where string, arg any) (*models.Order, error) {
	if _, ok := models.ParsePaymentStatus(string(next)); !ok {
		return nil, apperr.Validation("unknown payment status %q", next)
	}

	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockOrder(tx, &order, where, arg); err != nil {
			return err
		}
		if order.PaymentStatus == next {
			return nil
		}
		if !order.PaymentStatus.CanTransitionTo(next) {
			return apperr.Validation("cannot change payment status from %s to %s", order.PaymentStatus, next)
		}
		if check != nil {
			if err := check(&order); err != nil {
				return err
			}
		}
		if err := tx.Model(&order).Update("payment_status", next).Error; err != nil {
			return fmt.Errorf("update payment status: %w", err)
		}
		order.PaymentStatus = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Payment status updated",
		zap.String("order_number", order.OrderNumber),
		zap.String("payment_status", string(order.PaymentStatus)))
	return &order, nil
}

func lockOrder(tx *gorm.DB, order *models.Order, where string, arg any) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where(where, arg).First(order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("order not found")
	}
	if err != nil {
		return fmt.Errorf("load order: %w", err)
	}
	if err := tx.Where("order_id = ?", order.ID).Order("id ASC").Find(&order.Items).Error; err != nil {
		return fmt.Errorf("load order items: %w", err)
	}
	return nil
}
