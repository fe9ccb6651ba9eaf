package notify

import (
	"context"
	"errors"

	"github.com/Mouuuuu1/valoria/models"
	"github.com/Mouuuuu1/valoria/services/checkout"
	"go.uber.org/zap"
)

// Multi calls every notifier and joins their errors.
type Multi []checkout.Notifier

func (m Multi) OrderPlaced(ctx context.Context, order *models.Order) error {
	var errs []error
	for _, n := range m {
		if err := n.OrderPlaced(ctx, order); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Log records each placed order.
type Log struct{ Logger *zap.Logger }

func (l Log) OrderPlaced(_ context.Context, order *models.Order) error {
	l.Logger.Info("New order",
		zap.String("order_number", order.OrderNumber),
		zap.String("total_amount", order.TotalAmount.StringFixed(2)),
		zap.String("payment_method", order.PaymentMethod))
	return nil
}
