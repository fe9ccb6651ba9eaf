// Package notify fans placed orders out to Kafka, the admin live feed and the
// log.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Mouuuuu1/valoria/models"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type OrderPlacedEvent struct {
	EventID     string             `json:"event_id"`
	Type        string             `json:"type"`
	OrderID     uint               `json:"order_id"`
	OrderNumber string             `json:"order_number"`
	UserID      *uint              `json:"user_id,omitempty"`
	GuestEmail  string             `json:"guest_email,omitempty"`
	TotalAmount string             `json:"total_amount"`
	Items       []models.OrderItem `json:"items"`
	Status      models.OrderStatus `json:"status"`
	Timestamp   time.Time          `json:"timestamp"`
}

func NewOrderPlacedEvent(order *models.Order) OrderPlacedEvent {
	return OrderPlacedEvent{
		EventID:     uuid.NewString(),
		Type:        "order.placed",
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		GuestEmail:  order.GuestEmail,
		TotalAmount: order.TotalAmount.StringFixed(2),
		Items:       order.Items,
		Status:      order.Status,
		Timestamp:   order.CreatedAt.UTC(),
	}
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes an OrderPlacedEvent per order, keyed by order
// number.
type KafkaNotifier struct {
	writer messageWriter
	logger *zap.Logger
}

func NewKafkaNotifier(brokers []string, topic string, logger *zap.Logger) *KafkaNotifier {
	return &KafkaNotifier{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 10 * time.Millisecond,
		},
		logger: logger,
	}
}

func (k *KafkaNotifier) OrderPlaced(ctx context.Context, order *models.Order) error {
	data, err := json.Marshal(NewOrderPlacedEvent(order))
	if err != nil {
		return fmt.Errorf("encode order event: %w", err)
	}
	if err := k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(order.OrderNumber),
		Value: data,
	}); err != nil {
		return fmt.Errorf("publish order event: %w", err)
	}
	k.logger.Debug("Order event published", zap.String("order_number", order.OrderNumber))
	return nil
}

func (k *KafkaNotifier) Close() error {
	return k.writer.Close()
}
