package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string
type PaymentStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"   // placed, awaiting confirmation
	OrderStatusConfirmed OrderStatus = "CONFIRMED" // accepted by the shop
	OrderStatusShipped   OrderStatus = "SHIPPED"   // handed to the carrier
	OrderStatusDelivered OrderStatus = "DELIVERED" // received by the customer
	OrderStatusCancelled OrderStatus = "CANCELLED" // stock returned to the catalog

	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusFailed   PaymentStatus = "FAILED"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

type Order struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	OrderNumber     string          `gorm:"size:64;not null;uniqueIndex" json:"order_number"`
	UserID          *uint           `gorm:"index" json:"user_id,omitempty"`
	GuestEmail      string          `gorm:"size:255;index" json:"guest_email,omitempty"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	ShippingAddress ShippingAddress `gorm:"embedded;embeddedPrefix:ship_" json:"shipping_address"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	Status          OrderStatus     `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	PaymentStatus   PaymentStatus   `gorm:"type:varchar(20);not null;default:'PENDING'" json:"payment_status"`
	PaymentMethod   string          `gorm:"size:32" json:"payment_method"` // e.g. "card", "cod"
	PaymentIntentID *string         `gorm:"size:128;uniqueIndex" json:"payment_intent_id,omitempty"` // one order per intent
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// OrderItem is a snapshot of the product at checkout time.
type OrderItem struct {
	ID        uint            `gorm:"primaryKey" json:"-"`
	OrderID   uint            `gorm:"not null;index" json:"-"`
	ProductID uint            `gorm:"not null;index" json:"product_id"`
	Name      string          `gorm:"size:200;not null" json:"name"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	Image     string          `gorm:"type:text" json:"image"`
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ShippingAddress is embedded in orders and, as a default profile, in users.
type ShippingAddress struct {
	FullName   string `gorm:"size:120" json:"full_name" validate:"required"`
	Street     string `gorm:"size:200" json:"street" validate:"required"`
	City       string `gorm:"size:100" json:"city" validate:"required"`
	Region     string `gorm:"size:100" json:"region" validate:"required"`
	PostalCode string `gorm:"size:20" json:"postal_code" validate:"required"`
	Country    string `gorm:"size:100" json:"country" validate:"required"`
	Phone      string `gorm:"size:40" json:"phone" validate:"required"`
}

func (a ShippingAddress) IsZero() bool {
	return a == ShippingAddress{}
}

// LinesTotal sums price × quantity over the order's lines.
func (o *Order) LinesTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Subtotal())
	}
	return total
}
