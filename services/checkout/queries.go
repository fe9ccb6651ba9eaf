package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Mouuuuu1/valoria/apperr"
	"github.com/Mouuuuu1/valoria/models"
	"github.com/Mouuuuu1/valoria/services/catalog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderPage struct {
	Orders     []models.Order     `json:"orders"`
	Pagination catalog.Pagination `json:"pagination"`
}

type Statistics struct {
	TotalOrders     int64           `json:"total_orders"`
	TotalRevenue    decimal.Decimal `json:"total_revenue"`
	PendingOrders   int64           `json:"pending_orders"`
	DeliveredOrders int64           `json:"delivered_orders"`
}

func withItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") })
}

func (s *Service) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := withItems(s.db.WithContext(ctx)).First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("order %d not found", id)
		}
		return nil, fmt.Errorf("get order %d: %w", id, err)
	}
	return &order, nil
}

// GetOrderForUser hides orders of other customers behind NotFound.
func (s *Service) GetOrderForUser(ctx context.Context, id, userID uint) (*models.Order, error) {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID == nil || *order.UserID != userID {
		return nil, apperr.NotFound("order %d not found", id)
	}
	return order, nil
}

// ListUserOrders returns the customer's orders, newest first.
func (s *Service) ListUserOrders(ctx context.Context, userID uint) ([]models.Order, error) {
	orders := []models.Order{}
	if err := withItems(s.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("list orders of user %d: %w", userID, err)
	}
	return orders, nil
}

// ListOrders pages over every order for the back office. An empty status
// matches all orders.
func (s *Service) ListOrders(ctx context.Context, status string, page, limit int) (*OrderPage, error) {
	query := s.db.WithContext(ctx).Model(&models.Order{})
	if status != "" {
		st, ok := models.ParseOrderStatus(status)
		if !ok {
			return nil, apperr.Validation("unknown order status %q", status)
		}
		query = query.Where("status = ?", st)
	}
	page, limit = catalog.NormalizePage(page, limit, 20)
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}
	orders := []models.Order{}
	if err := withItems(query).
		Order("created_at DESC").Order("id DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return &OrderPage{Orders: orders, Pagination: catalog.NewPagination(page, limit, total)}, nil
}

// GuestOrder finds a guest order by number. The email must match the one used
// at checkout, compared case-insensitively.
func (s *Service) GuestOrder(ctx context.Context, number, email string) (*models.Order, error) {
	number = strings.TrimSpace(number)
	email = strings.ToLower(strings.TrimSpace(email))
	if number == "" || email == "" {
		return nil, apperr.Validation("order number and email are required")
	}
	var order models.Order
	err := withItems(s.db.WithContext(ctx)).
		Where("order_number = ? AND guest_email = ?", number, email).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("order %s not found", number)
	}
	if err != nil {
		return nil, fmt.Errorf("guest order lookup: %w", err)
	}
	return &order, nil
}

// Statistics summarises the order book. Revenue counts paid orders only.
func (s *Service) Statistics(ctx context.Context) (*Statistics, error) {
	db := s.db.WithContext(ctx)
	stats := &Statistics{TotalRevenue: decimal.Zero}

	if err := db.Model(&models.Order{}).Count(&stats.TotalOrders).Error; err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}
	if err := db.Model(&models.Order{}).Where("status = ?", models.OrderStatusPending).
		Count(&stats.PendingOrders).Error; err != nil {
		return nil, fmt.Errorf("count pending orders: %w", err)
	}
	if err := db.Model(&models.Order{}).Where("status = ?", models.OrderStatusDelivered).
		Count(&stats.DeliveredOrders).Error; err != nil {
		return nil, fmt.Errorf("count delivered orders: %w", err)
	}

	var paid []decimal.Decimal
	if err := db.Model(&models.Order{}).Where("payment_status = ?", models.PaymentStatusPaid).
		Pluck("total_amount", &paid).Error; err != nil {
		return nil, fmt.Errorf("sum revenue: %w", err)
	}
	for _, amount := range paid {
		stats.TotalRevenue = stats.TotalRevenue.Add(amount)
	}
	return stats, nil
}
