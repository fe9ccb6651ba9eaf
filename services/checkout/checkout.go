// Package checkout turns carts or explicit item lists into orders and drives
// the order and payment state machines afterwards.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Mouuuuu1/valoria/apperr"
	"github.com/Mouuuuu1/valoria/database"
	"github.com/Mouuuuu1/valoria/models"
	cartsvc "github.com/Mouuuuu1/valoria/services/cart"
	"github.com/Mouuuuu1/valoria/services/catalog"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrEmptyCart = apperr.Validation("cart is empty")

const notifyTimeout = 5 * time.Second

// Notifier is told about every committed order. Failures are logged only.
type Notifier interface {
	OrderPlaced(ctx context.Context, order *models.Order) error
}

// ItemSource is either FromCart or FromItems.
type ItemSource interface{ isItemSource() }

// FromCart checks out the cart of OwnerID and empties it.
type FromCart struct{ OwnerID string }

// FromItems checks out an explicit list; no cart is touched.
type FromItems struct{ Items []LineRequest }

func (FromCart) isItemSource()  {}
func (FromItems) isItemSource() {}

type LineRequest struct {
	ProductID uint `json:"product_id" validate:"required"`
	Quantity  int  `json:"quantity" validate:"min=1"`
}

// Customer is either Member or Guest.
type Customer interface{ isCustomer() }

type Member struct{ UserID uint }
type Guest struct{ Email string }

func (Member) isCustomer() {}
func (Guest) isCustomer()  {}

type PlaceOrderInput struct {
	Source          ItemSource
	Customer        Customer
	ShippingAddress models.ShippingAddress
	PaymentMethod   string
	PaymentIntentID string
}

type Service struct {
	db       *gorm.DB
	numbers  *NumberGenerator
	notifier Notifier
	logger   *zap.Logger
}

func NewService(db *gorm.DB, numbers *NumberGenerator, notifier Notifier, logger *zap.Logger) *Service {
	return &Service{db: db, numbers: numbers, notifier: notifier, logger: logger}
}

type line struct {
	productID uint
	quantity  int
}

// PlaceOrder validates the request against the live catalog, then in one
// transaction allocates the order number, takes the stock with conditional
// decrements, stores the order with product snapshots and empties the source
// cart. Nothing is written when any step fails.
func (s *Service) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*models.Order, error) {
	db := s.db.WithContext(ctx)

	order := &models.Order{
		Status:          models.OrderStatusPending,
		PaymentStatus:   models.PaymentStatusPending,
		PaymentMethod:   strings.ToLower(strings.TrimSpace(in.PaymentMethod)),
		ShippingAddress: in.ShippingAddress,
	}
	if intentID := strings.TrimSpace(in.PaymentIntentID); intentID != "" {
		order.PaymentIntentID = &intentID
	}
	if order.PaymentMethod == "" {
		order.PaymentMethod = "card"
	}
	if order.PaymentMethod != "card" && order.PaymentMethod != "cod" {
		return nil, apperr.Validation("unsupported payment method %q", in.PaymentMethod)
	}

	switch c := in.Customer.(type) {
	case Member:
		var user models.User
		if err := db.First(&user, c.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFound("user %d not found", c.UserID)
			}
			return nil, fmt.Errorf("load user: %w", err)
		}
		uid := user.ID
		order.UserID = &uid
		if order.ShippingAddress.IsZero() {
			order.ShippingAddress = user.ShippingProfile
		}
	case Guest:
		email := strings.ToLower(strings.TrimSpace(c.Email))
		if err := apperr.Struct(struct {
			Email string `validate:"required,email"`
		}{email}); err != nil {
			return nil, apperr.Validation("a valid guest email is required")
		}
		order.GuestEmail = email
	default:
		return nil, apperr.Validation("customer is required")
	}

	if err := apperr.Struct(order.ShippingAddress); err != nil {
		return nil, err
	}

	var (
		lines  []line
		cartID uint
	)
	switch src := in.Source.(type) {
	case FromCart:
		cart, err := cartsvc.Load(db, src.OwnerID)
		if err != nil {
			return nil, err
		}
		if cart == nil || len(cart.Items) == 0 {
			return nil, ErrEmptyCart
		}
		cartID = cart.ID
		for _, it := range cart.Items {
			lines = append(lines, line{productID: it.ProductID, quantity: it.Quantity})
		}
	case FromItems:
		merged, err := mergeLines(src.Items)
		if err != nil {
			return nil, err
		}
		lines = merged
	default:
		return nil, apperr.Validation("item source is required")
	}

	ids := make([]uint, len(lines))
	for i, l := range lines {
		ids[i] = l.productID
	}
	products, err := catalog.FindMany(db, ids)
	if err != nil {
		return nil, err
	}
	if len(products) != len(ids) {
		return nil, missingProducts(ids, products)
	}

	total := decimal.Zero
	for _, l := range lines {
		p := products[l.productID]
		if p.Stock < l.quantity {
			return nil, apperr.InsufficientStock(p.ID, p.Name)
		}
		item := models.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: p.Price,
			Quantity:  l.quantity,
			Image:     p.PrimaryImage(),
		}
		order.Items = append(order.Items, item)
		total = total.Add(item.Subtotal())
	}
	order.TotalAmount = total

	err = db.Transaction(func(tx *gorm.DB) error {
		if cartID != 0 {
			if err := s.checkCartUnchanged(tx, cartID, lines); err != nil {
				return err
			}
		}

		if order.PaymentIntentID != nil {
			if err := checkIntentUnused(tx, *order.PaymentIntentID); err != nil {
				return err
			}
		}

		number, err := s.numbers.Reserve(tx)
		if err != nil {
			return err
		}
		order.OrderNumber = number

		for _, l := range byProduct(lines) {
			ok, err := catalog.Decrement(tx, l.productID, l.quantity)
			if err != nil {
				return err
			}
			if !ok {
				return stockRaceError(tx, l.productID)
			}
		}

		if err := tx.Create(order).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) && order.PaymentIntentID != nil {
				return errIntentInUse
			}
			return fmt.Errorf("create order: %w", err)
		}

		if cartID != 0 {
			if err := cartsvc.ClearItems(tx, cartID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if database.IsRetryable(err) {
			return nil, &apperr.Error{Kind: apperr.KindConflict, Message: "checkout conflicted with another order, please retry", Err: err}
		}
		return nil, err
	}

	s.logger.Info("Order placed",
		zap.String("order_number", order.OrderNumber),
		zap.Uint("order_id", order.ID),
		zap.Int("lines", len(order.Items)),
		zap.String("total_amount", order.TotalAmount.StringFixed(2)))

	s.notify(ctx, order)
	return order, nil
}

func (s *Service) notify(ctx context.Context, order *models.Order) {
	if s.notifier == nil {
		return
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := s.notifier.OrderPlaced(nctx, order); err != nil {
		s.logger.Error("Failed to notify order placed",
			zap.String("order_number", order.OrderNumber),
			zap.Error(err))
	}
}

// checkCartUnchanged re-reads the cart lines inside the transaction so a
// concurrent cart edit or a second checkout of the same cart is not lost.
func (s *Service) checkCartUnchanged(tx *gorm.DB, cartID uint, lines []line) error {
	var cart models.Cart
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&cart, cartID).Error; err != nil {
		return fmt.Errorf("lock cart: %w", err)
	}
	var items []models.CartItem
	if err := tx.Where("cart_id = ?", cartID).Order("id ASC").Find(&items).Error; err != nil {
		return fmt.Errorf("reload cart: %w", err)
	}
	if len(items) == 0 {
		return ErrEmptyCart
	}
	if len(items) != len(lines) {
		return apperr.Conflict("cart changed during checkout, please retry")
	}
	for i, it := range items {
		if it.ProductID != lines[i].productID || it.Quantity != lines[i].quantity {
			return apperr.Conflict("cart changed during checkout, please retry")
		}
	}
	return nil
}

var errIntentInUse = apperr.Conflict("payment intent is already attached to another order")

func checkIntentUnused(tx *gorm.DB, intentID string) error {
	var n int64
	if err := tx.Model(&models.Order{}).Where("payment_intent_id = ?", intentID).Count(&n).Error; err != nil {
		return fmt.Errorf("check payment intent: %w", err)
	}
	if n > 0 {
		return errIntentInUse
	}
	return nil
}

// byProduct returns the lines ordered by product id. Stock rows are always
// locked in this order so two checkouts over the same products cannot
// deadlock.
func byProduct(lines []line) []line {
	sorted := make([]line, len(lines))
	copy(sorted, lines)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].productID < sorted[j].productID })
	return sorted
}

// stockRaceError classifies a conditional decrement that matched no row.
func stockRaceError(tx *gorm.DB, productID uint) error {
	var p models.Product
	err := tx.First(&p, productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &apperr.Error{
			Kind:      apperr.KindConflict,
			Message:   fmt.Sprintf("product %d was removed during checkout", productID),
			ProductID: productID,
		}
	}
	if err != nil {
		return fmt.Errorf("reload product %d: %w", productID, err)
	}
	return apperr.InsufficientStock(p.ID, p.Name)
}

func mergeLines(reqs []LineRequest) ([]line, error) {
	if len(reqs) == 0 {
		return nil, apperr.Validation("at least one item is required")
	}
	index := make(map[uint]int, len(reqs))
	var lines []line
	for _, r := range reqs {
		if err := apperr.Struct(r); err != nil {
			return nil, err
		}
		if i, ok := index[r.ProductID]; ok {
			lines[i].quantity += r.Quantity
			continue
		}
		index[r.ProductID] = len(lines)
		lines = append(lines, line{productID: r.ProductID, quantity: r.Quantity})
	}
	return lines, nil
}

func missingProducts(ids []uint, found map[uint]*models.Product) error {
	var missing []uint
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	names := make([]string, len(missing))
	for i, id := range missing {
		names[i] = fmt.Sprint(id)
	}
	e := apperr.NotFound("products not found: %s", strings.Join(names, ", "))
	if len(missing) == 1 {
		e.ProductID = missing[0]
	}
	return e
}
