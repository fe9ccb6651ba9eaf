// Package cart implements the per-owner shopping cart.
package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Mouuuuu1/valoria/apperr"
	"github.com/Mouuuuu1/valoria/models"
	"github.com/Mouuuuu1/valoria/services/catalog"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// View is a cart with its live products and the total at current prices.
type View struct {
	models.Cart
	Total decimal.Decimal `json:"total"`
}

// Get returns the owner's cart, creating an empty one on first access.
func (s *Service) Get(ctx context.Context, ownerID string) (*View, error) {
	if ownerID == "" {
		return nil, apperr.Validation("cart owner is required")
	}
	if _, err := ensureCart(s.db.WithContext(ctx), ownerID); err != nil {
		return nil, err
	}
	return s.load(ctx, ownerID)
}

// Lookup returns an existing cart without creating one.
func (s *Service) Lookup(ctx context.Context, ownerID string) (*View, error) {
	if ownerID == "" {
		return nil, apperr.Validation("cart owner is required")
	}
	return s.load(ctx, ownerID)
}

// AddItem adds qty units of a product, merging into an existing line. The
// combined quantity must be covered by current stock.
func (s *Service) AddItem(ctx context.Context, ownerID string, productID uint, qty int) (*View, error) {
	if qty < 1 {
		return nil, apperr.Validation("quantity must be at least 1")
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		product, err := liveProduct(tx, productID)
		if err != nil {
			return err
		}
		cart, err := ensureCart(tx, ownerID)
		if err != nil {
			return err
		}

		var item models.CartItem
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("cart_id = ? AND product_id = ?", cart.ID, productID).
			First(&item).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if product.Stock < qty {
				return apperr.InsufficientStock(product.ID, product.Name)
			}
			item = models.CartItem{CartID: cart.ID, ProductID: productID, Quantity: qty, AddedAt: time.Now()}
			if err := tx.Create(&item).Error; err != nil {
				return fmt.Errorf("add cart item: %w", err)
			}
		case err != nil:
			return fmt.Errorf("load cart item: %w", err)
		default:
			combined := item.Quantity + qty
			if product.Stock < combined {
				return apperr.InsufficientStock(product.ID, product.Name)
			}
			if err := tx.Model(&item).Update("quantity", combined).Error; err != nil {
				return fmt.Errorf("update cart item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, ownerID)
}

// UpdateQuantity replaces the quantity of a line already in the cart.
func (s *Service) UpdateQuantity(ctx context.Context, ownerID string, productID uint, qty int) (*View, error) {
	if qty < 1 {
		return nil, apperr.Validation("quantity must be at least 1")
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		product, err := liveProduct(tx, productID)
		if err != nil {
			return err
		}
		if product.Stock < qty {
			return apperr.InsufficientStock(product.ID, product.Name)
		}

		var cart models.Cart
		if err := tx.Where("owner_id = ?", ownerID).First(&cart).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("item not found in cart")
			}
			return fmt.Errorf("load cart: %w", err)
		}
		res := tx.Model(&models.CartItem{}).
			Where("cart_id = ? AND product_id = ?", cart.ID, productID).
			Update("quantity", qty)
		if res.Error != nil {
			return fmt.Errorf("update cart item: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("item not found in cart")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, ownerID)
}

// RemoveItem drops a line. Removing a product that is not in the cart is not
// an error.
func (s *Service) RemoveItem(ctx context.Context, ownerID string, productID uint) (*View, error) {
	cart, err := ensureCart(s.db.WithContext(ctx), ownerID)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cart.ID, productID).
		Delete(&models.CartItem{}).Error; err != nil {
		return nil, fmt.Errorf("remove cart item: %w", err)
	}
	return s.load(ctx, ownerID)
}

// Clear empties the cart but keeps it.
func (s *Service) Clear(ctx context.Context, ownerID string) (*View, error) {
	cart, err := ensureCart(s.db.WithContext(ctx), ownerID)
	if err != nil {
		return nil, err
	}
	if err := ClearItems(s.db.WithContext(ctx), cart.ID); err != nil {
		return nil, err
	}
	return s.load(ctx, ownerID)
}

// ClearItems deletes every line of a cart. Checkout calls it inside the order
// transaction.
func ClearItems(tx *gorm.DB, cartID uint) error {
	if err := tx.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error; err != nil {
		return fmt.Errorf("clear cart %d: %w", cartID, err)
	}
	return nil
}

// Load returns the owner's cart with lines and their live products, or nil
// when the owner has no cart yet. Lines whose product was deleted carry a nil
// Product.
func Load(tx *gorm.DB, ownerID string) (*models.Cart, error) {
	var cart models.Cart
	err := tx.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Items.Product").
		Where("owner_id = ?", ownerID).
		First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return &cart, nil
}

func (s *Service) load(ctx context.Context, ownerID string) (*View, error) {
	cart, err := Load(s.db.WithContext(ctx), ownerID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, apperr.NotFound("cart not found")
	}
	view := &View{Cart: *cart, Total: decimal.Zero}
	for _, it := range cart.Items {
		if it.Product != nil {
			view.Total = view.Total.Add(it.Product.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
		}
	}
	return view, nil
}

func ensureCart(tx *gorm.DB, ownerID string) (*models.Cart, error) {
	if ownerID == "" {
		return nil, apperr.Validation("cart owner is required")
	}
	cart := models.Cart{OwnerID: ownerID}
	if err := tx.Where(models.Cart{OwnerID: ownerID}).FirstOrCreate(&cart).Error; err != nil {
		return nil, fmt.Errorf("ensure cart: %w", err)
	}
	return &cart, nil
}

func liveProduct(tx *gorm.DB, productID uint) (*models.Product, error) {
	products, err := catalog.FindMany(tx, []uint{productID})
	if err != nil {
		return nil, err
	}
	product, ok := products[productID]
	if !ok {
		return nil, &apperr.Error{Kind: apperr.KindNotFound, Message: fmt.Sprintf("product %d not found", productID), ProductID: productID}
	}
	return product, nil
}
