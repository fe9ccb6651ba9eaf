package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/Mouuuuu1/valoria/apperr"
	"github.com/Mouuuuu1/valoria/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ProductInput struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category" validate:"required"`
	Images      []string        `json:"images" validate:"min=1,dive,required"`
	Stock       int             `json:"stock" validate:"min=0"`
	Featured    bool            `json:"featured"`
}

// ProductPatch carries optional fields; nil means unchanged.
type ProductPatch struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Category    *string          `json:"category"`
	Images      []string         `json:"images"`
	Stock       *int             `json:"stock"`
	Featured    *bool            `json:"featured"`
}

func (in ProductInput) toModel() (*models.Product, error) {
	if err := apperr.Struct(in); err != nil {
		return nil, err
	}
	if in.Price.IsNegative() {
		return nil, apperr.Validation("price must not be negative")
	}
	cat, ok := models.ParseCategory(in.Category)
	if !ok {
		return nil, apperr.Validation("unknown category %q", in.Category)
	}
	return &models.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price.Round(2),
		Category:    cat,
		Images:      in.Images,
		Stock:       in.Stock,
		Featured:    in.Featured,
	}, nil
}

func (s *Service) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	product, err := in.toModel()
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	s.logger.Info("Product created", zap.Uint("product_id", product.ID), zap.String("name", product.Name))
	return product, nil
}

// Update writes only the fields set in patch. Stock is never written back
// from a read, so concurrent checkout decrements are preserved.
func (s *Service) Update(ctx context.Context, id uint, patch ProductPatch) (*models.Product, error) {
	var (
		values  models.Product
		columns []string
	)

	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			return nil, apperr.Validation("name must not be empty")
		}
		values.Name = strings.TrimSpace(*patch.Name)
		columns = append(columns, "name")
	}
	if patch.Description != nil {
		values.Description = *patch.Description
		columns = append(columns, "description")
	}
	if patch.Price != nil {
		if patch.Price.IsNegative() {
			return nil, apperr.Validation("price must not be negative")
		}
		values.Price = patch.Price.Round(2)
		columns = append(columns, "price")
	}
	if patch.Category != nil {
		cat, ok := models.ParseCategory(*patch.Category)
		if !ok {
			return nil, apperr.Validation("unknown category %q", *patch.Category)
		}
		values.Category = cat
		columns = append(columns, "category")
	}
	if patch.Images != nil {
		if len(patch.Images) == 0 {
			return nil, apperr.Validation("a product needs at least one image")
		}
		values.Images = patch.Images
		columns = append(columns, "images")
	}
	if patch.Stock != nil {
		if *patch.Stock < 0 {
			return nil, apperr.Validation("stock must not be negative")
		}
		values.Stock = *patch.Stock
		columns = append(columns, "stock")
	}
	if patch.Featured != nil {
		values.Featured = *patch.Featured
		columns = append(columns, "featured")
	}

	if len(columns) > 0 {
		res := s.db.WithContext(ctx).Model(&models.Product{}).
			Where("id = ?", id).
			Select(columns).
			Updates(&values)
		if res.Error != nil {
			return nil, fmt.Errorf("update product %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, &apperr.Error{Kind: apperr.KindNotFound, Message: fmt.Sprintf("product %d not found", id), ProductID: id}
		}
	}
	return s.Get(ctx, id)
}

// Delete soft-deletes the product. Existing orders keep their snapshots and
// the product disappears from queries, carts and checkout.
func (s *Service) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Product{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete product %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("product %d not found", id)
	}
	s.logger.Info("Product deleted", zap.Uint("product_id", id))
	return nil
}
