// Package catalog manages products: storefront queries, admin CRUD and the
// stock movements used by checkout.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Mouuuuu1/valoria/apperr"
	"github.com/Mouuuuu1/valoria/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	DefaultPageSize = 12
	MaxPageSize     = 100
)

type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger}
}

type Query struct {
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Search   string
	Featured *bool
	Sort     string
	Page     int
	Limit    int
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

func NewPagination(page, limit int, total int64) Pagination {
	pages := total / int64(limit)
	if total%int64(limit) != 0 {
		pages++
	}
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

// NormalizePage clamps page and limit to sane values.
func NormalizePage(page, limit, def int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = def
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

var sortColumns = map[string]string{
	"price":       "price ASC",
	"-price":      "price DESC",
	"name":        "name ASC",
	"-name":       "name DESC",
	"created_at":  "created_at ASC",
	"-created_at": "created_at DESC",
}

type ProductPage struct {
	Products   []models.Product `json:"products"`
	Pagination Pagination       `json:"pagination"`
}

func (s *Service) List(ctx context.Context, q Query) (*ProductPage, error) {
	query := s.db.WithContext(ctx).Model(&models.Product{})

	if q.Category != "" {
		cat, ok := models.ParseCategory(q.Category)
		if !ok {
			return nil, apperr.Validation("unknown category %q", q.Category)
		}
		query = query.Where("category = ?", cat)
	}
	if q.MinPrice != nil {
		query = query.Where("price >= ?", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		query = query.Where("price <= ?", *q.MaxPrice)
	}
	if q.MinPrice != nil && q.MaxPrice != nil && q.MinPrice.GreaterThan(*q.MaxPrice) {
		return nil, apperr.Validation("min_price is greater than max_price")
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	if q.Featured != nil {
		query = query.Where("featured = ?", *q.Featured)
	}

	order := sortColumns["-created_at"]
	if q.Sort != "" {
		col, ok := sortColumns[q.Sort]
		if !ok {
			return nil, apperr.Validation("unsupported sort %q", q.Sort)
		}
		order = col
	}

	page, limit := NormalizePage(q.Page, q.Limit, DefaultPageSize)
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	products := []models.Product{}
	if err := query.Order(order).Order("id DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&products).Error; err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	return &ProductPage{Products: products, Pagination: NewPagination(page, limit, total)}, nil
}

func (s *Service) Featured(ctx context.Context, limit int) ([]models.Product, error) {
	_, limit = NormalizePage(1, limit, 8)
	products := []models.Product{}
	if err := s.db.WithContext(ctx).
		Where("featured = ?", true).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&products).Error; err != nil {
		return nil, fmt.Errorf("featured products: %w", err)
	}
	return products, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperr.Error{Kind: apperr.KindNotFound, Message: fmt.Sprintf("product %d not found", id), ProductID: id}
		}
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}
	return &product, nil
}

// FindMany returns the live products among ids, keyed by ID. Missing or
// soft-deleted products are simply absent from the map.
func FindMany(tx *gorm.DB, ids []uint) (map[uint]*models.Product, error) {
	var products []models.Product
	if len(ids) > 0 {
		if err := tx.Where("id IN ?", ids).Find(&products).Error; err != nil {
			return nil, fmt.Errorf("load products: %w", err)
		}
	}
	byID := make(map[uint]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	return byID, nil
}
