package database

import (
	"fmt"

	"github.com/Mouuuuu1/valoria/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var sampleProducts = []models.Product{
	{Name: "Classic Leather Tote", Price: decimal.RequireFromString("129.99"), Category: models.CategoryTote, Stock: 25, Featured: true},
	{Name: "Vintage Crossbody Bag", Price: decimal.RequireFromString("89.99"), Category: models.CategoryCrossbody, Stock: 30, Featured: true},
	{Name: "Designer Shoulder Bag", Price: decimal.RequireFromString("199.99"), Category: models.CategoryShoulder, Stock: 15, Featured: true},
	{Name: "Evening Clutch", Price: decimal.RequireFromString("79.99"), Category: models.CategoryClutch, Stock: 20},
	{Name: "Travel Backpack", Price: decimal.RequireFromString("149.99"), Category: models.CategoryBackpack, Stock: 18},
	{Name: "Mini Crossbody", Price: decimal.RequireFromString("69.99"), Category: models.CategoryCrossbody, Stock: 35},
	{Name: "Premium Tote Bag", Price: decimal.RequireFromString("159.99"), Category: models.CategoryTote, Stock: 22},
	{Name: "Slim Leather Wallet", Price: decimal.RequireFromString("49.99"), Category: models.CategoryWallet, Stock: 40},
}

// SeedCatalog inserts the sample products into an empty catalog. It does
// nothing when any product already exists.
func SeedCatalog(db *gorm.DB, log *zap.Logger) error {
	var count int64
	if err := db.Model(&models.Product{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count products: %w", err)
	}
	if count > 0 {
		return nil
	}

	products := make([]models.Product, len(sampleProducts))
	copy(products, sampleProducts)
	for i := range products {
		products[i].Description = products[i].Name + " in genuine leather."
		products[i].Images = []string{fmt.Sprintf("/uploads/products/sample-%d.jpg", i+1)}
	}
	if err := db.Create(&products).Error; err != nil {
		return fmt.Errorf("seed products: %w", err)
	}
	log.Info("Seeded sample catalog", zap.Int("products", len(products)))
	return nil
}
