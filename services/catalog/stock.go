package catalog

import (
	"fmt"

	"github.com/Mouuuuu1/valoria/models"
	"gorm.io/gorm"
)

// Decrement atomically takes qty units of a live product. It reports false,
// without error, when the product has fewer than qty units left or no longer
// exists; the caller decides which error that is.
func Decrement(tx *gorm.DB, productID uint, qty int) (bool, error) {
	res := tx.Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, fmt.Errorf("decrement stock of product %d: %w", productID, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// Restore puts qty units back, including on soft-deleted products so their
// counts stay truthful if they are ever restored.
func Restore(tx *gorm.DB, productID uint, qty int) error {
	res := tx.Unscoped().Model(&models.Product{}).
		Where("id = ?", productID).
		Update("stock", gorm.Expr("stock + ?", qty))
	if res.Error != nil {
		return fmt.Errorf("restore stock of product %d: %w", productID, res.Error)
	}
	return nil
}
