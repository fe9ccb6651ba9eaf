package models

import "time"

// Cart belongs to a user or a guest session. OwnerID is the identity's
// subject as issued in its token.
type Cart struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	OwnerID   string     `gorm:"size:64;not null;uniqueIndex" json:"owner_id"` // one cart per owner
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	CartID    uint      `gorm:"not null;uniqueIndex:idx_cart_product" json:"-"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_cart_product" json:"product_id"`
	Product   *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity  int       `gorm:"not null;check:quantity >= 1" json:"quantity"`
	AddedAt   time.Time `json:"added_at"`
}
