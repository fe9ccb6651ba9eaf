package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID          uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string          `gorm:"size:200;not null;index" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Category    Category        `gorm:"type:varchar(20);not null;index" json:"category"`
	Images      []string        `gorm:"serializer:json;type:text;not null" json:"images"`
	Stock       int             `gorm:"not null;default:0;check:stock >= 0" json:"stock"`
	Featured    bool            `gorm:"not null;default:false;index" json:"featured"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}

// PrimaryImage is the image snapshotted onto order lines.
func (p *Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
