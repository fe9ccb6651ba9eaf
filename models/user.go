package models

import (
	"strconv"
	"time"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
	RoleGuest    Role = "guest" // token-only role, never stored
)

type User struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	Name            string          `gorm:"size:120;not null" json:"name"`
	Email           string          `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash    string          `gorm:"not null" json:"-"`
	Role            Role            `gorm:"type:varchar(20);not null;default:'customer'" json:"role"`
	Phone           string          `gorm:"size:40" json:"phone"`
	ShippingProfile ShippingAddress `gorm:"embedded;embeddedPrefix:ship_" json:"shipping_profile"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Subject is the identifier carried in the user's tokens and used as cart
// owner.
func (u *User) Subject() string {
	return strconv.FormatUint(uint64(u.ID), 10)
}
