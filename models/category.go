package models

import "strings"

type Category string

const (
	CategoryHandbag   Category = "handbag"
	CategoryTote      Category = "tote"
	CategoryCrossbody Category = "crossbody"
	CategoryClutch    Category = "clutch"
	CategoryShoulder  Category = "shoulder"
	CategoryBackpack  Category = "backpack"
	CategoryWallet    Category = "wallet"
)

var Categories = []Category{
	CategoryHandbag,
	CategoryTote,
	CategoryCrossbody,
	CategoryClutch,
	CategoryShoulder,
	CategoryBackpack,
	CategoryWallet,
}

// ParseCategory accepts any casing and surrounding whitespace.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c, true
		}
	}
	return "", false
}
