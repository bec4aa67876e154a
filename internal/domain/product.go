package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxProductImages is the number of image slots a product row carries.
const MaxProductImages = 5

// Category groups products on the storefront.
// The json tags correspond to the fields returned by the API.
type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Brand is the manufacturer a product is listed under.
type Brand struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Product is a catalog item as seen by the storefront.
// It is always produced by the data-access layer already normalized: legacy field
// aliases are resolved and missing category/brand relations carry placeholders.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"` // Never negative
	Stock       int32           `json:"stock"`
	Images      []string        `json:"images"` // Up to MaxProductImages, empty references dropped
	CategoryID  int64           `json:"category_id"`
	BrandID     int64           `json:"brand_id"`
	Category    Category        `json:"category"`
	Brand       Brand           `json:"brand"`
	Featured    bool            `json:"featured"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
