package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the model for the 'products' table.
type Product struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Slug      string    `json:"slug" db:"slug"`
	Category  string    `json:"category" db:"category"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	// Joins (Not in DB table, populated manually)
	Variants []Variant `json:"variants,omitempty" db:"-"`
}

// Variant is the model for the 'variants' table.
// Sized goods keep their counters in Sizes and ignore CurrentStock.
type Variant struct {
	ID             int64           `json:"id" db:"id"`
	ProductID      int64           `json:"productId" db:"product_id"`
	SKU            string          `json:"sku" db:"sku"`
	Color          string          `json:"color" db:"color"`
	BasePrice      decimal.Decimal `json:"basePrice" db:"base_price"`
	SalePercentage decimal.Decimal `json:"salePercentage" db:"sale_percentage"`
	CurrentStock   int             `json:"currentStock" db:"current_stock"`
	CreatedAt      time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time       `json:"updatedAt" db:"updated_at"`

	Sizes []SizeStock `json:"sizes,omitempty" db:"-"`

	// Flattened from the parent product for checkout
	ProductName string `json:"productName,omitempty" db:"-"`
	Category    string `json:"category,omitempty" db:"-"`
}

// SizeStock is the model for the 'variant_sizes' table.
type SizeStock struct {
	VariantID int64            `json:"variantId" db:"variant_id"`
	Size      string           `json:"size" db:"size"`
	Stock     int              `json:"stock" db:"stock"`
	Price     *decimal.Decimal `json:"price,omitempty" db:"price"`
}

// IsSized reports whether stock is tracked per size.
func (v *Variant) IsSized() bool { return len(v.Sizes) > 0 }

// FindSize returns the size entry, if the variant has it.
func (v *Variant) FindSize(size string) (SizeStock, bool) {
	for _, s := range v.Sizes {
		if s.Size == size {
			return s, true
		}
	}
	return SizeStock{}, false
}
