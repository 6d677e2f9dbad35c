package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DiscountType selects how a coupon's Value is interpreted.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Coupon is the model for the 'coupons' table.
// MaxDiscount only applies to percentage coupons.
type Coupon struct {
	Code          string           `json:"code" db:"code"`
	DiscountType  DiscountType     `json:"discountType" db:"discount_type"`
	DiscountValue decimal.Decimal  `json:"discountValue" db:"discount_value"`
	MinPurchase   decimal.Decimal  `json:"minPurchase" db:"min_purchase"`
	MaxDiscount   *decimal.Decimal `json:"maxDiscount,omitempty" db:"max_discount"`
	ValidFrom     time.Time        `json:"validFrom" db:"valid_from"`
	ValidUntil    time.Time        `json:"validUntil" db:"valid_until"`
	UsageLimit    int              `json:"usageLimit" db:"usage_limit"`
	TimesUsed     int              `json:"timesUsed" db:"times_used"`
	Active        bool             `json:"active" db:"active"`
	CreatedAt     time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time        `json:"updatedAt" db:"updated_at"`
}
