// Package pricing turns priced cart lines, a coupon discount and the
// fulfillment method into the chargeable order total. It performs no I/O.
package pricing

import (
	"strings"
	"time"

	"github.com/01moynul/sportshop-golang/internal/apperr"
	"github.com/01moynul/sportshop-golang/internal/models"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// DefaultFreeShippingCategories ship at no cost (bulky goods ship with the
// manufacturer's own freight).
var DefaultFreeShippingCategories = []string{"boats", "kayaks"}

// Line is one priced cart line.
type Line struct {
	BasePrice      decimal.Decimal
	SalePercentage decimal.Decimal
	Quantity       int
	Category       string
	Backordered    bool
}

// Fees holds the configured shipping policy.
type Fees struct {
	ShippingBase           decimal.Decimal
	BackorderSurcharge     decimal.Decimal
	FreeShippingCategories []string
}

// Input is everything the engine needs to price an order.
type Input struct {
	Lines          []Line
	CouponDiscount decimal.Decimal
	Pickup         bool
}

// Quote is the priced breakdown. Only Total is rounded.
type Quote struct {
	Subtotal           decimal.Decimal `json:"subtotal"`
	Discount           decimal.Decimal `json:"discount"`
	Shipping           decimal.Decimal `json:"shipping"`
	BackorderSurcharge decimal.Decimal `json:"backorderSurcharge"`
	Total              decimal.Decimal `json:"total"`
}

// DiscountedUnitPrice applies the per-item sale percentage. The result is not
// rounded.
func DiscountedUnitPrice(base, salePercentage decimal.Decimal) decimal.Decimal {
	return base.Mul(hundred.Sub(salePercentage)).Div(hundred)
}

// Round2 rounds half away from zero to two decimal places.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Subtotal sums discounted line totals without intermediate rounding.
func Subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		unit := DiscountedUnitPrice(l.BasePrice, l.SalePercentage)
		sum = sum.Add(unit.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum
}

// Compute prices the order. Rounding happens once, on the final total.
func (f Fees) Compute(in Input) Quote {
	subtotal := Subtotal(in.Lines)

	afterDiscount := subtotal.Sub(in.CouponDiscount)
	if afterDiscount.IsNegative() {
		afterDiscount = decimal.Zero
	}

	q := Quote{
		Subtotal:           subtotal,
		Discount:           subtotal.Sub(afterDiscount),
		Shipping:           decimal.Zero,
		BackorderSurcharge: decimal.Zero,
	}

	if !in.Pickup {
		if f.needsBaseShipping(in.Lines) {
			q.Shipping = f.ShippingBase
		}
		if anyBackordered(in.Lines) {
			q.BackorderSurcharge = f.BackorderSurcharge
		}
	}

	q.Total = Round2(afterDiscount.Add(q.Shipping).Add(q.BackorderSurcharge))
	return q
}

func (f Fees) needsBaseShipping(lines []Line) bool {
	free := f.FreeShippingCategories
	if free == nil {
		free = DefaultFreeShippingCategories
	}
	for _, l := range lines {
		if !containsFold(free, l.Category) {
			return true
		}
	}
	return false
}

func anyBackordered(lines []Line) bool {
	for _, l := range lines {
		if l.Backordered {
			return true
		}
	}
	return false
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// CheckCoupon verifies the coupon may be used for a cart of this subtotal at
// time now. It never mutates the coupon.
func CheckCoupon(c models.Coupon, subtotal decimal.Decimal, now time.Time) error {
	if !c.Active {
		return apperr.ErrCouponInactive
	}
	if now.Before(c.ValidFrom) || now.After(c.ValidUntil) {
		return apperr.ErrCouponOutsideWindow
	}
	if c.TimesUsed >= c.UsageLimit {
		return apperr.ErrCouponLimitReached
	}
	if subtotal.LessThan(c.MinPurchase) {
		return apperr.With(apperr.ErrCouponMinNotMet,
			"minimum purchase for this coupon is "+c.MinPurchase.StringFixed(2), nil)
	}
	return nil
}

// CouponDiscount computes the discount the coupon grants on subtotal, clamped
// to [0, subtotal] and, for percentage coupons, to MaxDiscount.
func CouponDiscount(c models.Coupon, subtotal decimal.Decimal) decimal.Decimal {
	var d decimal.Decimal
	switch c.DiscountType {
	case models.DiscountPercentage:
		d = subtotal.Mul(c.DiscountValue).Div(hundred)
		if c.MaxDiscount != nil && d.GreaterThan(*c.MaxDiscount) {
			d = *c.MaxDiscount
		}
	case models.DiscountFixed:
		d = c.DiscountValue
	default:
		return decimal.Zero
	}

	d = Round2(d)
	if d.IsNegative() {
		return decimal.Zero
	}
	if d.GreaterThan(subtotal) {
		return subtotal
	}
	return d
}
