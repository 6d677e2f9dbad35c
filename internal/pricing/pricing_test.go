package pricing

import (
	"testing"
	"time"

	"github.com/01moynul/sportshop-golang/internal/apperr"
	"github.com/01moynul/sportshop-golang/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var testFees = Fees{
	ShippingBase:       decimal.RequireFromString("25.00"),
	BackorderSurcharge: decimal.RequireFromString("50.00"),
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCompute_AppliesSaleAndRoundsOnce(t *testing.T) {
	lines := []Line{
		{BasePrice: d("19.99"), SalePercentage: d("15"), Quantity: 3, Category: "footwear"},
		{BasePrice: d("0.333"), SalePercentage: d("0"), Quantity: 3, Category: "footwear"},
	}
	q := testFees.Compute(Input{Lines: lines, Pickup: true})

	// 19.99 * 0.85 * 3 = 50.9745; 0.333 * 3 = 0.999
	assert.True(t, d("51.9735").Equal(q.Subtotal), q.Subtotal.String())
	assert.True(t, d("51.97").Equal(q.Total), q.Total.String())
}

func TestCompute_PickupHasNoShipping(t *testing.T) {
	lines := []Line{
		{BasePrice: d("100"), Quantity: 1, Category: "footwear", Backordered: true},
		{BasePrice: d("900"), Quantity: 1, Category: "boats"},
	}
	q := testFees.Compute(Input{Lines: lines, Pickup: true})

	assert.True(t, q.Shipping.IsZero())
	assert.True(t, q.BackorderSurcharge.IsZero())
	assert.True(t, d("1000").Equal(q.Total))
}

func TestCompute_BoatsShipFree(t *testing.T) {
	lines := []Line{
		{BasePrice: d("1200"), Quantity: 1, Category: "kayaks"},
		{BasePrice: d("900"), Quantity: 1, Category: "Boats"},
	}
	q := testFees.Compute(Input{Lines: lines})

	assert.True(t, q.Shipping.IsZero())
	assert.True(t, d("2100").Equal(q.Total))
}

func TestCompute_MixedCartPaysBaseShipping(t *testing.T) {
	lines := []Line{
		{BasePrice: d("1200"), Quantity: 1, Category: "kayaks"},
		{BasePrice: d("30"), Quantity: 1, Category: "paddles"},
	}
	q := testFees.Compute(Input{Lines: lines})

	assert.True(t, d("25").Equal(q.Shipping))
	assert.True(t, d("1255").Equal(q.Total))
}

func TestCompute_BackorderedDeliveryAddsSurcharge(t *testing.T) {
	lines := []Line{
		{BasePrice: d("200"), Quantity: 1, Category: "tents", Backordered: true},
		{BasePrice: d("40"), Quantity: 2, Category: "tents"},
	}
	q := testFees.Compute(Input{Lines: lines})

	assert.True(t, d("25").Equal(q.Shipping))
	assert.True(t, d("50").Equal(q.BackorderSurcharge))
	assert.True(t, d("355").Equal(q.Total))
}

func TestCompute_DiscountNeverDrivesBelowZero(t *testing.T) {
	lines := []Line{{BasePrice: d("10"), Quantity: 1, Category: "balls"}}
	q := testFees.Compute(Input{Lines: lines, CouponDiscount: d("40")})

	assert.True(t, d("10").Equal(q.Discount))
	assert.True(t, d("25").Equal(q.Total), "only shipping remains")
}

func TestCouponDiscount_PercentageCapped(t *testing.T) {
	capAmount := d("40")
	c := models.Coupon{DiscountType: models.DiscountPercentage, DiscountValue: d("10"), MaxDiscount: &capAmount}

	got := CouponDiscount(c, d("500"))
	assert.True(t, d("40").Equal(got), got.String())
}

func TestCouponDiscount_PercentageUncapped(t *testing.T) {
	c := models.Coupon{DiscountType: models.DiscountPercentage, DiscountValue: d("10")}

	got := CouponDiscount(c, d("500"))
	assert.True(t, d("50").Equal(got), got.String())
}

func TestCouponDiscount_FixedClampedToSubtotal(t *testing.T) {
	c := models.Coupon{DiscountType: models.DiscountFixed, DiscountValue: d("75")}

	got := CouponDiscount(c, d("60"))
	assert.True(t, d("60").Equal(got), got.String())
}

func TestCheckCoupon(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	base := models.Coupon{
		Code:          "SUMMER10",
		DiscountType:  models.DiscountPercentage,
		DiscountValue: d("10"),
		MinPurchase:   d("100"),
		ValidFrom:     now.Add(-24 * time.Hour),
		ValidUntil:    now.Add(24 * time.Hour),
		UsageLimit:    5,
		TimesUsed:     1,
		Active:        true,
	}

	tests := []struct {
		name    string
		mutate  func(c *models.Coupon)
		total   string
		wantErr *apperr.Error
	}{
		{name: "valid", mutate: func(c *models.Coupon) {}, total: "150"},
		{name: "inactive", mutate: func(c *models.Coupon) { c.Active = false }, total: "150", wantErr: apperr.ErrCouponInactive},
		{name: "not started", mutate: func(c *models.Coupon) { c.ValidFrom = now.Add(time.Hour) }, total: "150", wantErr: apperr.ErrCouponOutsideWindow},
		{name: "expired", mutate: func(c *models.Coupon) { c.ValidUntil = now.Add(-time.Hour) }, total: "150", wantErr: apperr.ErrCouponOutsideWindow},
		{name: "used up", mutate: func(c *models.Coupon) { c.TimesUsed = 5 }, total: "150", wantErr: apperr.ErrCouponLimitReached},
		{name: "below minimum", mutate: func(c *models.Coupon) {}, total: "99.99", wantErr: apperr.ErrCouponMinNotMet},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			err := CheckCoupon(c, d(tt.total), now)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
