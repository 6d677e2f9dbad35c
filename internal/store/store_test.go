package store

import (
	"context"
	"testing"
	"time"

	"github.com/01moynul/sportshop-golang/internal/database"
	"github.com/01moynul/sportshop-golang/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.OpenDB(database.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db, database.DriverSQLite))
	return New(db).WithClock(func() time.Time { return testNow })
}

func strPtr(s string) *string { return &s }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// seedProduct creates one unsized variant with the given stock and one sized
// variant with sizes 42 and 43.
func seedProduct(t *testing.T, s *Store, flatStock int) (flat, sized models.Variant) {
	t.Helper()
	p := &models.Product{
		Name:     "Trail Runner",
		Category: "Footwear",
		Variants: []models.Variant{
			{SKU: "TR-RED", Color: "red", BasePrice: dec("100.00"), SalePercentage: dec("10"), CurrentStock: flatStock},
			{SKU: "TR-BLU", Color: "blue", BasePrice: dec("120.00"), Sizes: []models.SizeStock{
				{Size: "42", Stock: 3},
				{Size: "43", Stock: 0},
			}},
		},
	}
	require.NoError(t, s.CreateProduct(context.Background(), p))
	return p.Variants[0], p.Variants[1]
}

func newOrder(id string, status models.PaymentStatus, items ...models.OrderItem) *models.Order {
	return &models.Order{
		ID:            id,
		UserID:        7,
		AddressID:     3,
		PaymentMethod: models.PaymentCard,
		TotalPrice:    dec("115.00"),
		Status:        status,
		Items:         items,
	}
}

func seedCoupon(t *testing.T, s *Store, code string, limit int) {
	t.Helper()
	require.NoError(t, s.CreateCoupon(context.Background(), &models.Coupon{
		Code:          code,
		DiscountType:  models.DiscountPercentage,
		DiscountValue: dec("10"),
		MinPurchase:   dec("50"),
		ValidFrom:     testNow.Add(-24 * time.Hour),
		ValidUntil:    testNow.Add(24 * time.Hour),
		UsageLimit:    limit,
		Active:        true,
	}))
}
