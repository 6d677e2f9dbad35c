package store

import (
	"context"
	"testing"
	"time"

	"github.com/01moynul/sportshop-golang/internal/apperr"
	"github.com/01moynul/sportshop-golang/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndGetOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	flat, sized := seedProduct(t, s, 5)

	o := newOrder("ord-1", models.StatusPendingPayment,
		models.OrderItem{VariantID: flat.ID, ProductName: "Trail Runner", Category: "footwear", Quantity: 1, UnitPrice: dec("90")},
		models.OrderItem{VariantID: sized.ID, ProductName: "Trail Runner", Category: "footwear", Size: strPtr("42"), Quantity: 2, UnitPrice: dec("120")},
	)
	o.Coupon = &models.CouponSnapshot{Code: "SPRING", Discount: dec("12.50")}
	require.NoError(t, s.CreateOrder(ctx, o, "Order created"))

	got, err := s.GetOrder(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingPayment, got.Status)
	assert.True(t, got.TotalPrice.Equal(dec("115")))
	require.NotNil(t, got.Coupon)
	assert.Equal(t, "SPRING", got.Coupon.Code)
	assert.True(t, got.Coupon.Discount.Equal(dec("12.5")))
	require.Len(t, got.Items, 2)
	assert.Nil(t, got.Items[0].Size)
	require.NotNil(t, got.Items[1].Size)
	assert.Equal(t, "42", *got.Items[1].Size)
	assert.Equal(t, []string{"Order created"}, got.Comments)
	assert.False(t, got.StockReserved)
	assert.True(t, testNow.Equal(got.CreatedAt), "created_at %s", got.CreatedAt)
}

func TestGetOrder_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetOrder(context.Background(), "missing")
	assert.ErrorIs(t, err, apperr.ErrOrderNotFound)
}

func TestTransitionStatus_CompareAndSet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateOrder(ctx, newOrder("ord-1", models.StatusPendingPayment), "created"))

	applied, err := s.TransitionStatus(ctx, TransitionRequest{
		OrderID: "ord-1", From: models.StatusPendingPayment, To: models.StatusPaymentConfirmed,
		Comment: "Payment confirmed", GatewayPaymentID: "ntp-1",
	})
	require.NoError(t, err)
	assert.True(t, applied)

	// Same expected status again: someone else already moved it.
	applied, err = s.TransitionStatus(ctx, TransitionRequest{
		OrderID: "ord-1", From: models.StatusPendingPayment, To: models.StatusDeclined, Comment: "late decline",
	})
	require.NoError(t, err)
	assert.False(t, applied)

	got, err := s.GetOrder(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaymentConfirmed, got.Status)
	assert.Equal(t, "ntp-1", got.GatewayPayment)
	assert.Equal(t, []string{"created", "Payment confirmed"}, got.Comments)

	history, err := s.History(ctx, "ord-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.StatusPendingPayment, history[1].From)
	assert.Equal(t, models.StatusPaymentConfirmed, history[1].To)
}

func TestAppendCommentAndPaymentSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateOrder(ctx, newOrder("ord-1", models.StatusPendingPayment), "created"))

	require.NoError(t, s.RecordPaymentSession(ctx, "ord-1", "tok", "https://pay.example/retry"))
	require.NoError(t, s.AppendComment(ctx, "ord-1", models.StatusPendingPayment, "note"))
	assert.ErrorIs(t, s.RecordPaymentSession(ctx, "nope", "t", "u"), apperr.ErrOrderNotFound)

	got, err := s.GetOrder(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, "tok", got.PaymentToken)
	assert.Equal(t, "https://pay.example/retry", got.PaymentRetryURL)
	assert.Equal(t, []string{"created", "note"}, got.Comments)
}

func TestListStalePending(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	old := newOrder("old", models.StatusPendingPayment)
	old.CreatedAt = testNow.Add(-2 * time.Hour)
	fresh := newOrder("fresh", models.StatusPendingPayment)
	fresh.CreatedAt = testNow.Add(-5 * time.Minute)
	paid := newOrder("paid", models.StatusPaymentConfirmed)
	paid.CreatedAt = testNow.Add(-3 * time.Hour)
	for _, o := range []*models.Order{old, fresh, paid} {
		require.NoError(t, s.CreateOrder(ctx, o, "created"))
	}

	ids, err := s.ListStalePending(ctx, testNow.Add(-30*time.Minute), 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"old"}, ids)

	byStatus, err := s.ListOrdersByStatus(ctx, models.StatusPendingPayment, 0)
	require.NoError(t, err)
	require.Len(t, byStatus, 2)
	assert.Equal(t, "fresh", byStatus[0].ID)
}

func TestCreateSettledOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	flat, sized := seedProduct(t, s, 5)
	seedCoupon(t, s, "ONCE", 1)

	o := newOrder("ord-1", models.StatusConfirmed,
		models.OrderItem{VariantID: flat.ID, Quantity: 2, UnitPrice: dec("90")},
		models.OrderItem{VariantID: sized.ID, Size: strPtr("43"), Quantity: 1, UnitPrice: dec("120"), Backordered: true},
	)
	o.PaymentMethod = models.PaymentCash
	o.Coupon = &models.CouponSnapshot{Code: "once", Discount: dec("10")}
	lines := []StockLine{
		{VariantID: flat.ID, Quantity: 2},
		{VariantID: sized.ID, Size: strPtr("43"), Quantity: 1, Backordered: true},
	}
	require.NoError(t, s.CreateSettledOrder(ctx, o, "Order confirmed", lines))

	got, err := s.GetOrder(ctx, "ord-1")
	require.NoError(t, err)
	assert.True(t, got.StockReserved)
	assert.True(t, got.CouponApplied)
	level, _ := s.StockLevel(ctx, flat.ID, nil)
	assert.Equal(t, 3, level)
	c, err := s.GetCoupon(ctx, "ONCE")
	require.NoError(t, err)
	assert.Equal(t, 1, c.TimesUsed)

	// The coupon is spent: the second order must not exist at all.
	second := newOrder("ord-2", models.StatusConfirmed, models.OrderItem{VariantID: flat.ID, Quantity: 1, UnitPrice: dec("90")})
	second.Coupon = &models.CouponSnapshot{Code: "ONCE", Discount: dec("9")}
	err = s.CreateSettledOrder(ctx, second, "Order confirmed", []StockLine{{VariantID: flat.ID, Quantity: 1}})
	assert.ErrorIs(t, err, apperr.ErrCouponLimitReached)
	assert.False(t, second.StockReserved)
	_, err = s.GetOrder(ctx, "ord-2")
	assert.ErrorIs(t, err, apperr.ErrOrderNotFound)
	level, _ = s.StockLevel(ctx, flat.ID, nil)
	assert.Equal(t, 3, level, "stock taken before the coupon failed must be rolled back")

	// Not enough stock also rolls back the insert.
	third := newOrder("ord-3", models.StatusConfirmed, models.OrderItem{VariantID: flat.ID, Quantity: 4, UnitPrice: dec("90")})
	err = s.CreateSettledOrder(ctx, third, "Order confirmed", []StockLine{{VariantID: flat.ID, Quantity: 4}})
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)
	_, err = s.GetOrder(ctx, "ord-3")
	assert.ErrorIs(t, err, apperr.ErrOrderNotFound)
}
