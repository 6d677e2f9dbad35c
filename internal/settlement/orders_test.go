package settlement

import (
	"context"
	"testing"

	"github.com/01moynul/sportshop-golang/internal/apperr"
	"github.com/01moynul/sportshop-golang/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatus_OwnerOrAdmin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	o := e.cardOrder(t, 1, "")

	got, err := e.svc.OrderStatus(ctx, o.ID, Viewer{UserID: 7})
	require.NoError(t, err)
	assert.False(t, got.Status.IsTerminal())

	_, err = e.svc.OrderStatus(ctx, o.ID, Viewer{UserID: 8})
	assert.ErrorIs(t, err, apperr.ErrOrderNotFound)

	_, err = e.svc.OrderStatus(ctx, o.ID, Viewer{UserID: 1, Admin: true})
	assert.NoError(t, err)
}

func TestConfirmFulfillment(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	o := e.cardOrder(t, 1, "")

	_, err := e.svc.ConfirmFulfillment(ctx, o.ID)
	assert.ErrorIs(t, err, apperr.ErrIllegalTransition)

	_, err = e.svc.HandleWebhook(ctx, paidWebhook(o.ID, "115"))
	require.NoError(t, err)

	got, err := e.svc.ConfirmFulfillment(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, got.Status)

	got, err = e.svc.ConfirmFulfillment(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, got.Status)

	list, err := e.svc.ListOrders(ctx, models.StatusConfirmed, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, o.ID, list[0].ID)

	_, err = e.svc.ListOrders(ctx, "shipped", 10)
	assert.Error(t, err)
}

func TestValidateCoupon_UsesCartAndRemembersCode(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.carts.AddItem(ctx, 7, models.CartItem{VariantID: e.kayak.ID, Quantity: 1})
	require.NoError(t, err)

	q, err := e.svc.ValidateCoupon(ctx, 7, "spring10", nil)
	require.NoError(t, err)
	assertDecimal(t, "500", q.Subtotal)
	assertDecimal(t, "40", q.Discount)
	assert.Equal(t, 0, e.timesUsed(t, "SPRING10"))

	c, err := e.carts.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "SPRING10", c.CouponCode)

	_, err = e.svc.ValidateCoupon(ctx, 7, "SPRING10", decPtr("20"))
	assert.ErrorIs(t, err, apperr.ErrCouponMinNotMet)
}

func TestApplyCoupon_OnlyPaidOrdersAndOnce(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	viewer := Viewer{UserID: 7}
	o := e.cardOrder(t, 1, "SPRING10")

	_, err := e.svc.ApplyCoupon(ctx, o.ID, viewer)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "order_not_paid", appErr.Code)

	_, err = e.svc.HandleWebhook(ctx, paidWebhook(o.ID, "106"))
	require.NoError(t, err)

	// The webhook already consumed it.
	applied, err := e.svc.ApplyCoupon(ctx, o.ID, viewer)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, 1, e.timesUsed(t, "SPRING10"))

	plain := e.cardOrder(t, 1, "")
	_, err = e.svc.ApplyCoupon(ctx, plain.ID, viewer)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "no_coupon", appErr.Code)
}
