package settlement

import (
	"context"
	"fmt"

	"github.com/01moynul/sportshop-golang/internal/apperr"
	"github.com/01moynul/sportshop-golang/internal/models"
	"github.com/01moynul/sportshop-golang/internal/payment"
	"github.com/01moynul/sportshop-golang/internal/pricing"
	"github.com/01moynul/sportshop-golang/internal/store"
	"github.com/shopspring/decimal"
)

// Viewer is the authenticated caller.
type Viewer struct {
	UserID int64
	Admin  bool
}

// OrderStatus returns the order for the confirmation poller. Orders of other
// users look like missing orders.
func (s *Service) OrderStatus(ctx context.Context, orderID string, v Viewer) (*models.Order, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !v.Admin && order.UserID != v.UserID {
		return nil, apperr.ErrOrderNotFound
	}
	return order, nil
}

// ConfirmFulfillment acknowledges a paid order: payment_confirmed to
// confirmed. Confirming twice is harmless.
func (s *Service) ConfirmFulfillment(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == models.StatusConfirmed {
		return order, nil
	}
	if !payment.CanTransition(order.Status, models.StatusConfirmed) {
		return nil, apperr.With(apperr.ErrIllegalTransition,
			fmt.Sprintf("an order in status %s cannot be confirmed", order.Status), nil)
	}

	applied, err := s.orders.TransitionStatus(ctx, store.TransitionRequest{
		OrderID: orderID,
		From:    order.Status,
		To:      models.StatusConfirmed,
		Comment: "Order confirmed for fulfillment",
	})
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, apperr.Conflict("concurrent_update", "order changed while confirming, reload and retry")
	}
	s.log.Info("order confirmed for fulfillment", "order_id", orderID)
	return s.orders.GetOrder(ctx, orderID)
}

// ListOrders is the staff view of orders in one status.
func (s *Service) ListOrders(ctx context.Context, status models.PaymentStatus, limit int) ([]models.Order, error) {
	if !status.Valid() {
		return nil, apperr.Validation("invalid_status", fmt.Sprintf("unknown order status %q", status))
	}
	return s.orders.ListOrdersByStatus(ctx, status, limit)
}

// CouponQuote is the result of a coupon validation.
type CouponQuote struct {
	Coupon   *models.Coupon  `json:"coupon"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
}

// ValidateCoupon checks a code against a subtotal without consuming it. With
// no subtotal the user's server-side cart is priced. A valid code is
// remembered on the cart for checkout.
func (s *Service) ValidateCoupon(ctx context.Context, userID int64, code string, subtotal *decimal.Decimal) (*CouponQuote, error) {
	if code == "" {
		return nil, apperr.Validation("coupon_required", "enter a coupon code")
	}

	var sub decimal.Decimal
	if subtotal != nil {
		sub = *subtotal
	} else {
		c, err := s.cartLines(ctx, userID)
		if err != nil {
			return nil, err
		}
		_, priced, err := s.priceLines(ctx, c.lines)
		if err != nil {
			return nil, err
		}
		sub = pricing.Subtotal(priced)
	}

	coupon, discount, err := s.coupons.ValidateCoupon(ctx, code, sub, s.now())
	if err != nil {
		return nil, err
	}

	if s.carts != nil {
		if err := s.carts.SetCoupon(ctx, userID, coupon.Code); err != nil {
			s.log.Warn("could not remember coupon on cart", "user_id", userID, "error", err)
		}
	}
	return &CouponQuote{Coupon: coupon, Subtotal: sub, Discount: discount}, nil
}

// ApplyCoupon consumes the coupon of a paid order. It is safe to call any
// number of times; only the first call counts.
func (s *Service) ApplyCoupon(ctx context.Context, orderID string, v Viewer) (bool, error) {
	order, err := s.OrderStatus(ctx, orderID, v)
	if err != nil {
		return false, err
	}
	if order.Coupon == nil {
		return false, apperr.Validation("no_coupon", "this order has no coupon")
	}
	if !order.Status.IsPaid() {
		return false, apperr.Conflict("order_not_paid", "the coupon is applied once the order is paid")
	}
	return s.coupons.ApplyUsageForOrder(ctx, orderID, order.Coupon.Code)
}
