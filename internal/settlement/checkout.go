package settlement

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/01moynul/sportshop-golang/internal/apperr"
	"github.com/01moynul/sportshop-golang/internal/events"
	"github.com/01moynul/sportshop-golang/internal/models"
	"github.com/01moynul/sportshop-golang/internal/payment"
	"github.com/01moynul/sportshop-golang/internal/pricing"
	"github.com/01moynul/sportshop-golang/internal/store"
	"github.com/shopspring/decimal"
)

var (
	ErrPriceChanged = apperr.Validation("price_changed", "prices changed, please review your cart")
	ErrEmptyCart    = apperr.Validation("empty_cart", "there is nothing to check out")
)

// CheckoutLine is one requested line. Price is what the storefront showed
// the customer; when present it must match the current price.
type CheckoutLine struct {
	VariantID int64            `json:"variant"`
	Quantity  int              `json:"quantity"`
	Size      *string          `json:"size,omitempty"`
	Price     *decimal.Decimal `json:"price,omitempty"`
}

type CheckoutRequest struct {
	UserID         int64
	IdempotencyKey string
	AddressID      int64
	PaymentMethod  models.PaymentMethod
	// Items may be empty, in which case the server-side cart is used.
	Items      []CheckoutLine
	CouponCode string
	// TotalPrice is the total the customer agreed to, if the client sent one.
	TotalPrice *decimal.Decimal
}

type CheckoutResult struct {
	Order      *models.Order
	Quote      pricing.Quote
	PaymentURL string
	// Replayed is set when an Idempotency-Key matched an earlier checkout.
	Replayed bool
}

// Checkout prices the request on the server, creates the order and, for card
// payments, opens a gateway session. Cash and pickup orders are confirmed
// immediately, together with their stock and coupon.
func (s *Service) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	orderID := s.newID()

	// 1. --- Idempotency ---
	useKey := req.IdempotencyKey != "" && s.carts != nil
	if useKey {
		existing, claimed, err := s.carts.ClaimCheckout(ctx, req.UserID, req.IdempotencyKey, orderID)
		if err != nil {
			return nil, err
		}
		if !claimed {
			return s.replay(ctx, existing)
		}
	}

	res, created, err := s.checkout(ctx, orderID, req)
	if err != nil {
		checkouts.WithLabelValues(string(req.PaymentMethod), "error").Inc()
		if useKey && !created {
			if rerr := s.carts.ReleaseCheckout(ctx, req.UserID, req.IdempotencyKey); rerr != nil {
				s.log.Warn("could not release idempotency key", "user_id", req.UserID, "error", rerr)
			}
		}
		return nil, err
	}
	checkouts.WithLabelValues(string(req.PaymentMethod), "ok").Inc()
	return res, nil
}

func (s *Service) replay(ctx context.Context, orderID string) (*CheckoutResult, error) {
	o, err := s.orders.GetOrder(ctx, orderID)
	if errors.Is(err, apperr.ErrOrderNotFound) {
		return nil, apperr.Conflict("checkout_in_progress", "this checkout is still being processed")
	}
	if err != nil {
		return nil, err
	}
	return &CheckoutResult{Order: o, PaymentURL: o.PaymentRetryURL, Replayed: true}, nil
}

func (s *Service) checkout(ctx context.Context, orderID string, req CheckoutRequest) (*CheckoutResult, bool, error) {
	// 1. --- Validate the request ---
	if !req.PaymentMethod.Valid() {
		return nil, false, apperr.Validation("invalid_payment_method", "payment method must be CARD, CASH or PICKUP")
	}
	if req.AddressID <= 0 {
		return nil, false, apperr.Validation("address_required", "a delivery address is required")
	}

	// 2. --- Resolve the lines (request or server-side cart) ---
	lines := req.Items
	couponCode := req.CouponCode
	fromCart := len(lines) == 0
	if fromCart {
		c, err := s.cartLines(ctx, req.UserID)
		if err != nil {
			return nil, false, err
		}
		lines = c.lines
		if couponCode == "" {
			couponCode = c.coupon
		}
	}

	// 3. --- Price every line from the catalog ---
	items, priced, err := s.priceLines(ctx, lines)
	if err != nil {
		return nil, false, err
	}

	// 4. --- Coupon ---
	discount := decimal.Zero
	var snapshot *models.CouponSnapshot
	if code := strings.TrimSpace(couponCode); code != "" {
		c, d, err := s.coupons.ValidateCoupon(ctx, code, pricing.Subtotal(priced), s.now())
		if err != nil {
			return nil, false, err
		}
		discount = d
		snapshot = &models.CouponSnapshot{Code: c.Code, Discount: d}
	}

	// 5. --- Quote and compare with what the customer saw ---
	quote := s.fees.Compute(pricing.Input{
		Lines:          priced,
		CouponDiscount: discount,
		Pickup:         req.PaymentMethod.IsPickup(),
	})
	if req.TotalPrice != nil && !req.TotalPrice.Equal(quote.Total) {
		return nil, false, apperr.With(ErrPriceChanged,
			fmt.Sprintf("order total is now %s", quote.Total.StringFixed(2)), nil)
	}

	// 6. --- Create the order ---
	status, comment := models.StatusConfirmed, "Order confirmed, payment on delivery"
	switch req.PaymentMethod {
	case models.PaymentCard:
		status, comment = models.StatusPendingPayment, "Order created, awaiting card payment"
	case models.PaymentPickup:
		comment = "Order confirmed, payment at store pickup"
	}

	order := &models.Order{
		ID:            orderID,
		UserID:        req.UserID,
		AddressID:     req.AddressID,
		PaymentMethod: req.PaymentMethod,
		TotalPrice:    quote.Total,
		Status:        status,
		Coupon:        snapshot,
		CreatedAt:     s.now(),
		Items:         items,
	}
	// Nothing is captured for cash and pickup, so stock and coupon are taken
	// with the insert and a shortfall fails the checkout.
	if req.PaymentMethod == models.PaymentCard {
		err = s.orders.CreateOrder(ctx, order, comment)
	} else {
		err = s.orders.CreateSettledOrder(ctx, order, comment, stockLines(order))
	}
	if err != nil {
		return nil, false, err
	}
	s.log.Info("order created", "order_id", order.ID, "user_id", order.UserID,
		"method", order.PaymentMethod, "total", order.TotalPrice.StringFixed(2))
	s.publish(ctx, events.Event{Type: events.OrderCreated, OrderID: order.ID, UserID: order.UserID,
		Status: order.Status, Total: &order.TotalPrice})

	res := &CheckoutResult{Order: order, Quote: quote}

	// 7. --- Settle ---
	if req.PaymentMethod == models.PaymentCard {
		url, err := s.startCardPayment(ctx, order)
		if err != nil {
			return nil, true, err
		}
		res.PaymentURL = url
	} else {
		s.notifyConfirmed(ctx, order)
	}

	if fromCart {
		if err := s.carts.Clear(ctx, req.UserID); err != nil {
			s.log.Warn("could not clear cart after checkout", "user_id", req.UserID, "error", err)
		}
	}
	return res, true, nil
}

// startCardPayment opens the gateway session. On failure the order moves to
// error and the caller gets an upstream error.
func (s *Service) startCardPayment(ctx context.Context, order *models.Order) (string, error) {
	session, err := s.gateway.StartPayment(ctx, payment.StartRequest{
		OrderID:     order.ID,
		Amount:      order.TotalPrice,
		Description: "Sportshop order " + order.ID,
	})
	if err != nil {
		s.log.Error("payment start failed", "order_id", order.ID, "error", err)
		_, terr := s.orders.TransitionStatus(context.WithoutCancel(ctx), store.TransitionRequest{
			OrderID: order.ID,
			From:    models.StatusPendingPayment,
			To:      models.StatusError,
			Comment: "Payment could not be started: " + apperr.From(err).Message,
		})
		if terr != nil {
			s.log.Error("could not record payment start failure", "order_id", order.ID, "error", terr)
		} else {
			order.Status = models.StatusError
		}
		if !errors.As(err, new(*apperr.Error)) {
			err = apperr.With(apperr.ErrGatewayUnavailable, "", err)
		}
		return "", err
	}

	if err := s.orders.RecordPaymentSession(ctx, order.ID, session.NtpID, session.PaymentURL); err != nil {
		// The webhook correlates by order id, so the order stays payable.
		s.log.Error("could not store payment session", "order_id", order.ID, "error", err)
	}
	order.PaymentToken, order.PaymentRetryURL = session.NtpID, session.PaymentURL

	if s.events != nil {
		if err := s.events.SchedulePaymentCheck(ctx, order.ID, s.ttl); err != nil {
			s.log.Warn("could not schedule payment check", "order_id", order.ID, "error", err)
		}
	}
	return session.PaymentURL, nil
}

type cartSnapshot struct {
	lines  []CheckoutLine
	coupon string
}

func (s *Service) cartLines(ctx context.Context, userID int64) (*cartSnapshot, error) {
	if s.carts == nil {
		return nil, ErrEmptyCart
	}
	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(c.Items) == 0 {
		return nil, ErrEmptyCart
	}

	out := &cartSnapshot{coupon: c.CouponCode}
	for _, it := range c.Items {
		l := CheckoutLine{VariantID: it.VariantID, Quantity: it.Quantity}
		if it.Size != "" {
			size := it.Size
			l.Size = &size
		}
		out.lines = append(out.lines, l)
	}
	return out, nil
}

// priceLines loads every variant and prices the lines at today's prices.
// Lines for the same variant and size are checked against stock together.
// Empty stock marks a line as backordered; positive stock below the
// requested quantity rejects the checkout.
func (s *Service) priceLines(ctx context.Context, requested []CheckoutLine) ([]models.OrderItem, []pricing.Line, error) {
	lines, err := mergeLines(requested)
	if err != nil {
		return nil, nil, err
	}

	items := make([]models.OrderItem, 0, len(lines))
	priced := make([]pricing.Line, 0, len(lines))
	for _, l := range lines {
		v, err := s.catalog.GetVariant(ctx, l.VariantID)
		if err != nil {
			return nil, nil, err
		}

		base, stock := v.BasePrice, v.CurrentStock
		var size *string
		switch {
		case v.IsSized():
			if l.Size == nil || *l.Size == "" {
				return nil, nil, apperr.Validation("size_required",
					fmt.Sprintf("choose a size for %s", v.ProductName))
			}
			sz, ok := v.FindSize(*l.Size)
			if !ok {
				return nil, nil, apperr.With(apperr.ErrVariantNotFound,
					fmt.Sprintf("size %s of %s is not available", *l.Size, v.ProductName), nil)
			}
			stock = sz.Stock
			if sz.Price != nil {
				base = *sz.Price
			}
			size = &sz.Size
		case l.Size != nil && *l.Size != "":
			return nil, nil, apperr.Validation("size_not_applicable",
				fmt.Sprintf("%s is not sold by size", v.ProductName))
		}

		backordered := stock <= 0
		if !backordered && stock < l.Quantity {
			return nil, nil, apperr.With(apperr.ErrInsufficientStock,
				fmt.Sprintf("only %d of %s left in stock", stock, v.ProductName), nil)
		}

		unit := pricing.Round2(pricing.DiscountedUnitPrice(base, v.SalePercentage))
		if l.Price != nil && !l.Price.Equal(unit) {
			return nil, nil, apperr.With(ErrPriceChanged,
				fmt.Sprintf("the price of %s is now %s", v.ProductName, unit.StringFixed(2)), nil)
		}

		items = append(items, models.OrderItem{
			VariantID:   v.ID,
			ProductName: v.ProductName,
			Category:    v.Category,
			Size:        size,
			Quantity:    l.Quantity,
			UnitPrice:   unit,
			Backordered: backordered,
		})
		priced = append(priced, pricing.Line{
			BasePrice:      base,
			SalePercentage: v.SalePercentage,
			Quantity:       l.Quantity,
			Category:       v.Category,
			Backordered:    backordered,
		})
	}
	return items, priced, nil
}

// mergeLines folds lines for the same variant and size into one, keeping
// the first occurrence's position.
func mergeLines(lines []CheckoutLine) ([]CheckoutLine, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	type key struct {
		variant int64
		size    string
	}

	out := make([]CheckoutLine, 0, len(lines))
	index := make(map[key]int, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, apperr.Validation("invalid_quantity", "quantity must be positive")
		}
		k := key{variant: l.VariantID}
		if l.Size != nil {
			k.size = *l.Size
		}
		i, seen := index[k]
		if !seen {
			index[k] = len(out)
			out = append(out, l)
			continue
		}
		merged := &out[i]
		merged.Quantity += l.Quantity
		switch {
		case merged.Price == nil:
			merged.Price = l.Price
		case l.Price != nil && !l.Price.Equal(*merged.Price):
			return nil, apperr.With(ErrPriceChanged, "the same item was listed at two prices", nil)
		}
	}
	return out, nil
}
