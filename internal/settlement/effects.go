package settlement

import (
	"context"

	"github.com/01moynul/sportshop-golang/internal/events"
	"github.com/01moynul/sportshop-golang/internal/models"
	"github.com/01moynul/sportshop-golang/internal/store"
)

// applyConfirmationEffects reserves stock, consumes the coupon and sends the
// confirmation notification. Each step is idempotent per order and none of
// them can fail the caller: failures are logged, counted, written to the
// order history and published for staff.
func (s *Service) applyConfirmationEffects(ctx context.Context, order *models.Order) {
	// The customer already paid; finish even if the request goes away.
	ctx = context.WithoutCancel(ctx)

	// 1. --- Stock ---
	if _, err := s.stock.ReserveForOrder(ctx, order.ID, stockLines(order)); err != nil {
		s.reconcile(ctx, order, "stock", err)
	} else {
		order.StockReserved = true
	}

	// 2. --- Coupon ---
	if order.Coupon != nil {
		if _, err := s.coupons.ApplyUsageForOrder(ctx, order.ID, order.Coupon.Code); err != nil {
			s.reconcile(ctx, order, "coupon", err)
		} else {
			order.CouponApplied = true
		}
	}

	// 3. --- Notification ---
	s.notifyConfirmed(ctx, order)
}

// notifyConfirmed publishes the confirmation notification. A failed publish
// is recorded for reconciliation.
func (s *Service) notifyConfirmed(ctx context.Context, order *models.Order) {
	if s.events == nil {
		return
	}
	err := s.events.Publish(context.WithoutCancel(ctx), events.Event{
		Type:       events.OrderPaymentConfirmed,
		OrderID:    order.ID,
		UserID:     order.UserID,
		Status:     order.Status,
		Total:      &order.TotalPrice,
		OccurredAt: s.now().UTC(),
	})
	if err != nil {
		s.reconcile(context.WithoutCancel(ctx), order, "notification", err)
	}
}

func stockLines(order *models.Order) []store.StockLine {
	lines := make([]store.StockLine, 0, len(order.Items))
	for _, it := range order.Items {
		lines = append(lines, store.StockLine{
			VariantID:   it.VariantID,
			Size:        it.Size,
			Quantity:    it.Quantity,
			Backordered: it.Backordered,
		})
	}
	return lines
}

// reconcile records a failed bookkeeping step for staff.
func (s *Service) reconcile(ctx context.Context, order *models.Order, effect string, cause error) {
	sideEffectFailures.WithLabelValues(effect).Inc()
	s.log.Error("confirmation side effect failed", "order_id", order.ID, "effect", effect, "error", cause)

	note := "Reconciliation needed: " + effect + " failed: " + cause.Error()
	if err := s.orders.AppendComment(ctx, order.ID, order.Status, note); err != nil {
		s.log.Error("could not record reconciliation note", "order_id", order.ID, "error", err)
	} else {
		order.Comments = append(order.Comments, note)
	}

	s.publish(ctx, events.Event{
		Type:    events.OrderReconcile,
		OrderID: order.ID,
		UserID:  order.UserID,
		Status:  order.Status,
		Reason:  note,
	})
}
