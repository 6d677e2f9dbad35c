package settlement

import (
	"context"
	"fmt"
	"strings"

	"github.com/01moynul/sportshop-golang/internal/apperr"
	"github.com/01moynul/sportshop-golang/internal/events"
	"github.com/01moynul/sportshop-golang/internal/models"
	"github.com/01moynul/sportshop-golang/internal/payment"
	"github.com/01moynul/sportshop-golang/internal/store"
)

// Lost compare-and-set races are retried this many times before the gateway
// is asked to redeliver.
const maxTransitionAttempts = 3

// WebhookResult says what a gateway notification did to the order.
type WebhookResult struct {
	OrderID   string               `json:"orderId"`
	Status    models.PaymentStatus `json:"status"`
	Applied   bool                 `json:"applied"`
	Duplicate bool                 `json:"duplicate,omitempty"`
	Ignored   bool                 `json:"ignored,omitempty"`
}

// HandleWebhook applies a gateway notification to its order. Duplicate
// deliveries and transitions the state machine does not allow succeed
// without touching the order. Only the delivery that moves the order into
// payment_confirmed runs the stock, coupon and notification side effects.
func (s *Service) HandleWebhook(ctx context.Context, p *payment.WebhookPayload) (*WebhookResult, error) {
	// 1. --- Validate payload, status code and approval code ---
	ev, err := p.Parse()
	if err != nil {
		webhookEvents.WithLabelValues("", "rejected").Inc()
		s.log.Warn("webhook rejected", "error", err)
		return nil, err
	}
	target := ev.Outcome.Status
	log := s.log.With("order_id", ev.OrderID, "gateway_code", int(ev.Code), "ntp_id", ev.NtpID)

	for attempt := 0; attempt < maxTransitionAttempts; attempt++ {
		// 2. --- Load the order ---
		order, err := s.orders.GetOrder(ctx, ev.OrderID)
		if err != nil {
			return nil, err
		}
		from := order.Status
		res := &WebhookResult{OrderID: order.ID, Status: from}

		// 3. --- Idempotency and legality ---
		if target == models.StatusPaymentConfirmed && from.IsPaid() {
			s.flagSecondCapture(ctx, order, ev)
		}
		if from == target {
			webhookEvents.WithLabelValues(string(target), "duplicate").Inc()
			log.Info("duplicate webhook ignored", "status", from)
			res.Duplicate = true
			return res, nil
		}
		if !payment.CanTransition(from, target) {
			webhookEvents.WithLabelValues(string(target), "ignored").Inc()
			log.Warn("illegal status transition ignored", "from", from, "to", target)
			res.Ignored = true
			return res, nil
		}

		// 4. --- Compare-and-set ---
		applied, err := s.orders.TransitionStatus(ctx, store.TransitionRequest{
			OrderID:          order.ID,
			From:             from,
			To:               target,
			Comment:          webhookComment(order, ev),
			GatewayPaymentID: ev.NtpID,
		})
		if err != nil {
			return nil, err
		}
		if !applied {
			log.Info("order changed concurrently, re-reading", "attempt", attempt+1)
			continue
		}

		order.Status = target
		res.Status, res.Applied = target, true
		webhookEvents.WithLabelValues(string(target), "applied").Inc()
		log.Info("order status updated", "from", from, "to", target)

		// 5. --- Side effects, exactly once ---
		if payment.EntersConfirmed(from, target) {
			s.checkAmount(ctx, order, ev)
			s.applyConfirmationEffects(ctx, order)
		}
		return res, nil
	}

	return nil, apperr.Conflict("concurrent_update", "order is being updated, retry later")
}

// flagSecondCapture records a paid notification for an already paid order
// that carries a different gateway payment id.
func (s *Service) flagSecondCapture(ctx context.Context, order *models.Order, ev payment.Event) {
	if ev.NtpID == "" || ev.NtpID == order.GatewayPayment {
		return
	}
	note := fmt.Sprintf("Second capture %s, refund needed", ev.NtpID)
	for _, c := range order.Comments {
		if c == note {
			return
		}
	}

	ctx = context.WithoutCancel(ctx)
	sideEffectFailures.WithLabelValues("second_capture").Inc()
	s.log.Error("second capture for paid order", "order_id", order.ID,
		"ntp_id", ev.NtpID, "recorded_ntp_id", order.GatewayPayment, "amount", ev.Amount.String())
	if err := s.orders.AppendComment(ctx, order.ID, order.Status, note); err != nil {
		s.log.Error("could not record second capture", "order_id", order.ID, "error", err)
		return
	}
	order.Comments = append(order.Comments, note)
	s.publish(ctx, events.Event{
		Type:    events.OrderReconcile,
		OrderID: order.ID,
		UserID:  order.UserID,
		Status:  order.Status,
		Reason:  note,
	})
}

func webhookComment(order *models.Order, ev payment.Event) string {
	var b strings.Builder
	b.WriteString(ev.Outcome.Message)
	fmt.Fprintf(&b, " [gateway code %d]", ev.Code)
	if msg := strings.TrimSpace(ev.Message); msg != "" && msg != ev.Outcome.Message {
		fmt.Fprintf(&b, ": %s", msg)
	}
	if !ev.Outcome.Status.IsPaid() && order.PaymentRetryURL != "" {
		fmt.Fprintf(&b, ". Retry payment: %s", order.PaymentRetryURL)
	}
	return b.String()
}

// checkAmount flags a captured amount that differs from the order total.
// It never blocks the confirmation.
func (s *Service) checkAmount(ctx context.Context, order *models.Order, ev payment.Event) {
	if ev.Amount.IsZero() || ev.Amount.Equal(order.TotalPrice) {
		return
	}
	note := fmt.Sprintf("Amount mismatch: gateway captured %s %s, order total is %s",
		ev.Amount.StringFixed(2), ev.Currency, order.TotalPrice.StringFixed(2))
	s.log.Warn("payment amount mismatch", "order_id", order.ID,
		"captured", ev.Amount.String(), "total", order.TotalPrice.String())
	if err := s.orders.AppendComment(context.WithoutCancel(ctx), order.ID, order.Status, note); err != nil {
		s.log.Error("could not record amount mismatch", "order_id", order.ID, "error", err)
		return
	}
	order.Comments = append(order.Comments, note)
}
