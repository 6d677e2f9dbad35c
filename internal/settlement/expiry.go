package settlement

import (
	"context"
	"errors"
	"time"

	"github.com/01moynul/sportshop-golang/internal/apperr"
	"github.com/01moynul/sportshop-golang/internal/models"
	"github.com/01moynul/sportshop-golang/internal/store"
)

const sweepBatch = 100

// ExpireIfPending expires a card order whose payment window elapsed. Orders
// that moved on, or no longer exist, are left alone.
func (s *Service) ExpireIfPending(ctx context.Context, orderID string) (bool, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if errors.Is(err, apperr.ErrOrderNotFound) {
		s.log.Warn("payment check for unknown order", "order_id", orderID)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if order.Status != models.StatusPendingPayment {
		return false, nil
	}

	applied, err := s.orders.TransitionStatus(ctx, store.TransitionRequest{
		OrderID: orderID,
		From:    models.StatusPendingPayment,
		To:      models.StatusExpired,
		Comment: "Payment window elapsed without a payment",
	})
	if err != nil {
		return false, err
	}
	if applied {
		ordersExpired.Inc()
		s.log.Info("order expired", "order_id", orderID)
	}
	return applied, nil
}

// HandlePaymentCheck is the delayed payment_check consumer callback.
func (s *Service) HandlePaymentCheck(ctx context.Context, orderID string) error {
	_, err := s.ExpireIfPending(ctx, orderID)
	return err
}

// SweepExpired expires every pending card order older than the payment
// window and returns how many it expired.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.ttl)
	expired := 0
	for {
		ids, err := s.orders.ListStalePending(ctx, cutoff, sweepBatch)
		if err != nil {
			return expired, err
		}
		progress := 0
		for _, id := range ids {
			ok, err := s.ExpireIfPending(ctx, id)
			if err != nil {
				s.log.Error("could not expire order", "order_id", id, "error", err)
				continue
			}
			if ok {
				expired++
				progress++
			}
		}
		if len(ids) < sweepBatch || progress == 0 {
			return expired, nil
		}
	}
}

// RunSweeper calls SweepExpired every interval until ctx is cancelled.
func (s *Service) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Info("expiry sweeper started", "interval", interval, "payment_window", s.ttl)
	for {
		select {
		case <-ctx.Done():
			s.log.Info("expiry sweeper stopped")
			return
		case <-ticker.C:
			n, err := s.SweepExpired(ctx)
			if err != nil {
				s.log.Error("expiry sweep failed", "error", err)
			}
			if n > 0 {
				s.log.Info("expired stale orders", "count", n)
			}
		}
	}
}
