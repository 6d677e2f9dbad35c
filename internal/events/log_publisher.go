package events

import (
	"context"
	"log/slog"
	"time"
)

// LogPublisher stands in for RabbitMQ when no broker is configured. Events
// are written to the log; payment checks are left to the expiry sweeper.
type LogPublisher struct {
	log *slog.Logger
}

func NewLogPublisher(log *slog.Logger) *LogPublisher {
	return &LogPublisher{log: log.With("component", "events")}
}

func (p *LogPublisher) Publish(ctx context.Context, e Event) error {
	level := slog.LevelInfo
	if e.Type == OrderReconcile {
		level = slog.LevelWarn
	}
	p.log.Log(ctx, level, "order event", "type", e.Type, "order_id", e.OrderID,
		"status", e.Status, "reason", e.Reason)
	return nil
}

func (p *LogPublisher) SchedulePaymentCheck(ctx context.Context, orderID string, delay time.Duration) error {
	p.log.DebugContext(ctx, "payment check left to sweeper", "order_id", orderID, "delay", delay)
	return nil
}
