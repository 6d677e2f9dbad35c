package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Settings names the broker objects.
type Settings struct {
	URL             string
	OrderExchange   string
	OrderQueue      string
	DeadLetterQueue string
	DelayExchange   string
	MaxPriority     int
}

func (s Settings) deadLetterExchange() string { return s.DeadLetterQueue + "_exchange" }
func (s Settings) paymentCheckQueue() string  { return s.OrderQueue + "_payment_check" }

type RabbitMQ struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	cfg  Settings
	log  *slog.Logger

	mu sync.Mutex // serialises publishes on ch

	// delayed is set once the delayed exchange and its queue exist.
	delayed bool
}

func Dial(cfg Settings, log *slog.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	return &RabbitMQ{conn: conn, ch: ch, cfg: cfg, log: log.With("component", "rabbitmq")}, nil
}

// SetupQueues declares the exchanges and queues. The delayed exchange needs
// the rabbitmq_delayed_message_exchange plugin; without it payment checks
// fall back to the expiry sweeper.
func (r *RabbitMQ) SetupQueues() error {
	// Dead letter exchange and queue
	if err := r.ch.ExchangeDeclare(r.cfg.deadLetterExchange(), "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare dead letter exchange: %w", err)
	}
	if _, err := r.ch.QueueDeclare(r.cfg.DeadLetterQueue, true, false, false, false,
		amqp.Table{"x-queue-type": "classic"}); err != nil {
		return fmt.Errorf("declare dead letter queue: %w", err)
	}
	if err := r.ch.QueueBind(r.cfg.DeadLetterQueue, r.cfg.DeadLetterQueue, r.cfg.deadLetterExchange(), false, nil); err != nil {
		return fmt.Errorf("bind dead letter queue: %w", err)
	}

	deadLettered := amqp.Table{
		"x-dead-letter-exchange":    r.cfg.deadLetterExchange(),
		"x-dead-letter-routing-key": r.cfg.DeadLetterQueue,
	}

	// Order events: topic exchange, priority queue
	if err := r.ch.ExchangeDeclare(r.cfg.OrderExchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare order exchange: %w", err)
	}
	orderArgs := amqp.Table{"x-max-priority": r.cfg.MaxPriority}
	for k, v := range deadLettered {
		orderArgs[k] = v
	}
	if _, err := r.ch.QueueDeclare(r.cfg.OrderQueue, true, false, false, false, orderArgs); err != nil {
		return fmt.Errorf("declare order queue: %w", err)
	}
	if err := r.ch.QueueBind(r.cfg.OrderQueue, "order.#", r.cfg.OrderExchange, false, nil); err != nil {
		return fmt.Errorf("bind order queue: %w", err)
	}

	// Delayed payment checks
	if err := r.ch.ExchangeDeclare(r.cfg.DelayExchange, "x-delayed-message", true, false, false, false,
		amqp.Table{"x-delayed-type": "direct"}); err != nil {
		r.log.Warn("delayed exchange not supported, payment checks disabled", "error", err)
		// A failed declare closes the channel.
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.ch, err = r.conn.Channel(); err != nil {
			return fmt.Errorf("reopen channel: %w", err)
		}
		return nil
	}
	if _, err := r.ch.QueueDeclare(r.cfg.paymentCheckQueue(), true, false, false, false, deadLettered); err != nil {
		return fmt.Errorf("declare payment check queue: %w", err)
	}
	if err := r.ch.QueueBind(r.cfg.paymentCheckQueue(), string(OrderPaymentCheck), r.cfg.DelayExchange, false, nil); err != nil {
		return fmt.Errorf("bind payment check queue: %w", err)
	}
	r.delayed = true
	return nil
}

// PaymentChecksEnabled reports whether delayed payment checks are routed.
func (r *RabbitMQ) PaymentChecksEnabled() bool { return r.delayed }

// Publish sends an order event, routed by its type.
func (r *RabbitMQ) Publish(ctx context.Context, e Event) error {
	msg, err := newPublishing(e)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ch.PublishWithContext(ctx, r.cfg.OrderExchange, string(e.Type), false, false, msg); err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	return nil
}

// SchedulePaymentCheck asks for a payment_check message after delay. It is a
// no-op when the delayed exchange is missing; the sweeper expires the order.
func (r *RabbitMQ) SchedulePaymentCheck(ctx context.Context, orderID string, delay time.Duration) error {
	if !r.delayed {
		return nil
	}
	msg, err := newDelayedPublishing(orderID, delay)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ch.PublishWithContext(ctx, r.cfg.DelayExchange, string(OrderPaymentCheck), false, false, msg); err != nil {
		return fmt.Errorf("schedule payment check: %w", err)
	}
	return nil
}

// CheckHandler expires the order if it is still awaiting payment.
type CheckHandler func(ctx context.Context, orderID string) error

// ConsumePaymentChecks delivers payment_check messages to handle until ctx is
// cancelled or the channel closes. It returns at once when payment checks are
// disabled.
func (r *RabbitMQ) ConsumePaymentChecks(ctx context.Context, handle CheckHandler) error {
	if !r.delayed {
		r.log.Info("payment check queue not declared, consumer not started")
		return nil
	}
	ch, err := r.conn.Channel()
	if err != nil {
		return fmt.Errorf("open consumer channel: %w", err)
	}
	defer ch.Close()

	if err := ch.Qos(10, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	msgs, err := ch.Consume(r.cfg.paymentCheckQueue(), "sportshop-payment-check", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("payment check deliveries closed")
			}
			r.handleDelivery(ctx, d, handle)
		}
	}
}

func (r *RabbitMQ) handleDelivery(ctx context.Context, d amqp.Delivery, handle CheckHandler) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("panic while handling payment check", "panic", rec)
			_ = d.Nack(false, false)
		}
	}()

	e, err := Decode(d.Body)
	if err != nil || e.Type != OrderPaymentCheck {
		r.log.Warn("dropping invalid payment check message", "body", string(d.Body), "error", err)
		_ = d.Nack(false, false) // dead-letter, do not requeue
		return
	}

	if err := handle(ctx, e.OrderID); err != nil {
		r.log.Error("payment check failed", "order_id", e.OrderID, "error", err)
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)
}

func (r *RabbitMQ) Close() {
	if r.ch != nil {
		_ = r.ch.Close()
	}
	if r.conn != nil {
		_ = r.conn.Close()
	}
}
