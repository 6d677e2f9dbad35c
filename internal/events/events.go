// Package events publishes order lifecycle events to RabbitMQ and consumes
// the delayed payment checks that expire abandoned card payments.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/01moynul/sportshop-golang/internal/models"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
)

type Type string

const (
	OrderCreated          Type = "order.created"
	OrderPaymentConfirmed Type = "order.payment_confirmed"
	OrderReconcile        Type = "order.reconcile"
	OrderPaymentCheck     Type = "order.payment_check"
)

// Event is the JSON body of every message.
type Event struct {
	Type       Type                 `json:"type"`
	OrderID    string               `json:"orderId"`
	UserID     int64                `json:"userId,omitempty"`
	Status     models.PaymentStatus `json:"status,omitempty"`
	Total      *decimal.Decimal     `json:"total,omitempty"`
	Reason     string               `json:"reason,omitempty"`
	OccurredAt time.Time            `json:"occurredAt"`
}

// priority for the x-max-priority order queue. Staff-facing events jump the
// queue.
func (e Event) priority() uint8 {
	switch e.Type {
	case OrderReconcile:
		return 9
	case OrderPaymentConfirmed:
		return 5
	default:
		return 1
	}
}

func newPublishing(e Event) (amqp.Publishing, error) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(e)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("encode event: %w", err)
	}
	return amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Timestamp:    e.OccurredAt,
		ContentType:  "application/json",
		Type:         string(e.Type),
		MessageId:    fmt.Sprintf("%s:%s", e.Type, e.OrderID),
		Body:         body,
		Priority:     e.priority(),
	}, nil
}

func newDelayedPublishing(orderID string, delay time.Duration) (amqp.Publishing, error) {
	msg, err := newPublishing(Event{Type: OrderPaymentCheck, OrderID: orderID})
	if err != nil {
		return msg, err
	}
	msg.Headers = amqp.Table{
		"x-delay": delay.Milliseconds(), // delay in milliseconds
	}
	return msg, nil
}

// Decode parses a message body.
func Decode(body []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(body, &e); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if e.Type == "" || e.OrderID == "" {
		return Event{}, fmt.Errorf("decode event: missing type or order id")
	}
	return e, nil
}
