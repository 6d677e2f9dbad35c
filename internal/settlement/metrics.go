package settlement

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	webhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sportshop_webhook_events_total",
			Help: "Payment gateway notifications by resulting status and outcome",
		},
		[]string{"status", "outcome"},
	)

	sideEffectFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sportshop_settlement_side_effect_failures_total",
			Help: "Post-payment bookkeeping steps that failed and need reconciliation",
		},
		[]string{"effect"},
	)

	ordersExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sportshop_orders_expired_total",
			Help: "Card orders expired after the payment window elapsed",
		},
	)

	checkouts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sportshop_checkouts_total",
			Help: "Checkout attempts by payment method and result",
		},
		[]string{"method", "result"},
	)
)
