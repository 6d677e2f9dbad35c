// Package settlement turns carts into orders and drives each order through
// the payment state machine: checkout, gateway webhooks, confirmation side
// effects, fulfillment and expiry.
package settlement

import (
	"context"
	"log/slog"
	"time"

	"github.com/01moynul/sportshop-golang/internal/events"
	"github.com/01moynul/sportshop-golang/internal/models"
	"github.com/01moynul/sportshop-golang/internal/payment"
	"github.com/01moynul/sportshop-golang/internal/pricing"
	"github.com/01moynul/sportshop-golang/internal/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStore interface {
	CreateOrder(ctx context.Context, o *models.Order, comment string) error
	CreateSettledOrder(ctx context.Context, o *models.Order, comment string, lines []store.StockLine) error
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	TransitionStatus(ctx context.Context, req store.TransitionRequest) (bool, error)
	AppendComment(ctx context.Context, orderID string, status models.PaymentStatus, comment string) error
	RecordPaymentSession(ctx context.Context, orderID, token, retryURL string) error
	ListOrdersByStatus(ctx context.Context, status models.PaymentStatus, limit int) ([]models.Order, error)
	ListStalePending(ctx context.Context, before time.Time, limit int) ([]string, error)
}

type StockLedger interface {
	ReserveForOrder(ctx context.Context, orderID string, lines []store.StockLine) (bool, error)
}

type CouponLedger interface {
	ValidateCoupon(ctx context.Context, code string, subtotal decimal.Decimal, now time.Time) (*models.Coupon, decimal.Decimal, error)
	ApplyUsageForOrder(ctx context.Context, orderID, code string) (bool, error)
}

type Catalog interface {
	GetVariant(ctx context.Context, id int64) (*models.Variant, error)
}

type Gateway interface {
	StartPayment(ctx context.Context, req payment.StartRequest) (payment.Session, error)
}

type Publisher interface {
	Publish(ctx context.Context, e events.Event) error
	SchedulePaymentCheck(ctx context.Context, orderID string, delay time.Duration) error
}

// Carts is the server-side cart plus checkout idempotency keys.
type Carts interface {
	Get(ctx context.Context, userID int64) (*models.Cart, error)
	Clear(ctx context.Context, userID int64) error
	SetCoupon(ctx context.Context, userID int64, code string) error
	ClaimCheckout(ctx context.Context, userID int64, key, orderID string) (string, bool, error)
	ReleaseCheckout(ctx context.Context, userID int64, key string) error
}

// Deps are the collaborators of the service. *store.Store satisfies Orders,
// Stock, Coupons and Catalog.
type Deps struct {
	Orders  OrderStore
	Stock   StockLedger
	Coupons CouponLedger
	Catalog Catalog
	Gateway Gateway
	Events  Publisher
	Carts   Carts
}

type Options struct {
	Fees       pricing.Fees
	PendingTTL time.Duration
	Now        func() time.Time
	NewID      func() string
}

type Service struct {
	orders  OrderStore
	stock   StockLedger
	coupons CouponLedger
	catalog Catalog
	gateway Gateway
	events  Publisher
	carts   Carts

	fees  pricing.Fees
	ttl   time.Duration
	now   func() time.Time
	newID func() string
	log   *slog.Logger
}

func New(deps Deps, opts Options, log *slog.Logger) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.PendingTTL <= 0 {
		opts.PendingTTL = 30 * time.Minute
	}
	return &Service{
		orders:  deps.Orders,
		stock:   deps.Stock,
		coupons: deps.Coupons,
		catalog: deps.Catalog,
		gateway: deps.Gateway,
		events:  deps.Events,
		carts:   deps.Carts,
		fees:    opts.Fees,
		ttl:     opts.PendingTTL,
		now:     opts.Now,
		newID:   opts.NewID,
		log:     log.With("component", "settlement"),
	}
}

// publish sends an event and only logs failures.
func (s *Service) publish(ctx context.Context, e events.Event) {
	if s.events == nil {
		return
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = s.now().UTC()
	}
	if err := s.events.Publish(ctx, e); err != nil {
		s.log.Warn("event publish failed", "type", e.Type, "order_id", e.OrderID, "error", err)
	}
}
