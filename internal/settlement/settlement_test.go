package settlement

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/01moynul/sportshop-golang/internal/cart"
	"github.com/01moynul/sportshop-golang/internal/database"
	"github.com/01moynul/sportshop-golang/internal/events"
	"github.com/01moynul/sportshop-golang/internal/logger"
	"github.com/01moynul/sportshop-golang/internal/models"
	"github.com/01moynul/sportshop-golang/internal/payment"
	"github.com/01moynul/sportshop-golang/internal/pricing"
	"github.com/01moynul/sportshop-golang/internal/store"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

type fakeGateway struct {
	mu    sync.Mutex
	calls []payment.StartRequest
	err   error
}

func (g *fakeGateway) StartPayment(_ context.Context, req payment.StartRequest) (payment.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, req)
	if g.err != nil {
		return payment.Session{}, g.err
	}
	return payment.Session{NtpID: "ntp-" + req.OrderID, PaymentURL: "https://pay.test/" + req.OrderID}, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	checks []string
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) SchedulePaymentCheck(_ context.Context, orderID string, _ time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checks = append(p.checks, orderID)
	return nil
}

func (p *recordingPublisher) count(typ events.Type) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.Type == typ {
			n++
		}
	}
	return n
}

type testEnv struct {
	svc   *Service
	store *store.Store
	carts *cart.Store
	gw    *fakeGateway
	pub   *recordingPublisher
	now   time.Time

	shoe, sizedShoe, kayak models.Variant
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := database.OpenDB(database.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(ctx, db, database.DriverSQLite))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	e := &testEnv{gw: &fakeGateway{}, pub: &recordingPublisher{}, now: t0}
	clock := func() time.Time { return e.now }
	e.store = store.New(db).WithClock(clock)
	e.carts = cart.New(rdb, time.Hour)

	var seq atomic.Int64
	e.svc = New(Deps{
		Orders:  e.store,
		Stock:   e.store,
		Coupons: e.store,
		Catalog: e.store,
		Gateway: e.gw,
		Events:  e.pub,
		Carts:   e.carts,
	}, Options{
		Fees: pricing.Fees{
			ShippingBase:       dec("25"),
			BackorderSurcharge: dec("50"),
		},
		PendingTTL: 30 * time.Minute,
		Now:        clock,
		NewID: func() string {
			return fmt.Sprintf("order-%d", seq.Add(1))
		},
	}, logger.Discard())

	shoes := &models.Product{Name: "Trail Runner", Category: "footwear", Variants: []models.Variant{
		{SKU: "TR-RED", BasePrice: dec("100"), SalePercentage: dec("10"), CurrentStock: 5},
		{SKU: "TR-BLU", BasePrice: dec("120"), Sizes: []models.SizeStock{{Size: "42", Stock: 3}, {Size: "43", Stock: 0}}},
	}}
	require.NoError(t, e.store.CreateProduct(ctx, shoes))
	kayak := &models.Product{Name: "River Kayak", Category: "kayaks", Variants: []models.Variant{
		{SKU: "RK-1", BasePrice: dec("500"), CurrentStock: 2},
	}}
	require.NoError(t, e.store.CreateProduct(ctx, kayak))
	e.shoe, e.sizedShoe, e.kayak = shoes.Variants[0], shoes.Variants[1], kayak.Variants[0]

	capAmount := dec("40")
	require.NoError(t, e.store.CreateCoupon(ctx, &models.Coupon{
		Code:          "SPRING10",
		DiscountType:  models.DiscountPercentage,
		DiscountValue: dec("10"),
		MinPurchase:   dec("50"),
		MaxDiscount:   &capAmount,
		ValidFrom:     t0.Add(-24 * time.Hour),
		ValidUntil:    t0.Add(30 * 24 * time.Hour),
		UsageLimit:    5,
		Active:        true,
	}))
	return e
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func strPtr(s string) *string { return &s }

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, got.Equal(dec(want)), "want %s, got %s", want, got)
}

func (e *testEnv) stock(t *testing.T, v models.Variant, size *string) int {
	t.Helper()
	n, err := e.store.StockLevel(context.Background(), v.ID, size)
	require.NoError(t, err)
	return n
}

func (e *testEnv) timesUsed(t *testing.T, code string) int {
	t.Helper()
	c, err := e.store.GetCoupon(context.Background(), code)
	require.NoError(t, err)
	return c.TimesUsed
}

func (e *testEnv) order(t *testing.T, id string) *models.Order {
	t.Helper()
	o, err := e.store.GetOrder(context.Background(), id)
	require.NoError(t, err)
	return o
}

// cardOrder checks out quantity units of the unsized shoe by card.
func (e *testEnv) cardOrder(t *testing.T, quantity int, coupon string) *models.Order {
	t.Helper()
	res, err := e.svc.Checkout(context.Background(), CheckoutRequest{
		UserID:        7,
		AddressID:     1,
		PaymentMethod: models.PaymentCard,
		Items:         []CheckoutLine{{VariantID: e.shoe.ID, Quantity: quantity}},
		CouponCode:    coupon,
	})
	require.NoError(t, err)
	return res.Order
}

func paidWebhook(orderID string, amount string) *payment.WebhookPayload {
	return &payment.WebhookPayload{
		Order: &payment.WebhookOrder{OrderID: orderID},
		Payment: &payment.WebhookPayment{
			Amount:   dec(amount),
			Currency: "RON",
			Code:     payment.ApprovedCode,
			Status:   payment.CodePaid,
			NtpID:    "ntp-" + orderID,
		},
	}
}

func statusWebhook(orderID string, code payment.GatewayCode) *payment.WebhookPayload {
	return &payment.WebhookPayload{
		Order:   &payment.WebhookOrder{OrderID: orderID},
		Payment: &payment.WebhookPayment{Status: code, NtpID: "ntp-" + orderID},
	}
}
