package settlement

import (
	"context"
	"testing"
	"time"

	"github.com/01moynul/sportshop-golang/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepExpired(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	stale := e.cardOrder(t, 1, "")
	e.now = t0.Add(31 * time.Minute)
	fresh := e.cardOrder(t, 1, "")

	n, err := e.svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, models.StatusExpired, e.order(t, stale.ID).Status)
	assert.Equal(t, models.StatusPendingPayment, e.order(t, fresh.ID).Status)

	n, err = e.svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestExpiredOrderStillAcceptsCapturedPayment(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	o := e.cardOrder(t, 1, "")

	require.NoError(t, e.svc.HandlePaymentCheck(ctx, o.ID))
	assert.Equal(t, models.StatusExpired, e.order(t, o.ID).Status)

	res, err := e.svc.HandleWebhook(ctx, paidWebhook(o.ID, "115"))
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, 4, e.stock(t, e.shoe, nil))
}

func TestPaymentCheckLeavesSettledOrders(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	o := e.cardOrder(t, 1, "")
	_, err := e.svc.HandleWebhook(ctx, paidWebhook(o.ID, "115"))
	require.NoError(t, err)

	expired, err := e.svc.ExpireIfPending(ctx, o.ID)
	require.NoError(t, err)
	assert.False(t, expired)
	assert.Equal(t, models.StatusPaymentConfirmed, e.order(t, o.ID).Status)

	assert.NoError(t, e.svc.HandlePaymentCheck(ctx, "gone"))
}

func TestRunSweeperStopsOnCancel(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.svc.RunSweeper(ctx, time.Hour)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop")
	}
}
