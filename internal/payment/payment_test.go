package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/01moynul/sportshop-golang/internal/apperr"
	"github.com/01moynul/sportshop-golang/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_KnownCodes(t *testing.T) {
	want := map[GatewayCode]models.PaymentStatus{
		1: models.StatusPendingPayment, 2: models.StatusProcessing, 3: models.StatusPaymentConfirmed,
		4: models.StatusCancelled, 5: models.StatusDeclined, 7: models.StatusExpired,
		8: models.StatusError, 9: models.StatusError, 10: models.StatusError,
		12: models.StatusDeclined, 16: models.StatusDeclined, 17: models.StatusDeclined,
		18: models.StatusDeclined, 19: models.StatusDeclined, 20: models.StatusDeclined,
		21: models.StatusDeclined, 22: models.StatusDeclined, 23: models.StatusExpired,
		26: models.StatusDeclined, 34: models.StatusDeclined, 35: models.StatusDeclined,
		36: models.StatusDeclined, 39: models.StatusDeclined, 99: models.StatusError,
	}
	require.Len(t, KnownCodes, len(want))

	for code, status := range want {
		out, err := Resolve(code)
		require.NoError(t, err, "code %d", code)
		assert.Equal(t, status, out.Status, "code %d", code)
		assert.NotEmpty(t, out.Message)
	}
}

func TestResolve_UnknownCodes(t *testing.T) {
	for _, code := range []GatewayCode{0, 6, 11, 13, 24, 40, 100} {
		_, err := Resolve(code)
		assert.ErrorIs(t, err, apperr.ErrUnknownPaymentStatus, "code %d", code)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr *apperr.Error
		status  models.PaymentStatus
	}{
		{name: "missing order", body: `{"payment":{"status":3,"code":"00"}}`, wantErr: apperr.ErrMalformedWebhook},
		{name: "empty order id", body: `{"order":{"orderID":" "},"payment":{"status":3,"code":"00"}}`, wantErr: apperr.ErrMalformedWebhook},
		{name: "missing status", body: `{"order":{"orderID":"o-1"},"payment":{"code":"00"}}`, wantErr: apperr.ErrMalformedWebhook},
		{name: "unknown code", body: `{"order":{"orderID":"o-1"},"payment":{"status":42}}`, wantErr: apperr.ErrUnknownPaymentStatus},
		{name: "paid without approval", body: `{"order":{"orderID":"o-1"},"payment":{"status":3,"code":"05"}}`, wantErr: apperr.ErrInvalidApprovalCode},
		{name: "paid", body: `{"order":{"orderID":"o-1"},"payment":{"status":3,"code":"00","amount":120.5,"ntpID":"ntp-9"}}`, status: models.StatusPaymentConfirmed},
		{name: "insufficient funds", body: `{"order":{"orderID":"o-1"},"payment":{"status":20,"code":"51"}}`, status: models.StatusDeclined},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p WebhookPayload
			require.NoError(t, json.Unmarshal([]byte(tt.body), &p))

			ev, err := p.Parse()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "o-1", ev.OrderID)
			assert.Equal(t, tt.status, ev.Outcome.Status)
		})
	}
}

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to models.PaymentStatus }{
		{models.StatusPendingPayment, models.StatusProcessing},
		{models.StatusPendingPayment, models.StatusPaymentConfirmed},
		{models.StatusPendingPayment, models.StatusExpired},
		{models.StatusProcessing, models.StatusPaymentConfirmed},
		{models.StatusProcessing, models.StatusDeclined},
		{models.StatusDeclined, models.StatusPaymentConfirmed},
		{models.StatusError, models.StatusPendingPayment},
		{models.StatusExpired, models.StatusPaymentConfirmed},
		{models.StatusPaymentConfirmed, models.StatusConfirmed},
	}
	for _, tc := range allowed {
		assert.True(t, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}

	denied := []struct{ from, to models.PaymentStatus }{
		{models.StatusPendingPayment, models.StatusPendingPayment},
		{models.StatusPendingPayment, models.StatusConfirmed},
		{models.StatusProcessing, models.StatusPendingPayment},
		{models.StatusPaymentConfirmed, models.StatusDeclined},
		{models.StatusPaymentConfirmed, models.StatusPendingPayment},
		{models.StatusConfirmed, models.StatusCancelled},
		{models.StatusExpired, models.StatusProcessing},
		{models.StatusCancelled, models.StatusDeclined},
	}
	for _, tc := range denied {
		assert.False(t, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestGatewayClient_StartPayment(t *testing.T) {
	var got startBody
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payment/card/start", r.URL.Path)
		assert.Equal(t, "secret-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"payment":{"ntpID":"ntp-1","paymentURL":"https://pay.example/redirect/ntp-1","status":1}}`))
	}))
	defer srv.Close()

	client := NewGatewayClient(GatewayConfig{
		BaseURL:   srv.URL + "/",
		APIKey:    "secret-key",
		NotifyURL: "https://shop.example/v1/payments/webhook",
		Currency:  "RON",
	})

	sess, err := client.StartPayment(context.Background(), StartRequest{OrderID: "o-1", Amount: decimal.RequireFromString("120.50")})
	require.NoError(t, err)
	assert.Equal(t, "ntp-1", sess.NtpID)
	assert.Equal(t, "https://pay.example/redirect/ntp-1", sess.PaymentURL)
	assert.Equal(t, "o-1", got.Order.OrderID)
	assert.Equal(t, "RON", got.Order.Currency)
	assert.True(t, decimal.RequireFromString("120.5").Equal(got.Order.Amount))
}

func TestGatewayClient_RejectionIsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":"401","message":"invalid signature"}}`))
	}))
	defer srv.Close()

	client := NewGatewayClient(GatewayConfig{BaseURL: srv.URL})
	_, err := client.StartPayment(context.Background(), StartRequest{OrderID: "o-1", Amount: decimal.NewFromInt(10)})

	assert.ErrorIs(t, err, apperr.ErrGatewayUnavailable)
	assert.Equal(t, http.StatusBadGateway, apperr.From(err).HTTPStatus())
}
