package payment

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookVerifier(t *testing.T) {
	now := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	v := NewWebhookVerifier("s3cret", "NETOPIA Payments")
	v.now = func() time.Time { return now }
	body := []byte(`{"order":{"orderID":"o-1"},"payment":{"status":3}}`)

	token, err := v.Sign(body, 5*time.Minute)
	require.NoError(t, err)
	assert.NoError(t, v.Verify(token, body))

	t.Run("other body", func(t *testing.T) {
		assert.ErrorIs(t, v.Verify(token, []byte(`{"order":{"orderID":"o-2"}}`)), ErrInvalidSignature)
	})
	t.Run("expired", func(t *testing.T) {
		later := NewWebhookVerifier("s3cret", "NETOPIA Payments")
		later.now = func() time.Time { return now.Add(time.Hour) }
		assert.ErrorIs(t, later.Verify(token, body), ErrInvalidSignature)
	})
	t.Run("wrong issuer", func(t *testing.T) {
		strict := NewWebhookVerifier("s3cret", "someone else")
		strict.now = v.now
		assert.ErrorIs(t, strict.Verify(token, body), ErrInvalidSignature)
	})
	t.Run("no expiry", func(t *testing.T) {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject: PayloadHash(body),
			Issuer:  "NETOPIA Payments",
		}).SignedString([]byte("s3cret"))
		require.NoError(t, err)
		assert.ErrorIs(t, v.Verify(raw, body), ErrInvalidSignature)
	})
	t.Run("unsigned", func(t *testing.T) {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
			Subject:   PayloadHash(body),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		assert.ErrorIs(t, v.Verify(raw, body), ErrInvalidSignature)
	})
	t.Run("empty token or secret", func(t *testing.T) {
		assert.ErrorIs(t, v.Verify("", body), ErrInvalidSignature)
		assert.ErrorIs(t, NewWebhookVerifier("", "").Verify(token, body), ErrInvalidSignature)
	})
}
