package payment

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// VerificationHeader carries the gateway's signed token on every notification.
const VerificationHeader = "Verification-Token"

var ErrInvalidSignature = errors.New("invalid webhook signature")

// WebhookVerifier checks that a notification was signed by the gateway with
// the shared secret. The token's subject is the hash of the exact request
// body, so a token cannot be replayed over a different payload.
type WebhookVerifier struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewWebhookVerifier builds a verifier. An empty issuer is not checked.
func NewWebhookVerifier(secret, issuer string) *WebhookVerifier {
	return &WebhookVerifier{secret: []byte(secret), issuer: issuer, now: time.Now}
}

// PayloadHash is the base64 SHA-512 of a notification body.
func PayloadHash(body []byte) string {
	sum := sha512.Sum512(body)
	return base64.StdEncoding.EncodeToString(sum[:])
}

// Verify validates token against body.
func (v *WebhookVerifier) Verify(token string, body []byte) error {
	if v == nil || len(v.secret) == 0 || token == "" {
		return ErrInvalidSignature
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg(), jwt.SigningMethodHS512.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if subtle.ConstantTimeCompare([]byte(claims.Subject), []byte(PayloadHash(body))) != 1 {
		return fmt.Errorf("%w: payload hash mismatch", ErrInvalidSignature)
	}
	return nil
}

// Sign issues the token the gateway sends with body.
func (v *WebhookVerifier) Sign(body []byte, ttl time.Duration) (string, error) {
	now := v.now()
	claims := jwt.RegisteredClaims{
		Subject:   PayloadHash(body),
		Issuer:    v.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
