package middleware

import (
	"bytes"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 1 << 20

// WebhookVerifier is satisfied by *payment.WebhookVerifier.
type WebhookVerifier interface {
	Verify(token string, body []byte) error
}

// WebhookSignature rejects gateway notifications whose token in header does
// not sign the request body. A nil verifier rejects everything.
func WebhookSignature(v WebhookVerifier, header string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. --- Read the body once ---
		body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Notification body too large", "code": "invalid_input"})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		// 2. --- Check the signature ---
		if v == nil || v.Verify(c.GetHeader(header), body) != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid webhook signature", "code": "unauthorized"})
			return
		}
		c.Next()
	}
}
