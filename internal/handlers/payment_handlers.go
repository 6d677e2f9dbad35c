package handlers

import (
	"net/http"

	"github.com/01moynul/sportshop-golang/internal/apperr"
	"github.com/01moynul/sportshop-golang/internal/payment"
	"github.com/gin-gonic/gin"
)

// PaymentWebhook is the handler for POST /v1/payments/webhook. The gateway
// redelivers on any non-2xx answer, so duplicates and ignored transitions
// are acknowledged with 200.
func (h *Handlers) PaymentWebhook(c *gin.Context) {
	var payload payment.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.respondError(c, apperr.With(apperr.ErrMalformedWebhook, "", err))
		return
	}

	res, err := h.Settle.HandleWebhook(c.Request.Context(), &payload)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
