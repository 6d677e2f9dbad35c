package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/01moynul/sportshop-golang/internal/models"
	"github.com/01moynul/sportshop-golang/internal/settlement"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

//
// --- Order Handlers ---
//

// CheckoutInput is the storefront's checkout body. Items may be omitted to
// check out the server-side cart.
type CheckoutInput struct {
	Items         []settlement.CheckoutLine `json:"items"`
	AddressID     int64                     `json:"address" binding:"required"`
	PaymentMethod models.PaymentMethod      `json:"payment_method" binding:"required"`
	TotalPrice    *decimal.Decimal          `json:"total_price"`
	Coupon        string                    `json:"coupon"`
}

// Checkout is the handler for POST /v1/checkout
func (h *Handlers) Checkout(c *gin.Context) {
	// 1. --- Bind input ---
	var input CheckoutInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}

	// 2. --- Settle ---
	res, err := h.Settle.Checkout(c.Request.Context(), settlement.CheckoutRequest{
		UserID:         currentUserID(c),
		IdempotencyKey: strings.TrimSpace(c.GetHeader("Idempotency-Key")),
		AddressID:      input.AddressID,
		PaymentMethod:  models.PaymentMethod(strings.ToUpper(string(input.PaymentMethod))),
		Items:          input.Items,
		CouponCode:     input.Coupon,
		TotalPrice:     input.TotalPrice,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	// 3. --- Respond ---
	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	if res.Order.PaymentMethod == models.PaymentCard {
		c.JSON(status, gin.H{
			"order_id":    res.Order.ID,
			"payment_url": res.PaymentURL,
			"total_price": res.Order.TotalPrice,
		})
		return
	}
	c.JSON(status, gin.H{"order": res.Order, "quote": res.Quote})
}

// GetOrderStatus is the handler for GET /v1/orders/:id/status, polled by the
// order confirmation page.
func (h *Handlers) GetOrderStatus(c *gin.Context) {
	order, err := h.Settle.OrderStatus(c.Request.Context(), c.Param("id"), currentViewer(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order_id":       order.ID,
		"order_status":   order.Status,
		"terminal":       order.Status.IsTerminal(),
		"total_price":    order.TotalPrice,
		"payment_method": order.PaymentMethod,
		"payment_url":    order.PaymentRetryURL,
		"comments":       order.Comments,
		"items":          order.Items,
	})
}

// ListOrders is the handler for GET /v1/admin/orders?status=
func (h *Handlers) ListOrders(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	status := models.PaymentStatus(c.DefaultQuery("status", string(models.StatusPaymentConfirmed)))

	orders, err := h.Settle.ListOrders(c.Request.Context(), status, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
}

// ConfirmOrder is the handler for POST /v1/admin/orders/:id/confirm
func (h *Handlers) ConfirmOrder(c *gin.Context) {
	order, err := h.Settle.ConfirmFulfillment(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
