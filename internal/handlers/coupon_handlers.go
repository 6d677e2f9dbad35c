package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/01moynul/sportshop-golang/internal/apperr"
	"github.com/01moynul/sportshop-golang/internal/models"
	"github.com/01moynul/sportshop-golang/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

//
// --- Coupon Handlers ---
//

// ValidateCouponInput checks a code. Without a subtotal the user's cart is
// priced.
type ValidateCouponInput struct {
	Code     string           `json:"code" binding:"required"`
	Subtotal *decimal.Decimal `json:"subtotal"`
}

// ApplyCouponInput names the paid order whose coupon should be consumed.
type ApplyCouponInput struct {
	OrderID string `json:"order_id" binding:"required"`
}

// CouponInput is the admin create/update body.
type CouponInput struct {
	Code          string              `json:"code"`
	DiscountType  models.DiscountType `json:"discount_type" binding:"required,oneof=percentage fixed"`
	DiscountValue decimal.Decimal     `json:"discount_value"`
	MinPurchase   decimal.Decimal     `json:"min_purchase"`
	MaxDiscount   *decimal.Decimal    `json:"max_discount"`
	ValidFrom     time.Time           `json:"valid_from" binding:"required"`
	ValidUntil    time.Time           `json:"valid_until" binding:"required"`
	UsageLimit    int                 `json:"usage_limit" binding:"gte=0"`
	Active        *bool               `json:"active"`
}

func (in CouponInput) toCoupon(code string) (*models.Coupon, error) {
	if !in.DiscountValue.IsPositive() {
		return nil, apperr.Validation("invalid_discount", "discount value must be positive")
	}
	if in.DiscountType == models.DiscountPercentage && in.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
		return nil, apperr.Validation("invalid_discount", "a percentage discount cannot exceed 100")
	}
	if in.MinPurchase.IsNegative() || (in.MaxDiscount != nil && in.MaxDiscount.IsNegative()) {
		return nil, apperr.Validation("invalid_discount", "amounts cannot be negative")
	}
	if !in.ValidUntil.After(in.ValidFrom) {
		return nil, apperr.Validation("invalid_window", "valid_until must be after valid_from")
	}
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	return &models.Coupon{
		Code:          store.NormalizeCode(code),
		DiscountType:  in.DiscountType,
		DiscountValue: in.DiscountValue,
		MinPurchase:   in.MinPurchase,
		MaxDiscount:   in.MaxDiscount,
		ValidFrom:     in.ValidFrom,
		ValidUntil:    in.ValidUntil,
		UsageLimit:    in.UsageLimit,
		Active:        active,
	}, nil
}

// ValidateCoupon is the handler for POST /v1/coupons/validate
func (h *Handlers) ValidateCoupon(c *gin.Context) {
	var input ValidateCouponInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}

	quote, err := h.Settle.ValidateCoupon(c.Request.Context(), currentUserID(c), input.Code, input.Subtotal)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"discount": quote.Discount,
		"subtotal": quote.Subtotal,
		"coupon":   quote.Coupon,
	})
}

// ApplyCoupon is the handler for POST /v1/coupons/apply
func (h *Handlers) ApplyCoupon(c *gin.Context) {
	var input ApplyCouponInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}

	applied, err := h.Settle.ApplyCoupon(c.Request.Context(), input.OrderID, currentViewer(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	message := "Coupon applied"
	if !applied {
		message = "Coupon was already applied to this order"
	}
	c.JSON(http.StatusOK, gin.H{"applied": applied, "message": message})
}

// CreateCoupon is the handler for POST /v1/admin/coupons
func (h *Handlers) CreateCoupon(c *gin.Context) {
	var input CouponInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}
	if strings.TrimSpace(input.Code) == "" {
		h.respondError(c, apperr.Validation("coupon_required", "coupon code is required"))
		return
	}
	coupon, err := input.toCoupon(input.Code)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.Store.CreateCoupon(c.Request.Context(), coupon); err != nil {
		h.respondError(c, err)
		return
	}
	h.Log.Info("coupon created", "code", coupon.Code, "usage_limit", coupon.UsageLimit)
	c.JSON(http.StatusCreated, coupon)
}

// UpdateCoupon is the handler for PUT /v1/admin/coupons/:code
func (h *Handlers) UpdateCoupon(c *gin.Context) {
	var input CouponInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}
	coupon, err := input.toCoupon(c.Param("code"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.Store.UpdateCoupon(c.Request.Context(), coupon); err != nil {
		h.respondError(c, err)
		return
	}
	updated, err := h.Store.GetCoupon(c.Request.Context(), coupon.Code)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// GetCoupon is the handler for GET /v1/admin/coupons/:code
func (h *Handlers) GetCoupon(c *gin.Context) {
	coupon, err := h.Store.GetCoupon(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, coupon)
}

// ListCoupons is the handler for GET /v1/admin/coupons
func (h *Handlers) ListCoupons(c *gin.Context) {
	coupons, err := h.Store.ListCoupons(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"coupons": coupons})
}
