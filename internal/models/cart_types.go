package models

import (
	"strconv"
	"time"
)

// Cart is the server-side cart of one user. It lives in Redis, not SQL.
type Cart struct {
	UserID     int64      `json:"userId"`
	Items      []CartItem `json:"items"`
	CouponCode string     `json:"couponCode,omitempty"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// CartItem is one line of a cart. Size is empty for unsized variants.
type CartItem struct {
	VariantID int64  `json:"variantId"`
	Size      string `json:"size,omitempty"`
	Quantity  int    `json:"quantity"`
}

// Key identifies the line inside the cart.
func (i CartItem) Key() string {
	id := strconv.FormatInt(i.VariantID, 10)
	if i.Size == "" {
		return id
	}
	return id + ":" + i.Size
}
