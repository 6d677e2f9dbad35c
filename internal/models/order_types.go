package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod is how the customer settles the order.
type PaymentMethod string

const (
	PaymentCard   PaymentMethod = "CARD"
	PaymentCash   PaymentMethod = "CASH"
	PaymentPickup PaymentMethod = "PICKUP"
)

// Valid reports whether m is one of the accepted payment methods.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCard, PaymentCash, PaymentPickup:
		return true
	}
	return false
}

// IsPickup reports whether the goods are collected in store (no shipping).
func (m PaymentMethod) IsPickup() bool { return m == PaymentPickup }

// Order is the model for the 'orders' table.
// TotalPrice is fixed at creation; Comments only ever grow.
type Order struct {
	ID              string          `json:"id" db:"id"`
	UserID          int64           `json:"userId" db:"user_id"`
	AddressID       int64           `json:"addressId" db:"address_id"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod" db:"payment_method"`
	TotalPrice      decimal.Decimal `json:"totalPrice" db:"total_price"`
	Status          PaymentStatus   `json:"status" db:"status"`
	Coupon          *CouponSnapshot `json:"coupon,omitempty" db:"-"`
	PaymentToken    string          `json:"paymentToken,omitempty" db:"payment_token"`
	PaymentRetryURL string          `json:"paymentRetryUrl,omitempty" db:"payment_retry_url"`
	GatewayPayment  string          `json:"gatewayPaymentId,omitempty" db:"gateway_payment_id"`
	StockReserved   bool            `json:"stockReserved" db:"stock_reserved"`
	CouponApplied   bool            `json:"couponApplied" db:"coupon_applied"`
	CreatedAt       time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time       `json:"updatedAt" db:"updated_at"`

	Items    []OrderItem `json:"items" db:"-"`
	Comments []string    `json:"comments" db:"-"`
}

// OrderItem is the model for the 'order_items' table.
type OrderItem struct {
	ID          int64           `json:"id" db:"id"`
	OrderID     string          `json:"orderId" db:"order_id"`
	VariantID   int64           `json:"variantId" db:"variant_id"`
	ProductName string          `json:"productName" db:"product_name"`
	Category    string          `json:"category" db:"category"`
	Size        *string         `json:"size,omitempty" db:"size"`
	Quantity    int             `json:"quantity" db:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice" db:"unit_price"` // Price at the time of purchase, sale applied
	Backordered bool            `json:"backordered" db:"backordered"`
}

// CouponSnapshot freezes the coupon as it was applied to the order.
type CouponSnapshot struct {
	Code     string          `json:"code" db:"coupon_code"`
	Discount decimal.Decimal `json:"discount" db:"coupon_discount"`
}

// StatusTransition is one append-only entry of the order status history.
type StatusTransition struct {
	OrderID   string        `json:"orderId" db:"order_id"`
	From      PaymentStatus `json:"from" db:"from_status"`
	To        PaymentStatus `json:"to" db:"to_status"`
	Comment   string        `json:"comment" db:"comment"`
	CreatedAt time.Time     `json:"createdAt" db:"created_at"`
}
