package models

// PaymentStatus is the closed set of order statuses. Only the payment state
// machine writes it.
type PaymentStatus string

const (
	StatusPendingPayment   PaymentStatus = "pending_payment"
	StatusProcessing       PaymentStatus = "processing"
	StatusPaymentConfirmed PaymentStatus = "payment_confirmed"
	StatusConfirmed        PaymentStatus = "confirmed"
	StatusDeclined         PaymentStatus = "declined"
	StatusExpired          PaymentStatus = "expired"
	StatusError            PaymentStatus = "error"
	StatusCancelled        PaymentStatus = "cancelled"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []PaymentStatus{
	StatusPendingPayment,
	StatusProcessing,
	StatusPaymentConfirmed,
	StatusConfirmed,
	StatusDeclined,
	StatusExpired,
	StatusError,
	StatusCancelled,
}

func (s PaymentStatus) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a polling client can stop waiting.
func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case StatusPendingPayment, StatusProcessing:
		return false
	}
	return s.Valid()
}

// IsPaid reports whether money has been captured for the order.
func (s PaymentStatus) IsPaid() bool {
	return s == StatusPaymentConfirmed || s == StatusConfirmed
}
