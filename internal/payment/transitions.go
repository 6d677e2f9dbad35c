package payment

import "github.com/01moynul/sportshop-golang/internal/models"

// CanTransition reports whether an order in status from may move to status
// to. A same-status move is not a transition; callers treat it as a no-op.
func CanTransition(from, to models.PaymentStatus) bool {
	if from == to {
		return false
	}
	switch from {
	case models.StatusPendingPayment:
		return to != models.StatusConfirmed && to.Valid()
	case models.StatusProcessing:
		return to != models.StatusConfirmed && to != models.StatusPendingPayment && to.Valid()
	case models.StatusDeclined, models.StatusError:
		// The customer may retry through the preserved payment URL.
		switch to {
		case models.StatusPendingPayment, models.StatusProcessing, models.StatusPaymentConfirmed:
			return true
		}
		return false
	case models.StatusExpired, models.StatusCancelled:
		// A captured payment outranks our own bookkeeping.
		return to == models.StatusPaymentConfirmed
	case models.StatusPaymentConfirmed:
		return to == models.StatusConfirmed
	case models.StatusConfirmed:
		return false
	}
	return false
}

// EntersConfirmed reports whether the move is the single transition that
// triggers stock, coupon and notification side effects.
func EntersConfirmed(from, to models.PaymentStatus) bool {
	return to == models.StatusPaymentConfirmed && from != models.StatusPaymentConfirmed
}
