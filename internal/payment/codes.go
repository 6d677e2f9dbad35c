// Package payment holds the order status state machine and everything that
// speaks the payment gateway's language: status codes, webhook payloads and
// the session-opening client.
package payment

import (
	"github.com/01moynul/sportshop-golang/internal/apperr"
	"github.com/01moynul/sportshop-golang/internal/models"
)

// GatewayCode is a numeric payment status reported by the gateway.
type GatewayCode int

const (
	CodeNew               GatewayCode = 1
	CodeProcessing        GatewayCode = 2
	CodePaid              GatewayCode = 3
	CodeCanceled          GatewayCode = 4
	CodeDeclined          GatewayCode = 5
	CodeExpired           GatewayCode = 7
	CodeError8            GatewayCode = 8
	CodeError9            GatewayCode = 9
	CodeError10           GatewayCode = 10
	CodeExpiredCard       GatewayCode = 12
	CodeRiskDeclined      GatewayCode = 16
	CodeInvalidCard       GatewayCode = 17
	CodeClosedCard        GatewayCode = 18
	CodeCardExpired       GatewayCode = 19
	CodeInsufficientFunds GatewayCode = 20
	CodeInvalidCVV        GatewayCode = 21
	CodeIssuerError       GatewayCode = 22
	CodeSessionExpired    GatewayCode = 23
	CodeLimitExceeded     GatewayCode = 26
	CodeDeclined34        GatewayCode = 34
	CodeDeclined35        GatewayCode = 35
	CodeDeclined36        GatewayCode = 36
	CodeThreeDSFailed     GatewayCode = 39
	CodeGeneralError      GatewayCode = 99
)

// ApprovedCode is the only approval code that confirms a paid status.
const ApprovedCode = "00"

// Outcome is the domain meaning of a gateway code.
type Outcome struct {
	Status  models.PaymentStatus
	Message string
}

// Resolve maps a gateway code onto a domain status. Unknown codes are
// rejected without touching the order.
func Resolve(code GatewayCode) (Outcome, error) {
	switch code {
	case CodeNew:
		return Outcome{models.StatusPendingPayment, "Payment started, waiting for the customer"}, nil
	case CodeProcessing:
		return Outcome{models.StatusProcessing, "Payment is being processed"}, nil
	case CodePaid:
		return Outcome{models.StatusPaymentConfirmed, "Payment confirmed"}, nil
	case CodeCanceled:
		return Outcome{models.StatusCancelled, "Payment cancelled"}, nil
	case CodeDeclined:
		return Outcome{models.StatusDeclined, "Payment declined"}, nil
	case CodeExpired:
		return Outcome{models.StatusExpired, "Payment expired"}, nil
	case CodeError8, CodeError9, CodeError10:
		return Outcome{models.StatusError, "Payment error"}, nil
	case CodeExpiredCard, CodeCardExpired:
		return Outcome{models.StatusDeclined, "Payment declined: card expired"}, nil
	case CodeRiskDeclined:
		return Outcome{models.StatusDeclined, "Payment declined: risk check failed"}, nil
	case CodeInvalidCard:
		return Outcome{models.StatusDeclined, "Payment declined: invalid card"}, nil
	case CodeClosedCard:
		return Outcome{models.StatusDeclined, "Payment declined: card closed"}, nil
	case CodeInsufficientFunds:
		return Outcome{models.StatusDeclined, "Payment declined: insufficient funds"}, nil
	case CodeInvalidCVV:
		return Outcome{models.StatusDeclined, "Payment declined: invalid CVV"}, nil
	case CodeIssuerError:
		return Outcome{models.StatusDeclined, "Payment declined: issuer error"}, nil
	case CodeSessionExpired:
		return Outcome{models.StatusExpired, "Payment session expired"}, nil
	case CodeLimitExceeded:
		return Outcome{models.StatusDeclined, "Payment declined: card limit exceeded"}, nil
	case CodeDeclined34, CodeDeclined35, CodeDeclined36:
		return Outcome{models.StatusDeclined, "Payment declined"}, nil
	case CodeThreeDSFailed:
		return Outcome{models.StatusDeclined, "Payment declined: 3-D Secure authentication failed"}, nil
	case CodeGeneralError:
		return Outcome{models.StatusError, "Payment error"}, nil
	}
	return Outcome{}, apperr.ErrUnknownPaymentStatus
}

// KnownCodes lists every code Resolve accepts.
var KnownCodes = []GatewayCode{
	CodeNew, CodeProcessing, CodePaid, CodeCanceled, CodeDeclined, CodeExpired,
	CodeError8, CodeError9, CodeError10, CodeExpiredCard, CodeRiskDeclined,
	CodeInvalidCard, CodeClosedCard, CodeCardExpired, CodeInsufficientFunds,
	CodeInvalidCVV, CodeIssuerError, CodeSessionExpired, CodeLimitExceeded,
	CodeDeclined34, CodeDeclined35, CodeDeclined36, CodeThreeDSFailed,
	CodeGeneralError,
}
