// Package apperr defines the error taxonomy shared by the settlement core
// and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for propagation and HTTP mapping.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindUpstream   Kind = "upstream"
	KindInternal   Kind = "internal"
)

// Error is a classified application error. Code is a stable machine-readable
// identifier, Message is safe to show to the storefront user.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match on kind and code against the sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// HTTPStatus maps the error kind onto a response status.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func Validation(code, msg string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: msg}
}

func NotFound(code, msg string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: msg}
}

func Conflict(code, msg string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: msg}
}

func Upstream(code, msg string, err error) *Error {
	return &Error{Kind: KindUpstream, Code: code, Message: msg, Err: err}
}

func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Code: "internal", Message: msg, Err: err}
}

// Sentinels used across packages. Match with errors.Is.
var (
	ErrMalformedWebhook     = Validation("malformed_webhook", "webhook payload is missing required fields")
	ErrUnknownPaymentStatus = Validation("unknown_payment_status", "unknown payment gateway status code")
	ErrInvalidApprovalCode  = Validation("invalid_approval_code", "payment approval code is not valid")
	ErrOrderNotFound        = NotFound("order_not_found", "order not found")
	ErrVariantNotFound      = NotFound("variant_not_found", "product variant not found")
	ErrCouponNotFound       = NotFound("coupon_not_found", "coupon code does not exist")
	ErrInsufficientStock    = Conflict("insufficient_stock", "not enough stock for the requested quantity")
	ErrCouponLimitReached   = Conflict("coupon_limit_reached", "coupon usage limit has been reached")
	ErrCouponMinNotMet      = Conflict("coupon_min_not_met", "cart total is below the coupon minimum")
	ErrCouponInactive       = Conflict("coupon_inactive", "coupon is not active")
	ErrCouponOutsideWindow  = Conflict("coupon_outside_window", "coupon is not valid at this time")
	ErrIllegalTransition    = Conflict("illegal_transition", "order status transition is not allowed")
	ErrGatewayUnavailable   = Upstream("gateway_unavailable", "payment gateway could not be reached", nil)
)

// With returns a copy of a sentinel carrying a more specific message and/or
// cause while still matching the sentinel through errors.Is.
func With(sentinel *Error, msg string, cause error) *Error {
	e := *sentinel
	if msg != "" {
		e.Message = msg
	}
	e.Err = cause
	return &e
}

// From extracts an *Error from err, wrapping anything unclassified as
// internal.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal("unexpected server error", err)
}
