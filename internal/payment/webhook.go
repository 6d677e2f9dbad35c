package payment

import (
	"strings"

	"github.com/01moynul/sportshop-golang/internal/apperr"
	"github.com/shopspring/decimal"
)

// WebhookPayload is the body the gateway posts to the notify URL.
type WebhookPayload struct {
	Order   *WebhookOrder   `json:"order"`
	Payment *WebhookPayment `json:"payment"`
}

type WebhookOrder struct {
	OrderID string `json:"orderID"`
}

type WebhookPayment struct {
	Amount     decimal.Decimal   `json:"amount"`
	Currency   string            `json:"currency"`
	Code       string            `json:"code"`
	Status     GatewayCode       `json:"status"`
	Message    string            `json:"message"`
	NtpID      string            `json:"ntpID"`
	Data       WebhookAuthData   `json:"data"`
	Instrument WebhookInstrument `json:"instrument"`
	Binding    WebhookBinding    `json:"binding"`
}

type WebhookAuthData struct {
	AuthCode string `json:"AuthCode"`
	RRN      string `json:"RRN"`
}

type WebhookInstrument struct {
	Country   int    `json:"country"`
	PanMasked string `json:"panMasked"`
}

type WebhookBinding struct {
	ExpireMonth int `json:"expireMonth"`
	ExpireYear  int `json:"expireYear"`
}

// Event is the validated, flattened webhook.
type Event struct {
	OrderID      string
	Code         GatewayCode
	ApprovalCode string
	Message      string
	NtpID        string
	Amount       decimal.Decimal
	Currency     string
	PanMasked    string
	Outcome      Outcome
}

// Parse validates the payload and resolves its status code. It performs the
// checks that need no order: required fields, known code, approval code.
func (p *WebhookPayload) Parse() (Event, error) {
	if p == nil || p.Order == nil || p.Payment == nil {
		return Event{}, apperr.ErrMalformedWebhook
	}
	orderID := strings.TrimSpace(p.Order.OrderID)
	if orderID == "" || p.Payment.Status == 0 {
		return Event{}, apperr.ErrMalformedWebhook
	}

	outcome, err := Resolve(p.Payment.Status)
	if err != nil {
		return Event{}, err
	}
	if p.Payment.Status == CodePaid && p.Payment.Code != ApprovedCode {
		return Event{}, apperr.ErrInvalidApprovalCode
	}

	return Event{
		OrderID:      orderID,
		Code:         p.Payment.Status,
		ApprovalCode: p.Payment.Code,
		Message:      p.Payment.Message,
		NtpID:        p.Payment.NtpID,
		Amount:       p.Payment.Amount,
		Currency:     p.Payment.Currency,
		PanMasked:    p.Payment.Instrument.PanMasked,
		Outcome:      outcome,
	}, nil
}
