package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/01moynul/sportshop-golang/internal/apperr"
	"github.com/shopspring/decimal"
)

// StartRequest asks the gateway to open a card payment session.
type StartRequest struct {
	OrderID     string
	Amount      decimal.Decimal
	Description string
}

// Session is an opened card payment session.
type Session struct {
	NtpID      string
	PaymentURL string
}

// GatewayConfig configures the HTTP gateway client.
type GatewayConfig struct {
	BaseURL     string
	APIKey      string
	NotifyURL   string
	RedirectURL string
	Currency    string
	Timeout     time.Duration
}

// GatewayClient opens payment sessions over the gateway's JSON API.
type GatewayClient struct {
	cfg  GatewayConfig
	http *http.Client
}

func NewGatewayClient(cfg GatewayConfig) *GatewayClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &GatewayClient{cfg: cfg, http: &http.Client{Timeout: timeout}}
}

type startBody struct {
	Config startConfig `json:"config"`
	Order  startOrder  `json:"order"`
}

type startConfig struct {
	NotifyURL   string `json:"notifyUrl"`
	RedirectURL string `json:"redirectUrl"`
}

type startOrder struct {
	OrderID     string          `json:"orderID"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Description string          `json:"description"`
}

type startResponse struct {
	Payment struct {
		NtpID      string      `json:"ntpID"`
		PaymentURL string      `json:"paymentURL"`
		Status     GatewayCode `json:"status"`
	} `json:"payment"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// StartPayment opens a session; every failure is an UpstreamError.
func (g *GatewayClient) StartPayment(ctx context.Context, req StartRequest) (Session, error) {
	body, err := json.Marshal(startBody{
		Config: startConfig{NotifyURL: g.cfg.NotifyURL, RedirectURL: g.cfg.RedirectURL},
		Order: startOrder{
			OrderID:     req.OrderID,
			Amount:      req.Amount,
			Currency:    g.cfg.Currency,
			Description: req.Description,
		},
	})
	if err != nil {
		return Session{}, apperr.Internal("failed to encode payment request", err)
	}

	url := strings.TrimRight(g.cfg.BaseURL, "/") + "/payment/card/start"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Session{}, apperr.Internal("failed to build payment request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", g.cfg.APIKey)

	resp, err := g.http.Do(httpReq)
	if err != nil {
		return Session{}, apperr.With(apperr.ErrGatewayUnavailable, "", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Session{}, apperr.With(apperr.ErrGatewayUnavailable, "", err)
	}

	var out startResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return Session{}, apperr.With(apperr.ErrGatewayUnavailable, "payment gateway returned an unreadable response", err)
	}
	if resp.StatusCode >= 300 || out.Payment.PaymentURL == "" {
		return Session{}, apperr.With(apperr.ErrGatewayUnavailable, "payment gateway rejected the session",
			fmt.Errorf("http %d: %s %s", resp.StatusCode, out.Error.Code, out.Error.Message))
	}

	return Session{NtpID: out.Payment.NtpID, PaymentURL: out.Payment.PaymentURL}, nil
}
