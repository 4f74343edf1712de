package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"self-order/internal/model"

	"github.com/rs/zerolog"
)

// PaymentCode is the gateway's response to a payment request: the id the
// gateway will use in later status notifications and the QR payload the
// customer scans.
type PaymentCode struct {
	PaymentID string  `json:"id"`
	QRCode    string  `json:"qrcode"`
	Amount    float64 `json:"amount"`
}

// PaymentGateway requests payment codes from the external payment
// provider. Calls may fail or time out; failures map to
// model.ErrGatewayUnavailable so callers can treat the whole checkout as
// retryable.
type PaymentGateway interface {
	RequestCode(ctx context.Context, amount float64) (*PaymentCode, error)
}

// httpPaymentGateway implements PaymentGateway over the provider's REST API.
type httpPaymentGateway struct {
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

// NewPaymentGateway creates a payment gateway client with a bounded
// request timeout. The timeout matters: checkout calls the gateway before
// opening its database transaction precisely so a slow provider cannot
// hold locks.
func NewPaymentGateway(baseURL string, timeout time.Duration, logger zerolog.Logger) PaymentGateway {
	return &httpPaymentGateway{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With().Str("gateway", "payment").Logger(),
	}
}

type requestCodePayload struct {
	Amount float64 `json:"amount"`
}

// RequestCode asks the provider to issue a payment code for the amount.
func (g *httpPaymentGateway) RequestCode(ctx context.Context, amount float64) (*PaymentCode, error) {
	body, err := json.Marshal(requestCodePayload{Amount: amount})
	if err != nil {
		return nil, fmt.Errorf("failed to encode payment request: %w", err)
	}

	url := g.baseURL + "/payments/qrcode"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build payment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Error().Err(err).Float64("amount", amount).Msg("payment gateway request failed")
		return nil, fmt.Errorf("%w: %v", model.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		g.logger.Error().
			Int("status", resp.StatusCode).
			Float64("amount", amount).
			Msg("payment gateway returned unexpected status")
		return nil, fmt.Errorf("%w: gateway returned status %d", model.ErrGatewayUnavailable, resp.StatusCode)
	}

	var code PaymentCode
	if err := json.NewDecoder(resp.Body).Decode(&code); err != nil {
		g.logger.Error().Err(err).Msg("failed to decode payment gateway response")
		return nil, fmt.Errorf("%w: invalid gateway response", model.ErrGatewayUnavailable)
	}

	if code.PaymentID == "" {
		g.logger.Error().Msg("payment gateway response missing payment id")
		return nil, fmt.Errorf("%w: gateway response missing payment id", model.ErrGatewayUnavailable)
	}

	g.logger.Debug().
		Str("payment_id", code.PaymentID).
		Float64("amount", code.Amount).
		Msg("payment code issued")

	return &code, nil
}
