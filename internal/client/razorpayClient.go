package client

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"storefront-backend/internal/config"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
)

// PaymentGateway is the capability boundary to the payment provider.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, req *CreateOrderRequest) (*RemoteOrder, error)
	VerifyPaymentSignature(gatewayOrderID, paymentID, signature string) bool
	VerifyWebhookSignature(payload []byte, signature string) bool
}

type CreateOrderRequest struct {
	AmountMinor int64 // amount in the currency's minor unit (paise for INR)
	Currency    string
	Receipt     string
	Notes       map[string]string
}

type RemoteOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type razorpayErrorBody struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

type razorpayClientImpl struct {
	httpClient    *http.Client
	baseApiURL    string
	keyID         string
	keySecret     string
	webhookSecret string
	breaker       *gobreaker.CircuitBreaker[*RemoteOrder]
}

func NewRazorpayClient(cfg *config.Razorpay) PaymentGateway {
	threshold := cfg.BreakerThreshold
	if threshold == 0 {
		threshold = 5
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker[*RemoteOrder](gobreaker.Settings{
		Name:        "razorpay",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// rejected requests are the caller's problem, not an unhealthy gateway
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			gwErr, ok := AsGatewayError(err)
			return ok && gwErr.Kind != GatewayErrorUnknown
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &razorpayClientImpl{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseApiURL:    strings.TrimRight(cfg.BaseApiURL, "/"),
		keyID:         strings.TrimSpace(cfg.KeyID),
		keySecret:     strings.TrimSpace(cfg.KeySecret),
		webhookSecret: cfg.WebhookSecret,
		breaker:       breaker,
	}
}

func (c *razorpayClientImpl) checkCredentials() error {
	if c.keyID == "" || c.keySecret == "" {
		return &GatewayError{Kind: GatewayErrorConfig, Detail: "gateway credentials not configured"}
	}
	if !strings.HasPrefix(c.keyID, "rzp_") {
		return &GatewayError{Kind: GatewayErrorConfig, Detail: "gateway key id has an unexpected format"}
	}
	return nil
}

func (c *razorpayClientImpl) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*RemoteOrder, error) {
	if err := c.checkCredentials(); err != nil {
		return nil, err
	}

	order, err := c.breaker.Execute(func() (*RemoteOrder, error) {
		return c.createOrder(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &GatewayError{Kind: GatewayErrorUnknown, Detail: "gateway temporarily unavailable", Err: err}
	}
	if err != nil {
		return nil, err
	}

	return order, nil
}

func (c *razorpayClientImpl) createOrder(ctx context.Context, req *CreateOrderRequest) (*RemoteOrder, error) {
	payload := map[string]interface{}{
		"amount":   req.AmountMinor,
		"currency": req.Currency,
		"receipt":  req.Receipt,
		"notes":    req.Notes,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal req payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseApiURL+"/v1/orders",
		bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	httpReq.SetBasicAuth(c.keyID, c.keySecret)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &GatewayError{Kind: GatewayErrorUnknown, Detail: "gateway request failed", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &GatewayError{Kind: GatewayErrorUnknown, StatusCode: resp.StatusCode, Detail: "read gateway response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyErrorResponse(resp.StatusCode, respBody)
	}

	var order RemoteOrder
	if err := json.Unmarshal(respBody, &order); err != nil {
		return nil, &GatewayError{Kind: GatewayErrorUnknown, StatusCode: resp.StatusCode, Detail: "decode gateway response", Err: err}
	}
	if order.ID == "" {
		return nil, &GatewayError{Kind: GatewayErrorUnknown, StatusCode: resp.StatusCode, Detail: "gateway response has no order id"}
	}

	return &order, nil
}

func classifyErrorResponse(status int, body []byte) *GatewayError {
	var errBody razorpayErrorBody
	_ = json.Unmarshal(body, &errBody)
	detail := errBody.Error.Description
	if detail == "" {
		detail = http.StatusText(status)
	}

	kind := GatewayErrorUnknown
	switch {
	case status == http.StatusUnauthorized:
		kind = GatewayErrorAuth
	case status >= 400 && status < 500:
		kind = GatewayErrorBadRequest
		if strings.Contains(strings.ToLower(detail), "authentication") {
			kind = GatewayErrorAuth
		}
	}

	return &GatewayError{Kind: kind, StatusCode: status, Detail: detail}
}

func (c *razorpayClientImpl) VerifyPaymentSignature(gatewayOrderID, paymentID, signature string) bool {
	if c.keySecret == "" || signature == "" {
		return false
	}
	return validHMAC([]byte(gatewayOrderID+"|"+paymentID), c.keySecret, signature)
}

func (c *razorpayClientImpl) VerifyWebhookSignature(payload []byte, signature string) bool {
	if c.webhookSecret == "" || signature == "" {
		return false
	}
	return validHMAC(payload, c.webhookSecret, signature)
}

// Sign returns the hex HMAC-SHA256 of message keyed with secret, the scheme the
// gateway uses for both checkout and webhook signatures.
func Sign(message []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(message)
	return hex.EncodeToString(mac.Sum(nil))
}

func validHMAC(message []byte, secret, signature string) bool {
	expected := Sign(message, secret)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(strings.TrimSpace(signature))))
}
