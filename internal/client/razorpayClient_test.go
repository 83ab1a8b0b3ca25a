package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"storefront-backend/internal/config"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, baseURL string) PaymentGateway {
	t.Helper()
	return NewRazorpayClient(&config.Razorpay{
		BaseApiURL:       baseURL,
		KeyID:            "rzp_test_key",
		KeySecret:        "secret",
		WebhookSecret:    "whsec",
		Timeout:          2 * time.Second,
		BreakerThreshold: 2,
	})
}

func TestCreateOrder_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/orders", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "rzp_test_key", user)
		assert.Equal(t, "secret", pass)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.EqualValues(t, 25000, body["amount"])
		assert.Equal(t, "INR", body["currency"])
		assert.Equal(t, "order_ORD-1", body["receipt"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"order_abc","amount":25000,"currency":"INR","receipt":"order_ORD-1","status":"created"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	order, err := c.CreateOrder(context.Background(), &CreateOrderRequest{
		AmountMinor: 25000,
		Currency:    "INR",
		Receipt:     "order_ORD-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "order_abc", order.ID)
	assert.Equal(t, "created", order.Status)
}

func TestCreateOrder_ErrorKinds(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   GatewayErrorKind
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":{"code":"BAD_REQUEST_ERROR","description":"Authentication failed"}}`, GatewayErrorAuth},
		{"auth in bad request", http.StatusBadRequest, `{"error":{"code":"BAD_REQUEST_ERROR","description":"Authentication failed"}}`, GatewayErrorAuth},
		{"bad request", http.StatusBadRequest, `{"error":{"code":"BAD_REQUEST_ERROR","description":"amount must be at least 100"}}`, GatewayErrorBadRequest},
		{"server error", http.StatusBadGateway, `oops`, GatewayErrorUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestClient(t, srv.URL).CreateOrder(context.Background(), &CreateOrderRequest{AmountMinor: 100, Currency: "INR"})
			gwErr, ok := AsGatewayError(err)
			require.True(t, ok)
			assert.Equal(t, tt.kind, gwErr.Kind)
			assert.Equal(t, tt.status, gwErr.StatusCode)
			assert.NotContains(t, gwErr.Error(), "secret")
		})
	}
}

func TestCreateOrder_MissingCredentials(t *testing.T) {
	c := NewRazorpayClient(&config.Razorpay{BaseApiURL: "http://127.0.0.1:0"})
	_, err := c.CreateOrder(context.Background(), &CreateOrderRequest{AmountMinor: 100, Currency: "INR"})
	gwErr, ok := AsGatewayError(err)
	require.True(t, ok)
	assert.Equal(t, GatewayErrorConfig, gwErr.Kind)

	c = NewRazorpayClient(&config.Razorpay{BaseApiURL: "http://127.0.0.1:0", KeyID: "live_key", KeySecret: "x"})
	_, err = c.CreateOrder(context.Background(), &CreateOrderRequest{AmountMinor: 100, Currency: "INR"})
	gwErr, ok = AsGatewayError(err)
	require.True(t, ok)
	assert.Equal(t, GatewayErrorConfig, gwErr.Kind)
}

func TestCreateOrder_BreakerOpensOnUpstreamFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	for i := 0; i < 4; i++ {
		_, err := c.CreateOrder(context.Background(), &CreateOrderRequest{AmountMinor: 100, Currency: "INR"})
		require.Error(t, err)
	}

	// threshold is 2, further calls are rejected without reaching the server
	assert.Equal(t, int32(2), calls.Load())
}

func TestCreateOrder_BadRequestsDoNotTripBreaker(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	for i := 0; i < 4; i++ {
		_, err := c.CreateOrder(context.Background(), &CreateOrderRequest{AmountMinor: 100, Currency: "INR"})
		require.Error(t, err)
	}
	assert.Equal(t, int32(4), calls.Load())
}

func TestVerifyPaymentSignature(t *testing.T) {
	c := newTestClient(t, "http://unused")

	sig := Sign([]byte("order_abc|pay_123"), "secret")
	assert.True(t, c.VerifyPaymentSignature("order_abc", "pay_123", sig))
	assert.False(t, c.VerifyPaymentSignature("order_abc", "pay_999", sig))
	assert.False(t, c.VerifyPaymentSignature("order_abc", "pay_123", ""))
}

func TestVerifyWebhookSignature(t *testing.T) {
	c := newTestClient(t, "http://unused")
	payload := []byte(`{"event":"payment.captured"}`)

	assert.True(t, c.VerifyWebhookSignature(payload, Sign(payload, "whsec")))
	assert.False(t, c.VerifyWebhookSignature(payload, Sign(payload, "other")))
	assert.False(t, c.VerifyWebhookSignature([]byte(`{"event":"payment.failed"}`), Sign(payload, "whsec")))

	noSecret := NewRazorpayClient(&config.Razorpay{KeyID: "rzp_test", KeySecret: "secret"})
	assert.False(t, noSecret.VerifyWebhookSignature(payload, Sign(payload, "")))
}
