package service

import (
	"context"
	"fmt"
	"storefront-backend/internal/client"
	"sync"
	"sync/atomic"
	"time"
)

const (
	testKeySecret     = "test_key_secret"
	testWebhookSecret = "test_webhook_secret"
)

// fakeGateway signs the way the real gateway does but never leaves the process.
type fakeGateway struct {
	mu        sync.Mutex
	calls     int32
	delay     time.Duration
	err       error
	lastOrder *client.CreateOrderRequest
}

func (f *fakeGateway) CreateOrder(ctx context.Context, req *client.CreateOrderRequest) (*client.RemoteOrder, error) {
	n := atomic.AddInt32(&f.calls, 1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.lastOrder = req
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	return &client.RemoteOrder{
		ID:       fmt.Sprintf("order_gw%d", n),
		Amount:   req.AmountMinor,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Status:   "created",
	}, nil
}

func (f *fakeGateway) VerifyPaymentSignature(gatewayOrderID, paymentID, signature string) bool {
	return client.Sign([]byte(gatewayOrderID+"|"+paymentID), testKeySecret) == signature
}

func (f *fakeGateway) VerifyWebhookSignature(payload []byte, signature string) bool {
	return client.Sign(payload, testWebhookSecret) == signature
}

func (f *fakeGateway) callCount() int {
	return int(atomic.LoadInt32(&f.calls))
}

func checkoutSignature(gatewayOrderID, paymentID string) string {
	return client.Sign([]byte(gatewayOrderID+"|"+paymentID), testKeySecret)
}
