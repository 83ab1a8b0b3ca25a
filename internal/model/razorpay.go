package model

const (
	WebhookEventPaymentAuthorized = "payment.authorized"
	WebhookEventPaymentCaptured   = "payment.captured"
	WebhookEventPaymentFailed     = "payment.failed"

	GatewayPaymentStatusCaptured = "captured"
)

type RazorpayPaymentEntity struct {
	ID               string `json:"id"`
	Entity           string `json:"entity"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
	Status           string `json:"status"`
	OrderID          string `json:"order_id"`
	Method           string `json:"method"`
	ErrorCode        string `json:"error_code"`
	ErrorDescription string `json:"error_description"`
}

type RazorpayPaymentWrapper struct {
	Entity *RazorpayPaymentEntity `json:"entity"`
}

type RazorpayWebhookPayload struct {
	Payment *RazorpayPaymentWrapper `json:"payment"`
}

type RazorpayWebhookEvent struct {
	Entity    string                 `json:"entity"`
	AccountID string                 `json:"account_id"`
	Event     string                 `json:"event"`
	Contains  []string               `json:"contains"`
	Payload   RazorpayWebhookPayload `json:"payload"`
	CreatedAt int64                  `json:"created_at"`
}

// PaymentEntity returns the embedded payment entity or nil when absent.
func (e *RazorpayWebhookEvent) PaymentEntity() *RazorpayPaymentEntity {
	if e.Payload.Payment == nil {
		return nil
	}
	return e.Payload.Payment.Entity
}
