package handler

import (
	"errors"
	"io"
	"net/http"
	"storefront-backend/internal/dto"
	"storefront-backend/internal/middleware"
	"storefront-backend/internal/service"

	"github.com/labstack/echo/v4"
)

type PaymentHandler struct {
	paymentService service.PaymentService
}

func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

func (h *PaymentHandler) CreatePaymentOrder(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.PaymentOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	payment, created, err := h.paymentService.CreatePaymentOrder(ctx, middleware.UserID(c), &req)
	if err != nil {
		return err
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.JSON(status, dto.NewPaymentOrderResponse(payment))
}

func (h *PaymentHandler) VerifyPayment(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.VerifyPaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	if _, err := h.paymentService.VerifyPayment(ctx, middleware.UserID(c), &req); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.VerifyPaymentResponse{
		Message:   "Payment verified successfully",
		PaymentID: req.PaymentID,
	})
}

// Webhook answers 200 for anything authenticated so the gateway stops
// redelivering; only signature and payload failures get a 400.
func (h *PaymentHandler) Webhook(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		// BodyLimit reports an oversized stream through the read
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			return httpErr
		}
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
	}

	outcome, err := h.paymentService.HandleWebhook(ctx, c.Request().Header, body)
	if err != nil {
		return err
	}

	var message string
	switch outcome {
	case service.WebhookDuplicate:
		message = "Webhook already processed"
	case service.WebhookIgnored:
		message = "Webhook ignored"
	default:
		message = "Webhook processed"
	}
	return c.JSON(http.StatusOK, dto.MessageResponse{Message: message})
}
