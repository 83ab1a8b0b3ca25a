package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"storefront-backend/internal/client"
	"storefront-backend/internal/service"

	"github.com/labstack/echo/v4"
)

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ErrorHandler renders every error as {"error", "details"}. Gateway and
// internal details are only exposed when debug is on.
func ErrorHandler(debug bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := translateError(err, debug)
		if status >= http.StatusInternalServerError {
			slog.ErrorContext(c.Request().Context(), "request failed",
				"method", c.Request().Method,
				"path", c.Path(),
				"status", status,
				"error", err)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			slog.ErrorContext(c.Request().Context(), "write error response", "error", err)
		}
	}
}

func translateError(err error, debug bool) (int, interface{}) {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		switch msg := httpErr.Message.(type) {
		case string:
			return httpErr.Code, errorBody{Error: msg}
		case map[string]string:
			return httpErr.Code, msg
		default:
			return httpErr.Code, errorBody{Error: http.StatusText(httpErr.Code)}
		}
	}

	if gwErr, ok := client.AsGatewayError(err); ok {
		return gatewayErrorResponse(gwErr, debug)
	}

	switch {
	case errors.Is(err, service.ErrMissingSignature):
		return http.StatusBadRequest, errorBody{Error: "Missing signature"}
	case errors.Is(err, service.ErrInvalidSignature):
		return http.StatusBadRequest, errorBody{Error: "Invalid signature"}
	case errors.Is(err, service.ErrInvalidPayload):
		return http.StatusBadRequest, errorBody{Error: "Invalid payload"}
	}

	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		return serviceErrorStatus(svcErr.Kind), errorBody{Error: svcErr.Msg}
	}

	body := errorBody{Error: "Internal server error"}
	if debug {
		body.Details = err.Error()
	}
	return http.StatusInternalServerError, body
}

func serviceErrorStatus(kind error) int {
	switch kind {
	case service.ErrValidation, service.ErrVerificationFailed:
		return http.StatusBadRequest
	case service.ErrNotFound:
		return http.StatusNotFound
	case service.ErrConflict, service.ErrPaymentClosed:
		return http.StatusConflict
	case service.ErrUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func gatewayErrorResponse(gwErr *client.GatewayError, debug bool) (int, errorBody) {
	detail := func(redacted string) string {
		if debug && gwErr.Detail != "" {
			return gwErr.Detail
		}
		return redacted
	}

	switch gwErr.Kind {
	case client.GatewayErrorAuth:
		return http.StatusUnauthorized, errorBody{
			Error:   "Payment gateway authentication failed",
			Details: "Please verify the gateway key id and key secret",
		}
	case client.GatewayErrorBadRequest:
		return http.StatusBadRequest, errorBody{
			Error:   "Invalid payment gateway request",
			Details: detail("Please check your payment details"),
		}
	case client.GatewayErrorConfig:
		return http.StatusInternalServerError, errorBody{
			Error:   "Payment gateway not configured",
			Details: detail("Please check the gateway configuration"),
		}
	default:
		return http.StatusInternalServerError, errorBody{
			Error:   "Failed to create payment order",
			Details: detail("Please try again or contact support"),
		}
	}
}
