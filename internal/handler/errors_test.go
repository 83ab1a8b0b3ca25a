package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"storefront-backend/internal/client"
	"storefront-backend/internal/service"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, err error, debug bool) (int, map[string]string) {
	t.Helper()

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
	ErrorHandler(debug)(err, c)

	body := map[string]string{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestErrorHandler_ServiceErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{&service.Error{Kind: service.ErrValidation, Msg: "bad"}, http.StatusBadRequest},
		{&service.Error{Kind: service.ErrVerificationFailed, Msg: "bad"}, http.StatusBadRequest},
		{&service.Error{Kind: service.ErrNotFound, Msg: "order not found"}, http.StatusNotFound},
		{&service.Error{Kind: service.ErrConflict, Msg: "dup"}, http.StatusConflict},
		{&service.Error{Kind: service.ErrPaymentClosed, Msg: "closed"}, http.StatusConflict},
		{&service.Error{Kind: service.ErrUnauthorized, Msg: "no"}, http.StatusUnauthorized},
		{service.ErrMissingSignature, http.StatusBadRequest},
		{service.ErrInvalidSignature, http.StatusBadRequest},
		{fmt.Errorf("%w: eof", service.ErrInvalidPayload), http.StatusBadRequest},
		{echo.NewHTTPError(http.StatusBadRequest, "invalid req body"), http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			status, body := render(t, tc.err, false)
			assert.Equal(t, tc.status, status)
			assert.NotEmpty(t, body["error"])
		})
	}

	_, body := render(t, fmt.Errorf("wrapped: %w", &service.Error{Kind: service.ErrNotFound, Msg: "order not found"}), false)
	assert.Equal(t, "order not found", body["error"])
}

func TestErrorHandler_GatewayErrorsAreRedacted(t *testing.T) {
	cases := []struct {
		kind   client.GatewayErrorKind
		status int
	}{
		{client.GatewayErrorAuth, http.StatusUnauthorized},
		{client.GatewayErrorBadRequest, http.StatusBadRequest},
		{client.GatewayErrorConfig, http.StatusInternalServerError},
		{client.GatewayErrorUnknown, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			err := fmt.Errorf("gateway create order: %w", &client.GatewayError{Kind: tc.kind, Detail: "secret upstream detail"})

			status, body := render(t, err, false)
			assert.Equal(t, tc.status, status)
			assert.NotContains(t, body["details"], "secret upstream detail")

			if tc.kind != client.GatewayErrorAuth {
				_, body = render(t, err, true)
				assert.Equal(t, "secret upstream detail", body["details"])
			}
		})
	}
}

func TestErrorHandler_InternalErrors(t *testing.T) {
	status, body := render(t, errors.New("db exploded"), false)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Empty(t, body["details"])

	_, body = render(t, errors.New("db exploded"), true)
	assert.Equal(t, "db exploded", body["details"])
}
