package client

import (
	"errors"
	"fmt"
)

type GatewayErrorKind string

const (
	GatewayErrorAuth       GatewayErrorKind = "auth"
	GatewayErrorBadRequest GatewayErrorKind = "bad_request"
	GatewayErrorConfig     GatewayErrorKind = "config"
	GatewayErrorUnknown    GatewayErrorKind = "unknown"
)

// GatewayError describes a failed call to the payment gateway. Detail comes
// from the gateway response and never contains credentials.
type GatewayError struct {
	Kind       GatewayErrorKind
	StatusCode int
	Detail     string
	Err        error
}

func (e *GatewayError) Error() string {
	msg := fmt.Sprintf("payment gateway %s error", e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// AsGatewayError reports whether err wraps a *GatewayError.
func AsGatewayError(err error) (*GatewayError, bool) {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr, true
	}
	return nil, false
}
