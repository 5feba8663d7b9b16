package provider

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/NEARBuilders/near-merch-store-sub000/pkg/httpclient"
)

// Provider error type classification, recorded in sync error data so the
// admin dashboard can distinguish a rate limit from an outage.
const (
	ErrTypeRateLimit          = "RATE_LIMIT"
	ErrTypeTimeout            = "TIMEOUT"
	ErrTypeAPIError           = "API_ERROR"
	ErrTypeAuth               = "AUTH"
	ErrTypeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// ClassifyError maps a provider client error to its error type. The
// classification is best-effort; anything unrecognized is API_ERROR.
func ClassifyError(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTypeTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTypeTimeout
	}

	var statusErr *httpclient.StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusTooManyRequests:
			return ErrTypeRateLimit
		case statusErr.StatusCode == http.StatusUnauthorized || statusErr.StatusCode == http.StatusForbidden:
			return ErrTypeAuth
		case statusErr.StatusCode == http.StatusServiceUnavailable || statusErr.StatusCode == http.StatusBadGateway:
			return ErrTypeServiceUnavailable
		}
		return ErrTypeAPIError
	}

	if errors.Is(err, httpclient.ErrCircuitOpen) {
		return ErrTypeServiceUnavailable
	}

	return ErrTypeAPIError
}

// RetryAfter returns the Retry-After value a provider sent with a rate
// limit response, or "" when none is available.
func RetryAfter(err error) string {
	var statusErr *httpclient.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.RetryAfter
	}
	return ""
}
