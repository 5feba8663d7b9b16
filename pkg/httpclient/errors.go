package httpclient

import (
	"fmt"
	"io"
	"net/http"
)

// StatusError is returned when a provider API responds with a non-2xx status.
// The body is captured (up to 1 MB) for error classification and logging;
// provider error payloads have no common shape, so no decoding is attempted.
type StatusError struct {
	Service    string
	StatusCode int
	Body       string

	// RetryAfter echoes the Retry-After response header when the provider
	// sent one (rate limit responses); empty otherwise.
	RetryAfter string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned status %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Service, e.StatusCode, e.Body)
}

// ParseResponseError reads and closes the body of a non-2xx response and
// returns a StatusError. Callers should only invoke this when
// resp.StatusCode indicates an error.
func ParseResponseError(resp *http.Response, service string) error {
	defer func() { _ = resp.Body.Close() }()

	retryAfter := resp.Header.Get("Retry-After")
	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &StatusError{Service: service, StatusCode: resp.StatusCode, RetryAfter: retryAfter}
	}

	return &StatusError{Service: service, StatusCode: resp.StatusCode, Body: string(bodyBytes), RetryAfter: retryAfter}
}
