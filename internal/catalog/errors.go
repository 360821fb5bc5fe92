package catalog

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/desertthunder/placelist/internal/shared"
)

// APIError is a non-2xx catalog response.
//
// A 429 satisfies [retry.RateLimitError].
type APIError struct {
	StatusCode int
	Status     string
	Message    string
	Endpoint   string
	retryAfter string
}

func newAPIError(res *http.Response, endpoint string, body []byte) *APIError {
	e := &APIError{
		StatusCode: res.StatusCode,
		Status:     res.Status,
		Endpoint:   endpoint,
		retryAfter: res.Header.Get("Retry-After"),
	}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Error.Message != "" {
		e.Message = eb.Error.Message
	}
	return e
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("spotify API error: %s: status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("spotify API error: %s: status %d: %s", e.Endpoint, e.StatusCode, e.Message)
}

// RateLimited reports whether the response was a 429.
func (e *APIError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// RetryAfter returns the raw Retry-After header.
func (e *APIError) RetryAfter() string {
	return e.retryAfter
}

func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusTooManyRequests:
		return shared.ErrRateLimited
	case http.StatusUnauthorized:
		return shared.ErrNotAuthenticated
	case http.StatusServiceUnavailable, http.StatusBadGateway:
		return shared.ErrServiceUnavailable
	default:
		return shared.ErrAPIRequest
	}
}
