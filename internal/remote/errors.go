package remote

import (
	"fmt"
	"net/http"

	"bloodbridge/pkg/platform/sentinel"
)

// ResponseError is a non-2xx answer from the remote document API.
type ResponseError struct {
	Operation  string
	StatusCode int
	Body       string
	Retryable  bool
}

func (e *ResponseError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("remote %s: status %d: %s", e.Operation, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("remote %s: status %d", e.Operation, e.StatusCode)
}

// Unwrap lets callers match on sentinel.ErrInvalidResponse.
func (e *ResponseError) Unwrap() error {
	return sentinel.ErrInvalidResponse
}

func newResponseError(op string, status int, body []byte) *ResponseError {
	return &ResponseError{
		Operation:  op,
		StatusCode: status,
		Body:       string(body),
		Retryable:  status >= http.StatusInternalServerError || status == http.StatusTooManyRequests,
	}
}
