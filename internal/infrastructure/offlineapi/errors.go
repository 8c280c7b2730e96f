package offlineapi

import (
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/ttokjang/backend/internal/domain"
)

// APIError is a non-2xx response from the offline API. Body keeps the raw
// response so callers can show it verbatim.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Body       string
	Err        error
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("offline api: status %d: %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("offline api: status %d: %s", e.StatusCode, e.Body)
}

// Unwrap exposes the domain error the status maps to
func (e *APIError) Unwrap() error {
	return e.Err
}

// newAPIError reads the {code, message} envelope; FastAPI-style {detail}
// bodies are accepted as the message.
func newAPIError(status int, body []byte, sentinel error) *APIError {
	parsed := gjson.ParseBytes(body)
	message := parsed.Get("message").String()
	if message == "" {
		message = parsed.Get("detail").String()
	}
	if sentinel == nil {
		sentinel = domain.ErrUpstreamFailure
	}
	return &APIError{
		StatusCode: status,
		Code:       parsed.Get("code").String(),
		Message:    message,
		Body:       string(body),
		Err:        sentinel,
	}
}
