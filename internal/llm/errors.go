package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/openai/openai-go"
)

var (
	ErrAuthentication = errors.New("authentication failed")
	ErrNotFound       = errors.New("deployment not found")
	ErrRateLimit      = errors.New("rate limit exceeded")
	ErrNetwork        = errors.New("network error")
	ErrAPI            = errors.New("api error")
)

// APIError carries the detail of a failed call. It matches its Kind and
// the underlying cause with errors.Is / errors.As.
type APIError struct {
	Kind       error
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	msg := e.Kind.Error()
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *APIError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// StatusError classifies a non-2xx HTTP status.
func StatusError(status int, message string) error {
	return &APIError{
		Kind:       kindForStatus(status),
		StatusCode: status,
		Message:    message,
	}
}

func kindForStatus(status int) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrAuthentication
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimit
	default:
		return ErrAPI
	}
}

// classify maps an error returned by the openai SDK onto the taxonomy.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return context.Canceled
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &APIError{
			Kind:       kindForStatus(apiErr.StatusCode),
			StatusCode: apiErr.StatusCode,
			Message:    apiErr.Message,
			Err:        err,
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return &APIError{Kind: ErrNetwork, Err: err}
	}
	return &APIError{Kind: ErrAPI, Err: err}
}
