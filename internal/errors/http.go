package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// ClassifyHTTPError determines the kind and retry category of an HTTP error.
// - 404 is NotFound and irrecoverable
// - other 4xx (except 408 and 429) are Validation and irrecoverable
// - 5xx and unexpected codes are Server and recoverable
func ClassifyHTTPError(statusCode int, body string, underlyingErr error) *ClassifiedError {
	return &ClassifiedError{
		Kind:       getHTTPErrorKind(statusCode),
		Category:   getHTTPErrorCategory(statusCode),
		StatusCode: statusCode,
		Message:    parseMessage(body),
		Body:       body,
		Underlying: underlyingErr,
	}
}

func getHTTPErrorKind(statusCode int) Kind {
	switch {
	case statusCode == http.StatusNotFound:
		return NotFound
	case statusCode == http.StatusRequestTimeout:
		return Transport
	case statusCode >= 400 && statusCode < 500:
		return Validation
	default:
		return Server
	}
}

// getHTTPErrorCategory maps HTTP status codes to error categories.
func getHTTPErrorCategory(statusCode int) ErrorCategory {
	switch {
	case statusCode >= 400 && statusCode < 500:
		switch statusCode {
		case http.StatusRequestTimeout, http.StatusTooManyRequests:
			return Recoverable
		default:
			return Irrecoverable
		}
	case statusCode >= 500 && statusCode < 600:
		return Recoverable
	default:
		// Unexpected status codes - be conservative and retry
		return Recoverable
	}
}

// parseMessage extracts a human message from {"error": ..., "message": ...}.
func parseMessage(body string) string {
	body = strings.TrimSpace(body)
	if body == "" || body[0] != '{' {
		return ""
	}
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}

// NewHTTPError creates a classified error for HTTP failures.
func NewHTTPError(statusCode int, body string, operation string) *ClassifiedError {
	underlyingErr := fmt.Errorf("%s failed: HTTP %d", operation, statusCode)
	return ClassifyHTTPError(statusCode, body, underlyingErr)
}

// NewNetworkError creates a classified error for network-level failures.
// Network errors are always recoverable as they may be transient.
func NewNetworkError(operation string, err error) *ClassifiedError {
	return &ClassifiedError{
		Kind:       Transport,
		Category:   Recoverable,
		Underlying: fmt.Errorf("%s network error: %w", operation, err),
	}
}

// NewDecodeError classifies an unreadable 2xx body as a server fault.
func NewDecodeError(operation string, err error) *ClassifiedError {
	return &ClassifiedError{
		Kind:       Server,
		Category:   Irrecoverable,
		Underlying: fmt.Errorf("%s decode: %w", operation, err),
	}
}
