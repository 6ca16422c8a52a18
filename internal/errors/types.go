// Package errors provides error classification for the client SDK.
// Kind drives how stores surface a failure; Category drives retry policy.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCategory determines how errors should be handled by retry logic.
type ErrorCategory int

const (
	// Recoverable errors should be retried with exponential backoff.
	// Examples: 500 Internal Server Error, network timeouts, connection failures.
	Recoverable ErrorCategory = iota

	// Irrecoverable errors should fail immediately without retry.
	// Examples: 401 Unauthorized, 404 Not Found, 422 Unprocessable Entity.
	Irrecoverable
)

// String returns a human-readable representation of the error category.
func (c ErrorCategory) String() string {
	switch c {
	case Recoverable:
		return "Recoverable"
	case Irrecoverable:
		return "Irrecoverable"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// Kind is the failure taxonomy seen by stores.
type Kind int

const (
	// Server is a 5xx or otherwise unexpected backend response.
	Server Kind = iota
	// Transport means no response reached the client.
	Transport
	// NotFound is a 404, expected while endpoints are being rolled out.
	NotFound
	// Validation is a 4xx carrying a message (bad input, conflict, auth).
	Validation
)

// String returns a human-readable representation of the kind.
func (k Kind) String() string {
	switch k {
	case Server:
		return "Server"
	case Transport:
		return "Transport"
	case NotFound:
		return "NotFound"
	case Validation:
		return "Validation"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// ClassifiedError wraps an error with categorization metadata.
type ClassifiedError struct {
	Kind       Kind
	Category   ErrorCategory
	StatusCode int    // HTTP status code (0 for non-HTTP errors)
	Message    string // backend message, if the body carried one
	Body       string // Response body for debugging
	Underlying error  // The original error
}

// Error implements the error interface.
func (e *ClassifiedError) Error() string {
	if e.StatusCode > 0 {
		if e.Message != "" {
			return fmt.Sprintf("[%s] HTTP %d: %v: %s", e.Category, e.StatusCode, e.Underlying, e.Message)
		}
		return fmt.Sprintf("[%s] HTTP %d: %v", e.Category, e.StatusCode, e.Underlying)
	}
	return fmt.Sprintf("[%s] %v", e.Category, e.Underlying)
}

// Unwrap returns the underlying error for error chain compatibility.
func (e *ClassifiedError) Unwrap() error {
	return e.Underlying
}

// As returns the first ClassifiedError in err's chain.
func As(err error) (*ClassifiedError, bool) {
	var ce *ClassifiedError
	if stderrors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// IsIrrecoverable returns true if the error should not be retried.
func IsIrrecoverable(err error) bool {
	if classified, ok := As(err); ok {
		return classified.Category == Irrecoverable
	}
	return false
}

// KindOf returns the kind of err. Unclassified errors count as Server.
func KindOf(err error) Kind {
	if classified, ok := As(err); ok {
		return classified.Kind
	}
	return Server
}

// IsNotFound reports a 404 anywhere in err's chain.
func IsNotFound(err error) bool { return err != nil && KindOf(err) == NotFound }

// IsTransport reports a network-level failure anywhere in err's chain.
func IsTransport(err error) bool { return err != nil && KindOf(err) == Transport }

// IsValidation reports a 4xx (other than 404) anywhere in err's chain.
func IsValidation(err error) bool { return err != nil && KindOf(err) == Validation }

// IsServer reports a 5xx or unclassified failure.
func IsServer(err error) bool { return err != nil && KindOf(err) == Server }

// IsQuiet reports failures that read paths swallow into the fallback
// without surfacing a message.
func IsQuiet(err error) bool { return IsNotFound(err) || IsTransport(err) }

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	if classified, ok := As(err); ok {
		return classified.StatusCode
	}
	return 0
}

// MessageOf returns the backend message carried by err, or "".
func MessageOf(err error) string {
	if classified, ok := As(err); ok {
		return classified.Message
	}
	return ""
}
