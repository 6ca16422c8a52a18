package client

import (
	"errors"

	clienterrors "github.com/designcomb/influenter/client/internal/errors"
	"github.com/designcomb/influenter/client/internal/shardqueue"
	"github.com/designcomb/influenter/client/internal/stores"
	"github.com/designcomb/influenter/client/internal/types"
)

// ErrEmptyBaseURL is returned by New without a backend address.
var ErrEmptyBaseURL = errors.New("baseURL cannot be empty")

// ErrBackPressure is returned when the reconciliation queue is full.
var ErrBackPressure = shardqueue.ErrQueueFull

// IsBackPressure reports whether err is a back-pressure error.
func IsBackPressure(err error) bool { return errors.Is(err, ErrBackPressure) }

// ErrUnknownEntity is returned for an entity family the session does not
// hold.
var ErrUnknownEntity = errors.New("unknown entity family")

// Re-export shared SDK errors so callers compare against a single symbol.
var (
	ErrNotFound          = types.ErrNotFound
	ErrInvalidInput      = types.ErrInvalidInput
	ErrSystemFieldDelete = types.ErrSystemFieldDelete
	ErrNoToken           = types.ErrNoToken
	ErrParentPending     = stores.ErrParentPending
)

// ClassifiedError is the error type of every failed backend call.
type ClassifiedError = clienterrors.ClassifiedError

// IsNotFound reports a 404 from the backend.
func IsNotFound(err error) bool { return clienterrors.IsNotFound(err) }

// IsTransport reports a network-level failure.
func IsTransport(err error) bool { return clienterrors.IsTransport(err) }

// IsValidation reports a 4xx other than 404.
func IsValidation(err error) bool { return clienterrors.IsValidation(err) }

// IsServer reports a 5xx or an unreadable response.
func IsServer(err error) bool { return clienterrors.IsServer(err) }

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int { return clienterrors.StatusCode(err) }
