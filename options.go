package client

// This file defines functional options that configure the Client during
// construction. Keeping them in a standalone file makes it easy to discover
// all available knobs at a glance.

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Option configures a Client during construction in New.
//
// Options are applied before the bearer transport wrapper is installed, so
// transport-related options (like debug logging) end up underneath it.
type Option func(*Client) error

// WithHTTPTimeout sets the underlying http.Client Timeout.
//
// Prefer per-request context deadlines where possible; this timeout is a
// coarse safety net bounding one HTTP request. The value must be greater
// than zero.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("http timeout must be > 0")
		}
		c.http.Timeout = d
		return nil
	}
}

// WithHTTPClient replaces the underlying http.Client. The client is copied;
// its transport is wrapped, never modified.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return fmt.Errorf("http client must not be nil")
		}
		cp := *hc
		c.http = &cp
		return nil
	}
}

// WithDebugLogging wraps the client's transport so each request/response is
// logged when enabled is true. Do not enable this in production: the dumps
// include bearer tokens.
func WithDebugLogging(enabled bool) Option {
	return func(c *Client) error {
		if enabled {
			c.http.Transport = &debugTransport{base: c.http.Transport}
		}
		return nil
	}
}

// WithTokenSource fixes where the bearer token comes from. Without it a
// Session uses its Auth store.
func WithTokenSource(src TokenSource) Option {
	return func(c *Client) error {
		if src == nil {
			return fmt.Errorf("token source must not be nil")
		}
		c.setTokenSource(src)
		c.fixedTokens = true
		return nil
	}
}

// WithLogger sets the logger handed to the stores and the executor.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) error {
		c.logger = l
		return nil
	}
}

// WithFetchGuard bounds how long a store reports loading for one call.
func WithFetchGuard(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("fetch guard must be > 0")
		}
		c.fetchGuard = d
		return nil
	}
}

// WithPerPage sets the page size of case and email list fetches.
func WithPerPage(n int) Option {
	return func(c *Client) error {
		if n <= 0 {
			return fmt.Errorf("per page must be > 0")
		}
		c.perPage = n
		return nil
	}
}

// WithClock replaces the time source used for local timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) error {
		if now == nil {
			return fmt.Errorf("clock must not be nil")
		}
		c.now = now
		return nil
	}
}

// WithRecorder replaces the Prometheus store metrics.
func WithRecorder(r Recorder) Option {
	return func(c *Client) error {
		if r == nil {
			return fmt.Errorf("recorder must not be nil")
		}
		c.recorder = r
		return nil
	}
}

// WithExecutor replaces the reconciliation executor. The caller keeps
// ownership: Close does not stop it.
func WithExecutor(e Executor) Option {
	return func(c *Client) error {
		if e == nil {
			return fmt.Errorf("executor must not be nil")
		}
		c.exec = e
		return nil
	}
}
