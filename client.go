// Package client is the Influenter client SDK: a REST client for the
// Influenter backend plus per-session resource stores that keep working
// from a local cache while the backend is unreachable.
package client

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/designcomb/influenter/client/internal/shardqueue"
	"github.com/designcomb/influenter/client/internal/stores"
)

// TokenSource returns the bearer token for the next request, or "".
type TokenSource func() string

type Client struct {
	baseURL string
	http    *http.Client
	exec    Executor
	logger  zerolog.Logger

	// tokens holds the TokenSource read on every request.
	tokens      atomic.Pointer[TokenSource]
	fixedTokens bool

	recorder   Recorder
	fetchGuard time.Duration
	perPage    int
	now        func() time.Time

	ownsExecutor bool
	closedOnce   uint32 // ensures Close is idempotent
}

// New constructs a Client for the backend at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, ErrEmptyBaseURL
	}

	c := &Client{
		baseURL:  baseURL,
		http:     &http.Client{Timeout: 30 * time.Second},
		logger:   log.Logger,
		recorder: promRecorder{},
	}

	// Auto-enable debug via env variable without changing code.
	if debugLoggingRequested() {
		opts = append(opts, WithDebugLogging(true))
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.exec == nil {
		c.exec = newDefaultExecutor(c.logger)
		c.ownsExecutor = true
	}

	c.wrapTransport()
	return c, nil
}

// wrapTransport installs the bearer/request-id transport on top of whatever
// the options configured.
func (c *Client) wrapTransport() {
	baseTransport := c.http.Transport
	if baseTransport == nil {
		baseTransport = http.DefaultTransport
	}
	c.http.Transport = &bearerTransport{base: baseTransport, token: c.token}
}

func (c *Client) token() string {
	if src := c.tokens.Load(); src != nil && *src != nil {
		return (*src)()
	}
	return ""
}

func (c *Client) setTokenSource(src TokenSource) {
	c.tokens.Store(&src)
}

// bearerTransport adds the Authorization and X-Request-ID headers.
type bearerTransport struct {
	base  http.RoundTripper
	token func() string
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone the request to avoid modifying the original
	cloned := req.Clone(req.Context())
	if tok := t.token(); tok != "" {
		cloned.Header.Set("Authorization", "Bearer "+tok)
	}
	if cloned.Header.Get("X-Request-ID") == "" {
		cloned.Header.Set("X-Request-ID", uuid.NewString())
	}
	return t.base.RoundTrip(cloned)
}

// BaseURL returns the backend address.
func (c *Client) BaseURL() string { return c.baseURL }

// Close stops the reconciliation executor when the client created it.
// Safe to call multiple times.
func (c *Client) Close() error {
	if !atomic.CompareAndSwapUint32(&c.closedOnce, 0, 1) {
		return nil
	}
	if c.exec != nil && c.ownsExecutor {
		c.exec.Stop()
	}
	return nil
}

// newDefaultExecutor builds the shard executor from INFLUENTER_SYNC_* and
// logs the jobs it gives up on.
func newDefaultExecutor(logger zerolog.Logger) *shardqueue.ShardExecutor {
	cfg, err := shardqueue.LoadConfig()
	if err != nil {
		logger.Warn().Err(err).Msg("invalid INFLUENTER_SYNC settings, using defaults")
		cfg = shardqueue.Config{}
	}
	cfg.Logger = &logger
	cfg.ErrorHandler = func(err error) {
		logger.Warn().Err(err).Msg("reconcile job gave up")
	}
	return shardqueue.NewShardExecutor(cfg)
}

// storeDeps is the collaborator set every store of a session shares.
func (c *Client) storeDeps(cache *Cache) stores.Deps {
	l := c.logger
	return stores.Deps{
		HTTP:       c.http,
		BaseURL:    c.baseURL,
		Cache:      cache,
		Logger:     &l,
		Metrics:    c.recorder,
		FetchGuard: c.fetchGuard,
		PerPage:    c.perPage,
		Now:        c.now,
	}
}

// AwaitReconcile blocks until every replay already submitted for family has
// run.
func (c *Client) AwaitReconcile(ctx context.Context, family string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.exec.Barrier(ctx, family)
}
