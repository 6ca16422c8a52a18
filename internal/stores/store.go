// Package stores holds the per-session resource stores. Each store mirrors
// one server collection in memory, writes the last known-good state through
// to the local cache and falls back to that cache when the backend fails.
package stores

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	clienterrors "github.com/designcomb/influenter/client/internal/errors"
	"github.com/designcomb/influenter/client/internal/localcache"
)

const (
	// DefaultFetchGuard bounds how long a store reports loading for one call.
	DefaultFetchGuard = 10 * time.Second
	// DefaultSyncSettle is how long TriggerSync waits before it refreshes
	// the mailbox status.
	DefaultSyncSettle = 2 * time.Second
)

// HTTPClient is the transport every store calls through.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Origin tells where the value of a Result came from.
type Origin int

const (
	// Confirmed values were returned by the backend.
	Confirmed Origin = iota
	// Provisional values were built locally after the backend failed.
	Provisional
	// Cached values were read from the local cache or the in-memory state.
	Cached
)

func (o Origin) String() string {
	switch o {
	case Confirmed:
		return "confirmed"
	case Provisional:
		return "provisional"
	case Cached:
		return "cached"
	default:
		return "unknown"
	}
}

// Result is the outcome of a store operation.
type Result[T any] struct {
	Value  T
	Origin Origin
	// TempID is set when a create was only applied locally.
	TempID string
	// RemoteErr is the backend failure that caused a fallback.
	RemoteErr error
	// Skipped is set when a fetch was already in flight for the collection.
	Skipped bool
}

// IsProvisional reports whether the value has not been confirmed remotely.
func (r Result[T]) IsProvisional() bool { return r.Origin == Provisional }

// Status is the observable loading state of a store.
type Status struct {
	Loading bool
	Error   string
}

// Recorder receives store events for metrics.
type Recorder interface {
	RemoteCall(store, op, outcome string)
	Fallback(store, op string)
	Provisional(store string)
	Reconciled(store, outcome string)
	GuardTimeout(store string)
}

type nopRecorder struct{}

func (nopRecorder) RemoteCall(string, string, string) {}
func (nopRecorder) Fallback(string, string)           {}
func (nopRecorder) Provisional(string)                {}
func (nopRecorder) Reconciled(string, string)         {}
func (nopRecorder) GuardTimeout(string)               {}

// Deps are the collaborators shared by every store of a session.
type Deps struct {
	HTTP    HTTPClient
	BaseURL string
	Cache   *localcache.Cache
	Logger  *zerolog.Logger
	Metrics Recorder

	// FetchGuard forces loading back to false after this long.
	FetchGuard time.Duration
	SyncSettle time.Duration
	// PerPage is the page size of list fetches.
	PerPage    int
	Now        func() time.Time
	NewTempID  func() string
}

func (d Deps) withDefaults() Deps {
	if d.HTTP == nil {
		d.HTTP = http.DefaultClient
	}
	if d.Metrics == nil {
		d.Metrics = nopRecorder{}
	}
	if d.FetchGuard <= 0 {
		d.FetchGuard = DefaultFetchGuard
	}
	if d.SyncSettle <= 0 {
		d.SyncSettle = DefaultSyncSettle
	}
	if d.PerPage <= 0 {
		d.PerPage = defaultPerPage
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	if d.NewTempID == nil {
		d.NewTempID = localcache.NewTempID
	}
	if d.Logger == nil {
		l := log.Logger
		d.Logger = &l
	}
	if d.Cache == nil {
		// memory backed New cannot fail
		d.Cache, _ = localcache.New(localcache.NewMemory(), 0, localcache.WithLogger(*d.Logger))
	}
	return d
}

// base carries the loading/error state machine shared by the stores.
type base struct {
	name string
	deps Deps
	log  zerolog.Logger

	statusMu sync.Mutex
	inflight int
	errMsg   string
	fetching map[string]bool
}

func (b *base) init(name string, d Deps) {
	b.name = name
	b.deps = d.withDefaults()
	b.log = b.deps.Logger.With().Str("store", name).Logger()
	b.fetching = map[string]bool{}
}

// Status returns the loading flag and the last failure message.
func (b *base) Status() Status {
	b.statusMu.Lock()
	defer b.statusMu.Unlock()
	return Status{Loading: b.inflight > 0, Error: b.errMsg}
}

// begin enters the loading state and clears the previous error. A non-empty
// key makes the call exclusive: while one call holds the key, begin returns
// ok=false. The guard timer releases loading and the key after FetchGuard
// even if the call never returns; the call itself keeps running.
func (b *base) begin(op, key string) (end func(), ok bool) {
	b.statusMu.Lock()
	if key != "" && b.fetching[key] {
		b.statusMu.Unlock()
		b.log.Debug().Str("op", op).Str("key", key).Msg("already loading, skipping")
		return nil, false
	}
	if key != "" {
		b.fetching[key] = true
	}
	b.inflight++
	b.errMsg = ""
	b.statusMu.Unlock()

	done := false
	finish := func() bool {
		b.statusMu.Lock()
		defer b.statusMu.Unlock()
		if done {
			return false
		}
		done = true
		b.inflight--
		if key != "" {
			delete(b.fetching, key)
		}
		return true
	}
	timer := time.AfterFunc(b.deps.FetchGuard, func() {
		if finish() {
			b.deps.Metrics.GuardTimeout(b.name)
			b.log.Warn().Str("op", op).Dur("after", b.deps.FetchGuard).Msg("call still pending, forcing loading to false")
		}
	})
	return func() {
		timer.Stop()
		finish()
	}, true
}

func (b *base) setError(msg string) {
	b.statusMu.Lock()
	b.errMsg = msg
	b.statusMu.Unlock()
}

func (b *base) succeeded(op string) {
	b.deps.Metrics.RemoteCall(b.name, op, "ok")
}

// failed records a remote failure. Not-found and transport failures on
// reads are expected while the backend is rolled out and leave Error empty.
func (b *base) failed(op string, read bool, err error, msg string) {
	b.deps.Metrics.RemoteCall(b.name, op, outcome(err))
	if read && clienterrors.IsQuiet(err) {
		b.log.Debug().Str("op", op).Err(err).Msg("remote unavailable")
		return
	}
	b.log.Error().Str("op", op).Err(err).Msg(msg)
	b.setError(describe(msg, err))
}

func (b *base) fellBack(op string) {
	b.deps.Metrics.Fallback(b.name, op)
	b.log.Warn().Str("op", op).Msg("applied locally")
}

func (b *base) provisional(op, tempID string) {
	b.deps.Metrics.Provisional(b.name)
	b.fellBack(op)
	b.log.Info().Str("op", op).Str("temp_id", tempID).Msg("created provisional record")
}

// persist logs a cache write failure; the cache is best effort.
func (b *base) persist(op string, err error) {
	if err != nil {
		b.log.Warn().Str("op", op).Err(err).Msg("local cache write failed")
	}
}

func (b *base) now() time.Time { return b.deps.Now() }

func (b *base) cache() *localcache.Cache { return b.deps.Cache }

// canceled reports whether err came from the caller giving up. Those calls
// are returned as is, without a fallback.
func canceled(ctx context.Context, err error) bool {
	return ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded))
}

func outcome(err error) string {
	switch clienterrors.KindOf(err) {
	case clienterrors.Transport:
		return "transport"
	case clienterrors.NotFound:
		return "not_found"
	case clienterrors.Validation:
		return "validation"
	default:
		return "server"
	}
}

func describe(msg string, err error) string {
	if m := clienterrors.MessageOf(err); m != "" {
		return msg + ": " + m
	}
	return msg
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return append(make([]T, 0, len(s)), s...)
}
