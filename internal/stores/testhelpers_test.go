package stores

import (
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/designcomb/influenter/client/internal/fakeapi"
	"github.com/designcomb/influenter/client/internal/localcache"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

// recorder counts store events by "kind/store/detail".
type recorder struct {
	mu     sync.Mutex
	events map[string]int
}

func (r *recorder) add(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.events == nil {
		r.events = map[string]int{}
	}
	r.events[key]++
}

func (r *recorder) count(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[key]
}

func (r *recorder) RemoteCall(store, op, outcome string) { r.add("call/" + store + "/" + op + "/" + outcome) }
func (r *recorder) Fallback(store, op string)            { r.add("fallback/" + store + "/" + op) }
func (r *recorder) Provisional(store string)             { r.add("provisional/" + store) }
func (r *recorder) Reconciled(store, outcome string)     { r.add("reconciled/" + store + "/" + outcome) }
func (r *recorder) GuardTimeout(store string)            { r.add("guard/" + store) }

type fixture struct {
	srv     *fakeapi.Server
	cache   *localcache.Cache
	metrics *recorder
	deps    Deps
}

// newFixture wires a fake backend, an in-memory cache, a fixed clock and
// sequential temp ids (temp_1, temp_2, ...).
func newFixture(t *testing.T) *fixture {
	t.Helper()
	srv, baseURL := fakeapi.NewTest(t)
	cache, err := localcache.New(localcache.NewMemory(), 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	var (
		mu  sync.Mutex
		seq int
	)
	logger := zerolog.Nop()
	m := &recorder{}
	return &fixture{
		srv:     srv,
		cache:   cache,
		metrics: m,
		deps: Deps{
			HTTP:       &http.Client{Timeout: 5 * time.Second},
			BaseURL:    baseURL,
			Cache:      cache,
			Logger:     &logger,
			Metrics:    m,
			FetchGuard: 2 * time.Second,
			SyncSettle: 10 * time.Millisecond,
			Now:        func() time.Time { return testNow },
			NewTempID: func() string {
				mu.Lock()
				defer mu.Unlock()
				seq++
				return fmt.Sprintf("%s%d", localcache.TempPrefix, seq)
			},
		},
	}
}

// bearerClient adds the token returned by tok to every request.
type bearerClient struct {
	tok func() string
}

func (b bearerClient) Do(req *http.Request) (*http.Response, error) {
	if t := b.tok(); t != "" {
		req.Header.Set("Authorization", "Bearer "+t)
	}
	return http.DefaultClient.Do(req)
}
