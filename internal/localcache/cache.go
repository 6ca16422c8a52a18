// Package localcache is the on-device side store of the client: one JSON
// snapshot per resource family, namespaced under a common prefix, served
// through a small LRU of raw snapshots.
package localcache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Family names one resource collection in the cache.
type Family string

const (
	FamilyCases       Family = "cases"
	FamilyCaseDetails Family = "case_details"
	FamilyFields      Family = "case_fields"
	FamilyTasks       Family = "tasks"
	FamilyItems       Family = "collaboration_items"
	FamilyWorkflows   Family = "workflow_templates"
	FamilyPhases      Family = "case_phases"
	FamilyAuthToken   Family = "auth_token"
)

// Families lists every family Clear removes.
var Families = []Family{
	FamilyCases, FamilyCaseDetails, FamilyFields, FamilyTasks,
	FamilyItems, FamilyWorkflows, FamilyPhases, FamilyAuthToken,
}

// DefaultPrefix namespaces every family key.
const DefaultPrefix = "influenter_"

// Cache wraps a Backend with typed family helpers.
type Cache struct {
	backend Backend
	recent  *lru.Cache[string, []byte]
	prefix  string
	log     zerolog.Logger

	// serializes read-modify-write helpers
	mu sync.Mutex
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger used for corrupt snapshots and write failures.
func WithLogger(l zerolog.Logger) Option { return func(c *Cache) { c.log = l } }

// WithPrefix overrides DefaultPrefix.
func WithPrefix(p string) Option { return func(c *Cache) { c.prefix = p } }

// New wraps b. The LRU holds up to lruSize raw snapshots (64 when <= 0).
func New(b Backend, lruSize int, opts ...Option) (*Cache, error) {
	if b == nil {
		return nil, fmt.Errorf("localcache: nil backend")
	}
	if lruSize <= 0 {
		lruSize = 64
	}
	recent, err := lru.New[string, []byte](lruSize)
	if err != nil {
		return nil, err
	}
	c := &Cache{backend: b, recent: recent, prefix: DefaultPrefix, log: log.Logger}
	for _, o := range opts {
		o(c)
	}
	c.log = c.log.With().Str("component", "localcache").Logger()
	return c, nil
}

// Key returns the namespaced backend key of a family.
func (c *Cache) Key(f Family) string { return c.prefix + string(f) }

func (c *Cache) raw(ctx context.Context, f Family) ([]byte, bool) {
	key := c.Key(f)
	if v, ok := c.recent.Get(key); ok {
		return v, true
	}
	v, ok, err := c.backend.Get(ctx, key)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache read failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	c.recent.Add(key, v)
	return v, true
}

// load decodes the snapshot of f. Absent or corrupt snapshots read as empty.
func load[T any](ctx context.Context, c *Cache, f Family) (T, bool) {
	var out T
	b, ok := c.raw(ctx, f)
	if !ok {
		return out, false
	}
	if err := json.Unmarshal(b, &out); err != nil {
		c.log.Warn().Err(err).Str("family", string(f)).Msg("corrupt cache snapshot ignored")
		var zero T
		return zero, false
	}
	return out, true
}

// save replaces the snapshot of f.
func save[T any](ctx context.Context, c *Cache, f Family, v T) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("localcache: encode %s: %w", f, err)
	}
	key := c.Key(f)
	if err := c.backend.Put(ctx, key, b); err != nil {
		c.recent.Remove(key)
		c.log.Error().Err(err).Str("key", key).Msg("cache write failed")
		return fmt.Errorf("localcache: write %s: %w", f, err)
	}
	c.recent.Add(key, b)
	return nil
}

// Remove deletes the snapshot of f.
func (c *Cache) Remove(ctx context.Context, f Family) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remove(ctx, f)
}

func (c *Cache) remove(ctx context.Context, f Family) error {
	key := c.Key(f)
	c.recent.Remove(key)
	if err := c.backend.Delete(ctx, key); err != nil {
		c.log.Error().Err(err).Str("key", key).Msg("cache delete failed")
		return fmt.Errorf("localcache: delete %s: %w", f, err)
	}
	return nil
}

// Has reports whether f holds a snapshot.
func (c *Cache) Has(ctx context.Context, f Family) bool {
	_, ok := c.raw(ctx, f)
	return ok
}

// Clear removes every family snapshot.
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var firstErr error
	for _, f := range Families {
		if err := c.remove(ctx, f); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close releases the backend.
func (c *Cache) Close() error {
	c.recent.Purge()
	return c.backend.Close()
}
