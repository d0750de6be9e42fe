// Package cache memoizes derived match, profile and recommendation results.
//
// Entries are addressed by a structured Key and indexed by the Owner they
// were derived from, so a new swipe drops exactly the entries of that user
// (or couple, room, group) and nothing else. Concurrent misses on the same
// key share one computation.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/singleflight"
)

// Store is the storage behind a Cache. Values are opaque bytes.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration, tag string) error
	Delete(ctx context.Context, key, tag string) error
	// DeleteTag removes every key indexed under tag and returns how many went.
	DeleteTag(ctx context.Context, tag string) (int, error)
}

// Stats tracks cache effectiveness.
type Stats struct {
	Hits          int64
	Misses        int64
	Computations  int64
	Invalidations int64
}

// Cache is a namespaced, TTL-bound memo over a Store.
type Cache struct {
	namespace string
	store     Store
	ttl       time.Duration
	log       *slog.Logger

	flight singleflight.Group

	genMu sync.Mutex
	gens  map[string]uint64

	hits, misses, computations, invalidations atomic.Int64
}

// New creates a cache whose entries live for ttl.
func New(namespace string, store Store, ttl time.Duration, log *slog.Logger) *Cache {
	if log == nil {
		log = slog.Default()
	}
	return &Cache{
		namespace: namespace,
		store:     store,
		ttl:       ttl,
		log:       log.With("cache", namespace),
		gens:      make(map[string]uint64),
	}
}

// TTL returns the entry lifetime.
func (c *Cache) TTL() time.Duration { return c.ttl }

func (c *Cache) storeKey(k Key) string { return c.namespace + ":" + k.String() }
func (c *Cache) storeTag(o Owner) string {
	return c.namespace + ":idx:" + o.Tag()
}

// Get decodes the entry for k into dst. Store errors count as misses.
func (c *Cache) Get(ctx context.Context, k Key, dst any) bool {
	b, ok, err := c.store.Get(ctx, c.storeKey(k))
	if err != nil {
		c.log.Warn("cache read failed", "key", k.String(), "err", err)
		ok = false
	}
	if ok {
		if err := json.Unmarshal(b, dst); err != nil {
			c.log.Warn("cache entry undecodable", "key", k.String(), "err", err)
			ok = false
		}
	}
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return ok
}

// Set stores v under k for the cache TTL.
func (c *Cache) Set(ctx context.Context, k Key, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", k, err)
	}
	return c.store.Set(ctx, c.storeKey(k), b, c.ttl, c.storeTag(k.Owner))
}

// Delete drops one entry.
func (c *Cache) Delete(ctx context.Context, k Key) error {
	c.bump(k.Owner)
	return c.store.Delete(ctx, c.storeKey(k), c.storeTag(k.Owner))
}

// Invalidate drops every entry derived from owner. Computations already in
// flight for that owner finish for their callers but are not stored.
func (c *Cache) Invalidate(ctx context.Context, owner Owner) (int, error) {
	c.bump(owner)
	n, err := c.store.DeleteTag(ctx, c.storeTag(owner))
	if err != nil {
		return n, fmt.Errorf("invalidate %s: %w", owner.Tag(), err)
	}
	c.invalidations.Add(1)
	c.log.Debug("cache invalidated", "owner", owner.Tag(), "entries", n)
	return n, nil
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		Computations:  c.computations.Load(),
		Invalidations: c.invalidations.Load(),
	}
}

func (c *Cache) generation(o Owner) uint64 {
	c.genMu.Lock()
	defer c.genMu.Unlock()
	return c.gens[o.Tag()]
}

func (c *Cache) bump(o Owner) {
	c.genMu.Lock()
	c.gens[o.Tag()]++
	c.genMu.Unlock()
}

// Fetch returns the cached value for k or computes, stores and returns it.
// Concurrent callers missing the same key share one compute call. The
// computation is detached from the caller's cancellation so one caller
// giving up does not fail the others.
func Fetch[T any](ctx context.Context, c *Cache, k Key, compute func(ctx context.Context) (T, error)) (T, error) {
	var cached T
	if c.Get(ctx, k, &cached) {
		return cached, nil
	}

	gen := c.generation(k.Owner)
	flightKey := fmt.Sprintf("%s#%d", k, gen)
	v, err, _ := c.flight.Do(flightKey, func() (any, error) {
		fctx := context.WithoutCancel(ctx)
		c.computations.Add(1)
		res, err := compute(fctx)
		if err != nil {
			return nil, err
		}
		c.storeComputed(fctx, k, gen, res)
		return res, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// storeComputed writes v unless k's owner was invalidated since gen was
// read. Invalidate bumps the generation before deleting the owner's keys,
// so after the write either the re-check sees the bump or the bump's
// delete removes the value.
func (c *Cache) storeComputed(ctx context.Context, k Key, gen uint64, v any) {
	if c.generation(k.Owner) != gen {
		return
	}
	if err := c.Set(ctx, k, v); err != nil {
		c.log.Warn("cache write failed", "key", k.String(), "err", err)
		return
	}
	if c.generation(k.Owner) != gen {
		if err := c.store.Delete(ctx, c.storeKey(k), c.storeTag(k.Owner)); err != nil {
			c.log.Warn("dropping stale cache write failed", "key", k.String(), "err", err)
		}
	}
}
