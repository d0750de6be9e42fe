package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/moviease/internal/config"
)

type payload struct {
	Movies []int64 `json:"movies"`
	Note   string  `json:"note"`
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newMemCache(t *testing.T) (*Cache, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	return New("rec", store, 30*time.Minute, discard()), store
}

func TestFetch_ComputesOnceWithinTTL(t *testing.T) {
	ctx := context.Background()
	c, _ := newMemCache(t)
	key := Key{Purpose: "personal", Owner: User("u1"), Limit: 20}

	var calls atomic.Int32
	compute := func(context.Context) (payload, error) {
		calls.Add(1)
		return payload{Movies: []int64{1, 2, 3}, Note: "fresh"}, nil
	}

	first, err := Fetch(ctx, c, key, compute)
	require.NoError(t, err)
	second, err := Fetch(ctx, c, key, compute)
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), c.Stats().Hits)
}

func TestFetch_InvalidateForcesRecompute(t *testing.T) {
	ctx := context.Background()
	c, _ := newMemCache(t)
	key := Key{Purpose: "personal", Owner: User("u1"), Limit: 20}

	version := "v1"
	compute := func(context.Context) (payload, error) {
		return payload{Note: version}, nil
	}

	got, err := Fetch(ctx, c, key, compute)
	require.NoError(t, err)
	assert.Equal(t, "v1", got.Note)

	version = "v2"
	got, err = Fetch(ctx, c, key, compute)
	require.NoError(t, err)
	assert.Equal(t, "v1", got.Note, "still cached")

	n, err := c.Invalidate(ctx, User("u1"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err = Fetch(ctx, c, key, compute)
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Note)
}

func TestInvalidate_NoSubstringCollisions(t *testing.T) {
	ctx := context.Background()
	c, _ := newMemCache(t)

	require.NoError(t, c.Set(ctx, Key{Purpose: "personal", Owner: User("u1"), Limit: 10}, payload{Note: "u1"}))
	require.NoError(t, c.Set(ctx, Key{Purpose: "personal", Owner: User("u10"), Limit: 10}, payload{Note: "u10"}))
	require.NoError(t, c.Set(ctx, Key{Purpose: "couple", Owner: Couple("u1"), Limit: 10}, payload{Note: "couple"}))

	_, err := c.Invalidate(ctx, User("u1"))
	require.NoError(t, err)

	var p payload
	assert.False(t, c.Get(ctx, Key{Purpose: "personal", Owner: User("u1"), Limit: 10}, &p))
	assert.True(t, c.Get(ctx, Key{Purpose: "personal", Owner: User("u10"), Limit: 10}, &p))
	assert.True(t, c.Get(ctx, Key{Purpose: "couple", Owner: Couple("u1"), Limit: 10}, &p))
}

func TestFetch_ExpiredEntryIsAbsent(t *testing.T) {
	ctx := context.Background()
	c, store := newMemCache(t)
	now := time.Now()
	store.now = func() time.Time { return now }

	key := Key{Purpose: "personal", Owner: User("u1"), Limit: 5}
	require.NoError(t, c.Set(ctx, key, payload{Note: "old"}))

	now = now.Add(31 * time.Minute)
	var p payload
	assert.False(t, c.Get(ctx, key, &p))
	assert.Equal(t, 0, store.Len())
}

func TestFetch_ErrorIsNotCached(t *testing.T) {
	ctx := context.Background()
	c, _ := newMemCache(t)
	key := Key{Purpose: "personal", Owner: User("u1"), Limit: 5}

	_, err := Fetch(ctx, c, key, func(context.Context) (payload, error) {
		return payload{}, errors.New("catalog down")
	})
	require.Error(t, err)

	got, err := Fetch(ctx, c, key, func(context.Context) (payload, error) {
		return payload{Note: "ok"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got.Note)
}

func TestFetch_ConcurrentMissesShareComputation(t *testing.T) {
	ctx := context.Background()
	c, _ := newMemCache(t)
	key := Key{Purpose: "room", Owner: Room("r1"), Limit: 10}

	var calls atomic.Int32
	release := make(chan struct{})
	compute := func(context.Context) (payload, error) {
		calls.Add(1)
		<-release
		return payload{Note: "shared"}, nil
	}

	const callers = 8
	var started, done sync.WaitGroup
	started.Add(callers)
	done.Add(callers)
	results := make([]payload, callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer done.Done()
			started.Done()
			results[i], _ = Fetch(ctx, c, key, compute)
		}(i)
	}
	started.Wait()
	time.Sleep(100 * time.Millisecond)
	close(release)
	done.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Equal(t, "shared", r.Note)
	}
}

func TestFetch_InvalidationDuringComputeSkipsStore(t *testing.T) {
	ctx := context.Background()
	c, store := newMemCache(t)
	key := Key{Purpose: "personal", Owner: User("u1"), Limit: 5}

	_, err := Fetch(ctx, c, key, func(ctx context.Context) (payload, error) {
		_, err := c.Invalidate(ctx, User("u1"))
		return payload{Note: "stale"}, err
	})
	require.NoError(t, err)
	assert.Equal(t, 0, store.Len())
}

// racingStore runs hook right before delegating a Set, modelling an
// invalidation that lands between the generation check and the write.
type racingStore struct {
	Store
	hook func(ctx context.Context)
}

func (s *racingStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration, tag string) error {
	if s.hook != nil {
		hook := s.hook
		s.hook = nil
		hook(ctx)
	}
	return s.Store.Set(ctx, key, value, ttl, tag)
}

func TestFetch_InvalidationDuringWriteDropsValue(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore()
	rs := &racingStore{Store: mem}
	c := New("rec", rs, 30*time.Minute, discard())
	rs.hook = func(ctx context.Context) {
		_, err := c.Invalidate(ctx, User("u1"))
		require.NoError(t, err)
	}
	key := Key{Purpose: "personal", Owner: User("u1"), Limit: 5}

	got, err := Fetch(ctx, c, key, func(context.Context) (payload, error) {
		return payload{Note: "stale"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "stale", got.Note)

	var p payload
	assert.False(t, c.Get(ctx, key, &p))
	assert.Equal(t, 0, mem.Len())
}

func TestFetch_CallerCancellationDoesNotAbortCompute(t *testing.T) {
	c, store := newMemCache(t)
	key := Key{Purpose: "personal", Owner: User("u1"), Limit: 5}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got, err := Fetch(ctx, c, key, func(fctx context.Context) (payload, error) {
		cancel()
		if err := fctx.Err(); err != nil {
			return payload{}, err
		}
		return payload{Note: "fresh"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", got.Note)
	assert.Equal(t, 1, store.Len())
}

func TestRedisStore_InvalidateByOwner(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	store := NewRedisStore(cfg)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Ping(ctx))

	c := New("rec", store, 30*time.Minute, discard())
	k1 := Key{Purpose: "personal", Owner: User("u1"), Limit: 10}
	k2 := Key{Purpose: "personal", Owner: User("u1"), Limit: 20}
	k3 := Key{Purpose: "personal", Owner: User("u2"), Limit: 10}
	for _, k := range []Key{k1, k2, k3} {
		require.NoError(t, c.Set(ctx, k, payload{Note: k.String()}))
	}

	var p payload
	require.True(t, c.Get(ctx, k1, &p))
	assert.Equal(t, k1.String(), p.Note)

	n, err := c.Invalidate(ctx, User("u1"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.False(t, c.Get(ctx, k1, &p))
	assert.False(t, c.Get(ctx, k2, &p))
	assert.True(t, c.Get(ctx, k3, &p))

	mr.FastForward(31 * time.Minute)
	assert.False(t, c.Get(ctx, k3, &p))
}
