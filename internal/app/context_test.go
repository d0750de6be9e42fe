package app_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/moviease/internal/app"
	"github.com/oggyb/moviease/internal/cache"
	"github.com/oggyb/moviease/internal/config"
)

func TestNewStoreBackends(t *testing.T) {
	ctx := context.Background()
	cfg := config.New()

	cfg.Cache.Backend = "memory"
	store, err := app.NewStore(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &cache.MemoryStore{}, store)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	cfg.Cache.Backend = "redis"
	cfg.Redis.Addr = mr.Addr()
	store, err = app.NewStore(ctx, cfg)
	require.NoError(t, err)
	rs, ok := store.(*cache.RedisStore)
	require.True(t, ok)
	_ = rs.Close()

	// nothing listens here
	cfg.Redis.Addr = "127.0.0.1:1"
	_, err = app.NewStore(ctx, cfg)
	assert.Error(t, err)

	cfg.Cache.Backend = "memcached"
	_, err = app.NewStore(ctx, cfg)
	assert.ErrorContains(t, err, "unknown cache backend")
}
