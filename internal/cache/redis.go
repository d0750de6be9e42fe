package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oggyb/moviease/internal/config"
)

// RedisStore keeps cache entries in Redis. Each owner tag is a Redis set
// listing the keys derived from that owner.
type RedisStore struct {
	Client *redis.Client
}

// NewRedisStore initializes the Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisStore(cfg *config.Config) *RedisStore {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisStore{Client: redis.NewClient(opts)}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.Client.Close()
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil // cache miss
	} else if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// Set writes the value and indexes it under tag. The index outlives its
// newest member by at most ttl.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration, tag string) error {
	_, err := s.Client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, key, value, ttl)
		p.SAdd(ctx, tag, key)
		p.Expire(ctx, tag, ttl)
		return nil
	})
	return err
}

func (s *RedisStore) Delete(ctx context.Context, key, tag string) error {
	_, err := s.Client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, key)
		p.SRem(ctx, tag, key)
		return nil
	})
	return err
}

func (s *RedisStore) DeleteTag(ctx context.Context, tag string) (int, error) {
	keys, err := s.Client.SMembers(ctx, tag).Result()
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, s.Client.Del(ctx, tag).Err()
	}

	var removed *redis.IntCmd
	_, err = s.Client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		removed = p.Del(ctx, keys...)
		p.Del(ctx, tag)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int(removed.Val()), nil
}
