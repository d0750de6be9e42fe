package app

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/oggyb/moviease/internal/cache"
	"github.com/oggyb/moviease/internal/catalog"
	"github.com/oggyb/moviease/internal/config"
	"github.com/oggyb/moviease/internal/matching"
	"github.com/oggyb/moviease/internal/recommend"
	"github.com/oggyb/moviease/internal/repository"
	"github.com/oggyb/moviease/internal/taste"
)

// AppContext holds shared dependencies (DB, cache store, Logger, etc.)
// and the domain services built on them.
type AppContext struct {
	DB     *gorm.DB
	Config *config.Config
	Logger *slog.Logger
	Store  cache.Store

	Swipes      *repository.SwipeRepository
	Groups      *repository.GroupRepository
	Movies      *repository.CatalogRepository
	Preferences *repository.PreferenceRepository
	Profiles    *repository.ProfileRepository

	Catalog *catalog.Breaker

	MatchCache     *cache.Cache
	TasteCache     *cache.Cache
	RecommendCache *cache.Cache

	Matches   *matching.Service
	Taste     *taste.Service
	Recommend *recommend.Orchestrator
}

// New creates a new AppContext. The three caches share store under
// separate namespaces.
func New(db *gorm.DB, store cache.Store, cfg *config.Config, logger *slog.Logger) *AppContext {
	a := &AppContext{
		DB:     db,
		Config: cfg,
		Logger: logger,
		Store:  store,

		Swipes:      repository.NewSwipeRepository(db),
		Groups:      repository.NewGroupRepository(db),
		Movies:      repository.NewCatalogRepository(db, cfg.Catalog.PopularMinVotes, cfg.Catalog.PopularMinRating),
		Preferences: repository.NewPreferenceRepository(db),
		Profiles:    repository.NewProfileRepository(db),

		MatchCache:     cache.New("matches", store, cfg.Cache.RecommendationTTL, logger),
		TasteCache:     cache.New("taste", store, cfg.Cache.ProfileTTL, logger),
		RecommendCache: cache.New("recommend", store, cfg.Cache.RecommendationTTL, logger),
	}

	a.Catalog = catalog.NewBreaker(a.Movies, catalog.BreakerConfig{
		Name:             "catalog",
		FailureThreshold: cfg.Catalog.BreakerFailures,
		Timeout:          cfg.Catalog.BreakerTimeout,
	}, logger)

	a.Matches = matching.NewService(a.Swipes, a.Groups, a.MatchCache, cfg.Match.GroupThreshold, logger)
	a.Taste = taste.NewService(a.Swipes, a.Profiles, a.TasteCache, taste.Options{
		PenalizeNope: cfg.Taste.PenalizeNope,
	}, cfg.Taste.RefreshEvery, logger)
	a.Recommend = recommend.New(recommend.Deps{
		Profiles:  a.Taste,
		Groups:    a.Groups,
		Matches:   a.Matches,
		Catalog:   a.Catalog,
		Platforms: a.Preferences,
		Warnings:  a.Preferences,
	}, a.RecommendCache, logger)

	return a
}

// NewStore picks the cache backend named by cfg.Cache.Backend.
// A Redis backend is pinged before it is returned.
func NewStore(ctx context.Context, cfg *config.Config) (cache.Store, error) {
	switch cfg.Cache.Backend {
	case "", "memory":
		return cache.NewMemoryStore(), nil
	case "redis":
		rs := cache.NewRedisStore(cfg)
		if err := rs.Ping(ctx); err != nil {
			_ = rs.Close()
			return nil, fmt.Errorf("redis at %s: %w", cfg.Redis.Addr, err)
		}
		return rs, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

// Invalidate drops cached matches and recommendations derived from owners.
// It returns how many entries went.
func (a *AppContext) Invalidate(ctx context.Context, owners ...cache.Owner) (int, error) {
	total := 0
	for _, o := range owners {
		for _, c := range []*cache.Cache{a.MatchCache, a.RecommendCache} {
			n, err := c.Invalidate(ctx, o)
			total += n
			if err != nil {
				return total, err
			}
		}
	}
	return total, nil
}
