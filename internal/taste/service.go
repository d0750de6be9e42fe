package taste

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oggyb/moviease/internal/cache"
	"github.com/oggyb/moviease/internal/model"
)

const purposeProfile = "taste"

// SwipeStore reads swipe histories.
type SwipeStore interface {
	History(ctx context.Context, userID string) ([]model.SwipeRecord, error)
}

// ProfileStore persists computed profiles.
type ProfileStore interface {
	Load(ctx context.Context, userID string) (model.TasteProfile, time.Time, bool, error)
	Save(ctx context.Context, p model.TasteProfile) error
	Delete(ctx context.Context, userID string) error
}

// Service serves taste profiles from memory, then from the persisted copy,
// and only rebuilds them from the swipe history when both are missing or
// older than the cache TTL.
type Service struct {
	swipes       SwipeStore
	store        ProfileStore
	cache        *cache.Cache
	opts         Options
	refreshEvery int
	log          *slog.Logger

	mu      sync.Mutex
	pending map[string]int
}

// NewService wires a profile service. After refreshEvery swipes a user's
// profile is dropped so the next read rebuilds it; 0 disables that.
func NewService(swipes SwipeStore, store ProfileStore, c *cache.Cache, opts Options, refreshEvery int, log *slog.Logger) *Service {
	return &Service{
		swipes:       swipes,
		store:        store,
		cache:        c,
		opts:         opts,
		refreshEvery: refreshEvery,
		log:          log.With("service", "taste"),
		pending:      make(map[string]int),
	}
}

func profileKey(userID string) cache.Key {
	return cache.Key{Purpose: purposeProfile, Owner: cache.User(userID)}
}

// Profile returns userID's taste profile. force skips both the memory cache
// and the persisted copy.
func (s *Service) Profile(ctx context.Context, userID string, force bool) (model.TasteProfile, error) {
	if force {
		// The stored row stays until the rebuild overwrites it, so a failed
		// history read leaves the previous profile in place.
		if _, err := s.cache.Invalidate(ctx, cache.User(userID)); err != nil {
			s.log.Warn("dropping cached profile before refresh failed", "user", userID, "err", err)
		}
		return cache.Fetch(ctx, s.cache, profileKey(userID), func(ctx context.Context) (model.TasteProfile, error) {
			return s.rebuild(ctx, userID)
		})
	}

	return cache.Fetch(ctx, s.cache, profileKey(userID), func(ctx context.Context) (model.TasteProfile, error) {
		p, savedAt, ok, err := s.store.Load(ctx, userID)
		if err != nil {
			s.log.Warn("loading stored profile failed", "user", userID, "err", err)
		} else if ok && time.Since(savedAt) < s.cache.TTL() {
			return p, nil
		}
		return s.rebuild(ctx, userID)
	})
}

func (s *Service) rebuild(ctx context.Context, userID string) (model.TasteProfile, error) {
	history, err := s.swipes.History(ctx, userID)
	if err != nil {
		return model.TasteProfile{}, fmt.Errorf("history of %s: %w", userID, err)
	}
	p := Build(userID, history, s.opts)
	if err := s.store.Save(ctx, p); err != nil {
		s.log.Warn("persisting profile failed", "user", userID, "err", err)
	}
	s.log.Debug("profile rebuilt", "user", userID, "swipes", p.TotalSwipes, "top_genres", len(p.TopGenres))
	return p, nil
}

// NoteSwipe counts a swipe by userID and drops the profile once enough
// swipes have piled up. It reports whether the profile was dropped.
func (s *Service) NoteSwipe(ctx context.Context, userID string) bool {
	if s.refreshEvery <= 0 {
		return false
	}
	s.mu.Lock()
	s.pending[userID]++
	due := s.pending[userID] >= s.refreshEvery
	if due {
		delete(s.pending, userID)
	}
	s.mu.Unlock()

	if !due {
		return false
	}
	if err := s.Invalidate(ctx, userID); err != nil {
		s.log.Warn("dropping stale profile failed", "user", userID, "err", err)
	}
	return true
}

// Invalidate drops the cached and persisted profile of userID.
func (s *Service) Invalidate(ctx context.Context, userID string) error {
	if _, err := s.cache.Invalidate(ctx, cache.User(userID)); err != nil {
		return err
	}
	return s.store.Delete(ctx, userID)
}
