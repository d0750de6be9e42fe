// Package recommend turns taste profiles into catalog queries for one user,
// a couple or a group, and filters the results by what everyone can watch.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/oggyb/moviease/internal/cache"
	"github.com/oggyb/moviease/internal/matching"
	"github.com/oggyb/moviease/internal/model"
)

// ErrNotCouple is returned by Couple for groups of any other kind.
var ErrNotCouple = matching.ErrNotCouple

// ProfileSource yields taste profiles.
type ProfileSource interface {
	Profile(ctx context.Context, userID string, force bool) (model.TasteProfile, error)
}

// MembershipStore resolves groups.
type MembershipStore interface {
	Group(ctx context.Context, groupID string) (model.Group, error)
}

// MatchSource reports a couple's mutual matches.
type MatchSource interface {
	CoupleMatches(ctx context.Context, coupleID string) (model.PairResult, error)
}

// Catalog is the movie source. Implementations may be remote.
type Catalog interface {
	Discover(ctx context.Context, q model.Query) ([]model.Movie, error)
	Popular(ctx context.Context, limit int) ([]model.Movie, error)
}

type PlatformFilter interface {
	FilterByPlatforms(ctx context.Context, userIDs []string, movies []model.Movie) ([]model.Movie, error)
}

type ContentWarningFilter interface {
	FilterBlocked(ctx context.Context, userIDs []string, movies []model.Movie) ([]model.Movie, error)
}

// Deps are the orchestrator's collaborators. Platforms and Warnings may be nil.
type Deps struct {
	Profiles  ProfileSource
	Groups    MembershipStore
	Matches   MatchSource
	Catalog   Catalog
	Platforms PlatformFilter
	Warnings  ContentWarningFilter
}

const (
	DefaultLimit = 20
	MaxLimit     = 100
	// overfetch leaves room for the post filters.
	overfetch = 3
)

const (
	purposePersonal = "personal"
	purposeCouple   = "couple"
	purposeRoom     = "room"
	purposeGroup    = "group"
)

// Orchestrator builds recommendations. Failures of profiles, the catalog or
// the filters degrade to popular movies; only unknown groups are errors.
type Orchestrator struct {
	deps  Deps
	cache *cache.Cache
	log   *slog.Logger
}

func New(deps Deps, c *cache.Cache, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{deps: deps, cache: c, log: log.With("service", "recommend")}
}

// NormalizeLimit clamps a requested page size.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Personal recommends movies for one user.
func (o *Orchestrator) Personal(ctx context.Context, userID string, limit int) (model.Recommendations, error) {
	limit = NormalizeLimit(limit)
	key := cache.Key{Purpose: purposePersonal, Owner: cache.User(userID), Limit: limit}
	return o.fetch(ctx, key, func(r *request) model.Recommendations {
		q, ok := PersonalQuery(r.profile(userID))
		return r.run([]string{userID}, q, ok, limit)
	})
}

// Couple recommends movies for a couple, leaning on their shared genres.
func (o *Orchestrator) Couple(ctx context.Context, coupleID string, limit int) (model.Recommendations, error) {
	g, err := o.deps.Groups.Group(ctx, coupleID)
	if err != nil {
		return model.Recommendations{}, err
	}
	if g.Kind != model.KindCouple || len(g.Members) != 2 {
		return model.Recommendations{}, fmt.Errorf("%s: %w", coupleID, ErrNotCouple)
	}

	limit = NormalizeLimit(limit)
	key := cache.Key{Purpose: purposeCouple, Owner: matching.OwnerFor(g), Limit: limit}
	return o.fetch(ctx, key, func(r *request) model.Recommendations {
		a := r.profile(g.Members[0])
		b := r.profile(g.Members[1])
		q, ok := CoupleQuery(a, b, r.mutualMatches(coupleID))
		return r.run(g.Members, q, ok, limit)
	})
}

// Group recommends movies for a room or movie night from every member's
// profile. Couples are accepted too and treated as a two-member group.
func (o *Orchestrator) Group(ctx context.Context, groupID string, limit int) (model.Recommendations, error) {
	g, err := o.deps.Groups.Group(ctx, groupID)
	if err != nil {
		return model.Recommendations{}, err
	}

	limit = NormalizeLimit(limit)
	purpose := purposeGroup
	if g.Kind == model.KindRoom {
		purpose = purposeRoom
	}
	key := cache.Key{Purpose: purpose, Owner: matching.OwnerFor(g), Limit: limit}
	return o.fetch(ctx, key, func(r *request) model.Recommendations {
		profiles := make([]model.TasteProfile, 0, len(g.Members))
		for _, uid := range g.Members {
			profiles = append(profiles, r.profile(uid))
		}
		q, ok := GroupQuery(profiles)
		return r.run(g.Members, q, ok, limit)
	})
}

// Invalidate drops cached recommendations derived from owner.
func (o *Orchestrator) Invalidate(ctx context.Context, owner cache.Owner) error {
	_, err := o.cache.Invalidate(ctx, owner)
	return err
}

// degraded carries a result built while a collaborator was failing. It
// travels as an error so the cache does not keep it.
type degraded struct {
	rec model.Recommendations
}

func (d *degraded) Error() string { return "recommendations degraded" }

func (o *Orchestrator) fetch(ctx context.Context, key cache.Key, build func(r *request) model.Recommendations) (model.Recommendations, error) {
	rec, err := cache.Fetch(ctx, o.cache, key, func(ctx context.Context) (model.Recommendations, error) {
		r := &request{o: o, ctx: ctx}
		rec := build(r)
		if r.degraded {
			return model.Recommendations{}, &degraded{rec: rec}
		}
		return rec, nil
	})
	var d *degraded
	if errors.As(err, &d) {
		return d.rec, nil
	}
	return rec, err
}

// request is one uncached computation. Any collaborator failure marks it
// degraded.
type request struct {
	o        *Orchestrator
	ctx      context.Context
	degraded bool
}

func (r *request) fail(msg string, args ...any) {
	r.degraded = true
	r.o.log.Warn(msg, args...)
}

func (r *request) profile(userID string) model.TasteProfile {
	p, err := r.o.deps.Profiles.Profile(r.ctx, userID, false)
	if err != nil {
		r.fail("taste profile unavailable, treating as empty", "user", userID, "err", err)
		return model.EmptyProfile(userID)
	}
	return p
}

func (r *request) mutualMatches(coupleID string) int {
	if r.o.deps.Matches == nil {
		return 0
	}
	res, err := r.o.deps.Matches.CoupleMatches(r.ctx, coupleID)
	if err != nil {
		r.fail("couple matches unavailable", "couple", coupleID, "err", err)
		return 0
	}
	return len(res.Matches)
}

func (r *request) run(userIDs []string, q model.Query, ok bool, limit int) model.Recommendations {
	if !ok {
		return r.popular(userIDs, limit)
	}

	q.Limit = limit * overfetch
	movies, err := r.o.deps.Catalog.Discover(r.ctx, q)
	if err != nil {
		r.fail("catalog discover failed, falling back to popular", "genres", q.GenreIDs, "err", err)
		return r.popular(userIDs, limit)
	}

	movies = r.filter(userIDs, movies)
	if len(movies) == 0 {
		r.o.log.Debug("no movies left after filtering, falling back to popular", "users", userIDs)
		return r.popular(userIDs, limit)
	}

	q.Limit = limit
	return model.Recommendations{Movies: truncate(movies, limit), Query: &q}
}

func (r *request) popular(userIDs []string, limit int) model.Recommendations {
	movies, err := r.o.deps.Catalog.Popular(r.ctx, limit*overfetch)
	if err != nil {
		r.fail("popular movies unavailable", "err", err)
	}
	movies = r.filter(userIDs, movies)
	return model.Recommendations{Movies: truncate(movies, limit), Fallback: true}
}

// filter applies platform then content-warning filters. A failing platform
// filter leaves the list as is; a failing warning filter empties it, since
// blocked content must never be shown.
func (r *request) filter(userIDs []string, movies []model.Movie) []model.Movie {
	if len(movies) == 0 {
		return []model.Movie{}
	}
	if f := r.o.deps.Platforms; f != nil {
		kept, err := f.FilterByPlatforms(r.ctx, userIDs, movies)
		if err != nil {
			r.fail("platform filter failed, skipping", "err", err)
		} else {
			movies = kept
		}
	}
	if f := r.o.deps.Warnings; f != nil {
		kept, err := f.FilterBlocked(r.ctx, userIDs, movies)
		if err != nil {
			r.fail("content warning filter failed, dropping results", "err", err)
			return []model.Movie{}
		}
		movies = kept
	}
	return movies
}

func truncate(movies []model.Movie, limit int) []model.Movie {
	if movies == nil {
		return []model.Movie{}
	}
	if len(movies) > limit {
		return movies[:limit]
	}
	return movies
}
