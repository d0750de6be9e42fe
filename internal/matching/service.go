package matching

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oggyb/moviease/internal/cache"
	"github.com/oggyb/moviease/internal/model"
)

// ErrNotCouple is returned when pair matching is asked of a group that is
// not a two-member couple.
var ErrNotCouple = errors.New("group is not a couple")

// SwipeStore reads swipe histories.
type SwipeStore interface {
	History(ctx context.Context, userID string) ([]model.SwipeRecord, error)
}

// MembershipStore resolves groups and keeps their last computed matches.
type MembershipStore interface {
	Group(ctx context.Context, groupID string) (model.Group, error)
	SavePairMatches(ctx context.Context, groupID string, matches []model.PairMatch, compatibility int) error
	SaveGroupMatches(ctx context.Context, groupID string, matches []model.GroupMatch) error
	SharedPairMatches(ctx context.Context, groupID string) ([]model.PairMatch, int, error)
	SharedGroupMatches(ctx context.Context, groupID string) ([]model.GroupMatch, error)
}

const (
	purposePairMatches  = "pair_matches"
	purposeGroupMatches = "group_matches"
)

// Service computes, caches and persists couple and group matches.
type Service struct {
	swipes SwipeStore
	groups MembershipStore
	cache  *cache.Cache
	loose  Policy
	log    *slog.Logger
}

// NewService wires a match service. groupThreshold is the movie night
// policy; rooms always require every member.
func NewService(swipes SwipeStore, groups MembershipStore, c *cache.Cache, groupThreshold int, log *slog.Logger) *Service {
	if groupThreshold < 2 {
		groupThreshold = 2
	}
	return &Service{
		swipes: swipes,
		groups: groups,
		cache:  c,
		loose:  Policy{MinParticipants: groupThreshold},
		log:    log.With("service", "matching"),
	}
}

// PolicyFor returns the match policy of a group kind.
func (s *Service) PolicyFor(kind model.GroupKind) Policy {
	if kind == model.KindMovieNight {
		return s.loose
	}
	return Unanimous
}

// OwnerFor maps a group to its cache owner.
func OwnerFor(g model.Group) cache.Owner {
	switch g.Kind {
	case model.KindCouple:
		return cache.Couple(g.ID)
	case model.KindRoom:
		return cache.Room(g.ID)
	default:
		return cache.Group(g.ID)
	}
}

// CoupleMatches returns a couple's matches and compatibility. Results are
// cached until either partner swipes, and written through to the membership
// store. When histories cannot be read the stored copy is returned.
func (s *Service) CoupleMatches(ctx context.Context, coupleID string) (model.PairResult, error) {
	g, err := s.groups.Group(ctx, coupleID)
	if err != nil {
		return model.PairResult{}, err
	}
	if g.Kind != model.KindCouple || len(g.Members) != 2 {
		return model.PairResult{}, fmt.Errorf("%s: %w", coupleID, ErrNotCouple)
	}

	key := cache.Key{Purpose: purposePairMatches, Owner: OwnerFor(g)}
	res, err := cache.Fetch(ctx, s.cache, key, func(ctx context.Context) (model.PairResult, error) {
		return s.computePair(ctx, g)
	})
	if err == nil {
		return res, nil
	}

	s.log.Warn("pair match computation failed, serving stored copy", "couple", coupleID, "err", err)
	stored, compat, serr := s.groups.SharedPairMatches(ctx, coupleID)
	if serr != nil {
		return model.PairResult{}, errors.Join(err, serr)
	}
	return model.PairResult{
		CoupleID:      coupleID,
		UserA:         g.Members[0],
		UserB:         g.Members[1],
		Matches:       stored,
		Compatibility: compat,
		Stale:         true,
	}, nil
}

func (s *Service) computePair(ctx context.Context, g model.Group) (model.PairResult, error) {
	a, b := g.Members[0], g.Members[1]
	histA, err := s.swipes.History(ctx, a)
	if err != nil {
		return model.PairResult{}, fmt.Errorf("history of %s: %w", a, err)
	}
	histB, err := s.swipes.History(ctx, b)
	if err != nil {
		return model.PairResult{}, fmt.Errorf("history of %s: %w", b, err)
	}

	matches := Pair(histA, histB)
	compat := Compatibility(len(matches), len(Positives(histA)), len(Positives(histB)))

	if err := s.groups.SavePairMatches(ctx, g.ID, matches, compat); err != nil {
		s.log.Warn("persisting pair matches failed", "couple", g.ID, "err", err)
	}
	s.log.Debug("pair matches computed", "couple", g.ID, "matches", len(matches), "compatibility", compat)

	return model.PairResult{
		CoupleID:      g.ID,
		UserA:         a,
		UserB:         b,
		Matches:       matches,
		Compatibility: compat,
		ComputedAt:    time.Now().UTC(),
	}, nil
}

// GroupMatches returns the matches of a room (every member must like a
// movie) or movie night (the configured threshold). Cached until a member swipes.
func (s *Service) GroupMatches(ctx context.Context, groupID string) (model.GroupResult, error) {
	g, err := s.groups.Group(ctx, groupID)
	if err != nil {
		return model.GroupResult{}, err
	}

	key := cache.Key{Purpose: purposeGroupMatches, Owner: OwnerFor(g)}
	res, err := cache.Fetch(ctx, s.cache, key, func(ctx context.Context) (model.GroupResult, error) {
		return s.computeGroup(ctx, g)
	})
	if err == nil {
		return res, nil
	}

	s.log.Warn("group match computation failed, serving stored copy", "group", groupID, "err", err)
	stored, serr := s.groups.SharedGroupMatches(ctx, groupID)
	if serr != nil {
		return model.GroupResult{}, errors.Join(err, serr)
	}
	return model.GroupResult{
		GroupID: groupID,
		Kind:    g.Kind,
		Members: g.Members,
		Matches: stored,
		Stale:   true,
	}, nil
}

func (s *Service) computeGroup(ctx context.Context, g model.Group) (model.GroupResult, error) {
	histories := make(map[string][]model.SwipeRecord, len(g.Members))
	for _, uid := range g.Members {
		h, err := s.swipes.History(ctx, uid)
		if err != nil {
			return model.GroupResult{}, fmt.Errorf("history of %s: %w", uid, err)
		}
		histories[uid] = h
	}

	matches := Group(histories, g.Members, s.PolicyFor(g.Kind))
	if err := s.groups.SaveGroupMatches(ctx, g.ID, matches); err != nil {
		s.log.Warn("persisting group matches failed", "group", g.ID, "err", err)
	}
	s.log.Debug("group matches computed", "group", g.ID, "kind", g.Kind, "members", len(g.Members), "matches", len(matches))

	return model.GroupResult{
		GroupID:    g.ID,
		Kind:       g.Kind,
		Members:    g.Members,
		Matches:    matches,
		ComputedAt: time.Now().UTC(),
	}, nil
}
