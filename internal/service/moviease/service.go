package moviease

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/oggyb/moviease/internal/app"
	"github.com/oggyb/moviease/internal/cache"
	svcErr "github.com/oggyb/moviease/internal/errors"
	"github.com/oggyb/moviease/internal/matching"
	"github.com/oggyb/moviease/internal/model"
	"github.com/oggyb/moviease/internal/scoring"
)

const defaultPageSize = 20

// Service implements the MatchService gRPC API on top of the match,
// taste and recommendation services held by AppContext.
type Service struct {
	appCtx   *app.AppContext
	validate *validator.Validate
}

// NewMatchService creates the service with dependencies from AppContext.
func NewMatchService(appCtx *app.AppContext) *Service {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return &Service{appCtx: appCtx, validate: v}
}

func (s *Service) check(req any) error {
	if err := s.validate.Struct(req); err != nil {
		return svcErr.Map(err)
	}
	return nil
}

// RecordSwipe stores a swipe and drops every cached result derived from the
// swiping user: their recommendations and those of each couple, room and
// movie night they belong to. Every few swipes the taste profile is dropped
// too so it gets rebuilt.
//
// A swipe without a genre snapshot takes it from the catalog when the movie
// is known there.
func (s *Service) RecordSwipe(ctx context.Context, req *RecordSwipeRequest) (*RecordSwipeResponse, error) {
	s.appCtx.Logger.Debug("RecordSwipe called", "user", req.UserID, "movie", req.MovieID, "action", req.Action)
	if err := s.check(req); err != nil {
		return nil, err
	}
	action, err := scoring.Parse(req.Action)
	if err != nil {
		return nil, svcErr.InvalidArgument(err.Error())
	}

	rec := model.SwipeRecord{
		MovieID:     req.MovieID,
		Action:      action,
		Genres:      req.Genres,
		Rating:      req.Rating,
		ReleaseDate: req.ReleaseDate,
	}
	if len(rec.Genres) == 0 {
		s.fillSnapshot(ctx, &rec)
	}

	if err := s.appCtx.Swipes.Append(ctx, req.UserID, rec); err != nil {
		s.appCtx.Logger.Error("Append swipe failed", "user", req.UserID, "err", err)
		return nil, svcErr.Map(err)
	}

	n, err := s.invalidateUser(ctx, req.UserID)
	if err != nil {
		// the swipe is stored; stale entries expire with their TTL
		s.appCtx.Logger.Warn("cache invalidation after swipe failed", "user", req.UserID, "err", err)
	}
	refreshed := s.appCtx.Taste.NoteSwipe(ctx, req.UserID)

	return &RecordSwipeResponse{Swipe: rec, Invalidated: n, ProfileRefreshed: refreshed}, nil
}

func (s *Service) fillSnapshot(ctx context.Context, rec *model.SwipeRecord) {
	m, err := s.appCtx.Movies.Movie(ctx, rec.MovieID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.appCtx.Logger.Warn("catalog lookup for swipe failed", "movie", rec.MovieID, "err", err)
		}
		return
	}
	rec.Genres = m.Genres
	if rec.Rating == 0 {
		rec.Rating = m.VoteAverage
	}
	if rec.ReleaseDate == "" {
		rec.ReleaseDate = m.ReleaseDate
	}
}

// ListSwipes returns a page of the user's swipes, newest first.
func (s *Service) ListSwipes(ctx context.Context, req *ListSwipesRequest) (*ListSwipesResponse, error) {
	s.appCtx.Logger.Debug("ListSwipes called", "user", req.UserID, "has_token", req.PaginationToken != nil)
	if err := s.check(req); err != nil {
		return nil, err
	}
	limit := req.Limit
	if limit == 0 {
		limit = defaultPageSize
	}

	swipes, next, err := s.appCtx.Swipes.ListPage(ctx, req.UserID, req.PaginationToken, limit)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &ListSwipesResponse{Swipes: swipes, NextPaginationToken: next}, nil
}

// CreateGroup registers a couple, room or movie night. Couples have
// exactly two members.
func (s *Service) CreateGroup(ctx context.Context, req *CreateGroupRequest) (*model.Group, error) {
	s.appCtx.Logger.Debug("CreateGroup called", "kind", req.Kind, "members", len(req.Members))
	if err := s.check(req); err != nil {
		return nil, err
	}
	kind := model.GroupKind(req.Kind)
	if kind == model.KindCouple && len(req.Members) != 2 {
		return nil, svcErr.InvalidArgument("a couple has exactly two members")
	}

	g, err := s.appCtx.Groups.Create(ctx, kind, req.Name, req.Members)
	if err != nil {
		s.appCtx.Logger.Error("Create group failed", "kind", kind, "err", err)
		return nil, svcErr.Map(err)
	}
	return &g, nil
}

// GetCoupleMatches returns the movies both partners liked and their
// compatibility.
func (s *Service) GetCoupleMatches(ctx context.Context, req *GroupRequest) (*model.PairResult, error) {
	s.appCtx.Logger.Debug("GetCoupleMatches called", "couple", req.GroupID)
	if err := s.check(req); err != nil {
		return nil, err
	}
	res, err := s.appCtx.Matches.CoupleMatches(ctx, req.GroupID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &res, nil
}

// GetGroupMatches returns a room's or movie night's matches.
func (s *Service) GetGroupMatches(ctx context.Context, req *GroupRequest) (*model.GroupResult, error) {
	s.appCtx.Logger.Debug("GetGroupMatches called", "group", req.GroupID)
	if err := s.check(req); err != nil {
		return nil, err
	}
	res, err := s.appCtx.Matches.GroupMatches(ctx, req.GroupID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &res, nil
}

// GetTasteProfile returns the user's taste profile, rebuilt from scratch
// when Refresh is set.
func (s *Service) GetTasteProfile(ctx context.Context, req *TasteProfileRequest) (*model.TasteProfile, error) {
	s.appCtx.Logger.Debug("GetTasteProfile called", "user", req.UserID, "refresh", req.Refresh)
	if err := s.check(req); err != nil {
		return nil, err
	}
	p, err := s.appCtx.Taste.Profile(ctx, req.UserID, req.Refresh)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &p, nil
}

// GetRecommendations recommends movies for a user, a couple or a group.
// Missing data never fails the call; it falls back to popular movies.
func (s *Service) GetRecommendations(ctx context.Context, req *RecommendationsRequest) (*model.Recommendations, error) {
	s.appCtx.Logger.Debug("GetRecommendations called", "kind", req.Kind, "id", req.ID, "limit", req.Limit)
	if err := s.check(req); err != nil {
		return nil, err
	}

	var (
		rec model.Recommendations
		err error
	)
	switch req.Kind {
	case "personal":
		rec, err = s.appCtx.Recommend.Personal(ctx, req.ID, req.Limit)
	case "couple":
		rec, err = s.appCtx.Recommend.Couple(ctx, req.ID, req.Limit)
	default:
		rec, err = s.appCtx.Recommend.Group(ctx, req.ID, req.Limit)
	}
	if err != nil {
		return nil, svcErr.Map(err)
	}

	s.appCtx.Logger.Debug("GetRecommendations result", "kind", req.Kind, "id", req.ID, "movies", len(rec.Movies), "fallback", rec.Fallback)
	return &rec, nil
}

// SetPreferences replaces a user's streaming platforms and content-warning
// triggers. Recommendations derived from the old settings are dropped.
func (s *Service) SetPreferences(ctx context.Context, req *SetPreferencesRequest) (*SetPreferencesResponse, error) {
	s.appCtx.Logger.Debug("SetPreferences called", "user", req.UserID, "platforms", len(req.Platforms), "triggers", len(req.Triggers))
	if err := s.check(req); err != nil {
		return nil, err
	}
	if err := s.appCtx.Preferences.SetPlatforms(ctx, req.UserID, req.Platforms); err != nil {
		return nil, svcErr.Map(err)
	}
	if err := s.appCtx.Preferences.SetTriggers(ctx, req.UserID, req.Triggers); err != nil {
		return nil, svcErr.Map(err)
	}

	n, err := s.invalidateUser(ctx, req.UserID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &SetPreferencesResponse{Invalidated: n}, nil
}

// Invalidate drops cached results of a user (with their groups and taste
// profile) or of one group.
func (s *Service) Invalidate(ctx context.Context, req *InvalidateRequest) (*InvalidateResponse, error) {
	s.appCtx.Logger.Debug("Invalidate called", "user", req.UserID, "group", req.GroupID)
	if err := s.check(req); err != nil {
		return nil, err
	}

	if req.GroupID != "" {
		g, err := s.appCtx.Groups.Group(ctx, req.GroupID)
		if err != nil {
			return nil, svcErr.Map(err)
		}
		n, err := s.appCtx.Invalidate(ctx, matching.OwnerFor(g))
		if err != nil {
			return nil, svcErr.Map(err)
		}
		return &InvalidateResponse{Invalidated: n}, nil
	}

	n, err := s.invalidateUser(ctx, req.UserID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if err := s.appCtx.Taste.Invalidate(ctx, req.UserID); err != nil {
		return nil, svcErr.Map(err)
	}
	return &InvalidateResponse{Invalidated: n}, nil
}

// invalidateUser drops the user's cached results and those of every group
// the user belongs to.
func (s *Service) invalidateUser(ctx context.Context, userID string) (int, error) {
	owners := []cache.Owner{cache.User(userID)}
	groups, err := s.appCtx.Groups.GroupsForUser(ctx, userID)
	if err != nil {
		s.appCtx.Logger.Warn("listing groups of user failed", "user", userID, "err", err)
	}
	for _, g := range groups {
		owners = append(owners, matching.OwnerFor(g))
	}
	n, ierr := s.appCtx.Invalidate(ctx, owners...)
	return n, errors.Join(err, ierr)
}
