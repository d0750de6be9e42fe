package recommend_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/moviease/internal/cache"
	"github.com/oggyb/moviease/internal/logger"
	"github.com/oggyb/moviease/internal/model"
	"github.com/oggyb/moviease/internal/recommend"
)

var errNotFound = errors.New("not found")

type fakeProfiles struct {
	mu       sync.Mutex
	profiles map[string]model.TasteProfile
	fail     error
}

func (f *fakeProfiles) Profile(_ context.Context, userID string, _ bool) (model.TasteProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return model.TasteProfile{}, f.fail
	}
	if p, ok := f.profiles[userID]; ok {
		return p, nil
	}
	return model.EmptyProfile(userID), nil
}

type fakeGroups map[string]model.Group

func (f fakeGroups) Group(_ context.Context, id string) (model.Group, error) {
	g, ok := f[id]
	if !ok {
		return model.Group{}, errNotFound
	}
	return g, nil
}

type fakeMatches struct {
	count int
}

func (f *fakeMatches) CoupleMatches(_ context.Context, id string) (model.PairResult, error) {
	return model.PairResult{CoupleID: id, Matches: make([]model.PairMatch, f.count)}, nil
}

type fakeCatalog struct {
	mu          sync.Mutex
	movies      []model.Movie
	popular     []model.Movie
	discoverErr error
	queries     []model.Query
	popularHits int
}

func (f *fakeCatalog) Discover(_ context.Context, q model.Query) ([]model.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.discoverErr != nil {
		return nil, f.discoverErr
	}
	out := make([]model.Movie, 0)
	for _, m := range f.movies {
		if hasAny(m.Genres, q.GenreIDs) && m.VoteAverage >= q.MinRating {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeCatalog) Popular(_ context.Context, limit int) ([]model.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.popularHits++
	if len(f.popular) > limit {
		return f.popular[:limit], nil
	}
	return f.popular, nil
}

func hasAny(genres, want []int) bool {
	for _, g := range genres {
		for _, w := range want {
			if g == w {
				return true
			}
		}
	}
	return false
}

// fakeFilter drops the listed movies for everyone and records who asked.
type fakeFilter struct {
	mu    sync.Mutex
	drop  map[int64]bool
	users [][]string
	fail  error
}

func (f *fakeFilter) apply(userIDs []string, movies []model.Movie) ([]model.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = append(f.users, userIDs)
	if f.fail != nil {
		return nil, f.fail
	}
	out := make([]model.Movie, 0, len(movies))
	for _, m := range movies {
		if !f.drop[m.ID] {
			out = append(out, m)
		}
	}
	return out, nil
}

type platformFilter struct{ *fakeFilter }

func (p platformFilter) FilterByPlatforms(_ context.Context, userIDs []string, movies []model.Movie) ([]model.Movie, error) {
	return p.apply(userIDs, movies)
}

type warningFilter struct{ *fakeFilter }

func (w warningFilter) FilterBlocked(_ context.Context, userIDs []string, movies []model.Movie) ([]model.Movie, error) {
	return w.apply(userIDs, movies)
}

type fixture struct {
	orch      *recommend.Orchestrator
	profiles  *fakeProfiles
	catalog   *fakeCatalog
	platforms *fakeFilter
	warnings  *fakeFilter
	matches   *fakeMatches
}

func setup(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		profiles: &fakeProfiles{profiles: map[string]model.TasteProfile{
			"alice": profile("alice", 8, model.GenreScore{ID: 28, Score: 10, Percentage: 60}, model.GenreScore{ID: 35, Score: 5, Percentage: 30}),
			"bob":   profile("bob", 7, model.GenreScore{ID: 35, Score: 8, Percentage: 70}),
		}},
		catalog: &fakeCatalog{
			movies: []model.Movie{
				{ID: 1, Title: "Heat", Genres: []int{28}, VoteAverage: 8.3},
				{ID: 2, Title: "Airplane!", Genres: []int{35}, VoteAverage: 7.7},
				{ID: 3, Title: "Cheap Action", Genres: []int{28}, VoteAverage: 5.1},
				{ID: 4, Title: "Hot Fuzz", Genres: []int{28, 35}, VoteAverage: 7.8},
			},
			popular: []model.Movie{
				{ID: 10, Title: "Popular A", VoteAverage: 7},
				{ID: 11, Title: "Popular B", VoteAverage: 7},
				{ID: 12, Title: "Popular C", VoteAverage: 7},
			},
		},
		platforms: &fakeFilter{},
		warnings:  &fakeFilter{},
		matches:   &fakeMatches{},
	}
	groups := fakeGroups{
		"c1": {ID: "c1", Kind: model.KindCouple, Members: []string{"alice", "bob"}},
		"r1": {ID: "r1", Kind: model.KindRoom, Members: []string{"alice", "bob", "carol"}},
		"n1": {ID: "n1", Kind: model.KindMovieNight, Members: []string{"dave", "erin"}},
	}
	c := cache.New("recommend", cache.NewMemoryStore(), 30*time.Minute, logger.Discard())
	f.orch = recommend.New(recommend.Deps{
		Profiles:  f.profiles,
		Groups:    groups,
		Matches:   f.matches,
		Catalog:   f.catalog,
		Platforms: platformFilter{f.platforms},
		Warnings:  warningFilter{f.warnings},
	}, c, logger.Discard())
	return f
}

func ids(movies []model.Movie) []int64 {
	out := make([]int64, 0, len(movies))
	for _, m := range movies {
		out = append(out, m.ID)
	}
	return out
}

func TestPersonalRecommendations(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	rec, err := f.orch.Personal(ctx, "alice", 10)
	require.NoError(t, err)
	assert.False(t, rec.Fallback)
	assert.Equal(t, []int64{1, 2, 4}, ids(rec.Movies))
	require.NotNil(t, rec.Query)
	assert.Equal(t, []int{28, 35}, rec.Query.GenreIDs)
	assert.Equal(t, 10, rec.Query.Limit)
	assert.Equal(t, 30, f.catalog.queries[0].Limit)
	assert.Equal(t, [][]string{{"alice"}}, f.warnings.users)
}

func TestEmptyProfileGetsPopular(t *testing.T) {
	f := setup(t)

	rec, err := f.orch.Personal(context.Background(), "newcomer", 2)
	require.NoError(t, err)
	assert.True(t, rec.Fallback)
	assert.Nil(t, rec.Query)
	assert.Equal(t, []int64{10, 11}, ids(rec.Movies))
	assert.Empty(t, f.catalog.queries)
}

func TestResultsAreFilteredAndTruncated(t *testing.T) {
	f := setup(t)
	f.platforms.drop = map[int64]bool{1: true}
	f.warnings.drop = map[int64]bool{2: true}

	rec, err := f.orch.Personal(context.Background(), "alice", 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{4}, ids(rec.Movies))
}

func TestEverythingFilteredFallsBackToPopular(t *testing.T) {
	f := setup(t)
	f.warnings.drop = map[int64]bool{1: true, 2: true, 4: true, 11: true}

	rec, err := f.orch.Personal(context.Background(), "alice", 5)
	require.NoError(t, err)
	assert.True(t, rec.Fallback)
	assert.Equal(t, []int64{10, 12}, ids(rec.Movies))
}

func TestCatalogFailureFallsBackAndIsNotCached(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.catalog.discoverErr = errors.New("catalog down")

	rec, err := f.orch.Personal(ctx, "alice", 10)
	require.NoError(t, err)
	assert.True(t, rec.Fallback)
	assert.Equal(t, []int64{10, 11, 12}, ids(rec.Movies))

	f.catalog.discoverErr = nil
	rec, err = f.orch.Personal(ctx, "alice", 10)
	require.NoError(t, err)
	assert.False(t, rec.Fallback)
}

func TestWarningFilterFailureShowsNothing(t *testing.T) {
	f := setup(t)
	f.warnings.fail = errors.New("db gone")

	rec, err := f.orch.Personal(context.Background(), "alice", 10)
	require.NoError(t, err)
	assert.Empty(t, rec.Movies)
	assert.NotNil(t, rec.Movies)
}

func TestProfileFailureDegradesToPopular(t *testing.T) {
	f := setup(t)
	f.profiles.fail = errors.New("profiles down")

	rec, err := f.orch.Personal(context.Background(), "alice", 10)
	require.NoError(t, err)
	assert.True(t, rec.Fallback)
}

func TestRecommendationsAreCachedPerLimit(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.orch.Personal(ctx, "alice", 10)
	require.NoError(t, err)
	_, err = f.orch.Personal(ctx, "alice", 10)
	require.NoError(t, err)
	assert.Len(t, f.catalog.queries, 1)

	_, err = f.orch.Personal(ctx, "alice", 5)
	require.NoError(t, err)
	assert.Len(t, f.catalog.queries, 2)

	require.NoError(t, f.orch.Invalidate(ctx, cache.User("alice")))
	_, err = f.orch.Personal(ctx, "alice", 10)
	require.NoError(t, err)
	assert.Len(t, f.catalog.queries, 3)
}

func TestCoupleRecommendations(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	rec, err := f.orch.Couple(ctx, "c1", 10)
	require.NoError(t, err)
	require.NotNil(t, rec.Query)
	assert.Equal(t, []int{35}, rec.Query.GenreIDs)
	assert.InDelta(t, 6.5, rec.Query.MinRating, 1e-9)
	assert.Equal(t, []int64{2, 4}, ids(rec.Movies))
	assert.Equal(t, []string{"alice", "bob"}, f.platforms.users[0])

	f.matches.count = 3
	require.NoError(t, f.orch.Invalidate(ctx, cache.Couple("c1")))
	rec, err = f.orch.Couple(ctx, "c1", 10)
	require.NoError(t, err)
	assert.InDelta(t, 7.0, rec.Query.MinRating, 1e-9)
}

func TestCoupleRejectsOtherGroups(t *testing.T) {
	f := setup(t)

	_, err := f.orch.Couple(context.Background(), "r1", 10)
	assert.ErrorIs(t, err, recommend.ErrNotCouple)

	_, err = f.orch.Couple(context.Background(), "missing", 10)
	assert.ErrorIs(t, err, errNotFound)
}

func TestGroupRecommendations(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	rec, err := f.orch.Group(ctx, "r1", 10)
	require.NoError(t, err)
	require.NotNil(t, rec.Query)
	assert.Equal(t, []int{35, 28}, rec.Query.GenreIDs)
	assert.Equal(t, 200, rec.Query.MinVoteCount)
	assert.Equal(t, []string{"alice", "bob", "carol"}, f.warnings.users[0])

	// nobody in n1 has swiped
	rec, err = f.orch.Group(ctx, "n1", 10)
	require.NoError(t, err)
	assert.True(t, rec.Fallback)

	_, err = f.orch.Group(ctx, "missing", 10)
	assert.ErrorIs(t, err, errNotFound)
}

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, recommend.DefaultLimit, recommend.NormalizeLimit(0))
	assert.Equal(t, recommend.DefaultLimit, recommend.NormalizeLimit(-3))
	assert.Equal(t, 7, recommend.NormalizeLimit(7))
	assert.Equal(t, recommend.MaxLimit, recommend.NormalizeLimit(1000))
}
