package recommend_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oggyb/moviease/internal/model"
	"github.com/oggyb/moviease/internal/recommend"
)

func profile(user string, avg float64, genres ...model.GenreScore) model.TasteProfile {
	return model.TasteProfile{UserID: user, TotalSwipes: 10, AvgRating: avg, TopGenres: genres}
}

func TestPersonalQuery(t *testing.T) {
	p := profile("u1", 8.2,
		model.GenreScore{ID: 28, Score: 12, Percentage: 60},
		model.GenreScore{ID: 35, Score: 8, Percentage: 40},
		model.GenreScore{ID: 18, Score: 3, Percentage: 10},
	)
	q, ok := recommend.PersonalQuery(p)
	assert.True(t, ok)
	assert.Equal(t, []int{28, 35}, q.GenreIDs)
	assert.InDelta(t, 7.2, q.MinRating, 1e-9)
	assert.Equal(t, 100, q.MinVoteCount)
	assert.Equal(t, model.SortPopularity, q.SortBy)

	low := profile("u2", 5, model.GenreScore{ID: 27, Score: 4})
	q, ok = recommend.PersonalQuery(low)
	assert.True(t, ok)
	assert.Equal(t, 6.0, q.MinRating)

	_, ok = recommend.PersonalQuery(model.EmptyProfile("u3"))
	assert.False(t, ok)
}

func TestCoupleQuery(t *testing.T) {
	a := profile("a", 8,
		model.GenreScore{ID: 28, Score: 10},
		model.GenreScore{ID: 35, Score: 6},
		model.GenreScore{ID: 18, Score: 2},
	)
	b := profile("b", 7,
		model.GenreScore{ID: 18, Score: 9},
		model.GenreScore{ID: 35, Score: 1},
		model.GenreScore{ID: 99, Score: 7},
	)

	t.Run("few matches", func(t *testing.T) {
		q, ok := recommend.CoupleQuery(a, b, 2)
		assert.True(t, ok)
		// 18: 2+9, 35: 6+1
		assert.Equal(t, []int{18, 35}, q.GenreIDs)
		assert.InDelta(t, 6.5, q.MinRating, 1e-9)
	})

	t.Run("trusted couple", func(t *testing.T) {
		q, ok := recommend.CoupleQuery(a, b, 3)
		assert.True(t, ok)
		assert.InDelta(t, 7.0, q.MinRating, 1e-9)

		hi := profile("c", 9, model.GenreScore{ID: 18, Score: 1})
		q, _ = recommend.CoupleQuery(hi, hi, 5)
		assert.InDelta(t, 8.5, q.MinRating, 1e-9)
	})

	t.Run("partner without ratings", func(t *testing.T) {
		noRating := profile("d", 0, model.GenreScore{ID: 28, Score: 3})
		q, ok := recommend.CoupleQuery(a, noRating, 0)
		assert.True(t, ok)
		assert.InDelta(t, 7.0, q.MinRating, 1e-9)
	})

	t.Run("no common genres", func(t *testing.T) {
		other := profile("e", 7, model.GenreScore{ID: 10402, Score: 5})
		_, ok := recommend.CoupleQuery(a, other, 10)
		assert.False(t, ok)
	})
}

func TestGroupQuery(t *testing.T) {
	profiles := []model.TasteProfile{
		profile("a", 8, model.GenreScore{ID: 28, Percentage: 50}, model.GenreScore{ID: 35, Percentage: 30}),
		profile("b", 6, model.GenreScore{ID: 35, Percentage: 40}, model.GenreScore{ID: 18, Percentage: 35}),
		profile("c", 0, model.GenreScore{ID: 27, Percentage: 20}, model.GenreScore{ID: 18, Percentage: 10}),
		model.EmptyProfile("d"),
	}
	q, ok := recommend.GroupQuery(profiles)
	assert.True(t, ok)
	// 35: 70, 28: 50, 18: 45, 27: 20
	assert.Equal(t, []int{35, 28, 18}, q.GenreIDs)
	assert.InDelta(t, 6.0, q.MinRating, 1e-9)
	assert.Equal(t, 200, q.MinVoteCount)

	_, ok = recommend.GroupQuery([]model.TasteProfile{model.EmptyProfile("x")})
	assert.False(t, ok)
}
