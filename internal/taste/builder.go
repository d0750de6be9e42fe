// Package taste turns a swipe history into a taste profile: favourite
// genres, average rating of liked movies and preferred decades.
package taste

import (
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/oggyb/moviease/internal/matching"
	"github.com/oggyb/moviease/internal/model"
	"github.com/oggyb/moviease/internal/scoring"
)

const (
	topGenreCount  = 5
	topDecadeCount = 3
)

// Options tune profile building.
type Options struct {
	// PenalizeNope makes a nope subtract from its genres.
	PenalizeNope bool
	// Now stamps LastUpdated; zero means time.Now.
	Now time.Time
}

type genreAcc struct {
	id    int
	name  string
	score int
	count int
}

// Build computes the profile of userID. An empty history gives
// model.EmptyProfile.
func Build(userID string, history []model.SwipeRecord, opts Options) model.TasteProfile {
	swipes := matching.Latest(history)
	if len(swipes) == 0 {
		return model.EmptyProfile(userID)
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	p := model.TasteProfile{
		UserID:      userID,
		TotalSwipes: len(swipes),
		LastUpdated: now.UTC(),
	}

	genres := make(map[int]*genreAcc)
	decades := make(map[int]int)
	var ratingSum float64

	for _, s := range swipes {
		if s.Action.Positive() {
			p.PositiveSwipes++
			ratingSum += s.Rating
			if y, ok := releaseYear(s.ReleaseDate); ok {
				decades[y/10*10]++
			}
		} else if s.Action == scoring.Nope {
			p.NegativeSwipes++
		}

		w := scoring.ProfileScore(s.Action, opts.PenalizeNope)
		for _, gid := range s.Genres {
			name, ok := GenreName(gid)
			if !ok {
				continue
			}
			g, ok := genres[gid]
			if !ok {
				g = &genreAcc{id: gid, name: name}
				genres[gid] = g
			}
			g.score += w
			if w > 0 {
				g.count++
			}
		}
	}

	p.LikeRate = round1(float64(p.PositiveSwipes) / float64(p.TotalSwipes) * 100)
	if p.PositiveSwipes > 0 {
		p.AvgRating = round1(ratingSum / float64(p.PositiveSwipes))
	}
	p.TopGenres = topGenres(genres, p.PositiveSwipes)
	p.PreferredDecades = topDecades(decades)
	return p
}

// topGenres ranks genres with a positive score. Percentage is the share of
// positive swipes the genre appeared in.
func topGenres(genres map[int]*genreAcc, positives int) []model.GenreScore {
	ranked := make([]*genreAcc, 0, len(genres))
	for _, g := range genres {
		if g.score > 0 {
			ranked = append(ranked, g)
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].name < ranked[j].name
	})
	if len(ranked) > topGenreCount {
		ranked = ranked[:topGenreCount]
	}

	out := make([]model.GenreScore, 0, len(ranked))
	for _, g := range ranked {
		pct := 0
		if positives > 0 {
			pct = int(math.Round(float64(g.count) / float64(positives) * 100))
		}
		out = append(out, model.GenreScore{ID: g.id, Name: g.name, Score: g.score, Count: g.count, Percentage: pct})
	}
	return out
}

// topDecades returns the most frequent decades, most recent first on ties.
func topDecades(counts map[int]int) []int {
	decades := make([]int, 0, len(counts))
	for d := range counts {
		decades = append(decades, d)
	}
	sort.Slice(decades, func(i, j int) bool {
		if counts[decades[i]] != counts[decades[j]] {
			return counts[decades[i]] > counts[decades[j]]
		}
		return decades[i] > decades[j]
	})
	if len(decades) > topDecadeCount {
		decades = decades[:topDecadeCount]
	}
	return decades
}

func releaseYear(date string) (int, bool) {
	if len(date) < 4 {
		return 0, false
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil || y <= 0 {
		return 0, false
	}
	return y, true
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
