// Package model defines the domain types shared by the matching, taste and
// recommendation layers. Persistence shapes live in internal/db.
package model

import (
	"time"

	"github.com/oggyb/moviease/internal/scoring"
)

// SwipeRecord is one entry of a user's swipe log, with the movie snapshot
// captured at swipe time.
type SwipeRecord struct {
	MovieID     int64          `json:"movie_id"`
	Action      scoring.Action `json:"action"`
	Genres      []int          `json:"genres,omitempty"`
	Rating      float64        `json:"rating"`
	ReleaseDate string         `json:"release_date,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
}

// GroupKind tells couples, rooms and movie nights apart.
type GroupKind string

const (
	KindCouple     GroupKind = "couple"
	KindRoom       GroupKind = "room"
	KindMovieNight GroupKind = "movie_night"
)

// Group is a set of users who match movies together.
type Group struct {
	ID      string    `json:"id"`
	Kind    GroupKind `json:"kind"`
	Name    string    `json:"name,omitempty"`
	Members []string  `json:"members"`
}

// PairMatch is a movie both partners swiped positively on.
type PairMatch struct {
	MovieID       int64          `json:"movie_id"`
	UserAAction   scoring.Action `json:"user_a_action"`
	UserBAction   scoring.Action `json:"user_b_action"`
	CombinedScore int            `json:"combined_score"`
	Timestamp     time.Time      `json:"timestamp"`
}

// PairResult bundles a couple's matches with their compatibility percentage.
type PairResult struct {
	CoupleID      string      `json:"couple_id"`
	UserA         string      `json:"user_a"`
	UserB         string      `json:"user_b"`
	Matches       []PairMatch `json:"matches"`
	Compatibility int         `json:"compatibility"`
	ComputedAt    time.Time   `json:"computed_at"`
	// Stale is set when the stored copy is served instead of a fresh result.
	Stale         bool        `json:"stale,omitempty"`
}

// GroupMatch is a movie enough group members swiped positively on.
type GroupMatch struct {
	MovieID        int64                     `json:"movie_id"`
	Participants   []string                  `json:"participants"`
	Actions        map[string]scoring.Action `json:"actions"`
	AggregateScore int                       `json:"aggregate_score"`
	MatchRatio     float64                   `json:"match_ratio"`
	Perfect        bool                      `json:"perfect"`
	Timestamp      time.Time                 `json:"timestamp"`
}

// GroupResult bundles a group's matches.
type GroupResult struct {
	GroupID    string       `json:"group_id"`
	Kind       GroupKind    `json:"kind"`
	Members    []string     `json:"members"`
	Matches    []GroupMatch `json:"matches"`
	ComputedAt time.Time    `json:"computed_at"`
	Stale      bool         `json:"stale,omitempty"`
}

// GenreScore is one entry of a profile's genre ranking.
type GenreScore struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Score      int    `json:"score"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

// TasteProfile summarises a user's swipe history.
type TasteProfile struct {
	UserID           string       `json:"user_id"`
	TotalSwipes      int          `json:"total_swipes"`
	PositiveSwipes   int          `json:"positive_swipes"`
	NegativeSwipes   int          `json:"negative_swipes"`
	LikeRate         float64      `json:"like_rate"`
	TopGenres        []GenreScore `json:"top_genres"`
	AvgRating        float64      `json:"avg_rating"`
	PreferredDecades []int        `json:"preferred_decades"`
	LastUpdated      time.Time    `json:"last_updated"`
}

// EmptyProfile is the profile of a user with no swipes. Callers treat it as
// "use popularity", never as an error.
func EmptyProfile(userID string) TasteProfile {
	return TasteProfile{
		UserID:           userID,
		TopGenres:        []GenreScore{},
		PreferredDecades: []int{},
		LastUpdated:      time.Now().UTC(),
	}
}

// IsEmpty reports whether p carries no usable signal.
func (p TasteProfile) IsEmpty() bool {
	return p.TotalSwipes == 0 || len(p.TopGenres) == 0
}

// Movie is a catalog entry.
type Movie struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Genres      []int   `json:"genres"`
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int     `json:"vote_count"`
	Popularity  float64 `json:"popularity"`
	ReleaseDate string  `json:"release_date,omitempty"`
	PosterPath  string  `json:"poster_path,omitempty"`
}

// Sort orders understood by the catalog.
const (
	SortPopularity = "popularity.desc"
	SortRating     = "vote_average.desc"
)

// Query is a catalog discovery request built from one or more profiles.
// GenreIDs are OR-ed.
type Query struct {
	GenreIDs     []int   `json:"genre_ids"`
	MinRating    float64 `json:"min_rating"`
	MinVoteCount int     `json:"min_vote_count"`
	SortBy       string  `json:"sort_by"`
	Limit        int     `json:"limit"`
}

// Recommendations is what the orchestrator returns.
type Recommendations struct {
	Movies   []Movie `json:"movies"`
	Query    *Query  `json:"query,omitempty"`
	Fallback bool    `json:"fallback"`
}
