package db

import (
	"time"
)

// Swipe is a user's reaction to a movie, with the movie snapshot taken at
// swipe time.
//
// Composite PK: (UserID, MovieID)
//   - One row per pair; swiping again overwrites the action.
//
// Indexes:
//   - idx_swipes_user_updated(user_id, updated_at DESC)
//     Serves history reads and cursor pagination.
type Swipe struct {
	UserID      string    `gorm:"primaryKey;size:128;index:idx_swipes_user_updated,priority:1"`
	MovieID     int64     `gorm:"primaryKey;autoIncrement:false"`
	Action      string    `gorm:"size:16;not null"`
	Genres      []int     `gorm:"serializer:json"`
	Rating      float64   `gorm:"not null;default:0"`
	ReleaseDate string    `gorm:"size:10"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime;index:idx_swipes_user_updated,priority:2,sort:desc"`
}

// Movie is a catalog entry, keyed by its TMDB id.
type Movie struct {
	ID          int64        `gorm:"primaryKey;autoIncrement:false"`
	Title       string       `gorm:"size:255;not null"`
	VoteAverage float64      `gorm:"index;not null;default:0"`
	VoteCount   int          `gorm:"not null;default:0"`
	Popularity  float64      `gorm:"index;not null;default:0"`
	ReleaseDate string       `gorm:"size:10"`
	PosterPath  string       `gorm:"size:255"`
	Genres      []MovieGenre `gorm:"foreignKey:MovieID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time    `gorm:"autoCreateTime"`
	UpdatedAt   time.Time    `gorm:"autoUpdateTime"`
}

// MovieGenre links a movie to a TMDB genre id.
type MovieGenre struct {
	MovieID int64 `gorm:"primaryKey;autoIncrement:false"`
	GenreID int   `gorm:"primaryKey;autoIncrement:false;index"`
}

// Group is a couple, a room or a movie night. Compatibility is only
// meaningful for couples.
type Group struct {
	ID               string `gorm:"primaryKey;size:64"`
	Kind             string `gorm:"size:16;not null;index"`
	Name             string `gorm:"size:128"`
	Compatibility    int    `gorm:"not null;default:0"`
	MatchesUpdatedAt *time.Time
	Members          []GroupMember `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time     `gorm:"autoCreateTime"`
	UpdatedAt        time.Time     `gorm:"autoUpdateTime"`
}

// TableName avoids the reserved word GROUPS.
func (Group) TableName() string { return "match_groups" }

// GroupMember links a user to a group.
//
// Indexes:
//   - idx_group_members_user(user_id)
//     Finds every group to invalidate when a user swipes.
type GroupMember struct {
	GroupID   string    `gorm:"primaryKey;size:64"`
	UserID    string    `gorm:"primaryKey;size:128;index:idx_group_members_user"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// SharedMatch is the last computed match list of a group, kept for display.
// It is a write-through copy; the swipes are the source of truth.
type SharedMatch struct {
	GroupID   string    `gorm:"primaryKey;size:64"`
	MovieID   int64     `gorm:"primaryKey;autoIncrement:false"`
	Position  int       `gorm:"not null"`
	Score     int       `gorm:"not null"`
	Payload   string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TasteProfile is the persisted copy of a user's computed profile.
type TasteProfile struct {
	UserID    string    `gorm:"primaryKey;size:128"`
	Payload   string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"index"`
}

// UserPlatform is a streaming service the user subscribes to.
type UserPlatform struct {
	UserID   string `gorm:"primaryKey;size:128"`
	Platform string `gorm:"primaryKey;size:64"`
}

// MoviePlatform records where a movie can be streamed.
type MoviePlatform struct {
	MovieID  int64  `gorm:"primaryKey;autoIncrement:false"`
	Platform string `gorm:"primaryKey;size:64"`
}

// UserTrigger is a content-warning category the user wants to avoid.
type UserTrigger struct {
	UserID   string `gorm:"primaryKey;size:128"`
	Category string `gorm:"primaryKey;size:64"`
}

// MovieWarning is a content-warning category reported for a movie.
type MovieWarning struct {
	MovieID  int64  `gorm:"primaryKey;autoIncrement:false"`
	Category string `gorm:"primaryKey;size:64;index"`
}

// AllModels lists every table, in migration order.
func AllModels() []any {
	return []any{
		&Swipe{},
		&Movie{},
		&MovieGenre{},
		&Group{},
		&GroupMember{},
		&SharedMatch{},
		&TasteProfile{},
		&UserPlatform{},
		&MoviePlatform{},
		&UserTrigger{},
		&MovieWarning{},
	}
}
