package moviease

import (
	"github.com/oggyb/moviease/internal/model"
)

// Request and response payloads travel as google.protobuf.Struct JSON
// objects; the json tags below are the wire field names.

type RecordSwipeRequest struct {
	UserID      string  `json:"user_id" validate:"required,max=128"`
	MovieID     int64   `json:"movie_id" validate:"required,gt=0"`
	Action      string  `json:"action" validate:"required,oneof=love like maybe nope pass"`
	Genres      []int   `json:"genres,omitempty" validate:"omitempty,dive,gt=0"`
	Rating      float64 `json:"rating,omitempty" validate:"gte=0,lte=10"`
	ReleaseDate string  `json:"release_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type RecordSwipeResponse struct {
	Swipe model.SwipeRecord `json:"swipe"`
	// Invalidated counts cached entries dropped for the user and their groups.
	Invalidated      int  `json:"invalidated"`
	ProfileRefreshed bool `json:"profile_refreshed"`
}

type ListSwipesRequest struct {
	UserID          string  `json:"user_id" validate:"required,max=128"`
	PaginationToken *string `json:"pagination_token,omitempty"`
	Limit           int     `json:"limit,omitempty" validate:"omitempty,min=1,max=100"`
}

type ListSwipesResponse struct {
	Swipes              []model.SwipeRecord `json:"swipes"`
	NextPaginationToken *string             `json:"next_pagination_token,omitempty"`
}

type CreateGroupRequest struct {
	Kind    string   `json:"kind" validate:"required,oneof=couple room movie_night"`
	Name    string   `json:"name,omitempty" validate:"max=128"`
	Members []string `json:"members" validate:"required,min=2,max=50,unique,dive,required,max=128"`
}

type GroupRequest struct {
	GroupID string `json:"group_id" validate:"required,max=64"`
}

type TasteProfileRequest struct {
	UserID  string `json:"user_id" validate:"required,max=128"`
	Refresh bool   `json:"refresh,omitempty"`
}

type RecommendationsRequest struct {
	Kind  string `json:"kind" validate:"required,oneof=personal couple group"`
	ID    string `json:"id" validate:"required,max=128"`
	Limit int    `json:"limit,omitempty" validate:"omitempty,min=1,max=100"`
}

type SetPreferencesRequest struct {
	UserID    string   `json:"user_id" validate:"required,max=128"`
	Platforms []string `json:"platforms" validate:"omitempty,dive,required,max=64"`
	Triggers  []string `json:"triggers" validate:"omitempty,dive,required,max=64"`
}

type SetPreferencesResponse struct {
	Invalidated int `json:"invalidated"`
}

// InvalidateRequest drops cached results of a user or a group. A user also
// takes the groups they belong to with them.
type InvalidateRequest struct {
	UserID  string `json:"user_id,omitempty" validate:"required_without=GroupID,excluded_with=GroupID,max=128"`
	GroupID string `json:"group_id,omitempty" validate:"max=64"`
}

type InvalidateResponse struct {
	Invalidated int `json:"invalidated"`
}
