package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/moviease/internal/db"
	"github.com/oggyb/moviease/internal/model"
	"github.com/oggyb/moviease/internal/scoring"
	"github.com/oggyb/moviease/internal/utils/pagination"
)

// SwipeRepository provides data access methods for the Swipe model.
// It is the swipe store every matcher and profile builder reads from.
type SwipeRepository struct {
	db *gorm.DB
}

// NewSwipeRepository creates a new repository bound to the given DB connection.
func NewSwipeRepository(database *gorm.DB) *SwipeRepository {
	return &SwipeRepository{db: database}
}

// Append records a swipe for userID.
//
// Behavior:
//   - If (user_id, movie_id) exists → the row is overwritten with the new
//     action, movie snapshot and timestamp.
//   - If it doesn't exist → a new row is inserted.
//   - A zero Timestamp means "now".
//
// Example:
//
//	repo.Append(ctx, "u1", model.SwipeRecord{MovieID: 550, Action: scoring.Love})
func (r *SwipeRepository) Append(ctx context.Context, userID string, rec model.SwipeRecord) error {
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	// Cursors carry millisecond precision; storing finer timestamps would
	// let rows sharing a millisecond fall between pages.
	ts = ts.UTC().Truncate(time.Millisecond)
	swipe := db.Swipe{
		UserID:      userID,
		MovieID:     rec.MovieID,
		Action:      string(rec.Action),
		Genres:      rec.Genres,
		Rating:      rec.Rating,
		ReleaseDate: rec.ReleaseDate,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "movie_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"action", "genres", "rating", "release_date", "updated_at"}),
		}).
		Create(&swipe).Error
}

// History returns the full swipe log of userID, oldest first.
func (r *SwipeRepository) History(ctx context.Context, userID string) ([]model.SwipeRecord, error) {
	var rows []db.Swipe
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at ASC, movie_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]model.SwipeRecord, 0, len(rows))
	for _, s := range rows {
		out = append(out, toRecord(s))
	}
	return out, nil
}

// ListPage returns one page of userID's swipes, newest first.
//
// Behavior:
//   - Ordered by updated_at DESC, movie_id DESC.
//   - Supports cursor-based pagination via paginationToken.
//   - The returned token is nil on the last page.
func (r *SwipeRepository) ListPage(
	ctx context.Context,
	userID string,
	paginationToken *string,
	limit int,
) ([]model.SwipeRecord, *string, error) {
	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC, movie_id DESC").
		Limit(limit + 1)

	// apply cursor
	if cursor.MovieID > 0 && cursor.UpdatedUnix > 0 {
		ts := time.UnixMilli(cursor.UpdatedUnix).UTC()
		query = query.Where(
			"(updated_at < ? OR (updated_at = ? AND movie_id < ?))",
			ts, ts, cursor.MovieID,
		)
	}

	var rows []db.Swipe
	if err := query.Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	// pagination: build next cursor if needed
	var nextToken *string
	if len(rows) > limit {
		last := rows[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			MovieID:     last.MovieID,
			UpdatedUnix: last.UpdatedAt.UnixMilli(),
		})
		nextToken = &token
		rows = rows[:limit]
	}

	out := make([]model.SwipeRecord, 0, len(rows))
	for _, s := range rows {
		out = append(out, toRecord(s))
	}
	return out, nextToken, nil
}

// Count returns how many movies userID has swiped on.
func (r *SwipeRepository) Count(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Swipe{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

func toRecord(s db.Swipe) model.SwipeRecord {
	return model.SwipeRecord{
		MovieID:     s.MovieID,
		Action:      scoring.Action(s.Action),
		Genres:      s.Genres,
		Rating:      s.Rating,
		ReleaseDate: s.ReleaseDate,
		Timestamp:   s.UpdatedAt,
	}
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
