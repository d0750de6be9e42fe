package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/moviease/internal/db"
	"github.com/oggyb/moviease/internal/model"
)

// PreferenceRepository holds streaming platforms and content-warning
// blocklists, and filters movie lists against them.
type PreferenceRepository struct {
	db *gorm.DB
}

// NewPreferenceRepository creates a new repository bound to the given DB connection.
func NewPreferenceRepository(database *gorm.DB) *PreferenceRepository {
	return &PreferenceRepository{db: database}
}

// SetPlatforms replaces the platforms userID subscribes to.
func (r *PreferenceRepository) SetPlatforms(ctx context.Context, userID string, platforms []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&db.UserPlatform{}).Error; err != nil {
			return err
		}
		rows := make([]db.UserPlatform, 0, len(platforms))
		for _, p := range platforms {
			rows = append(rows, db.UserPlatform{UserID: userID, Platform: p})
		}
		return createIgnore(tx, rows)
	})
}

// SetTriggers replaces the content-warning categories userID avoids.
func (r *PreferenceRepository) SetTriggers(ctx context.Context, userID string, categories []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&db.UserTrigger{}).Error; err != nil {
			return err
		}
		rows := make([]db.UserTrigger, 0, len(categories))
		for _, c := range categories {
			rows = append(rows, db.UserTrigger{UserID: userID, Category: c})
		}
		return createIgnore(tx, rows)
	})
}

// SetMovieAvailability records where movieID streams.
func (r *PreferenceRepository) SetMovieAvailability(ctx context.Context, movieID int64, platforms []string) error {
	rows := make([]db.MoviePlatform, 0, len(platforms))
	for _, p := range platforms {
		rows = append(rows, db.MoviePlatform{MovieID: movieID, Platform: p})
	}
	return createIgnore(r.db.WithContext(ctx), rows)
}

// SetMovieWarnings records content warnings reported for movieID.
func (r *PreferenceRepository) SetMovieWarnings(ctx context.Context, movieID int64, categories []string) error {
	rows := make([]db.MovieWarning, 0, len(categories))
	for _, c := range categories {
		rows = append(rows, db.MovieWarning{MovieID: movieID, Category: c})
	}
	return createIgnore(r.db.WithContext(ctx), rows)
}

// FilterByPlatforms keeps movies streamable on a platform any of userIDs
// subscribes to. Users without platforms impose no restriction, and movies
// without availability data are kept.
func (r *PreferenceRepository) FilterByPlatforms(ctx context.Context, userIDs []string, movies []model.Movie) ([]model.Movie, error) {
	if len(movies) == 0 || len(userIDs) == 0 {
		return movies, nil
	}

	var platforms []string
	err := r.db.WithContext(ctx).
		Model(&db.UserPlatform{}).
		Distinct("platform").
		Where("user_id IN ?", userIDs).
		Pluck("platform", &platforms).Error
	if err != nil {
		return nil, err
	}
	if len(platforms) == 0 {
		return movies, nil
	}
	wanted := toSet(platforms)

	var avail []db.MoviePlatform
	err = r.db.WithContext(ctx).
		Where("movie_id IN ?", movieIDs(movies)).
		Find(&avail).Error
	if err != nil {
		return nil, err
	}

	known := make(map[int64]bool)
	for _, a := range avail {
		if _, ok := wanted[a.Platform]; ok {
			known[a.MovieID] = true
		} else if _, seen := known[a.MovieID]; !seen {
			known[a.MovieID] = false
		}
	}

	out := make([]model.Movie, 0, len(movies))
	for _, m := range movies {
		if ok, seen := known[m.ID]; !seen || ok {
			out = append(out, m)
		}
	}
	return out, nil
}

// FilterBlocked drops movies carrying a warning any of userIDs avoids.
func (r *PreferenceRepository) FilterBlocked(ctx context.Context, userIDs []string, movies []model.Movie) ([]model.Movie, error) {
	if len(movies) == 0 || len(userIDs) == 0 {
		return movies, nil
	}

	var categories []string
	err := r.db.WithContext(ctx).
		Model(&db.UserTrigger{}).
		Distinct("category").
		Where("user_id IN ?", userIDs).
		Pluck("category", &categories).Error
	if err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		return movies, nil
	}

	var blocked []int64
	err = r.db.WithContext(ctx).
		Model(&db.MovieWarning{}).
		Distinct("movie_id").
		Where("movie_id IN ? AND category IN ?", movieIDs(movies), categories).
		Pluck("movie_id", &blocked).Error
	if err != nil {
		return nil, err
	}
	if len(blocked) == 0 {
		return movies, nil
	}

	drop := make(map[int64]struct{}, len(blocked))
	for _, id := range blocked {
		drop[id] = struct{}{}
	}
	out := make([]model.Movie, 0, len(movies))
	for _, m := range movies {
		if _, ok := drop[m.ID]; !ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func createIgnore[T any](tx *gorm.DB, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

func movieIDs(movies []model.Movie) []int64 {
	ids := make([]int64, 0, len(movies))
	for _, m := range movies {
		ids = append(ids, m.ID)
	}
	return ids
}

func toSet(vals []string) map[string]struct{} {
	out := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		out[v] = struct{}{}
	}
	return out
}
