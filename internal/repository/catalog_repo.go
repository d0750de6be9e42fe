package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/moviease/internal/db"
	"github.com/oggyb/moviease/internal/model"
)

// CatalogRepository serves movie discovery queries from the local catalog.
type CatalogRepository struct {
	db               *gorm.DB
	popularMinVotes  int
	popularMinRating float64
}

// NewCatalogRepository creates a catalog. Popular listings skip movies with
// fewer than minVotes votes or an average below minRating.
func NewCatalogRepository(database *gorm.DB, minVotes int, minRating float64) *CatalogRepository {
	return &CatalogRepository{db: database, popularMinVotes: minVotes, popularMinRating: minRating}
}

// Discover returns movies matching any of q.GenreIDs with at least
// q.MinRating and q.MinVoteCount, in q.SortBy order.
func (r *CatalogRepository) Discover(ctx context.Context, q model.Query) ([]model.Movie, error) {
	query := r.db.WithContext(ctx).
		Preload("Genres").
		Where("vote_average >= ? AND vote_count >= ?", q.MinRating, q.MinVoteCount)

	if len(q.GenreIDs) > 0 {
		sub := r.db.Model(&db.MovieGenre{}).Select("movie_id").Where("genre_id IN ?", q.GenreIDs)
		query = query.Where("id IN (?)", sub)
	}

	switch q.SortBy {
	case model.SortRating:
		query = query.Order("vote_average DESC, vote_count DESC, id ASC")
	default:
		query = query.Order("popularity DESC, id ASC")
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	var rows []db.Movie
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toMovies(rows), nil
}

// Popular returns the most popular well-voted, well-rated movies, best rated
// first on ties.
func (r *CatalogRepository) Popular(ctx context.Context, limit int) ([]model.Movie, error) {
	query := r.db.WithContext(ctx).
		Preload("Genres").
		Where("vote_count >= ? AND vote_average >= ?", r.popularMinVotes, r.popularMinRating).
		Order("popularity DESC, vote_average DESC, id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []db.Movie
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toMovies(rows), nil
}

// Movie loads one catalog entry. Unknown ids yield gorm.ErrRecordNotFound.
func (r *CatalogRepository) Movie(ctx context.Context, id int64) (model.Movie, error) {
	var row db.Movie
	if err := r.db.WithContext(ctx).Preload("Genres").First(&row, "id = ?", id).Error; err != nil {
		return model.Movie{}, err
	}
	return toMovies([]db.Movie{row})[0], nil
}

// Upsert inserts or refreshes catalog entries and their genres.
func (r *CatalogRepository) Upsert(ctx context.Context, movies []model.Movie) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range movies {
			row := db.Movie{
				ID:          m.ID,
				Title:       m.Title,
				VoteAverage: m.VoteAverage,
				VoteCount:   m.VoteCount,
				Popularity:  m.Popularity,
				ReleaseDate: m.ReleaseDate,
				PosterPath:  m.PosterPath,
			}
			err := tx.Omit("Genres").Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"title", "vote_average", "vote_count", "popularity", "release_date", "poster_path", "updated_at"}),
			}).Create(&row).Error
			if err != nil {
				return err
			}
			if err := tx.Where("movie_id = ?", m.ID).Delete(&db.MovieGenre{}).Error; err != nil {
				return err
			}
			if len(m.Genres) == 0 {
				continue
			}
			genres := make([]db.MovieGenre, 0, len(m.Genres))
			for _, g := range m.Genres {
				genres = append(genres, db.MovieGenre{MovieID: m.ID, GenreID: g})
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&genres).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func toMovies(rows []db.Movie) []model.Movie {
	out := make([]model.Movie, 0, len(rows))
	for _, m := range rows {
		genres := make([]int, 0, len(m.Genres))
		for _, g := range m.Genres {
			genres = append(genres, g.GenreID)
		}
		out = append(out, model.Movie{
			ID:          m.ID,
			Title:       m.Title,
			Genres:      genres,
			VoteAverage: m.VoteAverage,
			VoteCount:   m.VoteCount,
			Popularity:  m.Popularity,
			ReleaseDate: m.ReleaseDate,
			PosterPath:  m.PosterPath,
		})
	}
	return out
}
