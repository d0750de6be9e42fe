package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/moviease/internal/db"
	"github.com/oggyb/moviease/internal/model"
)

// ProfileRepository persists computed taste profiles for reuse across
// restarts.
type ProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new repository bound to the given DB connection.
func NewProfileRepository(database *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: database}
}

// Load returns the stored profile of userID and when it was saved.
// ok is false when nothing is stored.
func (r *ProfileRepository) Load(ctx context.Context, userID string) (p model.TasteProfile, savedAt time.Time, ok bool, err error) {
	var row db.TasteProfile
	err = r.db.WithContext(ctx).First(&row, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return p, savedAt, false, nil
	}
	if err != nil {
		return p, savedAt, false, err
	}
	if err := json.Unmarshal([]byte(row.Payload), &p); err != nil {
		return p, savedAt, false, fmt.Errorf("decode profile %s: %w", userID, err)
	}
	return p, row.UpdatedAt, true, nil
}

// Save stores p, replacing any previous copy.
func (r *ProfileRepository) Save(ctx context.Context, p model.TasteProfile) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile %s: %w", p.UserID, err)
	}
	row := db.TasteProfile{
		UserID:    p.UserID,
		Payload:   string(payload),
		UpdatedAt: p.LastUpdated.UTC(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(&row).Error
}

// Delete drops the stored profile of userID.
func (r *ProfileRepository) Delete(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&db.TasteProfile{}).Error
}
