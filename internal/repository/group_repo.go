package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oggyb/moviease/internal/db"
	"github.com/oggyb/moviease/internal/model"
)

// ErrGroupNotFound is returned when a couple, room or movie night id is unknown.
var ErrGroupNotFound = fmt.Errorf("group not found: %w", gorm.ErrRecordNotFound)

// GroupRepository is the membership store for couples, rooms and movie
// nights, and keeps the write-through copy of their matches.
type GroupRepository struct {
	db *gorm.DB
}

// NewGroupRepository creates a new repository bound to the given DB connection.
func NewGroupRepository(database *gorm.DB) *GroupRepository {
	return &GroupRepository{db: database}
}

// Create inserts a group with a fresh id and its members.
func (r *GroupRepository) Create(ctx context.Context, kind model.GroupKind, name string, members []string) (model.Group, error) {
	g := db.Group{
		ID:   uuid.NewString(),
		Kind: string(kind),
		Name: name,
	}
	for _, m := range members {
		g.Members = append(g.Members, db.GroupMember{GroupID: g.ID, UserID: m})
	}
	if err := r.db.WithContext(ctx).Create(&g).Error; err != nil {
		return model.Group{}, fmt.Errorf("create %s: %w", kind, err)
	}
	return toGroup(g), nil
}

// Group loads a group and its members.
func (r *GroupRepository) Group(ctx context.Context, groupID string) (model.Group, error) {
	var g db.Group
	err := r.db.WithContext(ctx).
		Preload("Members", func(tx *gorm.DB) *gorm.DB { return tx.Order("user_id") }).
		First(&g, "id = ?", groupID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Group{}, ErrGroupNotFound
	}
	if err != nil {
		return model.Group{}, err
	}
	return toGroup(g), nil
}

// Members returns the user ids of a group, sorted.
func (r *GroupRepository) Members(ctx context.Context, groupID string) ([]string, error) {
	g, err := r.Group(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return g.Members, nil
}

// GroupsForUser returns every group userID belongs to, without members.
func (r *GroupRepository) GroupsForUser(ctx context.Context, userID string) ([]model.Group, error) {
	var rows []db.Group
	err := r.db.WithContext(ctx).
		Joins("JOIN group_members gm ON gm.group_id = match_groups.id").
		Where("gm.user_id = ?", userID).
		Order("match_groups.id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]model.Group, 0, len(rows))
	for _, g := range rows {
		out = append(out, toGroup(g))
	}
	return out, nil
}

// SavePairMatches replaces a couple's stored matches and compatibility.
func (r *GroupRepository) SavePairMatches(ctx context.Context, groupID string, matches []model.PairMatch, compatibility int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows := make([]db.SharedMatch, 0, len(matches))
		for i, m := range matches {
			row, err := sharedRow(groupID, m.MovieID, i, m.CombinedScore, m)
			if err != nil {
				return err
			}
			rows = append(rows, row)
		}
		return replaceMatches(tx, groupID, rows, &compatibility)
	})
}

// SaveGroupMatches replaces a room's or movie night's stored matches.
func (r *GroupRepository) SaveGroupMatches(ctx context.Context, groupID string, matches []model.GroupMatch) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows := make([]db.SharedMatch, 0, len(matches))
		for i, m := range matches {
			row, err := sharedRow(groupID, m.MovieID, i, m.AggregateScore, m)
			if err != nil {
				return err
			}
			rows = append(rows, row)
		}
		return replaceMatches(tx, groupID, rows, nil)
	})
}

// SharedPairMatches returns a couple's stored matches, in rank order, and
// the stored compatibility.
func (r *GroupRepository) SharedPairMatches(ctx context.Context, groupID string) ([]model.PairMatch, int, error) {
	var g db.Group
	if err := r.db.WithContext(ctx).First(&g, "id = ?", groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrGroupNotFound
		}
		return nil, 0, err
	}
	matches, err := loadShared[model.PairMatch](ctx, r.db, groupID)
	return matches, g.Compatibility, err
}

// SharedGroupMatches returns a group's stored matches, in rank order.
func (r *GroupRepository) SharedGroupMatches(ctx context.Context, groupID string) ([]model.GroupMatch, error) {
	return loadShared[model.GroupMatch](ctx, r.db, groupID)
}

func sharedRow(groupID string, movieID int64, rank, score int, m any) (db.SharedMatch, error) {
	payload, err := json.Marshal(m)
	if err != nil {
		return db.SharedMatch{}, fmt.Errorf("encode match %d: %w", movieID, err)
	}
	return db.SharedMatch{
		GroupID:  groupID,
		MovieID:  movieID,
		Position: rank,
		Score:    score,
		Payload:  string(payload),
	}, nil
}

func replaceMatches(tx *gorm.DB, groupID string, rows []db.SharedMatch, compatibility *int) error {
	if err := tx.Where("group_id = ?", groupID).Delete(&db.SharedMatch{}).Error; err != nil {
		return err
	}
	if len(rows) > 0 {
		if err := tx.CreateInBatches(rows, 100).Error; err != nil {
			return err
		}
	}
	updates := map[string]any{"matches_updated_at": time.Now().UTC()}
	if compatibility != nil {
		updates["compatibility"] = *compatibility
	}
	res := tx.Model(&db.Group{}).Where("id = ?", groupID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrGroupNotFound
	}
	return nil
}

func loadShared[T any](ctx context.Context, gdb *gorm.DB, groupID string) ([]T, error) {
	var rows []db.SharedMatch
	err := gdb.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("position ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		var m T
		if err := json.Unmarshal([]byte(row.Payload), &m); err != nil {
			return nil, fmt.Errorf("decode match %d: %w", row.MovieID, err)
		}
		out = append(out, m)
	}
	return out, nil
}

func toGroup(g db.Group) model.Group {
	members := make([]string, 0, len(g.Members))
	for _, m := range g.Members {
		members = append(members, m.UserID)
	}
	sort.Strings(members)
	return model.Group{
		ID:      g.ID,
		Kind:    model.GroupKind(g.Kind),
		Name:    g.Name,
		Members: members,
	}
}
