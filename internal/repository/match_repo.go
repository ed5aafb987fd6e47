package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/showmatch/showmatch-backend/internal/db"
	"github.com/showmatch/showmatch-backend/internal/utils/pagination"
)

// MatchRepository provides data access methods for MatchRecord pairs.
// Every pairing is stored twice, once per direction; both rows are
// always written and removed inside a single transaction so the two
// lists cannot diverge under partial failure.
type MatchRepository struct {
	db *gorm.DB
}

// NewMatchRepository creates a new repository bound to the given DB connection.
func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// InsertPair persists both directions of a discovered pairing in one
// transaction.
//
// Behavior:
//   - Normally both rows are new (the resolver excludes existing pairs
//     up front).
//   - If a row for the pair already exists, the one with the larger
//     common-show set wins; the smaller candidate is dropped.
//
// Example:
//
//	repo.InsertPair(ctx, forU, forV) // forU.OwnerID=U, forV.OwnerID=V
func (r *MatchRepository) InsertPair(ctx context.Context, a, b db.MatchRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, rec := range []db.MatchRecord{a, b} {
			var existing db.MatchRecord
			err := tx.Where("owner_id = ? AND other_id = ?", rec.OwnerID, rec.OtherID).
				First(&existing).Error
			if err == nil && len(existing.CommonShowIDs) >= len(rec.CommonShowIDs) {
				continue
			}
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "owner_id"}, {Name: "other_id"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"display_name", "profile_pic", "age", "location", "gender",
					"match_level", "common_show_ids", "matched_at",
				}),
			}).Create(&rec).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ListForUser returns the user's match list, newest first, with
// cursor-based pagination. limit <= 0 disables pagination and returns
// the full list.
func (r *MatchRepository) ListForUser(
	ctx context.Context,
	ownerID uint64,
	paginationToken *string,
	limit int,
) ([]db.MatchRecord, *string, error) {
	var records []db.MatchRecord

	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("matched_at DESC, other_id DESC")

	if limit > 0 {
		query = query.Limit(limit + 1)
	}

	if cursor.OtherID > 0 && cursor.MatchedUnix > 0 {
		ts := time.UnixMilli(cursor.MatchedUnix)
		query = query.Where(
			"(matched_at < ? OR (matched_at = ? AND other_id < ?))",
			ts, ts, cursor.OtherID,
		)
	}

	if err := query.Find(&records).Error; err != nil {
		return nil, nil, err
	}

	var nextToken *string
	if limit > 0 && len(records) > limit {
		last := records[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			OtherID:     last.OtherID,
			MatchedUnix: last.MatchedAt.UnixMilli(),
		})
		nextToken = &token
		records = records[:limit]
	}

	return records, nextToken, nil
}

// PartnerIDs returns the set of users the owner is already matched
// with, for candidate exclusion during resolution.
func (r *MatchRepository) PartnerIDs(ctx context.Context, ownerID uint64) (map[uint64]struct{}, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&db.MatchRecord{}).
		Where("owner_id = ?", ownerID).
		Pluck("other_id", &ids).Error
	if err != nil {
		return nil, err
	}
	set := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// RemovePair deletes both directions of a pairing in one transaction.
// Removing a pair that does not exist is a no-op, which makes unmatch
// idempotent.
func (r *MatchRepository) RemovePair(ctx context.Context, userID, otherID uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("owner_id = ? AND other_id = ?", userID, otherID).
			Delete(&db.MatchRecord{}).Error; err != nil {
			return err
		}
		return tx.Where("owner_id = ? AND other_id = ?", otherID, userID).
			Delete(&db.MatchRecord{}).Error
	})
}

// SetChatting flips chatting_with to true on both directions of the
// pair. The flag never reverts; re-marking an already chatting pair is
// a no-op.
func (r *MatchRepository) SetChatting(ctx context.Context, userID, otherID uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&db.MatchRecord{}).
			Where("owner_id = ? AND other_id = ?", userID, otherID).
			Update("chatting_with", true).Error; err != nil {
			return err
		}
		return tx.Model(&db.MatchRecord{}).
			Where("owner_id = ? AND other_id = ?", otherID, userID).
			Update("chatting_with", true).Error
	})
}

// CountForUser returns the size of the user's match list.
// Used in conjunction with the Redis cache (DB is the fallback).
func (r *MatchRepository) CountForUser(ctx context.Context, ownerID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.MatchRecord{}).
		Where("owner_id = ?", ownerID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
