package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/showmatch/showmatch-backend/internal/db"
)

// BlockRepository stores per-user block lists.
type BlockRepository struct {
	db *gorm.DB
}

// NewBlockRepository creates a new repository bound to the given DB connection.
func NewBlockRepository(database *gorm.DB) *BlockRepository {
	return &BlockRepository{db: database}
}

// Add puts otherID on userID's block list. Set semantics: blocking an
// already blocked user is a no-op.
func (r *BlockRepository) Add(ctx context.Context, userID, otherID uint64) error {
	block := db.Block{UserID: userID, BlockedID: otherID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&block).Error
}

// Remove takes otherID off userID's block list. Does not restore any
// prior match.
func (r *BlockRepository) Remove(ctx context.Context, userID, otherID uint64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND blocked_id = ?", userID, otherID).
		Delete(&db.Block{}).Error
}

// BlockedEitherWay returns every user involved in a block with the
// given user, in either direction. The resolver treats blocks as
// mutual: neither party is offered the other again.
func (r *BlockRepository) BlockedEitherWay(ctx context.Context, userID uint64) (map[uint64]struct{}, error) {
	var blocks []db.Block
	err := r.db.WithContext(ctx).
		Where("user_id = ? OR blocked_id = ?", userID, userID).
		Find(&blocks).Error
	if err != nil {
		return nil, err
	}

	set := make(map[uint64]struct{}, len(blocks))
	for _, b := range blocks {
		if b.UserID == userID {
			set[b.BlockedID] = struct{}{}
		} else {
			set[b.UserID] = struct{}{}
		}
	}
	return set, nil
}
