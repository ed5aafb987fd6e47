package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/showmatch/showmatch-backend/internal/db"
)

// ConversationRepository backs the chat subsystem contracts the match
// engine depends on: conversation creation when a pair starts chatting
// and conversation deletion on unmatch/block.
type ConversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository creates a new repository bound to the given DB connection.
func NewConversationRepository(database *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: database}
}

// normalizePair orders a pair so (a, b) and (b, a) map to the same row.
func normalizePair(a, b uint64) (uint64, uint64) {
	if a > b {
		return b, a
	}
	return a, b
}

// Create opens a conversation between the pair, returning its id and
// whether it was newly created. Opening an existing conversation
// returns the existing id.
func (r *ConversationRepository) Create(ctx context.Context, userID, otherID uint64) (string, bool, error) {
	lo, hi := normalizePair(userID, otherID)

	var existing db.Conversation
	err := r.db.WithContext(ctx).
		Where("user_a_id = ? AND user_b_id = ?", lo, hi).
		First(&existing).Error
	if err == nil {
		return existing.ID, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, err
	}

	conv := db.Conversation{
		ID:      uuid.NewString(),
		UserAID: lo,
		UserBID: hi,
	}
	if err := r.db.WithContext(ctx).Create(&conv).Error; err != nil {
		return "", false, err
	}
	return conv.ID, true, nil
}

// DeletePair removes the pair's conversation, if any. Idempotent.
func (r *ConversationRepository) DeletePair(ctx context.Context, userID, otherID uint64) error {
	lo, hi := normalizePair(userID, otherID)
	return r.db.WithContext(ctx).
		Where("user_a_id = ? AND user_b_id = ?", lo, hi).
		Delete(&db.Conversation{}).Error
}
