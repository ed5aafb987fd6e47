package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/showmatch/showmatch-backend/internal/db"
)

// FavoriteRepository is the favorites provider: per-user sets of
// favorited show identifiers. The match engine only reads them; the
// add/remove surface exists for the client apps.
type FavoriteRepository struct {
	db *gorm.DB
}

// NewFavoriteRepository creates a new repository bound to the given DB connection.
func NewFavoriteRepository(database *gorm.DB) *FavoriteRepository {
	return &FavoriteRepository{db: database}
}

// ListShowIDs returns the user's favorite set. Ordering carries no
// meaning; created_at is used only to keep results deterministic.
func (r *FavoriteRepository) ListShowIDs(ctx context.Context, userID uint64) ([]string, error) {
	var showIDs []string
	err := r.db.WithContext(ctx).
		Model(&db.Favorite{}).
		Where("user_id = ?", userID).
		Order("created_at, show_id").
		Pluck("show_id", &showIDs).Error
	if err != nil {
		return nil, err
	}
	return showIDs, nil
}

// Add puts a show into the user's favorite set. Set semantics: adding
// a show twice is a no-op.
func (r *FavoriteRepository) Add(ctx context.Context, userID uint64, showID string) error {
	fav := db.Favorite{UserID: userID, ShowID: showID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&fav).Error
}

// Remove drops a show from the user's favorite set. Removing a show
// that is not favorited is a no-op. The preference index entry is left
// in place on purpose; stale index rows are filtered out at resolution
// time by recomputing the true intersection.
func (r *FavoriteRepository) Remove(ctx context.Context, userID uint64, showID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND show_id = ?", userID, showID).
		Delete(&db.Favorite{}).Error
}
