package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/showmatch/showmatch-backend/internal/db"
)

// PreferenceRepository maintains the reverse index from show to
// favoriting users. Match resolution scans this index instead of every
// user's favorite set.
type PreferenceRepository struct {
	db *gorm.DB
}

// NewPreferenceRepository creates a new repository bound to the given DB connection.
func NewPreferenceRepository(database *gorm.DB) *PreferenceRepository {
	return &PreferenceRepository{db: database}
}

// UpsertFavoriter ensures the index entry for (showID, userID) exists
// and refreshes its confirmation timestamp.
//
// Behavior:
//   - If the pair exists → confirmed_at is bumped (last-write-wins).
//   - If it doesn't → a new row is inserted.
//   - Idempotent; calling it redundantly is never an error.
//
// Example:
//
//	repo.UpsertFavoriter(ctx, "breaking-bad", 42)
func (r *PreferenceRepository) UpsertFavoriter(ctx context.Context, showID string, userID uint64) error {
	entry := db.PreferenceEntry{
		ShowID:      showID,
		UserID:      userID,
		ConfirmedAt: time.Now().UTC(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "show_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"confirmed_at"}),
		}).
		Create(&entry).Error
}

// RefreshForUser upserts the user under every show in their current
// favorite set. Called at search time so the index reflects the set as
// it is now, not as it was when favorites were last edited.
func (r *PreferenceRepository) RefreshForUser(ctx context.Context, userID uint64, showIDs []string) error {
	for _, showID := range showIDs {
		if err := r.UpsertFavoriter(ctx, showID, userID); err != nil {
			return err
		}
	}
	return nil
}

// LookupFavoriters returns every user currently indexed under the show.
// The caller excludes the requester, existing matches and blocked users.
// A show that has never been indexed yields an empty slice.
func (r *PreferenceRepository) LookupFavoriters(ctx context.Context, showID string) ([]uint64, error) {
	var userIDs []uint64
	err := r.db.WithContext(ctx).
		Model(&db.PreferenceEntry{}).
		Where("show_id = ?", showID).
		Pluck("user_id", &userIDs).Error
	if err != nil {
		return nil, err
	}
	return userIDs, nil
}
