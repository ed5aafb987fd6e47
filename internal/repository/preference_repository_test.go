package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/showmatch/showmatch-backend/internal/db"
	"github.com/showmatch/showmatch-backend/internal/repository"
)

// setup in-memory DB
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.Migrate(database); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return database
}

// Lookup after upsert must include the favoriter.
func TestUpsertAndLookupFavoriters(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewPreferenceRepository(dbase)

	require.NoError(t, repo.UpsertFavoriter(ctx, "dark", 1))
	require.NoError(t, repo.UpsertFavoriter(ctx, "dark", 2))

	users, err := repo.LookupFavoriters(ctx, "dark")
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{1, 2}, users)
}

func TestUpsertFavoriter_IdempotentLastWriteWins(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewPreferenceRepository(dbase)

	require.NoError(t, repo.UpsertFavoriter(ctx, "severance", 1))

	var first db.PreferenceEntry
	require.NoError(t, dbase.First(&first).Error)

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, repo.UpsertFavoriter(ctx, "severance", 1))

	var entries []db.PreferenceEntry
	require.NoError(t, dbase.Find(&entries).Error)
	require.Len(t, entries, 1) // still a single row per (show, user)
	assert.False(t, entries[0].ConfirmedAt.Before(first.ConfirmedAt))
}

func TestLookupFavoriters_UnknownShow(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewPreferenceRepository(dbase)

	users, err := repo.LookupFavoriters(ctx, "never-indexed")
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestRefreshForUser(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewPreferenceRepository(dbase)

	require.NoError(t, repo.RefreshForUser(ctx, 7, []string{"dark", "ozark", "barry"}))

	for _, show := range []string{"dark", "ozark", "barry"} {
		users, err := repo.LookupFavoriters(ctx, show)
		require.NoError(t, err)
		assert.Contains(t, users, uint64(7))
	}
}
