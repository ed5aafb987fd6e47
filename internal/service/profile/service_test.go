package profile_test

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/showmatch/showmatch-backend/internal/app"
	"github.com/showmatch/showmatch-backend/internal/cache"
	"github.com/showmatch/showmatch-backend/internal/config"
	"github.com/showmatch/showmatch-backend/internal/db"
	"github.com/showmatch/showmatch-backend/internal/service/profile"
)

func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	dbase, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	})
	require.NoError(t, err)

	sqlDB, err := dbase.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(dbase))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()

	appCtx := app.New(cfg, dbase, cache.NewRedisCache(cfg),
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	router := gin.New()
	profile.NewRegistrar(appCtx).Register(router)
	return router, dbase
}

func doRequest(t *testing.T, router *gin.Engine, method, path string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func seedUser(t *testing.T, gdb *gorm.DB, id uint64, displayName string) {
	t.Helper()
	user := db.User{
		ID:           id,
		Username:     fmt.Sprintf("user%d", id),
		Email:        fmt.Sprintf("u%d@test.com", id),
		PasswordHash: "x",
		DisplayName:  displayName,
		Gender:       "female",
		MatchWith:    "everyone",
		Location:     "London",
	}
	require.NoError(t, gdb.Create(&user).Error)
}

func TestProfileRead(t *testing.T) {
	router, gdb := setupRouter(t)
	seedUser(t, gdb, 1, "Uma")

	code, body := doRequest(t, router, http.MethodGet, "/v1/users/1/profile")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Uma", body["displayName"])
	assert.Equal(t, true, body["complete"])

	code, _ = doRequest(t, router, http.MethodGet, "/v1/users/99/profile")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestFavoritesAddListRemove(t *testing.T) {
	router, gdb := setupRouter(t)
	seedUser(t, gdb, 1, "Uma")

	code, _ := doRequest(t, router, http.MethodPut, "/v1/users/1/favorites/dark")
	require.Equal(t, http.StatusOK, code)
	// adding twice is a no-op (set semantics)
	code, _ = doRequest(t, router, http.MethodPut, "/v1/users/1/favorites/dark")
	require.Equal(t, http.StatusOK, code)

	code, body := doRequest(t, router, http.MethodGet, "/v1/users/1/favorites")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{"dark"}, body["showIds"])

	// the add refreshed the preference index opportunistically
	var entries []db.PreferenceEntry
	require.NoError(t, gdb.Where("show_id = ?", "dark").Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, uint64(1), entries[0].UserID)

	code, _ = doRequest(t, router, http.MethodDelete, "/v1/users/1/favorites/dark")
	require.Equal(t, http.StatusOK, code)

	_, body = doRequest(t, router, http.MethodGet, "/v1/users/1/favorites")
	assert.Empty(t, body["showIds"])

	// index rows survive favorite removal; stale entries are filtered
	// out by the resolver's true-intersection recomputation
	require.NoError(t, gdb.Where("show_id = ?", "dark").Find(&entries).Error)
	assert.Len(t, entries, 1)
}

func TestFavoritesUnknownUser(t *testing.T) {
	router, _ := setupRouter(t)

	code, body := doRequest(t, router, http.MethodPut, "/v1/users/42/favorites/dark")
	assert.Equal(t, http.StatusNotFound, code)
	assert.NotEmpty(t, body["error"])
}
