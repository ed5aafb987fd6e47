package match_test

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
	"github.com/showmatch/showmatch-backend/internal/service/match"
)

// setupRouter wires the match routes onto a test engine backed by
// in-memory SQLite + miniredis.
func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	dbase, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
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
	match.NewRegistrar(appCtx).Register(router)
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

func TestHandleSearch_OKThenCooldown(t *testing.T) {
	router, gdb := setupRouter(t)

	seedUser(t, gdb, 1, "Uma", "female", "male", "London", "worldwide")
	seedUser(t, gdb, 2, "Vik", "male", "female", "Berlin", "worldwide")
	seedFavorites(t, gdb, 1, "a", "b", "c", "d")
	seedFavorites(t, gdb, 2, "a", "b", "c", "e")

	code, body := doRequest(t, router, http.MethodPost, "/v1/users/1/matches/search")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(1), body["newMatches"])

	matches, ok := body["matches"].([]any)
	require.True(t, ok)
	require.Len(t, matches, 1)
	first := matches[0].(map[string]any)
	assert.Equal(t, float64(2), first["userId"])
	assert.Equal(t, "match", first["matchLevel"])

	// immediate retry is denied by the cooldown, as a normal result
	code, body = doRequest(t, router, http.MethodPost, "/v1/users/1/matches/search")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "on_cooldown", body["status"])
	assert.Equal(t, float64(0), body["newMatches"])
	assert.NotEmpty(t, body["remainingTimeString"])
}

func TestHandleSearch_NoFavorites(t *testing.T) {
	router, gdb := setupRouter(t)

	seedUser(t, gdb, 1, "Uma", "female", "male", "London", "worldwide")

	code, body := doRequest(t, router, http.MethodPost, "/v1/users/1/matches/search")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "no_favorites", body["status"])
	assert.NotEmpty(t, body["message"])
}

func TestHandleSearch_InvalidUserID(t *testing.T) {
	router, _ := setupRouter(t)

	code, body := doRequest(t, router, http.MethodPost, "/v1/users/zero/matches/search")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.NotEmpty(t, body["error"])
}

func TestHandleUnmatchAndCooldownEndpoints(t *testing.T) {
	router, gdb := setupRouter(t)

	seedUser(t, gdb, 1, "Uma", "female", "male", "London", "worldwide")
	seedUser(t, gdb, 2, "Vik", "male", "female", "Berlin", "worldwide")
	seedFavorites(t, gdb, 1, "a", "b", "c")
	seedFavorites(t, gdb, 2, "a", "b", "c")

	code, _ := doRequest(t, router, http.MethodPost, "/v1/users/1/matches/search")
	require.Equal(t, http.StatusOK, code)

	code, body := doRequest(t, router, http.MethodGet, "/v1/users/1/cooldown")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["searchCount"])
	assert.NotNil(t, body["cooldownEnd"])

	code, body = doRequest(t, router, http.MethodDelete, "/v1/users/1/matches/2")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["unmatched"])

	code, body = doRequest(t, router, http.MethodGet, "/v1/users/1/matches")
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["matches"])
}

func TestHandleBlockUnblock(t *testing.T) {
	router, gdb := setupRouter(t)

	seedUser(t, gdb, 1, "Uma", "female", "male", "London", "worldwide")
	seedUser(t, gdb, 2, "Vik", "male", "female", "Berlin", "worldwide")

	code, body := doRequest(t, router, http.MethodPost, "/v1/users/1/blocks/2")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["blocked"])

	code, body = doRequest(t, router, http.MethodDelete, "/v1/users/1/blocks/2")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["unblocked"])

	code, body = doRequest(t, router, http.MethodPost, "/v1/users/1/blocks/1")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.NotEmpty(t, body["error"])
}
