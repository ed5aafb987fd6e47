package profile

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/showmatch/showmatch-backend/internal/app"
	svcErr "github.com/showmatch/showmatch-backend/internal/errors"
	"github.com/showmatch/showmatch-backend/internal/repository"
)

// Service exposes the compatibility-profile read and the favorites
// provider surface (the sole writer of favorite sets). The match
// engine consumes both read-only.
type Service struct {
	appCtx    *app.AppContext
	users     *repository.UserRepository
	favorites *repository.FavoriteRepository
	prefs     *repository.PreferenceRepository
}

// NewProfileService creates the profile service with dependencies from AppContext.
func NewProfileService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:    appCtx,
		users:     repository.NewUserRepository(appCtx.DB),
		favorites: repository.NewFavoriteRepository(appCtx.DB),
		prefs:     repository.NewPreferenceRepository(appCtx.DB),
	}
}

func parseUserID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		svcErr.JSON(c, svcErr.InvalidArgument("id must be a valid user id"))
		return 0, false
	}
	return id, true
}

func parseShowID(c *gin.Context) (string, bool) {
	showID := strings.TrimSpace(c.Param("show"))
	if showID == "" {
		svcErr.JSON(c, svcErr.InvalidArgument("show must be a non-empty show id"))
		return "", false
	}
	return showID, true
}

func (s *Service) handleGetProfile(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	user, err := s.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		svcErr.JSON(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"userId":        user.ID,
		"displayName":   user.DisplayName,
		"profilePic":    user.ProfilePic,
		"age":           user.Age,
		"gender":        user.Gender,
		"matchWith":     user.MatchWith,
		"location":      user.Location,
		"matchLocation": user.MatchLocation,
		"complete":      user.ProfileComplete(),
	})
}

func (s *Service) handleListFavorites(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	showIDs, err := s.favorites.ListShowIDs(c.Request.Context(), userID)
	if err != nil {
		svcErr.JSON(c, err)
		return
	}
	if showIDs == nil {
		showIDs = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"showIds": showIDs})
}

// handleAddFavorite adds the show to the user's set and refreshes the
// preference index for it right away. The index is refreshed again at
// search time, so a failure here only delays visibility.
func (s *Service) handleAddFavorite(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}
	showID, ok := parseShowID(c)
	if !ok {
		return
	}

	if _, err := s.users.GetByID(c.Request.Context(), userID); err != nil {
		svcErr.JSON(c, err)
		return
	}

	if err := s.favorites.Add(c.Request.Context(), userID, showID); err != nil {
		svcErr.JSON(c, err)
		return
	}
	if err := s.prefs.UpsertFavoriter(c.Request.Context(), showID, userID); err != nil {
		s.appCtx.Logger.Warn("opportunistic index refresh failed",
			"user", userID, "show", showID, "err", err)
	}

	c.JSON(http.StatusOK, gin.H{"favorited": true})
}

func (s *Service) handleRemoveFavorite(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}
	showID, ok := parseShowID(c)
	if !ok {
		return
	}

	if err := s.favorites.Remove(c.Request.Context(), userID, showID); err != nil {
		svcErr.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorited": false})
}
