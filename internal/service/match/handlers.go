package match

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/showmatch/showmatch-backend/internal/db"
	svcErr "github.com/showmatch/showmatch-backend/internal/errors"
)

// matchJSON is the wire shape of a MatchRecord, field names matching
// what the mobile clients already consume.
type matchJSON struct {
	UserID        uint64   `json:"userId"`
	DisplayName   string   `json:"displayName"`
	ProfilePic    string   `json:"profilePic"`
	Age           uint32   `json:"age"`
	Location      string   `json:"location"`
	Gender        string   `json:"gender"`
	MatchLevel    string   `json:"matchLevel"`
	CommonShowIDs []string `json:"commonShowIds"`
	MatchTime     int64    `json:"matchTimestamp"`
	ChattingWith  bool     `json:"chattingWith"`
}

func toMatchJSON(records []db.MatchRecord) []matchJSON {
	out := make([]matchJSON, 0, len(records))
	for _, r := range records {
		out = append(out, matchJSON{
			UserID:        r.OtherID,
			DisplayName:   r.DisplayName,
			ProfilePic:    r.ProfilePic,
			Age:           r.Age,
			Location:      r.Location,
			Gender:        r.Gender,
			MatchLevel:    r.MatchLevel,
			CommonShowIDs: r.CommonShowIDs,
			MatchTime:     r.MatchedAt.UnixMilli(),
			ChattingWith:  r.ChattingWith,
		})
	}
	return out
}

func parseUserID(c *gin.Context, param string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil || id == 0 {
		svcErr.JSON(c, svcErr.InvalidArgument(param+" must be a valid user id"))
		return 0, false
	}
	return id, true
}

// handleSearch runs a match search and renders the typed outcome.
// Negative admission (cooldown, no favorites) is a 200 with a status
// the client switches on, not an error.
func (s *Service) handleSearch(c *gin.Context) {
	userID, ok := parseUserID(c, "id")
	if !ok {
		return
	}

	result, err := s.SearchMatches(c.Request.Context(), userID)
	if err != nil {
		s.appCtx.Logger.Error("search failed", "user", userID, "err", err)
		svcErr.JSON(c, err)
		return
	}

	switch result.Status {
	case StatusOnCooldown:
		c.JSON(http.StatusOK, gin.H{
			"status":              StatusOnCooldown,
			"newMatches":          0,
			"cooldownEnd":         result.CooldownEnd.UnixMilli(),
			"retryAfterSeconds":   int64(result.Remaining.Seconds()),
			"remainingTimeString": result.Remaining.Round(time.Second).String(),
		})
	case StatusNoFavorites:
		c.JSON(http.StatusOK, gin.H{
			"status":     StatusNoFavorites,
			"newMatches": 0,
			"message":    "favorite some shows before searching for matches",
		})
	default:
		c.JSON(http.StatusOK, gin.H{
			"status":      StatusOK,
			"newMatches":  result.NewMatches,
			"matches":     toMatchJSON(result.Matches),
			"cooldownEnd": result.CooldownEnd.UnixMilli(),
		})
	}
}

func (s *Service) handleListMatches(c *gin.Context) {
	userID, ok := parseUserID(c, "id")
	if !ok {
		return
	}

	var token *string
	if v := c.Query("pageToken"); v != "" {
		token = &v
	}
	limit := 0
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	records, nextToken, err := s.Matches(c.Request.Context(), userID, token, limit)
	if err != nil {
		svcErr.JSON(c, err)
		return
	}

	count, err := s.MatchCount(c.Request.Context(), userID)
	if err != nil {
		svcErr.JSON(c, err)
		return
	}

	resp := gin.H{"matches": toMatchJSON(records), "total": count}
	if nextToken != nil {
		resp["nextPageToken"] = *nextToken
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Service) handleCooldown(c *gin.Context) {
	userID, ok := parseUserID(c, "id")
	if !ok {
		return
	}

	status, err := s.Cooldown(c.Request.Context(), userID)
	if err != nil {
		svcErr.JSON(c, err)
		return
	}

	resp := gin.H{
		"searchCount":      status.SearchCount,
		"remainingSeconds": int64(status.Remaining.Seconds()),
	}
	if !status.CooldownEnd.IsZero() {
		resp["cooldownEnd"] = status.CooldownEnd.UnixMilli()
	}
	if status.Remaining > 0 {
		resp["remainingTimeString"] = status.Remaining.Round(time.Second).String()
	}
	c.JSON(http.StatusOK, resp)
}

// handleUnmatch always answers 200 for an existing-or-not pair
// (idempotent); a partial conversation cleanup failure rides along as
// a warning.
func (s *Service) handleUnmatch(c *gin.Context) {
	userID, ok := parseUserID(c, "id")
	if !ok {
		return
	}
	otherID, ok := parseUserID(c, "other")
	if !ok {
		return
	}

	warning, err := s.Unmatch(c.Request.Context(), userID, otherID)
	if err != nil {
		svcErr.JSON(c, err)
		return
	}

	resp := gin.H{"unmatched": true}
	if warning != "" {
		resp["warning"] = warning
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Service) handleBlock(c *gin.Context) {
	userID, ok := parseUserID(c, "id")
	if !ok {
		return
	}
	otherID, ok := parseUserID(c, "other")
	if !ok {
		return
	}
	if userID == otherID {
		svcErr.JSON(c, svcErr.InvalidArgument("cannot block yourself"))
		return
	}

	warning, err := s.Block(c.Request.Context(), userID, otherID)
	if err != nil {
		svcErr.JSON(c, err)
		return
	}

	resp := gin.H{"blocked": true}
	if warning != "" {
		resp["warning"] = warning
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Service) handleUnblock(c *gin.Context) {
	userID, ok := parseUserID(c, "id")
	if !ok {
		return
	}
	otherID, ok := parseUserID(c, "other")
	if !ok {
		return
	}

	if err := s.Unblock(c.Request.Context(), userID, otherID); err != nil {
		svcErr.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unblocked": true})
}

func (s *Service) handleStartConversation(c *gin.Context) {
	userID, ok := parseUserID(c, "id")
	if !ok {
		return
	}
	otherID, ok := parseUserID(c, "other")
	if !ok {
		return
	}

	conversationID, err := s.StartConversation(c.Request.Context(), userID, otherID)
	if err != nil {
		svcErr.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversationId": conversationID})
}
