package match

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/showmatch/showmatch-backend/internal/app"
	"github.com/showmatch/showmatch-backend/internal/cooldown"
	"github.com/showmatch/showmatch-backend/internal/db"
	"github.com/showmatch/showmatch-backend/internal/repository"
)

// SearchStatus is the variant tag of a SearchResult. Negative outcomes
// (no favorites, active cooldown) are normal results, not errors; only
// infrastructure failures surface as an error return.
type SearchStatus string

const (
	StatusOK          SearchStatus = "ok"
	StatusNoFavorites SearchStatus = "no_favorites"
	StatusOnCooldown  SearchStatus = "on_cooldown"
)

// SearchResult is the typed outcome of a match search.
type SearchResult struct {
	Status     SearchStatus
	NewMatches int
	Matches    []db.MatchRecord
	// CooldownEnd is the next allowed search time. Set on StatusOK
	// (the cooldown just scheduled) and StatusOnCooldown (the one
	// still running).
	CooldownEnd time.Time
	// Remaining is how long until CooldownEnd, on StatusOnCooldown.
	Remaining time.Duration
}

// CooldownStatus is the read-only view of a user's cooldown state.
type CooldownStatus struct {
	SearchCount int64
	CooldownEnd time.Time
	Remaining   time.Duration
}

// Service implements the match discovery engine: preference index
// refresh, match resolution, cooldown admission, and the
// unmatch/block/conversation operations around the match list.
type Service struct {
	appCtx        *app.AppContext
	users         *repository.UserRepository
	favorites     *repository.FavoriteRepository
	prefs         *repository.PreferenceRepository
	matches       *repository.MatchRepository
	blocks        *repository.BlockRepository
	conversations *repository.ConversationRepository
	governor      *cooldown.Governor

	threshold      int
	superThreshold int
	now            func() time.Time
}

// NewMatchService creates the match service with dependencies from AppContext.
// Thresholds and the cooldown schedule come from config (spec defaults
// 3 / 7 / 1m,2m,5m).
func NewMatchService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:         appCtx,
		users:          repository.NewUserRepository(appCtx.DB),
		favorites:      repository.NewFavoriteRepository(appCtx.DB),
		prefs:          repository.NewPreferenceRepository(appCtx.DB),
		matches:        repository.NewMatchRepository(appCtx.DB),
		blocks:         repository.NewBlockRepository(appCtx.DB),
		conversations:  repository.NewConversationRepository(appCtx.DB),
		governor:       cooldown.New(appCtx.RedisCache, appCtx.Cfg.Match.CooldownTiers),
		threshold:      appCtx.Cfg.Match.Threshold,
		superThreshold: appCtx.Cfg.Match.SuperThreshold,
		now:            time.Now,
	}
}

// WithNow overrides the clock, for tests. The governor's clock is
// overridden together with the service's.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	s.governor.WithNow(now)
	return s
}

// SearchMatches runs a full match search for the user.
//
// Pipeline:
//  1. Cooldown admission check — denied searches mutate nothing.
//  2. Load the requester's favorite set; empty set aborts before any
//     further reads.
//  3. Refresh the preference index for the current favorite set, then
//     gather candidates from the index.
//  4. Exclude self, existing match partners and blocked users (blocks
//     count in either direction).
//  5. Per candidate: skip incomplete profiles, apply the mutual
//     compatibility filter, recompute the true favorite intersection,
//     and persist a mirrored record pair when it clears the threshold.
//  6. Commit the cooldown and return the refreshed match list.
//
// Per-candidate failures are logged and skipped; they never abort the
// whole search.
func (s *Service) SearchMatches(ctx context.Context, userID uint64) (*SearchResult, error) {
	log := s.appCtx.Logger

	admission, err := s.governor.Admit(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !admission.Allowed {
		st, err := s.governor.State(ctx, userID)
		if err != nil {
			return nil, err
		}
		log.Debug("search denied by cooldown", "user", userID, "remaining", admission.Remaining)
		return &SearchResult{
			Status:      StatusOnCooldown,
			CooldownEnd: st.CooldownEnd,
			Remaining:   admission.Remaining,
		}, nil
	}

	requester, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	favs, err := s.favorites.ListShowIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(favs) == 0 {
		return &SearchResult{Status: StatusNoFavorites}, nil
	}

	if err := s.prefs.RefreshForUser(ctx, userID, favs); err != nil {
		return nil, err
	}

	var candidates []uint64
	// An incomplete requester profile is an expected state for new
	// users: the search runs, finds nothing, and is not an error.
	if requester.ProfileComplete() {
		candidates, err = s.gatherCandidates(ctx, userID, favs)
		if err != nil {
			return nil, err
		}
	}

	partners, err := s.matches.PartnerIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	blocked, err := s.blocks.BlockedEitherWay(ctx, userID)
	if err != nil {
		return nil, err
	}

	matchedAt := s.now().UTC()
	newMatches := 0

	for _, candidateID := range candidates {
		if _, ok := partners[candidateID]; ok {
			continue
		}
		if _, ok := blocked[candidateID]; ok {
			continue
		}

		candidate, err := s.users.GetByID(ctx, candidateID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				log.Warn("candidate fetch failed, skipping", "candidate", candidateID, "err", err)
			}
			continue
		}
		// Incomplete candidate profiles are skipped, not rejected.
		if !candidate.ProfileComplete() {
			continue
		}
		if !compatible(requester, candidate) {
			continue
		}

		candidateFavs, err := s.favorites.ListShowIDs(ctx, candidateID)
		if err != nil {
			log.Warn("candidate favorites fetch failed, skipping", "candidate", candidateID, "err", err)
			continue
		}

		common := intersect(favs, candidateFavs)
		if len(common) < s.threshold {
			continue
		}

		level := s.levelFor(len(common))
		forRequester := buildRecord(userID, candidate, level, common, matchedAt)
		forCandidate := buildRecord(candidateID, requester, level, common, matchedAt)

		if err := s.matches.InsertPair(ctx, forRequester, forCandidate); err != nil {
			log.Error("match pair write failed", "user", userID, "candidate", candidateID, "err", err)
			continue
		}
		newMatches++
		s.refreshMatchCountCache(ctx, candidateID)
	}

	end, err := s.governor.Commit(ctx, userID)
	if err != nil {
		// Matches already written stay; the cooldown alone failed.
		return nil, err
	}

	list, _, err := s.matches.ListForUser(ctx, userID, nil, 0)
	if err != nil {
		return nil, err
	}
	s.refreshMatchCountCache(ctx, userID)

	log.Info("match search finished", "user", userID, "new_matches", newMatches, "cooldown_end", end)

	return &SearchResult{
		Status:      StatusOK,
		NewMatches:  newMatches,
		Matches:     list,
		CooldownEnd: end,
	}, nil
}

// gatherCandidates unions the favoriters of every show in the
// requester's set. The per-candidate occurrence count is informational
// only; the decision is made on the true intersection recomputed from
// each candidate's full favorite set.
func (s *Service) gatherCandidates(ctx context.Context, userID uint64, favs []string) ([]uint64, error) {
	seen := make(map[uint64]int)
	var order []uint64
	for _, showID := range favs {
		favoriters, err := s.prefs.LookupFavoriters(ctx, showID)
		if err != nil {
			return nil, err
		}
		for _, id := range favoriters {
			if id == userID {
				continue
			}
			if seen[id] == 0 {
				order = append(order, id)
			}
			seen[id]++
		}
	}
	return order, nil
}

// Matches returns the user's match list, newest first, with optional
// cursor pagination.
func (s *Service) Matches(ctx context.Context, userID uint64, paginationToken *string, limit int) ([]db.MatchRecord, *string, error) {
	return s.matches.ListForUser(ctx, userID, paginationToken, limit)
}

// MatchCount returns the size of the user's match list.
// Cache-first: Redis (matches:count:<uid>, 1h TTL) with DB fallback.
func (s *Service) MatchCount(ctx context.Context, userID uint64) (int64, error) {
	key := s.appCtx.RedisCache.KeyForMatchCount(userID)
	if cached, _ := s.appCtx.RedisCache.Get(ctx, key); cached != "" {
		if n, err := s.appCtx.RedisCache.GetMatchCount(ctx, userID); err == nil {
			return n, nil
		}
	}

	count, err := s.matches.CountForUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	_ = s.appCtx.RedisCache.UpdateMatchCount(ctx, userID, count)
	return count, nil
}

// Cooldown returns the user's current cooldown state. Remaining is
// recomputed against the wall clock on every call, never cached.
func (s *Service) Cooldown(ctx context.Context, userID uint64) (*CooldownStatus, error) {
	st, err := s.governor.State(ctx, userID)
	if err != nil {
		return nil, err
	}
	status := &CooldownStatus{
		SearchCount: st.SearchCount,
		CooldownEnd: st.CooldownEnd,
	}
	if now := s.now(); st.Cooling(now) {
		status.Remaining = st.CooldownEnd.Sub(now)
	}
	return status, nil
}

// Unmatch removes the pairing between the two users from both match
// lists (one transaction) and best-effort deletes their conversation.
// Conversation cleanup failure is logged and returned as a warning
// string, not rolled back: the match removal stands.
//
// Idempotent: unmatching a non-existent pair is a no-op.
func (s *Service) Unmatch(ctx context.Context, userID, otherID uint64) (warning string, err error) {
	if err := s.matches.RemovePair(ctx, userID, otherID); err != nil {
		return "", err
	}

	if err := s.conversations.DeletePair(ctx, userID, otherID); err != nil {
		s.appCtx.Logger.Warn("conversation cleanup failed after unmatch",
			"user", userID, "other", otherID, "err", err)
		warning = "unmatched, but conversation cleanup failed"
	}

	s.refreshMatchCountCache(ctx, userID)
	s.refreshMatchCountCache(ctx, otherID)
	return warning, nil
}

// Block puts otherID on userID's block list, then unmatches the pair.
// Future searches exclude the pair in both directions.
func (s *Service) Block(ctx context.Context, userID, otherID uint64) (warning string, err error) {
	if err := s.blocks.Add(ctx, userID, otherID); err != nil {
		return "", err
	}
	return s.Unmatch(ctx, userID, otherID)
}

// Unblock removes otherID from userID's block list. Any match removed
// by the original block is not restored.
func (s *Service) Unblock(ctx context.Context, userID, otherID uint64) error {
	return s.blocks.Remove(ctx, userID, otherID)
}

// StartConversation opens (or returns) the conversation for a matched
// pair and flips chatting_with on both match records. The flag
// transitions false→true exactly once and never reverts.
func (s *Service) StartConversation(ctx context.Context, userID, otherID uint64) (conversationID string, err error) {
	id, created, err := s.conversations.Create(ctx, userID, otherID)
	if err != nil {
		return "", err
	}
	if created {
		if err := s.matches.SetChatting(ctx, userID, otherID); err != nil {
			return "", err
		}
	}
	return id, nil
}

func (s *Service) refreshMatchCountCache(ctx context.Context, userID uint64) {
	count, err := s.matches.CountForUser(ctx, userID)
	if err != nil {
		return
	}
	_ = s.appCtx.RedisCache.UpdateMatchCount(ctx, userID, count)
}

func (s *Service) levelFor(k int) string {
	if k >= s.superThreshold {
		return db.MatchLevelSuperMatch
	}
	return db.MatchLevelMatch
}

// compatible applies the mutual preference filter: each side's
// match_with must accept the other's gender, and if either side wants
// local matching both must share a location.
func compatible(a, b *db.User) bool {
	if !genderAccepted(a.MatchWith, b.Gender) || !genderAccepted(b.MatchWith, a.Gender) {
		return false
	}
	if a.MatchLocation == db.MatchLocationLocal || b.MatchLocation == db.MatchLocationLocal {
		return a.Location == b.Location
	}
	return true
}

func genderAccepted(matchWith, gender string) bool {
	return matchWith == "" || matchWith == db.MatchWithEveryone || matchWith == gender
}

// intersect returns the common elements of a and b, in a's order.
func intersect(a, b []string) []string {
	set := make(map[string]struct{}, len(b))
	for _, s := range b {
		set[s] = struct{}{}
	}
	var common []string
	for _, s := range a {
		if _, ok := set[s]; ok {
			common = append(common, s)
		}
	}
	return common
}

func buildRecord(ownerID uint64, other *db.User, level string, common []string, at time.Time) db.MatchRecord {
	return db.MatchRecord{
		OwnerID:       ownerID,
		OtherID:       other.ID,
		DisplayName:   other.DisplayName,
		ProfilePic:    other.ProfilePic,
		Age:           other.Age,
		Location:      other.Location,
		Gender:        other.Gender,
		MatchLevel:    level,
		CommonShowIDs: append(db.ShowIDList{}, common...),
		MatchedAt:     at,
	}
}
