// Package cooldown implements the search cooldown governor: a per-user
// rate limiter with an escalating penalty schedule. State lives in
// Redis so it survives restarts and is shared across a user's devices;
// this is the authoritative admission control, clients only display the
// end time it returns.
package cooldown

import (
	"context"
	"fmt"
	"time"

	"github.com/showmatch/showmatch-backend/internal/cache"
)

// DefaultTiers is the escalation schedule: 1st search 1 minute, 2nd
// 2 minutes, 3rd and every later one 5 minutes.
var DefaultTiers = []time.Duration{time.Minute, 2 * time.Minute, 5 * time.Minute}

// Admission is the result of an admission check. No state is mutated
// on denial.
type Admission struct {
	Allowed   bool
	Remaining time.Duration
}

// State is a user's persisted cooldown state. A zero CooldownEnd means
// the user has never searched.
type State struct {
	SearchCount int64
	CooldownEnd time.Time
}

// Cooling reports whether a cooldown is still active at the given time.
// Expiry is inferred by wall-clock comparison; there is no explicit
// transition event.
func (s State) Cooling(now time.Time) bool {
	return !s.CooldownEnd.IsZero() && s.CooldownEnd.After(now)
}

// Governor throttles match searches per user.
type Governor struct {
	rdb   *cache.RedisCache
	tiers []time.Duration
	now   func() time.Time
}

// New creates a Governor using the given tier schedule (DefaultTiers
// when empty).
func New(rdb *cache.RedisCache, tiers []time.Duration) *Governor {
	if len(tiers) == 0 {
		tiers = DefaultTiers
	}
	return &Governor{rdb: rdb, tiers: tiers, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (g *Governor) WithNow(now func() time.Time) *Governor {
	g.now = now
	return g
}

func keyForCount(userID uint64) string {
	return fmt.Sprintf("search:count:%d", userID)
}

func keyForEnd(userID uint64) string {
	return fmt.Sprintf("search:cooldown_end:%d", userID)
}

// Admit checks whether the user may search right now. The check is
// recomputed against the stored end time on every call; nothing is
// cached client-side and a denied attempt mutates nothing.
func (g *Governor) Admit(ctx context.Context, userID uint64) (Admission, error) {
	st, err := g.State(ctx, userID)
	if err != nil {
		return Admission{}, err
	}
	now := g.now()
	if st.Cooling(now) {
		return Admission{Allowed: false, Remaining: st.CooldownEnd.Sub(now)}, nil
	}
	return Admission{Allowed: true}, nil
}

// Commit records a successful search: increments the search count and
// schedules the next allowed search time per the escalation schedule.
// The count grows monotonically; the tier function saturates at the
// last tier, so there is nothing to wrap.
func (g *Governor) Commit(ctx context.Context, userID uint64) (time.Time, error) {
	count, err := g.rdb.Incr(ctx, keyForCount(userID))
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to bump search count: %w", err)
	}

	end := g.now().Add(g.tier(count))
	if err := g.rdb.Set(ctx, keyForEnd(userID), end.UnixMilli(), 0); err != nil {
		return time.Time{}, fmt.Errorf("failed to store cooldown end: %w", err)
	}
	return end, nil
}

// State reads the user's persisted cooldown state.
func (g *Governor) State(ctx context.Context, userID uint64) (State, error) {
	count, _, err := g.rdb.GetInt64(ctx, keyForCount(userID))
	if err != nil {
		return State{}, fmt.Errorf("failed to read search count: %w", err)
	}

	endMilli, ok, err := g.rdb.GetInt64(ctx, keyForEnd(userID))
	if err != nil {
		return State{}, fmt.Errorf("failed to read cooldown end: %w", err)
	}

	st := State{SearchCount: count}
	if ok {
		st.CooldownEnd = time.UnixMilli(endMilli).UTC()
	}
	return st, nil
}

// tier maps the 1-indexed search count to its cooldown duration,
// repeating the last tier for every count past the end of the table.
func (g *Governor) tier(count int64) time.Duration {
	if count < 1 {
		count = 1
	}
	if count > int64(len(g.tiers)) {
		count = int64(len(g.tiers))
	}
	return g.tiers[count-1]
}
