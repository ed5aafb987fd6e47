package cooldown_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/showmatch/showmatch-backend/internal/cache"
	"github.com/showmatch/showmatch-backend/internal/config"
	"github.com/showmatch/showmatch-backend/internal/cooldown"
)

// setupGovernor wires a Governor to a fresh miniredis with a fixed
// clock the test can move.
func setupGovernor(t *testing.T) (*cooldown.Governor, *time.Time) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	g := cooldown.New(cache.NewRedisCache(cfg), nil).
		WithNow(func() time.Time { return now })
	return g, &now
}

func TestAdmit_FreshUserIsAllowed(t *testing.T) {
	ctx := context.Background()
	g, _ := setupGovernor(t)

	adm, err := g.Admit(ctx, 1)
	require.NoError(t, err)
	assert.True(t, adm.Allowed)

	st, err := g.State(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), st.SearchCount)
	assert.True(t, st.CooldownEnd.IsZero())
}

// TestCommit_Escalation checks the schedule: 1m, 2m, then 5m for every
// search from the third on.
func TestCommit_Escalation(t *testing.T) {
	ctx := context.Background()
	g, now := setupGovernor(t)

	expected := []time.Duration{
		time.Minute,
		2 * time.Minute,
		5 * time.Minute,
		5 * time.Minute, // 4th search repeats tier 3
	}

	for i, want := range expected {
		end, err := g.Commit(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, now.Add(want), end, "search %d", i+1)

		// wait out the cooldown before the next search
		*now = end.Add(time.Second)
	}

	st, err := g.State(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(4), st.SearchCount)
}

func TestAdmit_DeniedWhileCooling(t *testing.T) {
	ctx := context.Background()
	g, now := setupGovernor(t)

	end, err := g.Commit(ctx, 1)
	require.NoError(t, err)

	*now = now.Add(30 * time.Second)
	adm, err := g.Admit(ctx, 1)
	require.NoError(t, err)
	assert.False(t, adm.Allowed)
	assert.Equal(t, 30*time.Second, adm.Remaining)

	// denial mutates nothing
	st, err := g.State(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.SearchCount)
	assert.Equal(t, end.UnixMilli(), st.CooldownEnd.UnixMilli())
}

// Expiry is inferred by wall-clock comparison, so time passing while
// the process is gone (backgrounded app, restart) needs no event.
func TestAdmit_AllowedAfterExpiry(t *testing.T) {
	ctx := context.Background()
	g, now := setupGovernor(t)

	end, err := g.Commit(ctx, 1)
	require.NoError(t, err)

	*now = end.Add(time.Millisecond)
	adm, err := g.Admit(ctx, 1)
	require.NoError(t, err)
	assert.True(t, adm.Allowed)
}

func TestGovernor_PerUserIsolation(t *testing.T) {
	ctx := context.Background()
	g, _ := setupGovernor(t)

	_, err := g.Commit(ctx, 1)
	require.NoError(t, err)

	adm, err := g.Admit(ctx, 2)
	require.NoError(t, err)
	assert.True(t, adm.Allowed)
}
