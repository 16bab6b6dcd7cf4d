package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardKey(t *testing.T) {
	assert.Equal(t, "dashboard:market-overview", DashboardKey("market-overview"))
	assert.Equal(t, "dashboard:brand-revenue:12", DashboardKey("brand-revenue", "12"))
}

func TestDisabledCacheIsTransparent(t *testing.T) {
	ctx := context.Background()
	r := New(nil)
	assert.False(t, r.Enabled())

	var out map[string]int
	ok, err := r.GetJSON(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, r.SetJSON(ctx, "k", 1, time.Minute))

	blacklisted, err := r.IsTokenBlacklisted(ctx, "jti")
	require.NoError(t, err)
	assert.False(t, blacklisted)
	require.NoError(t, r.BlacklistToken(ctx, "jti", time.Minute))

	n, err := r.IncrementRateLimit(ctx, "rl", time.Minute)
	require.NoError(t, err)
	assert.Zero(t, n)

	deleted, err := r.InvalidateDashboard(ctx)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestRememberLoadsEachTimeWithoutRedis(t *testing.T) {
	calls := 0
	load := func() ([]string, error) {
		calls++
		return []string{"whey"}, nil
	}

	for i := 0; i < 2; i++ {
		v, err := Remember(context.Background(), New(nil), "dashboard:x", time.Minute, load)
		require.NoError(t, err)
		assert.Equal(t, []string{"whey"}, v)
	}
	assert.Equal(t, 2, calls)
}

func TestRememberSurvivesRedisOutage(t *testing.T) {
	// Aucun serveur n'écoute sur ce port
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	v, err := Remember(context.Background(), New(client), "dashboard:x", time.Minute, func() (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	boom := errors.New("boom")
	_, err = Remember(context.Background(), New(client), "dashboard:y", time.Minute, func() (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
}
