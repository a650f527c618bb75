package revocation

import (
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/sellcourse/sellcourse-backend/pkg/env"
)

func TestMemory(t *testing.T) {
	m := NewMemory()
	ctx := t.Context()

	require.NoError(t, m.Revoke(ctx, "a", time.Now().Add(time.Hour)))
	require.NoError(t, m.Revoke(ctx, "past", time.Now().Add(-time.Second)))
	require.NoError(t, m.Revoke(ctx, "", time.Now().Add(time.Hour)))

	ok, err := m.IsRevoked(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = m.IsRevoked(ctx, "past")
	assert.False(t, ok, "already expired tokens need no entry")

	ok, _ = m.IsRevoked(ctx, "b")
	assert.False(t, ok)

	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	ok, _ = m.IsRevoked(ctx, "a")
	assert.False(t, ok, "entries lapse with the token")
}

// TestRedis needs a reachable server at REDIS_ADDR.
func TestRedis(t *testing.T) {
	addr := env.GetOrDefault("REDIS_ADDR", "")
	if testing.Short() || addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, Ping(t.Context(), client))

	r := NewRedis(Args{Client: client, KeyPrefix: "test:" + t.Name() + ":"})
	ctx := t.Context()

	require.NoError(t, r.Revoke(ctx, "jti-1", time.Now().Add(time.Minute)))

	ok, err := r.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, ok)
}
