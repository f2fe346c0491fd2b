package revocations

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), mr
}

func TestRedis_Revoke(t *testing.T) {
	s, mr := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Revoke(ctx, "tok", time.Now().Add(10*time.Minute)))
	assert.True(t, mr.Exists("banned_token:tok"))
	assert.InDelta(t, (10 * time.Minute).Seconds(), mr.TTL("banned_token:tok").Seconds(), 2)

	revoked, err := s.IsRevoked(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, revoked)

	assert.ErrorIs(t, s.Revoke(ctx, "tok", time.Now().Add(10*time.Minute)), common.ErrAlreadyRevoked)
}

func TestRedis_EntryExpiresWithToken(t *testing.T) {
	s, mr := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Revoke(ctx, "tok", time.Now().Add(time.Minute)))
	mr.FastForward(61 * time.Second)

	revoked, err := s.IsRevoked(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRedis_ExpiredTokenNotStored(t *testing.T) {
	s, mr := newRedisStore(t)

	require.NoError(t, s.Revoke(context.Background(), "old", time.Now().Add(-time.Minute)))
	assert.False(t, mr.Exists("banned_token:old"))
}

func TestRedis_Unavailable(t *testing.T) {
	s, mr := newRedisStore(t)
	mr.Close()

	_, err := s.IsRevoked(context.Background(), "tok")
	assert.Error(t, err)
}
