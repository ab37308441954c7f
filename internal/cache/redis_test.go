package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisStore_PutAndGet(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newRedis(t)
	s := NewRedisStore(rdb, Scope{Key: "models", BaseURL: "https://api.openai.com/", Profile: "default"}, time.Minute)

	s.Put(ctx, []string{"gpt-4", "gpt-3.5-turbo"})

	var got []string
	require.True(t, s.Get(ctx, &got))
	assert.Equal(t, []string{"gpt-4", "gpt-3.5-turbo"}, got)
	assert.True(t, mr.Exists(s.Key()))
	assert.Equal(t, time.Minute, mr.TTL(s.Key()))
}

func TestRedisStore_ExpiresWithKeyTTL(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newRedis(t)
	s := NewRedisStore(rdb, Scope{Key: "models"}, time.Minute)

	s.Put(ctx, []string{"a"})
	mr.FastForward(2 * time.Minute)

	var got []string
	assert.False(t, s.Get(ctx, &got))
}

func TestRedisStore_Clear(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newRedis(t)
	s := NewRedisStore(rdb, Scope{Key: "models"}, 0)

	s.Put(ctx, []string{"a"})
	s.Clear(ctx)

	assert.False(t, mr.Exists(s.Key()))
	assert.Equal(t, DefaultTTL, s.ttl)
}

func TestRedisStore_DisabledByEnv(t *testing.T) {
	t.Setenv("OAI_NO_CACHE", "1")
	ctx := context.Background()
	mr, rdb := newRedis(t)
	s := NewRedisStore(rdb, Scope{Key: "models"}, time.Minute)

	s.Put(ctx, []string{"a"})
	assert.False(t, mr.Exists(s.Key()))
}

func TestRedisStore_MissOnServerDown(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newRedis(t)
	s := NewRedisStore(rdb, Scope{Key: "models"}, time.Minute)
	s.Put(ctx, []string{"a"})
	mr.Close()

	var got []string
	assert.False(t, s.Get(ctx, &got))
}

func TestClearAllRedis(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newRedis(t)
	NewRedisStore(rdb, Scope{Key: "models", Profile: "a"}, time.Minute).Put(ctx, []string{"a"})
	NewRedisStore(rdb, Scope{Key: "models", Profile: "b"}, time.Minute).Put(ctx, []string{"b"})
	require.NoError(t, mr.Set("unrelated", "keep"))

	removed, err := ClearAllRedis(ctx, rdb)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.True(t, mr.Exists("unrelated"))
}

func TestOpen_UsesRedisWhenConfigured(t *testing.T) {
	mr := miniredis.RunT(t)
	t.Setenv("OAI_CACHE_REDIS_URL", "redis://"+mr.Addr()+"/0")

	store, err := Open(t.TempDir(), Scope{Key: "models"}, time.Minute)
	require.NoError(t, err)
	rs, ok := store.(*RedisStore)
	require.True(t, ok, "expected *RedisStore, got %T", store)
	t.Cleanup(func() { _ = rs.Close() })

	ctx := context.Background()
	rs.Put(ctx, []string{"x"})
	assert.True(t, mr.Exists(rs.Key()))
}

func TestClearRedisURL(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newRedis(t)
	NewRedisStore(rdb, Scope{Key: "models"}, time.Minute).Put(ctx, []string{"a"})

	removed, err := ClearRedisURL(ctx, "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = ClearRedisURL(ctx, "http://not-redis")
	assert.Error(t, err)
}
