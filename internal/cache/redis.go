package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "oai:cache:"

// RedisStore keeps one entry in Redis, letting several machines share the
// models list. Expiry is enforced by both the key TTL and the entry stamp.
type RedisStore struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a RedisStore on an existing client.
func NewRedisStore(rdb *redis.Client, scope Scope, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{
		rdb: rdb,
		key: redisKeyPrefix + sanitizeKey(scope.Key) + ":" + scope.suffix(),
		ttl: ttl,
	}
}

// NewRedisStoreFromURL parses a redis:// URL and creates a RedisStore.
func NewRedisStoreFromURL(url string, scope Scope, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", envRedisURL, err)
	}
	return NewRedisStore(redis.NewClient(opts), scope, ttl), nil
}

// Key returns the Redis key of the entry.
func (s *RedisStore) Key() string {
	return s.key
}

// Get loads cached items into dst. Returns false on miss or any Redis error.
func (s *RedisStore) Get(ctx context.Context, dst any) bool {
	if disabled() {
		return false
	}
	data, err := s.rdb.Get(ctx, s.key).Bytes()
	if err != nil {
		return false
	}
	return decodeEntry(data, s.ttl, dst)
}

// Put writes items with the store TTL. Errors are ignored.
func (s *RedisStore) Put(ctx context.Context, items any) {
	if disabled() {
		return
	}
	data, ok := encodeEntry(items)
	if !ok {
		return
	}
	_ = s.rdb.Set(ctx, s.key, data, s.ttl).Err()
}

// Clear deletes the entry.
func (s *RedisStore) Clear(ctx context.Context) {
	_ = s.rdb.Del(ctx, s.key).Err()
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

// ClearAllRedis deletes every cache entry under the oai prefix and returns
// how many keys were removed.
func ClearAllRedis(ctx context.Context, rdb *redis.Client) (int, error) {
	removed := 0
	iter := rdb.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n, err := rdb.Del(ctx, iter.Val()).Result()
		if err != nil {
			return removed, err
		}
		removed += int(n)
	}
	if err := iter.Err(); err != nil {
		return removed, err
	}
	return removed, nil
}

// ClearRedisURL connects to the Redis server at url and clears every oai
// cache entry there.
func ClearRedisURL(ctx context.Context, url string) (int, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", envRedisURL, err)
	}
	rdb := redis.NewClient(opts)
	defer func() { _ = rdb.Close() }()
	return ClearAllRedis(ctx, rdb)
}
