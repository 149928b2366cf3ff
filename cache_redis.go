package accesskit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisCache is a DecisionCache backed by Redis, for deployments running
// several portal instances against one assignment store. Decisions are
// stored as JSON under a per-key entry, and each user's keys are tracked in
// a set so InvalidateUser can drop them all in one round trip.
//
// All operations are best effort: a Redis failure reads as a cache miss and
// writes are dropped silently. The engine re-evaluates on every miss, so a
// degraded cache can never grant or deny on its own.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisCache creates a Redis-backed decision cache. The TTL must be
// positive: unlike the in-memory cache there is no process lifetime to
// bound entries, so expiry is the only backstop against out-of-band edits.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisCache{
		client: client,
		ttl:    ttl,
		prefix: "accesskit:decision:",
	}
}

func (c *RedisCache) entryKey(key DecisionKey) string {
	return c.prefix + key.String()
}

func (c *RedisCache) userSetKey(userID string) string {
	return c.prefix + "user:" + userID
}

// Get returns the memoized decision for the key, if present.
func (c *RedisCache) Get(ctx context.Context, key DecisionKey) (*Decision, bool) {
	val, err := c.client.Get(ctx, c.entryKey(key)).Result()
	if err != nil {
		// redis.Nil and transport errors alike read as a miss.
		return nil, false
	}

	var d Decision
	if err := json.Unmarshal([]byte(val), &d); err != nil {
		return nil, false
	}
	return &d, true
}

// Set memoizes a decision and records the entry key in the user's set.
func (c *RedisCache) Set(ctx context.Context, key DecisionKey, decision *Decision) {
	if decision == nil {
		return
	}

	data, err := json.Marshal(decision)
	if err != nil {
		return
	}

	entryKey := c.entryKey(key)
	setKey := c.userSetKey(key.UserID)

	pipe := c.client.Pipeline()
	pipe.Set(ctx, entryKey, string(data), c.ttl)
	pipe.SAdd(ctx, setKey, entryKey)
	// Keep the tracking set alive slightly longer than its entries.
	pipe.Expire(ctx, setKey, c.ttl+time.Minute)
	_, _ = pipe.Exec(ctx)
}

// InvalidateUser drops every entry recorded for the user.
func (c *RedisCache) InvalidateUser(ctx context.Context, userID string) {
	setKey := c.userSetKey(userID)

	keys, err := c.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return
	}

	keys = append(keys, setKey)
	_ = c.client.Del(ctx, keys...).Err()
}
