// Package dedup coordinates snapshot writer runs through Redis so two runs
// never write the same snapshot point.
package dedup

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Claimer hands out short-lived exclusive claims on keys.
type Claimer struct {
	rdb *redis.Client
}

// New creates a Claimer backed by Redis.
func New(redisURL, password string) (*Claimer, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	if password != "" {
		opts.Password = password
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close() //nolint:errcheck
		return nil, err
	}
	return &Claimer{rdb: rdb}, nil
}

// Close shuts down the Redis connection.
func (c *Claimer) Close() error {
	return c.rdb.Close()
}

// Claim takes key for ttl. It returns false when another run holds the key
// or Redis cannot be reached (fail closed).
func (c *Claimer) Claim(ctx context.Context, key string, ttl time.Duration) bool {
	ok, err := c.rdb.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	return err == nil && ok
}

// AlreadyClaimed reports whether key is held. Errors count as held.
func (c *Claimer) AlreadyClaimed(ctx context.Context, key string) bool {
	exists, err := c.rdb.Exists(ctx, key).Result()
	return err != nil || exists > 0
}

// Release drops a claim so a later run may retry.
func (c *Claimer) Release(ctx context.Context, key string) {
	c.rdb.Del(ctx, key) //nolint:errcheck
}

// ReleaseByPattern drops every claim matching a glob pattern.
func (c *Claimer) ReleaseByPattern(ctx context.Context, pattern string) {
	iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		c.rdb.Del(ctx, iter.Val()) //nolint:errcheck
	}
}
