package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	client *redis.Client
}

// New creates a new Redis client
func New(ctx context.Context, redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("Redis ping failed: %w", err)
	}

	return &Client{client: client}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.client.Close()
}

// incrWithCeiling increments the window counter only while it is below the
// limit, and returns the resulting count plus an admitted flag. Running it
// as one script makes the read-check-increment atomic per key, so two
// concurrent requests for the same identity cannot both slip past the
// ceiling.
var incrWithCeiling = redis.NewScript(`
local count = tonumber(redis.call('GET', KEYS[1]) or '0')
if count >= tonumber(ARGV[1]) then
	return {count, 0}
end
count = redis.call('INCR', KEYS[1])
if count == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return {count, 1}
`)

// IncrWindow atomically increments the counter for key unless it has reached
// limit. The TTL bounds how long a closed window's row lingers; stale windows
// are never read because the window start is part of the key.
func (c *Client) IncrWindow(ctx context.Context, key string, limit int, ttl time.Duration) (int64, bool, error) {
	res, err := incrWithCeiling.Run(ctx, c.client, []string{key}, limit, ttl.Milliseconds()).Result()
	if err != nil {
		return 0, false, fmt.Errorf("rate window increment failed: %w", err)
	}

	vals, ok := res.([]interface{})
	if !ok || len(vals) != 2 {
		return 0, false, fmt.Errorf("unexpected rate window script reply: %v", res)
	}

	count, _ := vals[0].(int64)
	admitted, _ := vals[1].(int64)
	return count, admitted == 1, nil
}
