package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func sessionKey(id string) string      { return fmt.Sprintf("session:%s", id) }
func dismissedKey(userID int64) string { return fmt.Sprintf("dismissed:%d", userID) }

// SetSession stores a JSON-encoded session payload with TTL
func (c *Client) SetSession(ctx context.Context, id string, payload interface{}, ttl time.Duration) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, sessionKey(id), b, ttl).Err()
}

// GetSession loads a session payload into dest. Returns redis.Nil when the
// session is absent or expired.
func (c *Client) GetSession(ctx context.Context, id string, dest interface{}) error {
	b, err := c.rdb.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dest)
}

// DeleteSession removes a session
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	return c.rdb.Del(ctx, sessionKey(id)).Err()
}

// DismissAnnouncement records that a user dismissed an announcement
func (c *Client) DismissAnnouncement(ctx context.Context, userID, announcementID int64) error {
	return c.rdb.SAdd(ctx, dismissedKey(userID), announcementID).Err()
}

// DismissedAnnouncements returns the set of announcement ids a user dismissed
func (c *Client) DismissedAnnouncements(ctx context.Context, userID int64) (map[int64]bool, error) {
	vals, err := c.rdb.SMembers(ctx, dismissedKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	dismissed := make(map[int64]bool, len(vals))
	for _, v := range vals {
		var id int64
		if _, err := fmt.Sscanf(v, "%d", &id); err == nil {
			dismissed[id] = true
		}
	}
	return dismissed, nil
}
