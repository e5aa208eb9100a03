package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	// UserCacheTTL bounds staleness of cached credential records.
	UserCacheTTL = 1 * time.Hour
	// NoteListCacheTTL bounds staleness of cached per-user note lists.
	NoteListCacheTTL = 5 * time.Minute
)

// Cache is a best-effort byte cache over redis. Every method tolerates a
// nil client: gets miss, sets and deletes do nothing. Callers must treat
// any miss as "read the store instead".
type Cache struct {
	client *redis.Client
}

func New(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) Enabled() bool {
	return c.client != nil
}

// Get returns (nil, nil) on a miss.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	if c.client == nil {
		return nil, nil
	}
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(val), nil
}

func (c *Cache) Set(ctx context.Context, key string, data interface{}, ttl time.Duration) error {
	if c.client == nil {
		return nil
	}
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, jsonData, ttl).Err()
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// Exists reports whether the key is currently cached.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	if c.client == nil {
		return false, nil
	}
	n, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UserKey caches a credential record by username.
func UserKey(username string) string {
	return fmt.Sprintf("user:%s", username)
}

// UserNotesKey caches the full note list of a user.
func UserNotesKey(userID int) string {
	return fmt.Sprintf("notes:%d", userID)
}
