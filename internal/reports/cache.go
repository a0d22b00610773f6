package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Cache stores rendered report payloads in Redis under a per-business
// version. Bumping the version after a committed movement makes every
// cached report for that business stale at once, without tracking keys.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs the report cache.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Bump invalidates all cached reports of the business. Implements the
// inventory invalidation port.
func (c *Cache) Bump(ctx context.Context, businessID uuid.UUID) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, versionKey(businessID)).Err()
}

// Get loads a cached report into dest. The boolean reports a hit.
func (c *Cache) Get(ctx context.Context, businessID uuid.UUID, name string, dest any) (bool, error) {
	if c == nil || c.client == nil {
		return false, nil
	}
	version, err := c.version(ctx, businessID)
	if err != nil {
		return false, err
	}
	payload, err := c.client.Get(ctx, reportKey(businessID, version, name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return false, nil
	}
	return true, nil
}

// Set stores a rendered report under the current version.
func (c *Cache) Set(ctx context.Context, businessID uuid.UUID, name string, value any) error {
	if c == nil || c.client == nil {
		return nil
	}
	version, err := c.version(ctx, businessID)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, reportKey(businessID, version, name), payload, c.ttl).Err()
}

func (c *Cache) version(ctx context.Context, businessID uuid.UUID) (int64, error) {
	version, err := c.client.Get(ctx, versionKey(businessID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	return version, nil
}

func versionKey(businessID uuid.UUID) string {
	return "reports:version:" + businessID.String()
}

func reportKey(businessID uuid.UUID, version int64, name string) string {
	return fmt.Sprintf("reports:%s:v%d:%s", businessID, version, name)
}
