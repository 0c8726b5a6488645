package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"social-publisher/domain/dto"

	"github.com/redis/go-redis/v9"
)

// IConnectionCache caches the per-user connection status panel so the status
// endpoint does not hit both platforms on every page load.
type IConnectionCache interface {
	Get(ctx context.Context, userID string) (*dto.ConnectionStatus, error)
	Set(ctx context.Context, userID string, status *dto.ConnectionStatus, ttl time.Duration) error
	Invalidate(ctx context.Context, userID string) error
}

type ConnectionCache struct {
	client *redis.Client
}

func NewConnectionCache(client *redis.Client) IConnectionCache {
	return &ConnectionCache{client: client}
}

func connectionKey(userID string) string {
	return fmt.Sprintf("connections:status:%s", userID)
}

// Get returns nil without error on a cache miss or when Redis is not wired.
func (c *ConnectionCache) Get(ctx context.Context, userID string) (*dto.ConnectionStatus, error) {
	if c.client == nil {
		return nil, nil
	}
	raw, err := c.client.Get(ctx, connectionKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	status := &dto.ConnectionStatus{}
	if err := json.Unmarshal([]byte(raw), status); err != nil {
		return nil, err
	}
	return status, nil
}

func (c *ConnectionCache) Set(ctx context.Context, userID string, status *dto.ConnectionStatus, ttl time.Duration) error {
	if c.client == nil {
		return nil
	}
	raw, err := json.Marshal(status)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, connectionKey(userID), raw, ttl).Err()
}

func (c *ConnectionCache) Invalidate(ctx context.Context, userID string) error {
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, connectionKey(userID)).Err()
}
