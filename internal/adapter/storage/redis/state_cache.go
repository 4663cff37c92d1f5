package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"solana-payment-gateway/internal/core/domain"

	goredis "github.com/redis/go-redis/v9"
)

const stateKeyPrefix = "payment:state:"

// StateCache implements ports.StateCache, storing each PaymentState as JSON.
type StateCache struct {
	client *goredis.Client
	prefix string
}

// NewStateCache creates a new Redis-backed payment state cache.
func NewStateCache(client *goredis.Client) *StateCache {
	return &StateCache{
		client: client,
		prefix: stateKeyPrefix,
	}
}

// Get returns the cached state, or nil, nil if the key does not exist.
func (c *StateCache) Get(ctx context.Context, reference string) (*domain.PaymentState, error) {
	raw, err := c.client.Get(ctx, c.prefix+reference).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis state get: %w", err)
	}
	var st domain.PaymentState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("decode cached state: %w", err)
	}
	return &st, nil
}

// Set stores state with TTL.
func (c *StateCache) Set(ctx context.Context, reference string, state *domain.PaymentState, ttl time.Duration) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+reference, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis state set: %w", err)
	}
	return nil
}
