package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const referenceKeyPrefix = "payment:reference:"

// ReferenceRegistry implements ports.ReferenceRegistry using Redis SET NX.
// A reference stays reserved for ttl so no two attempts can share it.
type ReferenceRegistry struct {
	client *goredis.Client
	prefix string
}

// NewReferenceRegistry creates a new Redis-backed reference registry.
func NewReferenceRegistry(client *goredis.Client) *ReferenceRegistry {
	return &ReferenceRegistry{
		client: client,
		prefix: referenceKeyPrefix,
	}
}

// Register atomically reserves reference.
// Returns true if the reference is new, false if already registered.
func (r *ReferenceRegistry) Register(ctx context.Context, reference string, ttl time.Duration) (bool, error) {
	result, err := r.client.SetArgs(ctx, r.prefix+reference, time.Now().Unix(), goredis.SetArgs{
		Mode: "NX",
		TTL:  ttl,
	}).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis reference register: %w", err)
	}
	return result == "OK", nil
}

// Release drops a reservation whose attempt was never persisted.
func (r *ReferenceRegistry) Release(ctx context.Context, reference string) error {
	if err := r.client.Del(ctx, r.prefix+reference).Err(); err != nil {
		return fmt.Errorf("redis reference release: %w", err)
	}
	return nil
}
