package redis

import (
	"context"
	"fmt"
	"time"

	"solana-payment-gateway/config"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	dialTimeout = 5 * time.Second
	opTimeout   = 2 * time.Second
)

// keyspaces lists the key prefixes this service writes.
var keyspaces = []string{
	referenceKeyPrefix,
	stateKeyPrefix,
	rateLimitKeyPrefix,
}

// NewClient connects to the Redis instance holding the reference registry,
// the payment state cache and rate-limit counters.
func NewClient(ctx context.Context, cfg config.RedisConfig, log zerolog.Logger) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  dialTimeout,
		ReadTimeout:  opTimeout,
		WriteTimeout: opTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis at %s: %w", cfg.Addr(), err)
	}

	log.Info().
		Str("store", "payment_state").
		Str("addr", cfg.Addr()).
		Int("db", cfg.DB).
		Strs("keyspaces", keyspaces).
		Msg("reference registry and state cache ready")

	return client, nil
}
