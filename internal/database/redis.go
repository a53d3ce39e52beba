package database

import (
	"context"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"github.com/prisonfinance/ledgersync/internal/config"
)

// OpenRedis returns nil when Redis is unreachable; the service then runs
// without the event bus and forwarding is left to reconciliation.
func OpenRedis(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", cfg.Addr()).Msg("redis connection failed, continuing without event bus")
		rdb.Close()
		return nil
	}

	log.Info().Str("addr", cfg.Addr()).Msg("redis connection established")
	return rdb
}
