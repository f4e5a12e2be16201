package main

import (
	"context"
	"log/slog"
	"time"

	"finboard/pkg/config"
	"finboard/pkg/ratelimit"
	"finboard/pkg/store"
	"finboard/pkg/store/backend"
)

// initStore opens the configured backend, migrating it when DB_AUTO_MIGRATE is set.
func initStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	st, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("store ready", "backend", cfg.Backend)
	return st, nil
}

// initCounters returns the rate limit counter store: Redis when REDIS_URL is
// set, process memory otherwise. The returned func releases it.
func initCounters(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ratelimit.Store, func(), error) {
	if cfg.RedisURL == "" {
		mem := ratelimit.NewMemoryStore(5 * time.Minute)
		logger.Info("rate limit counters in memory")
		return mem, mem.Stop, nil
	}
	client, err := ratelimit.DialRedis(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("rate limit counters in redis")
	return ratelimit.NewRedisStore(client), func() { _ = client.Close() }, nil
}
