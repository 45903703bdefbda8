package config

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"parkshare/pkg/logger"
)

// NewRedisClient returns nil when REDIS_HOST is empty or the server does
// not answer. Callers treat a nil client as "no cache".
func NewRedisClient(ctx context.Context, cfg Config, log logger.ILogger) *redis.Client {
	if cfg.RedisHost == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warning("redis unavailable, geocode cache disabled", logger.Error(err))
		_ = client.Close()
		return nil
	}

	log.Info("connected to redis", logger.String("addr", client.Options().Addr))
	return client
}
