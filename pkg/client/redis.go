package client

import (
	"context"
	"time"

	"roombook/pkg/logger"

	"github.com/redis/go-redis/v9"
)

type RedisOptions struct {
	Addr        string
	Password    string
	DB          int
	PoolSize    int
	DialTimeout time.Duration
}

// connectRedis logs a failed ping and still returns the client. Cache callers
// handle unreachable Redis per request.
func connectRedis(log *logger.Logger, opts RedisOptions) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		PoolSize:    opts.PoolSize,
		DialTimeout: opts.DialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), opts.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("Redis ping failed, continuing without a warm cache connection", "addr", opts.Addr, "error", err)
		return client
	}

	log.Info("Successfully connected to Redis", "addr", opts.Addr)
	return client
}
