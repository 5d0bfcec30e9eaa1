package cache

import (
	"context"
	"fmt"

	"github.com/ManuelReschke/ShopFox/internal/pkg/env"
	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
)

var (
	client *redis.Client
	ctx    = context.Background()
)

// SetupCache initializes the connection to the Redis compatible cache server.
// A failed ping leaves the client unset so callers run without cache.
func SetupCache() {
	host := env.GetEnv("CACHE_HOST", "localhost")
	port := env.GetEnv("CACHE_PORT", "6379")

	c := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: env.GetEnv("CACHE_PASSWORD", ""),
		DB:       0,
	})

	pong, err := c.Ping(ctx).Result()
	if err != nil {
		log.Warnf("[Cache] could not connect to cache: %v", err)
		_ = c.Close()
		return
	}
	log.Infof("[Cache] connected to cache: %s", pong)
	client = c
}

// GetClient returns the Redis client instance or nil when no cache is available
func GetClient() *redis.Client {
	return client
}
