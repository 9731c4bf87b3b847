package redis

import (
	"logline-fusion/internal/config"

	"github.com/redis/go-redis/v9"
)

// NewClient builds a redis client from config. Callers own its lifecycle.
func NewClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}
