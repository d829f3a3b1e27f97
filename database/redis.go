package database

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/urbankisan/backend-go/config"
	"github.com/urbankisan/backend-go/logger"
)

var (
	Redis *redis.Client
	Carts *CartStore
)

// Carts with no activity for this long are dropped by Redis.
const cartTTL = 30 * 24 * time.Hour

// ConnectRedis initializes the Redis client used by the cart and wishlist stores.
func ConnectRedis() error {
	opts, err := redis.ParseURL(config.GetEnv("REDIS_URL", "redis://localhost:6379/0"))
	if err != nil {
		return err
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return err
	}

	Redis = client
	Carts = NewCartStore(client, cartTTL)
	logger.Log.Info("connected to Redis")
	return nil
}
