package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"acroyoga_club_backend/pkg/utils"
)

// InitRedis connects the Redis client used for sessions and rate
// limiting.
func InitRedis(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	utils.LogInfo("Successfully connected to Redis")
	return client, nil
}
