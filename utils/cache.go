// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"mindhaven/config"

	"github.com/go-redis/redis/v8"
)

// LeaseClient backs the scheduler's cross-instance pass leases.
var LeaseClient *redis.Client

// InitLeaseCache initializes the Redis client used for scheduler leases.
func InitLeaseCache() {
	LeaseClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisLeaseDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := LeaseClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (Lease): %v", err)
	}
}

// GetLeaseClient returns the lease client, connecting on first use.
func GetLeaseClient() *redis.Client {
	if LeaseClient == nil {
		InitLeaseCache()
	}
	return LeaseClient
}
