// File: utils/cache.go
package utils

import (
	"aerovoice/config"
	"context"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

var (
	// SessionCacheClient holds live dialog sessions.
	SessionCacheClient *redis.Client
	// FlightCacheClient caches upstream flight search results.
	FlightCacheClient *redis.Client
)

// InitSessionCache initializes the Redis client backing the session store.
func InitSessionCache() {
	SessionCacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisSessionDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := SessionCacheClient.Ping(ctx).Result()
	if err != nil {
		log.Fatalf("Failed to connect to Redis (Session Cache): %v", err)
	}
}

// GetSessionCacheClient returns the session store client.
func GetSessionCacheClient() *redis.Client {
	if SessionCacheClient == nil {
		InitSessionCache()
	}
	return SessionCacheClient
}

// InitFlightCache initializes the Redis client for flight result caching.
func InitFlightCache() {
	FlightCacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisFlightCacheDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := FlightCacheClient.Ping(ctx).Result()
	if err != nil {
		log.Fatalf("Failed to connect to Redis (Flight Cache): %v", err)
	}
}

// GetFlightCacheClient returns the flight result cache client.
func GetFlightCacheClient() *redis.Client {
	if FlightCacheClient == nil {
		InitFlightCache()
	}
	return FlightCacheClient
}

// InitRedis brings up both Redis clients at startup.
func InitRedis() {
	InitSessionCache()
	InitFlightCache()
}
