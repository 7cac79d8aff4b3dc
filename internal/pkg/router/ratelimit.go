package router

import (
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/storage/redis"

	"github.com/wizerunkowo/wizerunkowo/internal/pkg/cache"
	"github.com/wizerunkowo/wizerunkowo/internal/pkg/env"
)

// newRateLimiter builds the API rate limiter backed by Redis so limits hold
// across instances. Counters live in database 1 (cache uses DB 0).
func newRateLimiter() fiber.Handler {
	cacheClient := cache.GetClient()
	host := "localhost"
	port := 6379
	password := env.GetEnv("CACHE_PASSWORD", "")
	if cacheClient != nil {
		addr := cacheClient.Options().Addr
		if h, p, err := net.SplitHostPort(addr); err == nil {
			host = h
			if v, err := strconv.Atoi(p); err == nil {
				port = v
			}
		}
		if p := cacheClient.Options().Password; p != "" {
			password = p
		}
	}

	storage := redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: 1,
		Reset:    false,
	})

	return limiter.New(limiter.Config{
		Max:        60,
		Expiration: time.Minute,
		Storage:    storage,
	})
}
