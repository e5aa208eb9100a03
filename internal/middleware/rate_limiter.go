package middleware

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

//go:embed rate_limiter.lua
var luaScript string

// RateLimiterConfig holds rate limiter configuration
type RateLimiterConfig struct {
	Capacity   int     // Maximum number of tokens (max requests)
	RefillRate float64 // Tokens refilled per second
}

// DefaultRateLimiterConfig returns default rate limiter settings
// 10 requests per second with burst capacity of 20
func DefaultRateLimiterConfig() *RateLimiterConfig {
	return &RateLimiterConfig{
		Capacity:   20,
		RefillRate: 10.0,
	}
}

// StrictRateLimiterConfig is for credential endpoints (login, register):
// burst of 5, sustained 1 request per 2 seconds per client.
func StrictRateLimiterConfig() *RateLimiterConfig {
	return &RateLimiterConfig{
		Capacity:   5,
		RefillRate: 0.5,
	}
}

// KeyFunc derives the bucket key for a request. Returning "" skips limiting.
type KeyFunc func(c *gin.Context) string

// SessionKeyFunc buckets per authenticated user; requires RequireSession
// to have run earlier in the chain.
func SessionKeyFunc(c *gin.Context) string {
	identity, err := GetIdentity(c)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("rate_limiter:user:%d", identity.UserID)
}

// ClientIPKeyFunc buckets per client address, for pre-auth endpoints.
func ClientIPKeyFunc(c *gin.Context) string {
	return fmt.Sprintf("rate_limiter:ip:%s", c.ClientIP())
}

// RateLimiterMiddleware implements a token bucket in Redis via a Lua
// script. With redis disabled the middleware fails open: every request
// passes, the limiter is purely protective.
func RateLimiterMiddleware(redisClient *redis.Client, config *RateLimiterConfig, keyFunc KeyFunc) gin.HandlerFunc {
	if redisClient == nil {
		return func(c *gin.Context) { c.Next() }
	}

	// Load Lua script into Redis once (SHA hash will be cached)
	ctx := context.Background()
	scriptSHA, err := redisClient.ScriptLoad(ctx, luaScript).Result()
	if err != nil {
		logrus.WithError(err).Error("Failed to load Lua script for rate limiter, failing open")
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		key := keyFunc(c)
		if key == "" {
			c.Next()
			return
		}

		now := time.Now().Unix()

		result, err := redisClient.EvalSha(c.Request.Context(), scriptSHA, []string{key},
			config.Capacity,
			config.RefillRate,
			now,
		).Result()

		if err != nil {
			logrus.WithError(err).Error("Failed to execute rate limiter Lua script")
			// Fail open: allow request if Redis fails
			c.Next()
			return
		}

		allowed := result.(int64)
		if allowed == 0 {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"retry_after": fmt.Sprintf("%.1f seconds", 1.0/config.RefillRate),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
