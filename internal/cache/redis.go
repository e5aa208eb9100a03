package cache

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"webnotes/internal/config"
)

// Setup connects to redis. Unlike the database, redis is an optional
// collaborator: a nil client (disabled or unreachable) switches the
// application into cache-less, session-less degraded mode.
func Setup(redisCfg *config.RedisConfig) *redis.Client {
	if !redisCfg.Enabled {
		logrus.Info("Redis disabled by configuration, running without sessions and cache")
		return nil
	}

	dbNum, err := strconv.Atoi(redisCfg.RedisDB)
	if err != nil {
		logrus.WithError(err).Warn("Invalid REDIS_DB number, falling back to 0")
		dbNum = 0
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", redisCfg.Host, redisCfg.Port),
		Password: redisCfg.RedisPassword,
		DB:       dbNum,
	})

	ctx := context.Background()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		logrus.WithError(err).Warn("Failed to connect to Redis, running without sessions and cache")
		if closeErr := rdb.Close(); closeErr != nil {
			logrus.WithError(closeErr).Warn("Failed to close redis client")
		}
		return nil
	}

	return rdb
}
