package handler

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

// healthHandler reports the reachability of both stores. The cache being
// down degrades the service but does not make it unhealthy.
func healthHandler(db *sql.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "ok"

		database := "connected"
		if err := db.PingContext(c.Request.Context()); err != nil {
			database = "error"
			status = "degraded"
		}

		redisStatus := "disabled"
		if rdb != nil {
			redisStatus = "connected"
			if err := rdb.Ping(c.Request.Context()).Err(); err != nil {
				redisStatus = "error"
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":   status,
			"database": database,
			"redis":    redisStatus,
		})
	}
}
