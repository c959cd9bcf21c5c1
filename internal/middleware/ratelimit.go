package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimit allows limit requests per client IP per window, counted in Redis
// under "rate_limit:<scope>:<ip>". Redis failures let the request through.
func RateLimit(rdb *redis.Client, log *slog.Logger, scope string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil || limit <= 0 {
			c.Next()
			return
		}

		key := "rate_limit:" + scope + ":" + c.ClientIP()
		count, err := hit(c.Request.Context(), rdb, key, window)
		if err != nil {
			log.Warn("rate limit counter unavailable", "error", err)
			c.Next()
			return
		}

		if count > int64(limit) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}

// hit bumps the counter and makes sure it carries a TTL. A counter left
// without one would lock the client out for good, so any key found without a
// TTL gets one, and the key is dropped when EXPIRE fails.
func hit(ctx context.Context, rdb *redis.Client, key string, window time.Duration) (int64, error) {
	var (
		incr *redis.IntCmd
		ttl  *redis.DurationCmd
	)
	if _, err := rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, key)
		ttl = p.TTL(ctx, key)
		return nil
	}); err != nil {
		return 0, err
	}

	if ttl.Val() < 0 {
		if err := rdb.Expire(ctx, key, window).Err(); err != nil {
			rdb.Del(ctx, key)
			return 0, fmt.Errorf("expire %s: %w", key, err)
		}
	}
	return incr.Val(), nil
}
