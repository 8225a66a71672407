package middlewares

import (
	"context"
	"math"
	"net/http"
	"time"

	"cityfix-be/errs"
	"cityfix-be/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const rateWindow = 24 * time.Hour

// Counter is the part of the Redis client the limiter uses.
type Counter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
}

// IssueRateLimiter caps how many issues one reporter may file per day. It
// must run after IdentityGate.
func IssueRateLimiter(counter Counter, prefix string, limit int, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := utils.EmailFrom(c)
		if email == "" {
			utils.Fail(c, log, errs.New(errs.Unauthenticated, "Unauthorized access"))
			return
		}

		ctx := c.Request.Context()

		// Create individual key for each reporter
		userKey := prefix + ":" + email

		count, err := counter.Incr(ctx, userKey).Result()
		if err != nil {
			utils.Fail(c, log, errs.Upstream(err, "Rate limiter unavailable"))
			return
		}

		// Set TTL only for the first increment (when count = 1)
		if count == 1 {
			if err := counter.Expire(ctx, userKey, rateWindow).Err(); err != nil {
				utils.Fail(c, log, errs.Upstream(err, "Rate limiter unavailable"))
				return
			}
		}

		if count > int64(limit) {
			retryAfter, _ := counter.TTL(ctx, userKey).Result()
			log.Warn("issue rate limit exceeded",
				zap.String("request_id", utils.RequestID(c)),
				zap.String("email", email),
				zap.Int64("count", count))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success":     false,
				"kind":        errs.RateLimited,
				"message":     "Daily issue limit reached",
				"retry_after": math.Max(retryAfter.Seconds(), 0),
			})
			return
		}

		c.Next()
	}
}
