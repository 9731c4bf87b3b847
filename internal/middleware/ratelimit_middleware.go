package middleware

import (
	"net/http"
	"strconv"

	"logline-fusion/internal/redis"
	"logline-fusion/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

// RateLimitMiddleware throttles append traffic per actor (falling back to
// client IP for anonymous producers).
func RateLimitMiddleware(limiter *redis.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := ActorFromContext(c.Request.Context())
		if !ok {
			identity = c.ClientIP()
		}

		result, err := limiter.AllowAppend(c.Request.Context(), identity)
		if err != nil {
			// Redis being down should not take the write path with it.
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

		if !result.Allowed {
			c.JSON(http.StatusTooManyRequests, httpdto.NewErrorResponse("rate limit exceeded", "RATE_LIMITED"))
			c.Abort()
			return
		}
		c.Next()
	}
}
