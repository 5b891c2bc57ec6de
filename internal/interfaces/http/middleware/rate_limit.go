package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/undercontrol/storefront/internal/config"
	"golang.org/x/time/rate"
)

const maxLocalLimiters = 10000

// RateLimiter counts requests per client per minute in Redis. When Redis
// is absent or failing it falls back to an in-process token bucket.
type RateLimiter struct {
	redis  *redis.Client
	limit  int
	burst  int
	logger logrus.FieldLogger
	now    func() time.Time

	mu    sync.Mutex
	local map[string]*rate.Limiter
}

// NewRateLimiter creates a limiter; redisClient may be nil
func NewRateLimiter(cfg *config.Config, redisClient *redis.Client, logger logrus.FieldLogger) *RateLimiter {
	burst := cfg.Security.RateLimitBurst
	if burst <= 0 {
		burst = cfg.Security.RateLimitPerMinute
	}
	return &RateLimiter{
		redis:  redisClient,
		limit:  cfg.Security.RateLimitPerMinute,
		burst:  burst,
		logger: logger,
		now:    time.Now,
		local:  make(map[string]*rate.Limiter),
	}
}

// Allow records one request for key and reports whether it is within the
// limit, with the remaining allowance
func (l *RateLimiter) Allow(ctx context.Context, key string) (bool, int) {
	if l.redis != nil {
		allowed, remaining, err := l.allowRedis(ctx, key)
		if err == nil {
			return allowed, remaining
		}
		l.logger.WithFields(logrus.Fields{"key": key, "error": err}).Warn("Rate limit store unavailable, using local limiter")
	}
	return l.allowLocal(key)
}

func (l *RateLimiter) allowRedis(ctx context.Context, key string) (bool, int, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	window := l.now().Unix() / 60
	redisKey := fmt.Sprintf("rate_limit:%s:%d", key, window)

	pipe := l.redis.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, err
	}

	count := int(incr.Val())
	if count > l.limit {
		return false, 0, nil
	}
	return true, l.limit - count, nil
}

func (l *RateLimiter) allowLocal(key string) (bool, int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.local[key]
	if !ok {
		if len(l.local) >= maxLocalLimiters {
			l.local = make(map[string]*rate.Limiter)
		}
		limiter = rate.NewLimiter(rate.Limit(float64(l.limit)/60), l.burst)
		l.local[key] = limiter
	}

	if !limiter.AllowN(l.now(), 1) {
		return false, 0
	}
	return true, int(limiter.TokensAt(l.now()))
}

// Middleware limits requests by client IP
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l.limit <= 0 {
			c.Next()
			return
		}

		allowed, remaining := l.Allow(c.Request.Context(), c.ClientIP())

		c.Header("X-RateLimit-Limit", strconv.Itoa(l.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"retry_after": 60,
			})
			return
		}

		c.Next()
	}
}
