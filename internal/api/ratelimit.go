package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"dealdesk/server/internal/metrics"
)

// RateLimiter counts requests per client IP in fixed one-minute windows kept
// in redis. When redis is unreachable requests are let through.
type RateLimiter struct {
	client    *redis.Client
	perMinute int
	logger    *logrus.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewRateLimiter(client *redis.Client, perMinute int, logger *logrus.Logger, m *metrics.Metrics) *RateLimiter {
	return &RateLimiter{
		client:    client,
		perMinute: perMinute,
		logger:    logger,
		metrics:   m,
		now:       time.Now,
	}
}

// Allow records one request for key and reports whether it is within the limit
func (l *RateLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	now := l.now()
	window := now.Truncate(time.Minute)
	redisKey := fmt.Sprintf("ratelimit:%s:%d", key, window.Unix())

	var count *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		count = pipe.Incr(ctx, redisKey)
		pipe.Expire(ctx, redisKey, 2*time.Minute)
		return nil
	})
	if err != nil {
		return true, 0, err
	}
	if count.Val() > int64(l.perMinute) {
		return false, window.Add(time.Minute).Sub(now), nil
	}
	return true, 0, nil
}

func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, retryAfter, err := l.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			l.logger.WithError(err).Warn("Rate limiter unavailable, allowing request")
		}
		if !allowed {
			l.metrics.ObserveRateLimited()
			seconds := int(retryAfter.Round(time.Second) / time.Second)
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(seconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		c.Next()
	}
}
