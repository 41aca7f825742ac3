package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"book-workshop-api/pkg/errors"
	"book-workshop-api/pkg/logger"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	// Enabled 是否启用限流
	Enabled bool
	// Limit 窗口内允许的请求数
	Limit int
	// Window 滑动窗口长度
	Window time.Duration
	// Endpoint 限流键中的端点名
	Endpoint string
}

// RateLimiter 限流器接口
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// KeyFunc 由调用方与端点构造限流键
type KeyFunc func(owner, endpoint string) string

// RateLimit 按调用方限流，需在 Credential 之后使用
func RateLimit(cfg RateLimitConfig, limiter RateLimiter, keyFn KeyFunc) gin.HandlerFunc {
	if !cfg.Enabled || limiter == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	if cfg.Limit <= 0 {
		cfg.Limit = 10
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = "default"
	}

	return func(c *gin.Context) {
		owner := c.GetString(ownerKey)
		if owner == "" {
			owner = "anonymous"
		}

		allowed, err := limiter.Allow(c.Request.Context(), keyFn(owner, cfg.Endpoint), cfg.Limit, cfg.Window)
		if err != nil {
			// 限流器故障时放行
			logger.Warn(c.Request.Context(), "rate limiter unavailable", "error", err.Error())
			c.Next()
			return
		}

		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(cfg.Window.Seconds())))
			abortWithAppError(c, errors.ErrTooManyRequests)
			return
		}

		c.Next()
	}
}
