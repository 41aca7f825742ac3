package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RateLimiter 滑动窗口限流，限制每个调用方发起付费生成的频率。
// 清理、计数与记录在同一脚本内完成，并发提交不会超出配额。
type RateLimiter struct {
	client *Client
}

// NewRateLimiter 创建限流器
func NewRateLimiter(client *Client) *RateLimiter {
	return &RateLimiter{client: client}
}

// Allow 窗口内未满 limit 时记录本次请求并返回 true
func (l *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	ctx, span := tracer.Start(ctx, "redis.RateLimiter.Allow", trace.WithAttributes(
		attribute.String("ratelimit.key", key),
		attribute.Int("ratelimit.limit", limit),
	))
	defer span.End()

	now := time.Now().UnixMilli()
	member := fmt.Sprintf("%d-%s", now, uuid.NewString())
	res, err := allowScript.Run(ctx, l.client.rdb, []string{key}, now, window.Milliseconds(), limit, member).Int()
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("failed to check rate limit: %w", err)
	}
	span.SetAttributes(attribute.Bool("ratelimit.allowed", res == 1))
	return res == 1, nil
}

// Remaining 窗口内剩余配额
func (l *RateLimiter) Remaining(ctx context.Context, key string, limit int, window time.Duration) (int, error) {
	windowStart := time.Now().UnixMilli() - window.Milliseconds()
	n, err := l.client.rdb.ZCount(ctx, key, fmt.Sprintf("(%d", windowStart), "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count rate limit window: %w", err)
	}
	return max(limit-int(n), 0), nil
}

// BuildRateLimitKey 构建限流键
func BuildRateLimitKey(owner, endpoint string) string {
	return fmt.Sprintf("ratelimit:%s:%s", owner, endpoint)
}

// KEYS[1] 窗口 zset；ARGV: now_ms, window_ms, limit, member
var allowScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
redis.call("ZREMRANGEBYSCORE", KEYS[1], "-inf", now - window)
if redis.call("ZCARD", KEYS[1]) >= tonumber(ARGV[3]) then
	return 0
end
redis.call("ZADD", KEYS[1], now, ARGV[4])
redis.call("PEXPIRE", KEYS[1], window)
return 1
`)
