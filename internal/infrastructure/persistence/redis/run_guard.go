package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RunGuard 基于 SET NX 的运行互斥，TTL 兜底异常退出的进程
type RunGuard struct {
	client *Client
	ttl    time.Duration
}

// NewRunGuard 创建运行互斥
func NewRunGuard(client *Client, ttl time.Duration) *RunGuard {
	return &RunGuard{client: client, ttl: ttl}
}

// Acquire 尝试占用；同一 holder 再次占用时续期并返回 true
func (g *RunGuard) Acquire(ctx context.Context, key, holder string) (bool, error) {
	ctx, span := tracer.Start(ctx, "redis.RunGuard.Acquire", trace.WithAttributes(attribute.String("guard.key", key)))
	defer span.End()

	res, err := acquireScript.Run(ctx, g.client.rdb, []string{key}, holder, g.ttl.Milliseconds()).Int()
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("failed to acquire run guard: %w", err)
	}
	span.SetAttributes(attribute.Bool("guard.acquired", res == 1))
	return res == 1, nil
}

// Release 仅在 holder 仍持有时删除
func (g *RunGuard) Release(ctx context.Context, key, holder string) error {
	ctx, span := tracer.Start(ctx, "redis.RunGuard.Release", trace.WithAttributes(attribute.String("guard.key", key)))
	defer span.End()

	err := releaseScript.Run(ctx, g.client.rdb, []string{key}, holder).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		span.RecordError(err)
		return fmt.Errorf("failed to release run guard: %w", err)
	}
	return nil
}

var acquireScript = redis.NewScript(`
local cur = redis.call("GET", KEYS[1])
if not cur then
	redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
	return 1
end
if cur == ARGV[1] then
	redis.call("PEXPIRE", KEYS[1], ARGV[2])
	return 1
end
return 0
`)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)
