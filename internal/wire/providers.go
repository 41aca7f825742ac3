// Package wire 提供依赖注入配置
package wire

import (
	"context"
	"errors"
	"fmt"
	"os"

	"book-workshop-api/internal/application/generation"
	"book-workshop-api/internal/application/workflow"
	"book-workshop-api/internal/config"
	"book-workshop-api/internal/domain/entity"
	"book-workshop-api/internal/domain/repository"
	"book-workshop-api/internal/infrastructure/messaging"
	"book-workshop-api/internal/infrastructure/persistence/postgres"
	"book-workshop-api/internal/infrastructure/persistence/redis"
	"book-workshop-api/internal/infrastructure/remote/bookgen"
	"book-workshop-api/internal/infrastructure/remote/booksapi"
	"book-workshop-api/internal/infrastructure/remote/imagegen"
	"book-workshop-api/internal/interfaces/http/middleware"
	"book-workshop-api/internal/interfaces/http/router"
	"book-workshop-api/pkg/logger"
)

// App API 进程依赖
type App struct {
	Router     *router.Router
	Dispatcher workflow.Dispatcher
}

// Worker job-worker 进程依赖
type Worker struct {
	Workflow *workflow.BookWorkflow
	Consumer *messaging.Consumer
}

// ProvidePostgresClient 提供 PostgreSQL 客户端；未启用时返回 nil
func ProvidePostgresClient(ctx context.Context, cfg *config.Config) (*postgres.Client, func(), error) {
	if !cfg.Database.Postgres.Enabled {
		return nil, func() {}, nil
	}
	client, err := postgres.NewClient(ctx, &cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		client.Close()
	}
	return client, cleanup, nil
}

// ProvideGenerationHistory 提供生成历史仓储；postgres 未启用时为 nil
func ProvideGenerationHistory(client *postgres.Client) repository.GenerationRecordRepository {
	if client == nil {
		return nil
	}
	return postgres.NewGenerationRecordRepository(client)
}

// ProvideRedisClient 提供 Redis 客户端
func ProvideRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, func(), error) {
	rc := cfg.Cache.Redis
	client, err := redis.NewClient(ctx, redis.Options{
		Host:         rc.Host,
		Port:         rc.Port,
		Password:     rc.Password,
		DB:           rc.DB,
		PoolSize:     rc.PoolSize,
		MinIdleConns: rc.MinIdleConns,
		DialTimeout:  rc.DialTimeout,
		ReadTimeout:  rc.ReadTimeout,
		WriteTimeout: rc.WriteTimeout,
	})
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		client.Close()
	}
	return client, cleanup, nil
}

// ProvideTaskStore 提供任务存储
func ProvideTaskStore(client *redis.Client, cfg *config.Config) *redis.TaskStore {
	return redis.NewTaskStore(client, cfg.Generation.TaskTTL)
}

// ProvideRunGuard 提供重入锁
func ProvideRunGuard(client *redis.Client, cfg *config.Config) *redis.RunGuard {
	return redis.NewRunGuard(client, cfg.Generation.GuardTTL)
}

// ProvideArtifactStore 提供生成产物暂存
func ProvideArtifactStore(client *redis.Client, cfg *config.Config) *redis.ArtifactStore {
	return redis.NewArtifactStore(client, cfg.Generation.ArtifactTTL)
}

// ProvideRateLimitKey 提供限流键构造函数
func ProvideRateLimitKey() middleware.KeyFunc {
	return redis.BuildRateLimitKey
}

// ProvideImageClient 提供插图服务客户端
func ProvideImageClient(cfg *config.Config) *imagegen.Client {
	return imagegen.NewClient(cfg.Clients.ImageGen)
}

// ProvideBookGenClient 提供章节服务客户端
func ProvideBookGenClient(cfg *config.Config) *bookgen.Client {
	return bookgen.NewClient(cfg.Clients.BookGen)
}

// ProvideBooksClient 提供书籍服务客户端
func ProvideBooksClient(cfg *config.Config) *booksapi.Client {
	return booksapi.NewClient(cfg.Clients.BooksAPI)
}

// ProvideReentryPolicy 解析重入策略
func ProvideReentryPolicy(cfg *config.Config) (generation.ReentryPolicy, error) {
	return generation.ParseReentryPolicy(cfg.Generation.ReentryPolicy)
}

// ProvideMessagingProducer 提供消息生产者
func ProvideMessagingProducer(redisClient *redis.Client, cfg *config.Config) *messaging.Producer {
	maxLen := cfg.Messaging.RedisStream.MaxLen
	if maxLen <= 0 {
		maxLen = 100000
	}
	return messaging.NewProducer(redisClient.Redis(), int64(maxLen))
}

// ProvideDispatcher 按配置选择派发方式
func ProvideDispatcher(cfg *config.Config, wf *workflow.BookWorkflow, producer *messaging.Producer) (workflow.Dispatcher, error) {
	switch cfg.Generation.Dispatch {
	case config.DispatchStream, "":
		return messaging.NewStreamDispatcher(producer), nil
	case config.DispatchInline:
		return workflow.NewInlineDispatcher(wf), nil
	default:
		return nil, fmt.Errorf("unknown generation dispatch: %q", cfg.Generation.Dispatch)
	}
}

// ProvideConsumer 提供书籍生成队列消费者
func ProvideConsumer(redisClient *redis.Client, cfg *config.Config) *messaging.Consumer {
	rs := cfg.Messaging.RedisStream
	hostname, _ := os.Hostname()
	return messaging.NewConsumer(redisClient.Redis(), messaging.ConsumerConfig{
		Stream:        messaging.StreamBookGen,
		Group:         messaging.ConsumerGroupBookWorker,
		ConsumerName:  fmt.Sprintf("%s-%d", hostname, os.Getpid()),
		BlockTimeout:  rs.BlockTimeout,
		ClaimInterval: rs.ClaimInterval,
		RetryLimit:    rs.RetryLimit,
		Backoff: messaging.BackoffConfig{
			Initial:    rs.RetryBackoff.Initial,
			Max:        rs.RetryBackoff.Max,
			Multiplier: rs.RetryBackoff.Multiplier,
		},
	})
}

// ProvideWorker 组装 worker 并注册消息处理器
func ProvideWorker(wf *workflow.BookWorkflow, consumer *messaging.Consumer) *Worker {
	consumer.RegisterHandler(messaging.TypeBookGeneration, NewBookGenerationHandler(wf))
	return &Worker{Workflow: wf, Consumer: consumer}
}

// NewBookGenerationHandler 将队列消息转为一次工作流执行
func NewBookGenerationHandler(wf *workflow.BookWorkflow) messaging.MessageHandler {
	return func(ctx context.Context, msg *messaging.Message) error {
		var job messaging.BookGenerationMessage
		if err := msg.UnmarshalPayload(&job); err != nil {
			return fmt.Errorf("decode book generation message: %w", err)
		}
		cred := entity.NewCredential(job.Token)
		if !cred.Present() {
			logger.Warn(ctx, "book generation message has no credential, dropping", "task_id", job.TaskID)
			return nil
		}
		err := wf.Execute(ctx, cred, job.TaskID)
		if errors.Is(err, workflow.ErrTaskNotFound) {
			// 任务已过期或不属于该凭证，重投无意义
			logger.Warn(ctx, "book generation task not found, dropping", "task_id", job.TaskID)
			return nil
		}
		return err
	}
}
