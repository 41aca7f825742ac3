//go:build wireinject
// +build wireinject

package wire

import (
	"context"

	"github.com/google/wire"

	"book-workshop-api/internal/application/commit"
	"book-workshop-api/internal/application/generation"
	"book-workshop-api/internal/application/workflow"
	"book-workshop-api/internal/config"
	"book-workshop-api/internal/domain/repository"
	"book-workshop-api/internal/infrastructure/persistence/redis"
	"book-workshop-api/internal/infrastructure/remote/bookgen"
	"book-workshop-api/internal/infrastructure/remote/booksapi"
	"book-workshop-api/internal/infrastructure/remote/imagegen"
	"book-workshop-api/internal/interfaces/http/handler"
	"book-workshop-api/internal/interfaces/http/middleware"
	"book-workshop-api/internal/interfaces/http/router"
)

// InitializeApp 初始化 API 进程
func InitializeApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	wire.Build(
		StoreSet,
		WorkflowSet,
		RouterSet,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}

// InitializeWorker 初始化 job-worker 进程
func InitializeWorker(ctx context.Context, cfg *config.Config) (*Worker, func(), error) {
	wire.Build(
		StoreSet,
		WorkflowSet,
		ProvideConsumer,
		ProvideWorker,
	)
	return nil, nil, nil
}

// StoreSet 存储提供者集合
var StoreSet = wire.NewSet(
	ProvideRedisClient,
	ProvidePostgresClient,
	ProvideGenerationHistory,
	ProvideTaskStore,
	ProvideRunGuard,
	ProvideArtifactStore,
	ProvideMessagingProducer,
	wire.Bind(new(repository.TaskRepository), new(*redis.TaskStore)),
	wire.Bind(new(repository.RunGuard), new(*redis.RunGuard)),
	wire.Bind(new(repository.ArtifactStore), new(*redis.ArtifactStore)),
)

// WorkflowSet 生成流程提供者集合
var WorkflowSet = wire.NewSet(
	ProvideImageClient,
	ProvideBookGenClient,
	ProvideBooksClient,
	ProvideReentryPolicy,
	generation.NewImageBatchGenerator,
	generation.NewTextGenerator,
	commit.NewService,
	workflow.NewBookWorkflow,
	wire.Bind(new(generation.IllustrationClient), new(*imagegen.Client)),
	wire.Bind(new(generation.ChapterClient), new(*bookgen.Client)),
	wire.Bind(new(commit.BooksClient), new(*booksapi.Client)),
	wire.Bind(new(generation.ImageGenerator), new(*generation.ImageBatchGenerator)),
	wire.Bind(new(generation.ChapterGenerator), new(*generation.TextGenerator)),
	wire.Bind(new(workflow.Committer), new(*commit.Service)),
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	ProvideDispatcher,
	ProvideRateLimitKey,
	redis.NewRateLimiter,
	handler.NewHealthHandler,
	handler.NewGenerationHandler,
	handler.NewBookHandler,
	wire.Bind(new(handler.GenerationService), new(*workflow.BookWorkflow)),
	wire.Bind(new(handler.BookService), new(*commit.Service)),
	wire.Bind(new(middleware.RateLimiter), new(*redis.RateLimiter)),
	wire.Struct(new(router.RouterHandlers), "*"),
	router.NewWithDeps,
)
