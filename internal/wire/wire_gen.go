//go:build !wireinject
// +build !wireinject

package wire

import (
	"context"

	"book-workshop-api/internal/application/commit"
	"book-workshop-api/internal/application/generation"
	"book-workshop-api/internal/application/workflow"
	"book-workshop-api/internal/config"
	"book-workshop-api/internal/infrastructure/persistence/redis"
	"book-workshop-api/internal/interfaces/http/handler"
	"book-workshop-api/internal/interfaces/http/router"
)

// 与 wire.go 中的注入器一一对应，修改 provider 后同步更新

// InitializeApp 初始化 API 进程
func InitializeApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	client, cleanup, err := ProvideRedisClient(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	postgresClient, cleanup2, err := ProvidePostgresClient(ctx, cfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	healthHandler := handler.NewHealthHandler(postgresClient, client)
	imagegenClient := ProvideImageClient(cfg)
	imageBatchGenerator := generation.NewImageBatchGenerator(imagegenClient)
	bookgenClient := ProvideBookGenClient(cfg)
	textGenerator := generation.NewTextGenerator(bookgenClient)
	booksapiClient := ProvideBooksClient(cfg)
	service := commit.NewService(booksapiClient)
	taskStore := ProvideTaskStore(client, cfg)
	runGuard := ProvideRunGuard(client, cfg)
	artifactStore := ProvideArtifactStore(client, cfg)
	generationRecordRepository := ProvideGenerationHistory(postgresClient)
	reentryPolicy, err := ProvideReentryPolicy(cfg)
	if err != nil {
		cleanup2()
		cleanup()
		return nil, nil, err
	}
	bookWorkflow := workflow.NewBookWorkflow(imageBatchGenerator, textGenerator, service, taskStore, runGuard, artifactStore, generationRecordRepository, reentryPolicy)
	producer := ProvideMessagingProducer(client, cfg)
	dispatcher, err := ProvideDispatcher(cfg, bookWorkflow, producer)
	if err != nil {
		cleanup2()
		cleanup()
		return nil, nil, err
	}
	generationHandler := handler.NewGenerationHandler(bookWorkflow, dispatcher)
	bookHandler := handler.NewBookHandler(service)
	routerHandlers := router.RouterHandlers{
		Health:     healthHandler,
		Generation: generationHandler,
		Book:       bookHandler,
	}
	rateLimiter := redis.NewRateLimiter(client)
	keyFunc := ProvideRateLimitKey()
	routerRouter := router.NewWithDeps(cfg, routerHandlers, rateLimiter, keyFunc)
	app := &App{
		Router:     routerRouter,
		Dispatcher: dispatcher,
	}
	return app, func() {
		cleanup2()
		cleanup()
	}, nil
}

// InitializeWorker 初始化 job-worker 进程
func InitializeWorker(ctx context.Context, cfg *config.Config) (*Worker, func(), error) {
	imagegenClient := ProvideImageClient(cfg)
	imageBatchGenerator := generation.NewImageBatchGenerator(imagegenClient)
	bookgenClient := ProvideBookGenClient(cfg)
	textGenerator := generation.NewTextGenerator(bookgenClient)
	booksapiClient := ProvideBooksClient(cfg)
	service := commit.NewService(booksapiClient)
	client, cleanup, err := ProvideRedisClient(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	taskStore := ProvideTaskStore(client, cfg)
	runGuard := ProvideRunGuard(client, cfg)
	artifactStore := ProvideArtifactStore(client, cfg)
	postgresClient, cleanup2, err := ProvidePostgresClient(ctx, cfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	generationRecordRepository := ProvideGenerationHistory(postgresClient)
	reentryPolicy, err := ProvideReentryPolicy(cfg)
	if err != nil {
		cleanup2()
		cleanup()
		return nil, nil, err
	}
	bookWorkflow := workflow.NewBookWorkflow(imageBatchGenerator, textGenerator, service, taskStore, runGuard, artifactStore, generationRecordRepository, reentryPolicy)
	consumer := ProvideConsumer(client, cfg)
	worker := ProvideWorker(bookWorkflow, consumer)
	return worker, func() {
		cleanup2()
		cleanup()
	}, nil
}
