// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"book-workshop-api/internal/config"
	"book-workshop-api/internal/interfaces/http/handler"
	"book-workshop-api/internal/interfaces/http/middleware"
)

// RouterHandlers 路由依赖的处理器
type RouterHandlers struct {
	Health     *handler.HealthHandler
	Generation *handler.GenerationHandler
	Book       *handler.BookHandler
}

// Router HTTP 路由器
type Router struct {
	engine   *gin.Engine
	cfg      *config.Config
	handlers RouterHandlers
	limiter  middleware.RateLimiter
	keyFn    middleware.KeyFunc
}

// NewWithDeps 创建路由器；limiter 为 nil 时不限流
func NewWithDeps(cfg *config.Config, handlers RouterHandlers, limiter middleware.RateLimiter, keyFn middleware.KeyFunc) *Router {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := &Router{
		engine:   gin.New(),
		cfg:      cfg,
		handlers: handlers,
		limiter:  limiter,
		keyFn:    keyFn,
	}

	r.setupMiddleware()
	r.setupRoutes()

	return r
}

// Engine 返回 Gin Engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// setupMiddleware 配置中间件
func (r *Router) setupMiddleware() {
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.RequestID())
	r.engine.Use(middleware.CORS(r.cfg.Security.CORS))

	if r.cfg.Observability.Tracing.Enabled {
		r.engine.Use(middleware.Trace(r.cfg.App.Name))
		r.engine.Use(middleware.TraceIDs())
	}

	if r.cfg.Observability.Metrics.Enabled {
		r.engine.Use(middleware.Metrics("/health", "/live", "/ready", r.metricsPath()))
	}
}

func (r *Router) metricsPath() string {
	if p := r.cfg.Observability.Metrics.Path; p != "" {
		return p
	}
	return "/metrics"
}

// setupRoutes 配置路由
func (r *Router) setupRoutes() {
	health := r.handlers.Health.WithVersion(r.cfg.App.Version)
	r.engine.GET("/health", health.Health)
	r.engine.GET("/ready", health.Ready)
	r.engine.GET("/live", health.Live)

	if r.cfg.Observability.Metrics.Enabled {
		r.engine.GET(r.metricsPath(), gin.WrapH(promhttp.Handler()))
	}

	rl := r.cfg.Generation.RateLimit
	submitLimit := middleware.RateLimit(middleware.RateLimitConfig{
		Enabled:  rl.Enabled,
		Limit:    rl.Limit,
		Window:   rl.Window,
		Endpoint: "generations",
	}, r.limiter, r.keyFn)

	v1 := r.engine.Group("/v1")
	v1.Use(middleware.Credential())
	RegisterV1Routes(v1, r.handlers, submitLimit)
}
