package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"book-workshop-api/internal/infrastructure/persistence/postgres"
	"book-workshop-api/internal/infrastructure/persistence/redis"
)

// HealthChecker 依赖健康检查
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type dependency struct {
	name     string
	checker  HealthChecker
	required bool
}

// HealthHandler 健康检查处理器
type HealthHandler struct {
	version string
	deps    []dependency
}

// NewHealthHandler 创建健康检查处理器；pg 为 nil 表示未启用生成历史
func NewHealthHandler(pg *postgres.Client, redisClient *redis.Client) *HealthHandler {
	h := &HealthHandler{}
	if redisClient != nil {
		h.deps = append(h.deps, dependency{name: "redis", checker: redisClient, required: true})
	} else {
		h.deps = append(h.deps, dependency{name: "redis", required: true})
	}
	if pg != nil {
		h.deps = append(h.deps, dependency{name: "postgres", checker: pg})
	}
	return h
}

// WithVersion 设置 /health 返回的版本号
func (h *HealthHandler) WithVersion(version string) *HealthHandler {
	h.version = version
	return h
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

type readinessCheck struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
}

type readinessResponse struct {
	Status string                     `json:"status"`
	Checks map[string]*readinessCheck `json:"checks,omitempty"`
}

// Health 健康检查接口
// @Summary 健康检查
// @Description 检查服务健康状态
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: h.version,
	})
}

// Ready 就绪检查接口
// @Summary 就绪检查
// @Description 检查 redis（必需）与 postgres（可选）是否可用
// @Tags System
// @Produce json
// @Success 200 {object} readinessResponse
// @Failure 503 {object} readinessResponse
// @Router /ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := make(map[string]*readinessCheck, len(h.deps))
	ready := true

	for _, dep := range h.deps {
		check := &readinessCheck{Status: "unknown"}
		checks[dep.name] = check

		if dep.checker == nil {
			check.Status = "missing"
			check.Error = dep.name + " client not configured"
			if dep.required {
				ready = false
			}
			continue
		}

		start := time.Now()
		err := dep.checker.HealthCheck(ctx)
		check.LatencyMs = time.Since(start).Milliseconds()
		switch {
		case err == nil:
			check.Status = "ok"
		case dep.required:
			check.Status = "error"
			check.Error = err.Error()
			ready = false
		default:
			check.Status = "degraded"
			check.Error = err.Error()
		}
	}

	resp := readinessResponse{
		Status: "ok",
		Checks: checks,
	}
	if !ready {
		resp.Status = "not_ready"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Live 存活检查接口
// @Summary 存活检查
// @Description 检查服务是否存活
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /live [get]
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "ok",
	})
}
