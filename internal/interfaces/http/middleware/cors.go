package middleware

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"book-workshop-api/internal/config"
	"book-workshop-api/internal/infrastructure/remote"
)

// CORS 跨域中间件。凭证走 X-Auth-Token 头而非 cookie，不开启 AllowCredentials
func CORS(cfg config.CORSConfig) gin.HandlerFunc {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	methods := cfg.AllowedMethods
	if len(methods) == 0 {
		methods = []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}
	}
	headers := cfg.AllowedHeaders
	if len(headers) == 0 {
		headers = []string{"Origin", "Content-Type", remote.AuthHeader, RequestIDHeader}
	}

	return cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  methods,
		AllowHeaders:  headers,
		ExposeHeaders: []string{RequestIDHeader, TraceIDHeader, "Retry-After", "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	})
}
