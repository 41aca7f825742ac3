// Package middleware 提供 HTTP 中间件
package middleware

import (
	"github.com/gin-gonic/gin"

	"book-workshop-api/internal/domain/entity"
	"book-workshop-api/internal/infrastructure/remote"
	"book-workshop-api/internal/interfaces/http/dto"
	"book-workshop-api/pkg/errors"
	"book-workshop-api/pkg/logger"
)

const (
	credentialKey = "credential"
	ownerKey      = "owner"
)

// Credential 读取 X-Auth-Token，缺失时直接返回 401。
// 令牌不在本服务校验，只透传给下游服务。
func Credential() gin.HandlerFunc {
	return func(c *gin.Context) {
		cred := entity.NewCredential(c.GetHeader(remote.AuthHeader))
		if !cred.Present() {
			abortWithAppError(c, errors.ErrTokenMissing)
			return
		}

		owner := cred.Subject()
		c.Set(credentialKey, cred)
		c.Set(ownerKey, owner)

		ctx := logger.WithContext(c.Request.Context(), logger.OwnerKey, owner)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// CredentialFrom 取出请求凭证
func CredentialFrom(c *gin.Context) entity.Credential {
	if v, ok := c.Get(credentialKey); ok {
		if cred, ok := v.(entity.Credential); ok {
			return cred
		}
	}
	return entity.Credential{}
}

func abortWithAppError(c *gin.Context, err *errors.AppError) {
	dto.AbortWithAppError(c, err)
}
