package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Credential 调用方提供的不透明认证凭证
type Credential struct {
	Token string
}

// NewCredential 创建凭证
func NewCredential(token string) Credential {
	return Credential{Token: strings.TrimSpace(token)}
}

// Present 凭证是否存在
func (c Credential) Present() bool {
	return c.Token != ""
}

// Subject 返回凭证的稳定摘要，用于日志、锁与记录中标识调用方，不暴露 token 本身
func (c Credential) Subject() string {
	if !c.Present() {
		return ""
	}
	sum := sha256.Sum256([]byte(c.Token))
	return hex.EncodeToString(sum[:8])
}
