package security

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	jwtSecret         = []byte("inkwell-dev-secret")
	jwtIssuer         = "Inkwell"
	JWTExpirationTime = time.Hour * 24
)

// UserClaims Token 中携带用户、角色与展开后的权限
type UserClaims struct {
	UserID      uint64   `json:"user_id"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// InitJWT 使用配置覆盖默认密钥，空值保留默认
func InitJWT(secret, issuer string, expireHour int) {
	if secret != "" {
		jwtSecret = []byte(secret)
	}
	if issuer != "" {
		jwtIssuer = issuer
	}
	if expireHour > 0 {
		JWTExpirationTime = time.Duration(expireHour) * time.Hour
	}
}
