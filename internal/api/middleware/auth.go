package middleware

import (
	"Inkwell/internal/pkg/consts"
	"Inkwell/internal/pkg/redis"
	"Inkwell/internal/pkg/response"
	"Inkwell/internal/pkg/security"
	"Inkwell/internal/service"
	"context"
	log "log/slog"
	"strings"

	"github.com/gin-gonic/gin"
)

// TokenBlacklist 已注销的 Token 签名，以及按用户整体失效的时间点
type TokenBlacklist interface {
	IsRevoked(ctx context.Context, signature string) (bool, error)
	// UserRevokedAt 返回 Unix 秒，0 表示没有失效记录
	UserRevokedAt(ctx context.Context, userID uint64) (int64, error)
}

type redisBlacklist struct {
	sessions *redis.SessionRevoker
}

// NewRedisBlacklist 与登出、封禁写入的 key 保持一致
func NewRedisBlacklist(sessions *redis.SessionRevoker) TokenBlacklist {
	return redisBlacklist{sessions: sessions}
}

func (redisBlacklist) IsRevoked(ctx context.Context, signature string) (bool, error) {
	return redis.Exists(ctx, consts.TokenBlacklistKey+signature)
}

func (b redisBlacklist) UserRevokedAt(ctx context.Context, userID uint64) (int64, error) {
	return b.sessions.RevokedAt(ctx, userID)
}

// AuthMiddleware 负责验证 JWT 并将用户身份信息注入 Context
func AuthMiddleware(blacklist TokenBlacklist) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			response.Fail(c, response.Unauthorized, "Token 缺失或格式错误")
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		signature, err := security.ExtractSignature(tokenString)
		if err != nil {
			response.Fail(c, response.Unauthorized, "Token 缺失或格式错误")
			c.Abort()
			return
		}

		revoked, err := blacklist.IsRevoked(c.Request.Context(), signature)
		if err != nil {
			log.ErrorContext(c.Request.Context(), "check token blacklist failed", "err", err)
			response.Fail(c, response.InternalServerError, service.UnExpectedError.Error())
			c.Abort()
			return
		}
		if revoked {
			response.Fail(c, response.Unauthorized, "Token 无效或已过期")
			c.Abort()
			return
		}

		claims, err := security.ValidateToken(tokenString)
		if err != nil {
			response.Fail(c, response.Unauthorized, "Token 无效或已过期")
			c.Abort()
			return
		}

		revokedAt, err := blacklist.UserRevokedAt(c.Request.Context(), claims.UserID)
		if err != nil {
			log.ErrorContext(c.Request.Context(), "check user sessions failed", "user_id", claims.UserID, "err", err)
			response.Fail(c, response.InternalServerError, service.UnExpectedError.Error())
			c.Abort()
			return
		}
		// 签发时间与失效时间同一秒时也拒绝
		if revokedAt > 0 && (claims.IssuedAt == nil || claims.IssuedAt.Unix() <= revokedAt) {
			response.Fail(c, response.Unauthorized, "Token 无效或已过期")
			c.Abort()
			return
		}

		c.Set(consts.UserIDKey, claims.UserID)
		c.Set(consts.RolesKey, claims.Roles)
		c.Set(consts.PermissionsKey, claims.Permissions)

		c.Request = c.Request.WithContext(service.WithOperator(c.Request.Context(), claims.UserID))

		c.Next()
	}
}
