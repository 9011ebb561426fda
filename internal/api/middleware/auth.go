package middleware

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/d60-Lab/reward-hub/config"
	"github.com/d60-Lab/reward-hub/internal/model"
	"github.com/d60-Lab/reward-hub/internal/repository"
	"github.com/d60-Lab/reward-hub/pkg/response"
)

const (
	ctxKeyAccount = "auth.account"
	ctxKeyIsAdmin = "auth.is_admin"
)

// Claims sub 为账户ID；admin 标记由签发方控制。
type Claims struct {
	Admin bool `json:"admin,omitempty"`
	jwt.RegisteredClaims
}

// Auth 解析 Bearer token 并加载账户，核心操作全部显式传参，不走隐式上下文。
func Auth(cfg *config.Config, accounts repository.AccountRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("Authorization")
		if !strings.HasPrefix(raw, "Bearer ") {
			response.Unauthorized(c, "missing bearer token")
			c.Abort()
			return
		}
		var claims Claims
		token, err := jwt.ParseWithClaims(strings.TrimPrefix(raw, "Bearer "), &claims,
			func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(cfg.JWT.Secret), nil
			})
		if err != nil || !token.Valid {
			response.Unauthorized(c, "invalid token")
			c.Abort()
			return
		}

		accountID, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil {
			response.Unauthorized(c, "invalid subject")
			c.Abort()
			return
		}
		account, err := accounts.GetByID(c.Request.Context(), accountID)
		if err != nil {
			response.Unauthorized(c, "account not found")
			c.Abort()
			return
		}
		if account.Status != 1 {
			response.Unauthorized(c, "account disabled")
			c.Abort()
			return
		}

		c.Set(ctxKeyAccount, account)
		c.Set(ctxKeyIsAdmin, claims.Admin)
		c.Next()
	}
}

// RequireAdmin 管理端路由门槛。
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(ctxKeyIsAdmin) {
			response.Unauthorized(c, "admin required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentAccount 取出认证账户；仅在 Auth 之后的路由可用。
func CurrentAccount(c *gin.Context) *model.Account {
	v, ok := c.Get(ctxKeyAccount)
	if !ok {
		return nil
	}
	return v.(*model.Account)
}
