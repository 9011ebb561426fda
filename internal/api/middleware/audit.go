package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/reward-hub/internal/model"
	"github.com/d60-Lab/reward-hub/internal/service"
)

// Audit 已认证写操作的旁路审计；异步落库，不阻塞请求。
func Audit(recorder *service.AuditRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method == "GET" {
			return
		}
		account := CurrentAccount(c)
		if account == nil {
			return
		}
		status := "success"
		if c.Writer.Status() >= 400 {
			status = "failed"
		}
		recorder.Enqueue(&model.OperationLog{
			AccountID:   account.ID,
			Action:      c.Request.Method + " " + c.FullPath(),
			Module:      "api",
			IPAddress:   c.ClientIP(),
			UserAgent:   c.Request.UserAgent(),
			RequestData: c.Request.URL.RawQuery,
			Status:      status,
			RiskLevel:   "low",
		})
	}
}
