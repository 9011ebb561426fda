package api

import (
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/reward-hub/config"
	"github.com/d60-Lab/reward-hub/internal/api/handler"
	"github.com/d60-Lab/reward-hub/internal/api/middleware"
	"github.com/d60-Lab/reward-hub/internal/repository"
	"github.com/d60-Lab/reward-hub/internal/service"
)

// NewRouter 装配路由。回调端点不走认证（靠各平台签名），其余业务路由走 JWT。
func NewRouter(cfg *config.Config, h *handler.Handler,
	accounts repository.AccountRepository, recorder *service.AuditRecorder) *gin.Engine {

	if cfg.Server.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	if cfg.Sentry.DSN != "" {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}

	r.GET("/healthz", func(c *gin.Context) { c.String(200, "ok") })

	api := r.Group("/api")
	{
		// 平台结算回调，GET/POST 兼容
		api.Any("/callback/:platform", h.PlatformCallback)

		v1 := api.Group("/v1")
		v1.Use(middleware.Auth(cfg, accounts), middleware.Audit(recorder))
		{
			v1.GET("/tasks", h.ListTasks)
			v1.POST("/tasks/:id/participate", h.Participate)

			admin := v1.Group("/admin", middleware.RequireAdmin())
			{
				admin.POST("/tasks/sync", h.SyncTasks)
				admin.POST("/tasks/manual", h.CreateManualTask)
			}
		}
	}
	return r
}
