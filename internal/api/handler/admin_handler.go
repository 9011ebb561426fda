package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/reward-hub/internal/model"
	"github.com/d60-Lab/reward-hub/internal/service"
	"github.com/d60-Lab/reward-hub/pkg/response"
)

// SyncTasks 触发全部 auto 平台目录同步（外部调度器调用）
// @Summary 同步平台任务
// @Tags 管理
// @Success 200 {object} response.Response
// @Router /api/v1/admin/tasks/sync [post]
func (h *Handler) SyncTasks(c *gin.Context) {
	results := h.sync.SyncAll(c.Request.Context())
	response.Success(c, results)
}

// CreateManualTask 手动录入鱼小数任务
// @Summary 创建手动任务
// @Tags 管理
// @Param request body service.ManualTaskInput true "任务信息"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/admin/tasks/manual [post]
func (h *Handler) CreateManualTask(c *gin.Context) {
	var in service.ManualTaskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	task, err := h.sync.CreateManualTask(c.Request.Context(), model.PlatformYuxshu, in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, task)
}
