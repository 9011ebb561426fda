package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/reward-hub/internal/api/middleware"
	"github.com/d60-Lab/reward-hub/pkg/response"
)

// ListTasks 活跃任务列表（读缓存）
// @Summary 任务列表
// @Tags 任务
// @Param platform_id query int false "平台ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} response.Response
// @Router /api/v1/tasks [get]
func (h *Handler) ListTasks(c *gin.Context) {
	platformID, _ := strconv.ParseInt(c.DefaultQuery("platform_id", "0"), 10, 64)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	list, err := h.taskCache.ListActive(c.Request.Context(), platformID, page, size)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": size, "list": list})
}

// Participate 参与任务：签发虚拟身份并返回外跳链接
// @Summary 参与任务
// @Tags 任务
// @Param id path int true "任务ID"
// @Success 200 {object} response.Response{data=service.ParticipateResult}
// @Failure 400 {object} response.Response
// @Router /api/v1/tasks/{id}/participate [post]
func (h *Handler) Participate(c *gin.Context) {
	taskID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid task id")
		return
	}
	account := middleware.CurrentAccount(c)

	result, err := h.participation.Participate(c.Request.Context(), account, taskID,
		c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
