package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/reward-hub/pkg/response"
)

// PlatformCallback 外部平台结算回调入口。
// 平台侧有 GET 也有表单 POST，统一从合并后的 Form 取参。
// @Summary 平台回调
// @Tags 回调
// @Param platform path string true "平台编码"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/callback/{platform} [post]
func (h *Handler) PlatformCallback(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		response.BadRequest(c, "malformed form")
		return
	}
	outcome, err := h.callback.Handle(c.Request.Context(), c.Param("platform"),
		c.Request.Form, c.ClientIP())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, outcome)
}
