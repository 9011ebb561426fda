package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/reward-hub/internal/errs"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: 200, Message: "ok", Data: data})
}

func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Code: 400, Message: msg})
}

func Unauthorized(c *gin.Context, msg string) {
	c.JSON(http.StatusUnauthorized, Response{Code: 401, Message: msg})
}

func NotFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, Response{Code: 404, Message: msg})
}

func InternalError(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, Response{Code: 500, Message: err.Error()})
}

// Error 按错误种类映射 HTTP 状态码（回调端点返回非 2xx 即可，外部平台自行重试）。
func Error(c *gin.Context, err error) {
	switch {
	case errs.Is(err, errs.ErrValidation):
		c.JSON(http.StatusBadRequest, Response{Code: 400, Message: err.Error()})
	case errs.Is(err, errs.ErrSignature):
		c.JSON(http.StatusBadRequest, Response{Code: 401, Message: err.Error()})
	case errs.Is(err, errs.ErrNotFound), errs.Is(err, errs.ErrNoMatchingAttempt):
		c.JSON(http.StatusNotFound, Response{Code: 404, Message: err.Error()})
	case errs.Is(err, errs.ErrDuplicateParticipation), errs.Is(err, errs.ErrTaskDisabled):
		c.JSON(http.StatusBadRequest, Response{Code: 400, Message: err.Error()})
	case errs.Is(err, errs.ErrUnsupportedPlatform), errs.Is(err, errs.ErrManualPlatform):
		c.JSON(http.StatusBadRequest, Response{Code: 400, Message: err.Error()})
	case errs.Is(err, errs.ErrIdentityExhausted):
		c.JSON(http.StatusServiceUnavailable, Response{Code: 503, Message: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, Response{Code: 500, Message: err.Error()})
	}
}
