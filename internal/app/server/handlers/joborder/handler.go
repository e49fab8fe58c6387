package joborder

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"jobsvc/internal/app/domains/entity/etprimitive"
	"jobsvc/internal/app/domains/services/svjoborder"
	"jobsvc/internal/app/pkg/ginx"
	"jobsvc/internal/app/pkg/logger"
)

var errBodyNotObject = errors.New("body must be a JSON object")

// JobOrderHandler 任务单 HTTP 处理器
type JobOrderHandler struct {
	jobOrderService *svjoborder.JobOrderService
	log             logger.Logger
}

// NewJobOrderHandler 创建任务单处理器实例
func NewJobOrderHandler(jobOrderService *svjoborder.JobOrderService, log logger.Logger) *JobOrderHandler {
	return &JobOrderHandler{
		jobOrderService: jobOrderService,
		log:             log,
	}
}

// fail 记录日志并输出错误响应
func (h *JobOrderHandler) fail(c *gin.Context, op string, err error) {
	ctx := c.Request.Context()
	ginx.RenderError(c, err)
	if c.Writer.Status() >= http.StatusInternalServerError {
		h.log.Errorf(ctx, "%s job order failed: %v", op, err)
		return
	}
	h.log.Infof(ctx, "%s job order rejected: %v", op, err)
}

// bindPayload 读取 JSON 对象请求体，空 body 视为 {}
func bindPayload(c *gin.Context) (etprimitive.Payload, error) {
	body, err := c.GetRawData()
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return etprimitive.Payload{}, nil
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errBodyNotObject
	}
	if payload == nil {
		return etprimitive.Payload{}, nil
	}
	return payload, nil
}

func badBody(c *gin.Context, err error) {
	ginx.ErrorWithDetails(c, http.StatusBadRequest, "Validation failed", []ginx.ErrorDetail{
		{Path: "body", Info: err.Error()},
	})
}
