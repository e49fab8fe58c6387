package joborder

import (
	"github.com/gin-gonic/gin"

	"jobsvc/internal/app/domains/apimodel/request"
	"jobsvc/internal/app/domains/apimodel/response"
	"jobsvc/internal/app/pkg/ginx"
)

// Create 创建任务单
// POST /api/v1/jobs/:type?maxRetry=3&timeout=300&schedule=...&expiresAt=...
// body 为任意 JSON 对象，作为任务单 payload
func (h *JobOrderHandler) Create(c *gin.Context) {
	var uri request.JobTypeURI
	if err := c.ShouldBindUri(&uri); err != nil {
		ginx.BadRequestWithValidation(c, err)
		return
	}

	var query request.CreateJobOrderQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		ginx.BadRequestWithValidation(c, err)
		return
	}

	payload, err := bindPayload(c)
	if err != nil {
		badBody(c, err)
		return
	}

	order, err := h.jobOrderService.RequestOrder(c.Request.Context(), uri.Type, payload, query.ToParamsInput())
	if err != nil {
		h.fail(c, "request", err)
		return
	}

	ginx.Success(c, response.FromJobOrderEntity(order))
}
