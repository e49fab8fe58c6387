package joborder

import (
	"github.com/gin-gonic/gin"

	"jobsvc/internal/app/domains/apimodel/request"
	"jobsvc/internal/app/domains/apimodel/response"
	"jobsvc/internal/app/pkg/ginx"
)

// Get 获取任务单详情
// GET /api/v1/jobs/:id
func (h *JobOrderHandler) Get(c *gin.Context) {
	var uri request.JobOrderURI
	if err := c.ShouldBindUri(&uri); err != nil {
		ginx.BadRequestWithValidation(c, err)
		return
	}

	order, err := h.jobOrderService.GetOrder(c.Request.Context(), uri.ID)
	if err != nil {
		h.fail(c, "get", err)
		return
	}

	ginx.Success(c, response.FromJobOrderEntity(order))
}

// List 分页查询任务单
// GET /api/v1/jobs?status=pending&type=build&page=1&limit=20
func (h *JobOrderHandler) List(c *gin.Context) {
	var query request.ListJobOrdersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		ginx.BadRequestWithValidation(c, err)
		return
	}

	orders, total, err := h.jobOrderService.ListOrders(c.Request.Context(), query.ToListFilter())
	if err != nil {
		h.fail(c, "list", err)
		return
	}

	ginx.Success(c, &response.JobOrderListResponse{
		Items: response.FromJobOrderEntities(orders),
		Total: total,
		Page:  query.Page,
		Limit: query.Limit,
	})
}
