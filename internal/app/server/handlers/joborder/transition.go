package joborder

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"jobsvc/internal/app/domains/apimodel/request"
	"jobsvc/internal/app/domains/apimodel/response"
	"jobsvc/internal/app/domains/entity/etjoborder"
	"jobsvc/internal/app/pkg/ginx"
)

// Start PUT /api/v1/jobs/:id/start
func (h *JobOrderHandler) Start(c *gin.Context) {
	h.simple(c, "start", h.jobOrderService.StartOrder)
}

// Cancel PUT /api/v1/jobs/:id/cancel
func (h *JobOrderHandler) Cancel(c *gin.Context) {
	h.simple(c, "cancel", h.jobOrderService.CancelOrder)
}

// Resume PUT /api/v1/jobs/:id/resume
func (h *JobOrderHandler) Resume(c *gin.Context) {
	h.simple(c, "resume", h.jobOrderService.ResumeOrder)
}

// Complete PUT /api/v1/jobs/:id/complete，body 为处理结果
func (h *JobOrderHandler) Complete(c *gin.Context) {
	var uri request.JobOrderURI
	if err := c.ShouldBindUri(&uri); err != nil {
		ginx.BadRequestWithValidation(c, err)
		return
	}
	result, err := bindPayload(c)
	if err != nil {
		badBody(c, err)
		return
	}

	order, err := h.jobOrderService.CompleteOrder(c.Request.Context(), uri.ID, result)
	if err != nil {
		h.fail(c, "complete", err)
		return
	}
	ginx.Success(c, response.FromJobOrderEntity(order))
}

// Error PUT /api/v1/jobs/:id/error，body 为 {type, payload}
func (h *JobOrderHandler) Error(c *gin.Context) {
	var uri request.JobOrderURI
	if err := c.ShouldBindUri(&uri); err != nil {
		ginx.BadRequestWithValidation(c, err)
		return
	}
	var req request.ErrorJobOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ginx.BadRequestWithValidation(c, err)
		return
	}

	order, err := h.jobOrderService.ErrorProcessingOrder(c.Request.Context(), uri.ID, req.ToJobError())
	if err != nil {
		h.fail(c, "error", err)
		return
	}
	ginx.Success(c, response.FromJobOrderEntity(order))
}

// Expire PUT /api/v1/jobs/:id/expire?asOf=...
func (h *JobOrderHandler) Expire(c *gin.Context) {
	var uri request.JobOrderURI
	if err := c.ShouldBindUri(&uri); err != nil {
		ginx.BadRequestWithValidation(c, err)
		return
	}
	var query request.ExpireJobOrderQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		ginx.BadRequestWithValidation(c, err)
		return
	}
	asOf := time.Now().UTC()
	if query.AsOf != nil {
		asOf = *query.AsOf
	}

	order, expired, err := h.jobOrderService.ExpireOrder(c.Request.Context(), uri.ID, asOf)
	if err != nil {
		h.fail(c, "expire", err)
		return
	}
	ginx.Success(c, &response.ExpireJobOrderResponse{
		Expired: expired,
		Order:   response.FromJobOrderEntity(order),
	})
}

func (h *JobOrderHandler) simple(c *gin.Context, op string, fn func(ctx context.Context, id string) (*etjoborder.JobOrder, error)) {
	var uri request.JobOrderURI
	if err := c.ShouldBindUri(&uri); err != nil {
		ginx.BadRequestWithValidation(c, err)
		return
	}

	order, err := fn(c.Request.Context(), uri.ID)
	if err != nil {
		h.fail(c, op, err)
		return
	}
	ginx.Success(c, response.FromJobOrderEntity(order))
}
