package health

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jobsvc/internal/app/health"
)

// HealthHandler 健康检查处理器
type HealthHandler struct {
	probe *health.Probe
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(probe *health.Probe) *HealthHandler {
	return &HealthHandler{probe: probe}
}

// Check GET /health，全部依赖健康返回 200，否则 500
func (h *HealthHandler) Check(c *gin.Context) {
	report := h.probe.Check(c.Request.Context())
	code := http.StatusOK
	if !report.Healthy {
		code = http.StatusInternalServerError
	}
	c.JSON(code, report)
}
