package response

import (
	"time"

	"jobsvc/internal/app/domains/entity/etjoborder"
)

// JobOrderResponse 任务单响应（DTO）
type JobOrderResponse struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Payload   map[string]interface{} `json:"payload"`
	Params    JobParams              `json:"params"`
	Status    string                 `json:"status"`
	Runs      []etjoborder.JobRun    `json:"runs"`
	CreatedAt time.Time              `json:"createdAt"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

// JobParams 任务单参数（DTO）
type JobParams struct {
	MaxRetry  int        `json:"maxRetry"`
	Timeout   *int       `json:"timeout,omitempty"`
	Schedule  *time.Time `json:"schedule,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// JobOrderListResponse 列表响应
type JobOrderListResponse struct {
	Items []*JobOrderResponse `json:"items"`
	Total int64               `json:"total"`
	Page  int                 `json:"page"`
	Limit int                 `json:"limit"`
}

// ExpireJobOrderResponse 过期检查响应
type ExpireJobOrderResponse struct {
	Expired bool              `json:"expired"`
	Order   *JobOrderResponse `json:"order"`
}
