package request

import "time"

// JobTypeURI 创建任务单的路径参数
type JobTypeURI struct {
	Type string `uri:"type" binding:"required,max=128" example:"build"`
}

// JobOrderURI 任务单 ID 路径参数
type JobOrderURI struct {
	ID string `uri:"id" binding:"required,max=64" example:"1934561234567890000"`
}

// CreateJobOrderQuery 创建任务单的 query 参数，未传的字段使用默认值
type CreateJobOrderQuery struct {
	MaxRetry  *int       `form:"maxRetry" binding:"omitempty,min=0" example:"3"`
	Timeout   *int       `form:"timeout" binding:"omitempty,min=0" example:"300"`
	Schedule  *time.Time `form:"schedule" time_format:"2006-01-02T15:04:05Z07:00"`
	ExpiresAt *time.Time `form:"expiresAt" time_format:"2006-01-02T15:04:05Z07:00"`
}

// ErrorJobOrderRequest 上报处理错误
type ErrorJobOrderRequest struct {
	Type    string                 `json:"type" binding:"required,oneof=unprocessable error timeout" example:"error"`
	Payload map[string]interface{} `json:"payload"`
}

// ExpireJobOrderQuery 过期检查时间，缺省为当前时间
type ExpireJobOrderQuery struct {
	AsOf *time.Time `form:"asOf" time_format:"2006-01-02T15:04:05Z07:00"`
}

// ListJobOrdersQuery 列表查询参数
type ListJobOrdersQuery struct {
	Status string `form:"status" binding:"omitempty,oneof=creating pending processing completed failed cancelled"`
	Type   string `form:"type" binding:"omitempty,max=128"`
	Page   int    `form:"page,default=1" binding:"min=1"`
	Limit  int    `form:"limit,default=20" binding:"min=1,max=100"`
}
