package request

import (
	"jobsvc/internal/app/domains/entity/etjoborder"
	"jobsvc/internal/app/domains/entity/etprimitive"
	"jobsvc/internal/app/domains/repo/rpjoborder"
)

// ToParamsInput 将 query 参数转换为领域参数
func (q *CreateJobOrderQuery) ToParamsInput() etjoborder.JobParamsInput {
	return etjoborder.JobParamsInput{
		MaxRetry:  q.MaxRetry,
		Timeout:   q.Timeout,
		Schedule:  q.Schedule,
		ExpiresAt: q.ExpiresAt,
	}
}

// ToJobError 转换为领域错误描述
func (r *ErrorJobOrderRequest) ToJobError() etjoborder.JobError {
	return etjoborder.JobError{
		Type:    etjoborder.JobErrorType(r.Type),
		Payload: etprimitive.Payload(r.Payload),
	}
}

// ToListFilter 转换为仓储查询条件
func (q *ListJobOrdersQuery) ToListFilter() rpjoborder.ListFilter {
	return rpjoborder.ListFilter{
		Status: etjoborder.JobStatus(q.Status),
		Type:   q.Type,
		Pagination: etprimitive.Pagination{
			Page:  q.Page,
			Limit: q.Limit,
		},
	}
}
