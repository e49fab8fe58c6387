package response

import "jobsvc/internal/app/domains/entity/etjoborder"

// FromJobOrderEntity 从领域对象转换为响应 DTO
func FromJobOrderEntity(order *etjoborder.JobOrder) *JobOrderResponse {
	payload := map[string]interface{}(order.Payload)
	if payload == nil {
		payload = map[string]interface{}{}
	}
	runs := order.Runs
	if runs == nil {
		runs = []etjoborder.JobRun{}
	}
	return &JobOrderResponse{
		ID:      order.ID,
		Type:    order.Type,
		Payload: payload,
		Params: JobParams{
			MaxRetry:  order.Params.MaxRetry,
			Timeout:   order.Params.Timeout,
			Schedule:  order.Params.Schedule,
			ExpiresAt: order.Params.ExpiresAt,
		},
		Status:    string(order.Status),
		Runs:      runs,
		CreatedAt: order.CreatedAt,
		UpdatedAt: order.UpdatedAt,
	}
}

// FromJobOrderEntities 批量转换
func FromJobOrderEntities(orders []*etjoborder.JobOrder) []*JobOrderResponse {
	items := make([]*JobOrderResponse, 0, len(orders))
	for _, order := range orders {
		items = append(items, FromJobOrderEntity(order))
	}
	return items
}
