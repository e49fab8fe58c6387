package etjoborder

// 各操作允许的源状态
var (
	FromForRequest  = []JobStatus{JobStatusCreating}
	FromForStart    = []JobStatus{JobStatusPending}
	FromForCancel   = []JobStatus{JobStatusPending}
	FromForExpire   = []JobStatus{JobStatusPending}
	FromForError    = []JobStatus{JobStatusProcessing}
	FromForComplete = []JobStatus{JobStatusProcessing}
	FromForResume   = []JobStatus{JobStatusCancelled, JobStatusFailed}
)

// transitions 状态机：from -> 允许的 to
var transitions = map[JobStatus][]JobStatus{
	JobStatusCreating:   {JobStatusPending},
	JobStatusPending:    {JobStatusProcessing, JobStatusCancelled},
	JobStatusProcessing: {JobStatusPending, JobStatusFailed, JobStatusCompleted},
	JobStatusFailed:     {JobStatusPending},
	JobStatusCancelled:  {JobStatusPending},
}

// CanTransition 判断 from -> to 是否在状态机内
func CanTransition(from, to JobStatus) bool {
	return to.In(transitions[from])
}

// ClassifyError 根据已有 run 数量与错误类型决定目标状态和事件
// n = len(runs)：unprocessable 直接失败；n+1 >= maxRetry 达到上限失败；否则回到 pending
func ClassifyError(order *JobOrder, jobErr JobError) (JobStatus, JobEvent) {
	if jobErr.Type == JobErrorTypeUnprocessable {
		return JobStatusFailed, EventUnprocessable
	}
	if order.Attempts()+1 >= order.Params.MaxRetry {
		return JobStatusFailed, EventMaxErrorReached
	}
	return JobStatusPending, EventError
}
