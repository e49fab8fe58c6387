package etjoborder

// JobEvent 任务单领域事件类型
type JobEvent string

const (
	EventRequested       JobEvent = "jobRequested"
	EventCancelled       JobEvent = "jobCancelled"
	EventStarted         JobEvent = "jobStarted"
	EventSuccess         JobEvent = "jobSuccess"
	EventError           JobEvent = "jobError"
	EventUnprocessable   JobEvent = "jobUnprocessable"
	EventMaxErrorReached JobEvent = "jobMaxErrorReached"
	EventResumed         JobEvent = "jobResumed"
	EventExpired         JobEvent = "jobExpired"
)

// AllEvents 全部事件，用于指标初始化
var AllEvents = []JobEvent{
	EventRequested,
	EventCancelled,
	EventStarted,
	EventSuccess,
	EventError,
	EventUnprocessable,
	EventMaxErrorReached,
	EventResumed,
	EventExpired,
}
