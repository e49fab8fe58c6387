package etjoborder

import (
	"errors"
	"fmt"
	"strings"

	"jobsvc/internal/app/domains/entity/etprimitive"
)

// 错误分类哨兵，配合 errors.Is 使用
var (
	ErrNotFound          = errors.New("job order not found")
	ErrInvalidTransition = errors.New("invalid job status transition")
	ErrUnableToQueue     = errors.New("unable to queue job order")
	ErrUnableToNotify    = errors.New("unable to notify job event")
)

// NotFoundError 任务单不存在
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("job order not found: %s", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// InvalidTransitionError 当前状态不允许目标迁移
type InvalidTransitionError struct {
	From          JobStatus
	To            JobStatus
	ExpectingFrom []JobStatus
}

func (e *InvalidTransitionError) Error() string {
	expecting := make([]string, 0, len(e.ExpectingFrom))
	for _, s := range e.ExpectingFrom {
		expecting = append(expecting, string(s))
	}
	return fmt.Sprintf("invalid job status transition %s -> %s, expecting from [%s]",
		e.From, e.To, strings.Join(expecting, ", "))
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// UnableToQueueError 队列拒绝入队或出队
type UnableToQueueError struct {
	ID    string
	Cause error
}

func (e *UnableToQueueError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("unable to queue job order %s: %v", e.ID, e.Cause)
	}
	return fmt.Sprintf("unable to queue job order %s", e.ID)
}

func (e *UnableToQueueError) Is(target error) bool {
	return target == ErrUnableToQueue
}

func (e *UnableToQueueError) Unwrap() error {
	return e.Cause
}

// UnableToNotifyError 事件未能送达
type UnableToNotifyError struct {
	Event   JobEvent
	Payload etprimitive.Payload
	Cause   error
}

func (e *UnableToNotifyError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("unable to notify job event %s: %v", e.Event, e.Cause)
	}
	return fmt.Sprintf("unable to notify job event %s", e.Event)
}

func (e *UnableToNotifyError) Is(target error) bool {
	return target == ErrUnableToNotify
}

func (e *UnableToNotifyError) Unwrap() error {
	return e.Cause
}
