package svjoborder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jobsvc/internal/app/domains/entity/etjoborder"
	"jobsvc/internal/app/domains/entity/etprimitive"
	"jobsvc/internal/app/domains/modules/mdnotify"
	"jobsvc/internal/app/domains/modules/mdqueue"
	"jobsvc/internal/app/domains/repo/rpjoborder"
	"jobsvc/internal/app/pkg/keylock"
	"jobsvc/internal/app/pkg/logger"
)

// Locker 按任务单 ID 互斥
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// JobOrderService 任务单服务，负责状态机与副作用编排
type JobOrderService struct {
	repo     rpjoborder.JobOrderRepository
	queuer   mdqueue.Queuer
	notifier mdnotify.Notifier
	locker   Locker
	log      logger.Logger
	defaults etjoborder.JobParams
}

// Option 服务可选项
type Option func(*JobOrderService)

// WithLocker 替换默认的进程内锁
func WithLocker(locker Locker) Option {
	return func(s *JobOrderService) { s.locker = locker }
}

// WithLogger 设置日志
func WithLogger(log logger.Logger) Option {
	return func(s *JobOrderService) { s.log = log }
}

// WithDefaults 设置默认参数
func WithDefaults(defaults etjoborder.JobParams) Option {
	return func(s *JobOrderService) { s.defaults = defaults }
}

// NewJobOrderService 创建任务单服务实例
func NewJobOrderService(
	repo rpjoborder.JobOrderRepository,
	queuer mdqueue.Queuer,
	notifier mdnotify.Notifier,
	opts ...Option,
) *JobOrderService {
	s := &JobOrderService{
		repo:     repo,
		queuer:   queuer,
		notifier: notifier,
		locker:   keylock.New(),
		log:      logger.NewNopLogger(),
		defaults: etjoborder.DefaultParams(),
	}
	for _, opt := range opts {
		opt(s)
	}
	initTransitionLabels()
	return s
}

// RequestOrder 创建任务单：落库(creating) -> 入队 -> 通知 jobRequested -> pending
// 任一步失败都会删除记录，不留下未完成入队与通知的任务单
func (s *JobOrderService) RequestOrder(ctx context.Context, jobType string, payload etprimitive.Payload, in etjoborder.JobParamsInput) (*etjoborder.JobOrder, error) {
	params, err := etjoborder.ResolveParams(s.defaults, in)
	if err != nil {
		return nil, err
	}
	order, err := etjoborder.NewJobOrder(jobType, payload, params)
	if err != nil {
		return nil, err
	}

	ctx = context.WithoutCancel(ctx)
	created, err := s.repo.Create(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("create job order failed: %w", err)
	}
	id := created.ID
	ctx = logger.WithJobOrderID(ctx, id)

	requested, _, err := s.transitionIf(ctx, id, transition{
		op:   "request",
		from: etjoborder.FromForRequest,
		plan: func(*etjoborder.JobOrder) plan {
			return plan{to: etjoborder.JobStatusPending, event: etjoborder.EventRequested}
		},
		effects: func(ctx context.Context, order *etjoborder.JobOrder, p plan) (bool, error) {
			if err := s.queue(ctx, id, order.Params.Schedule); err != nil {
				return false, err
			}
			if err := s.notify(ctx, p.event, etprimitive.Payload{"id": id, "type": order.Type}); err != nil {
				s.unqueueQuietly(ctx, id)
				return false, err
			}
			return true, nil
		},
		undo: func(ctx context.Context, order *etjoborder.JobOrder, _ plan) {
			s.unqueueQuietly(ctx, id)
		},
	})
	if err != nil {
		s.discard(ctx, id)
		return nil, err
	}
	return requested, nil
}

// GetOrder 查询任务单
func (s *JobOrderService) GetOrder(ctx context.Context, id string) (*etjoborder.JobOrder, error) {
	return s.find(ctx, id)
}

// ListOrders 分页查询
func (s *JobOrderService) ListOrders(ctx context.Context, filter rpjoborder.ListFilter) ([]*etjoborder.JobOrder, int64, error) {
	return s.repo.List(ctx, filter)
}

// ListExpiredOrders 查询 asOf 时刻已过期的 pending 任务单
func (s *JobOrderService) ListExpiredOrders(ctx context.Context, asOf time.Time, limit int) ([]*etjoborder.JobOrder, error) {
	return s.repo.ListExpired(ctx, asOf, limit)
}

// CancelOrder pending -> cancelled
// 出队成功而通知失败时不回滚出队：任务单保持 pending 且无队列记录，需外部对账
func (s *JobOrderService) CancelOrder(ctx context.Context, id string) (*etjoborder.JobOrder, error) {
	order, _, err := s.transitionIf(ctx, id, transition{
		op:   "cancel",
		from: etjoborder.FromForCancel,
		plan: func(*etjoborder.JobOrder) plan {
			return plan{to: etjoborder.JobStatusCancelled, event: etjoborder.EventCancelled}
		},
		effects: func(ctx context.Context, order *etjoborder.JobOrder, p plan) (bool, error) {
			if err := s.unqueue(ctx, id); err != nil {
				return false, err
			}
			if err := s.notify(ctx, p.event, etprimitive.Payload{"id": id, "type": order.Type}); err != nil {
				s.log.Warnf(ctx, "job order %s left pending without queue entry: %v", id, err)
				return false, err
			}
			return true, nil
		},
		undo: s.requeueQuietly,
	})
	return order, err
}

// StartOrder pending -> processing
func (s *JobOrderService) StartOrder(ctx context.Context, id string) (*etjoborder.JobOrder, error) {
	order, _, err := s.transitionIf(ctx, id, transition{
		op:   "start",
		from: etjoborder.FromForStart,
		plan: func(*etjoborder.JobOrder) plan {
			return plan{to: etjoborder.JobStatusProcessing, event: etjoborder.EventStarted}
		},
		effects: func(ctx context.Context, order *etjoborder.JobOrder, p plan) (bool, error) {
			return true, s.notify(ctx, p.event, etprimitive.Payload{"id": id, "type": order.Type})
		},
	})
	return order, err
}

// ErrorProcessingOrder processing -> pending | failed，先通知再追加 run
func (s *JobOrderService) ErrorProcessingOrder(ctx context.Context, id string, jobErr etjoborder.JobError) (*etjoborder.JobOrder, error) {
	if !jobErr.Type.Valid() {
		return nil, etjoborder.ErrInvalidErrorType
	}
	jobErr.Payload = jobErr.Payload.Clone()

	order, _, err := s.transitionIf(ctx, id, transition{
		op:   "error",
		from: etjoborder.FromForError,
		plan: func(order *etjoborder.JobOrder) plan {
			to, event := etjoborder.ClassifyError(order, jobErr)
			return plan{to: to, event: event, runs: []etjoborder.JobRun{{Error: &jobErr}}}
		},
		effects: func(ctx context.Context, order *etjoborder.JobOrder, p plan) (bool, error) {
			return true, s.notify(ctx, p.event, etprimitive.Payload{"id": id, "type": order.Type, "error": jobErr})
		},
		after: func(ctx context.Context, order *etjoborder.JobOrder, p plan) {
			// 可重试时重新触发；failed 的任务单不保留队列记录
			if p.to == etjoborder.JobStatusPending {
				s.requeueQuietly(ctx, order, p)
				return
			}
			s.unqueueQuietly(ctx, id)
		},
	})
	return order, err
}

// CompleteOrder processing -> completed，追加结果 run
func (s *JobOrderService) CompleteOrder(ctx context.Context, id string, result etprimitive.Payload) (*etjoborder.JobOrder, error) {
	if result == nil {
		result = etprimitive.Payload{}
	}
	result = result.Clone()

	order, _, err := s.transitionIf(ctx, id, transition{
		op:   "complete",
		from: etjoborder.FromForComplete,
		plan: func(*etjoborder.JobOrder) plan {
			return plan{
				to:    etjoborder.JobStatusCompleted,
				event: etjoborder.EventSuccess,
				runs:  []etjoborder.JobRun{{Result: result}},
			}
		},
		effects: func(ctx context.Context, order *etjoborder.JobOrder, p plan) (bool, error) {
			return true, s.notify(ctx, p.event, etprimitive.Payload{"id": id, "type": order.Type, "result": result})
		},
		after: func(ctx context.Context, order *etjoborder.JobOrder, p plan) {
			s.unqueueQuietly(ctx, id)
		},
	})
	return order, err
}

// ResumeOrder cancelled | failed -> pending，重新入队后通知
func (s *JobOrderService) ResumeOrder(ctx context.Context, id string) (*etjoborder.JobOrder, error) {
	order, _, err := s.transitionIf(ctx, id, transition{
		op:   "resume",
		from: etjoborder.FromForResume,
		plan: func(*etjoborder.JobOrder) plan {
			return plan{to: etjoborder.JobStatusPending, event: etjoborder.EventResumed}
		},
		effects: func(ctx context.Context, order *etjoborder.JobOrder, p plan) (bool, error) {
			if err := s.queue(ctx, id, nil); err != nil {
				return false, err
			}
			if err := s.notify(ctx, p.event, etprimitive.Payload{"id": id, "type": order.Type}); err != nil {
				s.unqueueQuietly(ctx, id)
				return false, err
			}
			return true, nil
		},
		undo: func(ctx context.Context, order *etjoborder.JobOrder, _ plan) {
			s.unqueueQuietly(ctx, id)
		},
	})
	return order, err
}

// ExpireOrder pending -> cancelled，仅当 expiresAt <= asOf 时生效，否则原样返回 false
func (s *JobOrderService) ExpireOrder(ctx context.Context, id string, asOf time.Time) (*etjoborder.JobOrder, bool, error) {
	return s.transitionIf(ctx, id, transition{
		op:   "expire",
		from: etjoborder.FromForExpire,
		plan: func(*etjoborder.JobOrder) plan {
			return plan{to: etjoborder.JobStatusCancelled, event: etjoborder.EventExpired}
		},
		effects: func(ctx context.Context, order *etjoborder.JobOrder, p plan) (bool, error) {
			if !order.Expired(asOf) {
				return false, nil
			}
			if err := s.unqueue(ctx, id); err != nil {
				return false, err
			}
			if err := s.notify(ctx, p.event, etprimitive.Payload{"id": id, "type": order.Type}); err != nil {
				s.log.Warnf(ctx, "job order %s left pending without queue entry: %v", id, err)
				return false, err
			}
			return true, nil
		},
		undo: s.requeueQuietly,
	})
}

func (s *JobOrderService) find(ctx context.Context, id string) (*etjoborder.JobOrder, error) {
	order, err := s.repo.Find(ctx, id)
	if errors.Is(err, rpjoborder.ErrNotFound) {
		return nil, &etjoborder.NotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("find job order %s failed: %w", id, err)
	}
	return order, nil
}

func (s *JobOrderService) queue(ctx context.Context, id string, scheduleAt *time.Time) error {
	ok, err := s.queuer.Queue(ctx, id, scheduleAt)
	if err != nil || !ok {
		return &etjoborder.UnableToQueueError{ID: id, Cause: err}
	}
	return nil
}

// unqueue 出队；id 不在队列中不算失败
func (s *JobOrderService) unqueue(ctx context.Context, id string) error {
	if _, err := s.queuer.Unqueue(ctx, id); err != nil {
		return &etjoborder.UnableToQueueError{ID: id, Cause: err}
	}
	return nil
}

func (s *JobOrderService) unqueueQuietly(ctx context.Context, id string) {
	if _, err := s.queuer.Unqueue(ctx, id); err != nil {
		s.log.Errorf(ctx, "unqueue job order %s failed: %v", id, err)
	}
}

func (s *JobOrderService) requeueQuietly(ctx context.Context, order *etjoborder.JobOrder, _ plan) {
	if _, err := s.queuer.Queue(ctx, order.ID, order.Params.Schedule); err != nil {
		s.log.Errorf(ctx, "requeue job order %s failed: %v", order.ID, err)
	}
}

func (s *JobOrderService) notify(ctx context.Context, event etjoborder.JobEvent, payload etprimitive.Payload) error {
	if err := s.notifier.Shout(ctx, event, payload); err != nil {
		return &etjoborder.UnableToNotifyError{Event: event, Payload: payload, Cause: err}
	}
	return nil
}

// discard 创建失败时删除记录
func (s *JobOrderService) discard(ctx context.Context, id string) {
	if _, err := s.repo.Delete(ctx, id); err != nil {
		s.log.Errorf(ctx, "delete job order %s after failed request: %v", id, err)
		return
	}
	s.log.Warnf(ctx, "job order %s discarded after failed request", id)
}
