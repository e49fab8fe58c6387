package svjoborder

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"jobsvc/internal/app/domains/entity/etjoborder"
	"jobsvc/internal/app/domains/repo/rpjoborder"
	"jobsvc/internal/app/pkg/logger"
	"jobsvc/internal/app/pkg/metrics"
)

// plan 一次迁移的目标状态、事件与要追加的 run
type plan struct {
	to    etjoborder.JobStatus
	event etjoborder.JobEvent
	runs  []etjoborder.JobRun
}

type transition struct {
	op   string
	from []etjoborder.JobStatus
	plan func(order *etjoborder.JobOrder) plan

	// effects 执行副作用，返回 false 表示不迁移
	effects func(ctx context.Context, order *etjoborder.JobOrder, p plan) (bool, error)
	// undo 副作用已生效但持久化失败时调用
	undo func(ctx context.Context, order *etjoborder.JobOrder, p plan)
	// after 持久化成功后调用
	after func(ctx context.Context, order *etjoborder.JobOrder, p plan)
}

// transitionIf 加锁 -> 读取 -> 校验源状态 -> 副作用 -> CAS 持久化
// 返回的 bool 表示迁移是否生效
func (s *JobOrderService) transitionIf(ctx context.Context, id string, t transition) (*etjoborder.JobOrder, bool, error) {
	unlock, err := s.locker.Lock(ctx, id)
	if err != nil {
		return nil, false, fmt.Errorf("lock job order %s failed: %w", id, err)
	}
	defer unlock()

	// 开始迁移后不再响应调用方取消
	ctx = logger.WithJobOrderID(context.WithoutCancel(ctx), id)

	order, err := s.find(ctx, id)
	if err != nil {
		s.recordFailure(t.op, err)
		return nil, false, err
	}

	p := t.plan(order)
	if !order.Status.In(t.from) || !etjoborder.CanTransition(order.Status, p.to) {
		err := &etjoborder.InvalidTransitionError{
			From:          order.Status,
			To:            p.to,
			ExpectingFrom: append([]etjoborder.JobStatus(nil), t.from...),
		}
		s.recordFailure(t.op, err)
		return nil, false, err
	}

	proceed, err := t.effects(ctx, order, p)
	if err != nil {
		s.recordFailure(t.op, err)
		s.log.Warnf(ctx, "%s job order %s aborted: %v", t.op, id, err)
		return nil, false, err
	}
	if !proceed {
		return order, false, nil
	}

	updated, err := s.repo.SetStatus(ctx, id, order.Status, p.to, p.runs...)
	if err != nil {
		if t.undo != nil {
			t.undo(ctx, order, p)
		}
		err = s.persistError(ctx, id, p.to, t.from, err)
		s.recordFailure(t.op, err)
		s.log.Errorf(ctx, "%s job order %s: persist %s -> %s failed: %v", t.op, id, order.Status, p.to, err)
		return nil, false, err
	}

	if t.after != nil {
		t.after(ctx, updated, p)
	}
	metrics.TransitionsTotal.WithLabelValues(string(p.event)).Inc()
	s.log.Infof(ctx, "job order %s %s -> %s (%s)", id, order.Status, p.to, p.event)
	return updated, true, nil
}

// persistError CAS 冲突说明状态已被其他实例修改，按非法迁移返回
func (s *JobOrderService) persistError(ctx context.Context, id string, to etjoborder.JobStatus, from []etjoborder.JobStatus, err error) error {
	switch {
	case errors.Is(err, rpjoborder.ErrNotFound):
		return &etjoborder.NotFoundError{ID: id}
	case errors.Is(err, rpjoborder.ErrStatusConflict):
		current, findErr := s.find(ctx, id)
		if findErr != nil {
			return findErr
		}
		return &etjoborder.InvalidTransitionError{
			From:          current.Status,
			To:            to,
			ExpectingFrom: append([]etjoborder.JobStatus(nil), from...),
		}
	default:
		return fmt.Errorf("persist job order %s failed: %w", id, err)
	}
}

var transitionLabelsOnce sync.Once

// initTransitionLabels 预先创建各事件的计数序列，未发生的迁移也以 0 暴露
func initTransitionLabels() {
	transitionLabelsOnce.Do(func() {
		for _, event := range etjoborder.AllEvents {
			metrics.TransitionsTotal.WithLabelValues(string(event))
		}
	})
}

func (s *JobOrderService) recordFailure(op string, err error) {
	metrics.TransitionFailuresTotal.WithLabelValues(op, failureReason(err)).Inc()
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, etjoborder.ErrNotFound):
		return "not_found"
	case errors.Is(err, etjoborder.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, etjoborder.ErrUnableToQueue):
		return "queue"
	case errors.Is(err, etjoborder.ErrUnableToNotify):
		return "notify"
	default:
		return "repository"
	}
}
