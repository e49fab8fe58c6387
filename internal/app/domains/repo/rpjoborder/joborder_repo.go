package rpjoborder

import (
	"context"
	"errors"
	"time"

	"jobsvc/internal/app/domains/entity/etjoborder"
	"jobsvc/internal/app/domains/entity/etprimitive"
)

var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("rpjoborder: job order not found")
	// ErrStatusConflict CAS 更新时当前状态与期望的 from 不一致
	ErrStatusConflict = errors.New("rpjoborder: job order status changed concurrently")
)

// ListFilter 列表查询条件
type ListFilter struct {
	Status     etjoborder.JobStatus
	Type       string
	Pagination etprimitive.Pagination
}

// JobOrderRepository 任务单仓储接口
// 单条记录上的操作均为原子操作，不假设跨 ID 事务
type JobOrderRepository interface {
	// Create 创建任务单并分配 ID
	Create(ctx context.Context, order *etjoborder.JobOrder) (*etjoborder.JobOrder, error)

	// Find 根据 ID 查询，不存在返回 ErrNotFound
	Find(ctx context.Context, id string) (*etjoborder.JobOrder, error)

	// SetStatus 比较并设置状态：仅当当前状态等于 from 时更新为 to，并原子追加 runs
	// run 不合法时返回 etjoborder.ErrInvalidRun / ErrInvalidErrorType，状态不变
	SetStatus(ctx context.Context, id string, from, to etjoborder.JobStatus, runs ...etjoborder.JobRun) (*etjoborder.JobOrder, error)

	// Delete 删除任务单，仅用于创建失败时的补偿；不存在返回 false
	Delete(ctx context.Context, id string) (bool, error)

	// List 分页查询
	List(ctx context.Context, filter ListFilter) ([]*etjoborder.JobOrder, int64, error)

	// ListExpired 查询 asOf 时刻已过期的 pending 任务单
	ListExpired(ctx context.Context, asOf time.Time, limit int) ([]*etjoborder.JobOrder, error)
}

func validateRuns(runs []etjoborder.JobRun) error {
	for _, run := range runs {
		if err := run.Validate(); err != nil {
			return err
		}
	}
	return nil
}
