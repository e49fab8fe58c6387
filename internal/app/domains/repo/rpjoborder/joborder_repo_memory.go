package rpjoborder

import (
	"context"
	"sort"
	"sync"
	"time"

	"jobsvc/internal/app/domains/entity/etjoborder"
	"jobsvc/internal/app/pkg/idgen"
)

// MemoryJobOrderRepository 内存仓储，用于本地运行与测试
type MemoryJobOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*etjoborder.JobOrder
	ids    *idgen.Generator
}

// NewMemoryJobOrderRepository 创建内存仓储
func NewMemoryJobOrderRepository(ids *idgen.Generator) *MemoryJobOrderRepository {
	if ids == nil {
		ids = idgen.New(0)
	}
	return &MemoryJobOrderRepository{
		orders: make(map[string]*etjoborder.JobOrder),
		ids:    ids,
	}
}

// Create 分配 ID 并保存副本
func (r *MemoryJobOrderRepository) Create(ctx context.Context, order *etjoborder.JobOrder) (*etjoborder.JobOrder, error) {
	stored := order.Clone()
	stored.ID = r.ids.Next()
	now := time.Now().UTC()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now

	r.mu.Lock()
	r.orders[stored.ID] = stored
	r.mu.Unlock()

	return stored.Clone(), nil
}

// Find 根据 ID 查询
func (r *MemoryJobOrderRepository) Find(ctx context.Context, id string) (*etjoborder.JobOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return order.Clone(), nil
}

// SetStatus 比较并设置状态，同时追加 runs
func (r *MemoryJobOrderRepository) SetStatus(ctx context.Context, id string, from, to etjoborder.JobStatus, runs ...etjoborder.JobRun) (*etjoborder.JobOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	if order.Status != from {
		return nil, ErrStatusConflict
	}
	if err := validateRuns(runs); err != nil {
		return nil, err
	}

	// 先在副本上修改，保证失败时不留下部分状态
	next := order.Clone()
	for _, run := range runs {
		next.Runs = append(next.Runs, run.Clone())
	}
	next.Status = to
	next.UpdatedAt = time.Now().UTC()
	r.orders[id] = next

	return next.Clone(), nil
}

// Delete 删除任务单
func (r *MemoryJobOrderRepository) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[id]; !ok {
		return false, nil
	}
	delete(r.orders, id)
	return true, nil
}

// List 按创建时间倒序分页
func (r *MemoryJobOrderRepository) List(ctx context.Context, filter ListFilter) ([]*etjoborder.JobOrder, int64, error) {
	r.mu.RLock()
	matched := make([]*etjoborder.JobOrder, 0, len(r.orders))
	for _, order := range r.orders {
		if filter.Status != "" && order.Status != filter.Status {
			continue
		}
		if filter.Type != "" && order.Type != filter.Type {
			continue
		}
		matched = append(matched, order.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	offset := filter.Pagination.Offset()
	if offset >= len(matched) {
		return []*etjoborder.JobOrder{}, total, nil
	}
	end := len(matched)
	if filter.Pagination.Limit > 0 && offset+filter.Pagination.Limit < end {
		end = offset + filter.Pagination.Limit
	}
	return matched[offset:end], total, nil
}

// ListExpired 查询已过期的 pending 任务单，按过期时间升序
func (r *MemoryJobOrderRepository) ListExpired(ctx context.Context, asOf time.Time, limit int) ([]*etjoborder.JobOrder, error) {
	r.mu.RLock()
	expired := make([]*etjoborder.JobOrder, 0)
	for _, order := range r.orders {
		if order.Status == etjoborder.JobStatusPending && order.Expired(asOf) {
			expired = append(expired, order.Clone())
		}
	}
	r.mu.RUnlock()

	sort.Slice(expired, func(i, j int) bool {
		return expired[i].Params.ExpiresAt.Before(*expired[j].Params.ExpiresAt)
	})
	if limit > 0 && len(expired) > limit {
		expired = expired[:limit]
	}
	return expired, nil
}
