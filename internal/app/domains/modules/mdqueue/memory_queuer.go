package mdqueue

import (
	"context"
	"sync"
	"time"
)

// MemoryQueuer 内存实现，本地运行与测试使用
type MemoryQueuer struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewMemoryQueuer 创建 MemoryQueuer
func NewMemoryQueuer() *MemoryQueuer {
	return &MemoryQueuer{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (q *MemoryQueuer) Queue(ctx context.Context, id string, scheduleAt *time.Time) (bool, error) {
	at := q.now()
	if scheduleAt != nil {
		at = *scheduleAt
	}
	q.mu.Lock()
	q.entries[id] = at
	q.mu.Unlock()
	return true, nil
}

func (q *MemoryQueuer) Unqueue(ctx context.Context, id string) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.entries[id]; !ok {
		return false, nil
	}
	delete(q.entries, id)
	return true, nil
}

// Has 是否存在待触发记录
func (q *MemoryQueuer) Has(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.entries[id]
	return ok
}

// Len 待触发记录数
func (q *MemoryQueuer) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}
