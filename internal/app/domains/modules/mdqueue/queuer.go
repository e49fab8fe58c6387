package mdqueue

import (
	"context"
	"time"
)

// Queuer 任务调度触发器
type Queuer interface {
	// Queue 在 scheduleAt 之后（为空则立即）触发 id 的处理
	Queue(ctx context.Context, id string, scheduleAt *time.Time) (bool, error)

	// Unqueue 移除 id 的待触发记录，id 不存在时返回 false 且无错误
	Unqueue(ctx context.Context, id string) (bool, error)
}

// delaySeconds 计算距离 scheduleAt 的延迟秒数（向上取整），已过期或为空时返回 0
func delaySeconds(now time.Time, scheduleAt *time.Time) uint32 {
	if scheduleAt == nil || !scheduleAt.After(now) {
		return 0
	}
	d := scheduleAt.Sub(now)
	secs := d / time.Second
	if d%time.Second != 0 {
		secs++
	}
	return uint32(secs)
}
