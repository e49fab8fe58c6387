package mdqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// JobPublisher lmstfy 发布/删除能力
type JobPublisher interface {
	Publish(queue string, data []byte, ttl uint32, tries uint16, delay uint32) (string, error)
	Delete(queue string, jobID string) error
}

// JobIndex 任务单 ID 到 lmstfy job id 的映射
type JobIndex interface {
	SetField(ctx context.Context, key, field, value string) error
	GetField(ctx context.Context, key, field string) (string, bool, error)
	DelField(ctx context.Context, key, field string) (bool, error)
}

// LmstfyConfig 队列参数
type LmstfyConfig struct {
	Queue    string
	TTL      uint32 // 秒，0 表示永不过期
	Tries    uint16
	IndexKey string
}

// TriggerMessage 投递给 worker 的消息体
type TriggerMessage struct {
	JobOrderID string `json:"job_order_id"`
}

// LmstfyQueuer 基于 lmstfy 延迟队列的 Queuer
type LmstfyQueuer struct {
	publisher JobPublisher
	index     JobIndex
	cfg       LmstfyConfig
	now       func() time.Time
}

// NewLmstfyQueuer 创建 LmstfyQueuer
func NewLmstfyQueuer(publisher JobPublisher, index JobIndex, cfg LmstfyConfig) *LmstfyQueuer {
	if cfg.Tries == 0 {
		cfg.Tries = 1
	}
	if cfg.IndexKey == "" {
		cfg.IndexKey = "jobsvc:lmstfy:" + cfg.Queue
	}
	return &LmstfyQueuer{
		publisher: publisher,
		index:     index,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Queue 发布延迟消息并记录 lmstfy job id
func (q *LmstfyQueuer) Queue(ctx context.Context, id string, scheduleAt *time.Time) (bool, error) {
	data, err := json.Marshal(TriggerMessage{JobOrderID: id})
	if err != nil {
		return false, err
	}

	jobID, err := q.publisher.Publish(q.cfg.Queue, data, q.cfg.TTL, q.cfg.Tries, delaySeconds(q.now(), scheduleAt))
	if err != nil {
		return false, err
	}

	if err := q.index.SetField(ctx, q.cfg.IndexKey, id, jobID); err != nil {
		// 没有索引就无法 Unqueue，撤回刚发布的消息
		if delErr := q.publisher.Delete(q.cfg.Queue, jobID); delErr != nil {
			return false, fmt.Errorf("%w (rollback failed: %v)", err, delErr)
		}
		return false, err
	}
	return true, nil
}

// Unqueue 删除 lmstfy 消息与索引
func (q *LmstfyQueuer) Unqueue(ctx context.Context, id string) (bool, error) {
	jobID, ok, err := q.index.GetField(ctx, q.cfg.IndexKey, id)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	if err := q.publisher.Delete(q.cfg.Queue, jobID); err != nil {
		return false, err
	}
	if _, err := q.index.DelField(ctx, q.cfg.IndexKey, id); err != nil {
		return false, err
	}
	return true, nil
}
