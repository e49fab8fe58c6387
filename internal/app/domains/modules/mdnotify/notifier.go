package mdnotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"jobsvc/internal/app/domains/entity/etjoborder"
	"jobsvc/internal/app/domains/entity/etprimitive"
	"jobsvc/internal/app/pkg/logger"
)

// ErrNoSubscriber 发布成功但没有订阅者收到
var ErrNoSubscriber = errors.New("event reached no subscriber")

// Notifier 领域事件发布，失败必须返回错误
type Notifier interface {
	Shout(ctx context.Context, event etjoborder.JobEvent, payload etprimitive.Payload) error
}

// Message 发布到通道上的事件
type Message struct {
	Type      etjoborder.JobEvent `json:"type"`
	Payload   etprimitive.Payload `json:"payload"`
	EmittedAt time.Time           `json:"emitted_at"`
}

// Publisher Redis 发布能力
type Publisher interface {
	Publish(ctx context.Context, channel string, message []byte) (int64, error)
}

// RedisNotifier 通过 Redis Pub/Sub 广播事件，channel 为 <prefix>:<event>
type RedisNotifier struct {
	pub               Publisher
	prefix            string
	requireSubscriber bool
	now               func() time.Time
}

// NewRedisNotifier 创建 RedisNotifier
func NewRedisNotifier(pub Publisher, prefix string, requireSubscriber bool) *RedisNotifier {
	if prefix == "" {
		prefix = "jobsvc"
	}
	return &RedisNotifier{
		pub:               pub,
		prefix:            prefix,
		requireSubscriber: requireSubscriber,
		now:               time.Now,
	}
}

// Channel 事件对应的 channel
func (n *RedisNotifier) Channel(event etjoborder.JobEvent) string {
	return n.prefix + ":" + string(event)
}

func (n *RedisNotifier) Shout(ctx context.Context, event etjoborder.JobEvent, payload etprimitive.Payload) error {
	msg, err := json.Marshal(Message{
		Type:      event,
		Payload:   payload,
		EmittedAt: n.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event, err)
	}

	receivers, err := n.pub.Publish(ctx, n.Channel(event), msg)
	if err != nil {
		return err
	}
	if n.requireSubscriber && receivers == 0 {
		return fmt.Errorf("%s: %w", n.Channel(event), ErrNoSubscriber)
	}
	return nil
}

// LogNotifier 只写日志的 Notifier，未配置 Redis 时使用
type LogNotifier struct {
	log logger.Logger
}

// NewLogNotifier 创建 LogNotifier
func NewLogNotifier(log logger.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Shout(ctx context.Context, event etjoborder.JobEvent, payload etprimitive.Payload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event, err)
	}
	n.log.Infof(ctx, "job event %s: %s", event, data)
	return nil
}
