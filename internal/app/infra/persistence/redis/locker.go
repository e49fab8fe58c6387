package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// 仅当 value 仍为自己的 token 时才删除
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker 基于 SET NX PX 的分布式锁，多实例共享同一个 MySQL 时使用
type Locker struct {
	client       *Client
	prefix       string
	ttl          time.Duration
	retryBackoff time.Duration
}

// NewLocker 创建分布式锁
func NewLocker(client *Client, prefix string, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Locker{
		client:       client,
		prefix:       prefix,
		ttl:          ttl,
		retryBackoff: 20 * time.Millisecond,
	}
}

// Lock 阻塞直到拿到锁或 ctx 结束
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := l.prefix + key
	token := uuid.New().String()

	for {
		ok, err := l.client.rdb.SetNX(ctx, lockKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", lockKey, err)
		}
		if ok {
			break
		}

		timer := time.NewTimer(l.retryBackoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return func() {
		// 释放锁不受调用方取消影响
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		// 释放失败时锁会在 ttl 后自动过期
		_ = unlockScript.Run(releaseCtx, l.client.rdb, []string{lockKey}, token).Err()
	}, nil
}
