package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Client Redis 客户端封装：发布、哈希索引与分布式锁共用一个连接池
type Client struct {
	rdb *redis.Client
}

// NewClient 创建 Redis 客户端，支持密码认证
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// NewClientFromRedis 包装已有连接（不做连通性检查）
func NewClientFromRedis(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

// Publish 向指定 channel 发布消息，返回收到消息的订阅者数量
func (c *Client) Publish(ctx context.Context, channel string, message []byte) (int64, error) {
	receivers, err := c.rdb.Publish(ctx, channel, message).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to publish to %s: %w", channel, err)
	}
	return receivers, nil
}

// SetField 写入哈希字段
func (c *Client) SetField(ctx context.Context, key, field, value string) error {
	if err := c.rdb.HSet(ctx, key, field, value).Err(); err != nil {
		return fmt.Errorf("failed to hset %s: %w", key, err)
	}
	return nil
}

// GetField 读取哈希字段，字段不存在时返回 ok=false
func (c *Client) GetField(ctx context.Context, key, field string) (string, bool, error) {
	value, err := c.rdb.HGet(ctx, key, field).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to hget %s: %w", key, err)
	}
	return value, true, nil
}

// DelField 删除哈希字段
func (c *Client) DelField(ctx context.Context, key, field string) (bool, error) {
	n, err := c.rdb.HDel(ctx, key, field).Result()
	if err != nil {
		return false, fmt.Errorf("failed to hdel %s: %w", key, err)
	}
	return n > 0, nil
}

// Ping 连通性检查
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close 关闭连接
func (c *Client) Close() error {
	return c.rdb.Close()
}
