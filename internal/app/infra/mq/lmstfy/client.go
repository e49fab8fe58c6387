package lmstfy

import (
	"fmt"

	"github.com/bitleak/lmstfy/client"
)

// Client Lmstfy 客户端封装
type Client struct {
	cli       *client.LmstfyClient
	namespace string
}

// NewClient 创建 Lmstfy 客户端
func NewClient(host string, port int, namespace string, token string) *Client {
	return &Client{
		cli:       client.NewLmstfyClient(host, port, namespace, token),
		namespace: namespace,
	}
}

// Publish 发布消息，返回 lmstfy 分配的 job id
// ttl: 消息存活时间（秒），tries: 投递次数，delay: 延迟时间（秒）
func (c *Client) Publish(queue string, data []byte, ttl uint32, tries uint16, delay uint32) (string, error) {
	jobID, err := c.cli.Publish(queue, data, ttl, tries, delay)
	if err != nil {
		return "", fmt.Errorf("lmstfy publish failed: %w", err)
	}
	return jobID, nil
}

// Delete 删除消息（延迟中或就绪的消息均可删除）
func (c *Client) Delete(queue string, jobID string) error {
	err := c.cli.Ack(queue, jobID)
	if err != nil {
		return fmt.Errorf("lmstfy delete failed: %w", err)
	}
	return nil
}

// Namespace 返回命名空间
func (c *Client) Namespace() string {
	return c.namespace
}
