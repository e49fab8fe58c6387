package idgen

import (
	"strconv"
	"sync"
	"time"
)

// Generator 简化的雪花 ID 生成器
// 格式: 毫秒时间偏移 * 100000 + 节点号(2位) * 1000 + 序列号(3位)
type Generator struct {
	mu       sync.Mutex
	epoch    int64 // 起始时间 (2024-01-01 00:00:00 UTC)，毫秒
	nodeID   int64 // 节点号 (0-99)
	sequence int64 // 序列号 (0-999)
	lastTime int64 // 上次生成 ID 的毫秒时间
	now      func() time.Time
}

const (
	maxNodeID   = 99
	maxSequence = 999
)

// New 创建生成器，nodeID 超出范围时回落为 0
func New(nodeID int64) *Generator {
	if nodeID < 0 || nodeID > maxNodeID {
		nodeID = 0
	}
	return &Generator{
		epoch:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli(),
		nodeID: nodeID,
		now:    time.Now,
	}
}

// Next 生成下一个 ID（十进制字符串），同一进程内单调递增
func (g *Generator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now().UnixMilli()
	if now < g.lastTime {
		// 时钟回拨时沿用上次时间，靠序列号保证递增
		now = g.lastTime
	}

	if now == g.lastTime {
		g.sequence = (g.sequence + 1) % (maxSequence + 1)
		if g.sequence == 0 {
			// 序列号用尽，借用下一毫秒
			now = g.lastTime + 1
		}
	} else {
		g.sequence = 0
	}
	g.lastTime = now

	id := (now-g.epoch)*100000 + g.nodeID*1000 + g.sequence
	return strconv.FormatInt(id, 10)
}
