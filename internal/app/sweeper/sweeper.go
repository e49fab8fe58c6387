package sweeper

import (
	"context"
	"errors"
	"time"

	"go.uber.org/atomic"

	"jobsvc/internal/app/domains/entity/etjoborder"
	"jobsvc/internal/app/pkg/logger"
	"jobsvc/internal/app/pkg/metrics"
)

// ErrAlreadyRunning 同一个 Sweeper 只允许启动一次循环
var ErrAlreadyRunning = errors.New("sweeper already running")

// ExpiryService 过期扫描依赖的服务能力
type ExpiryService interface {
	ListExpiredOrders(ctx context.Context, asOf time.Time, limit int) ([]*etjoborder.JobOrder, error)
	ExpireOrder(ctx context.Context, id string, asOf time.Time) (*etjoborder.JobOrder, bool, error)
}

// Config 扫描配置
type Config struct {
	Interval  time.Duration // 扫描间隔
	BatchSize int           // 单次最多处理的任务单数
}

// Sweeper 定时取消已过期的 pending 任务单
type Sweeper struct {
	svc       ExpiryService
	interval  time.Duration
	batchSize int
	running   *atomic.Bool
	logger    logger.Logger
	now       func() time.Time
}

// NewSweeper 创建过期扫描器
func NewSweeper(svc ExpiryService, cfg Config, log logger.Logger) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &Sweeper{
		svc:       svc,
		interval:  cfg.Interval,
		batchSize: cfg.BatchSize,
		running:   atomic.NewBool(false),
		logger:    log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Start 启动扫描循环，阻塞直到 ctx 结束
func (s *Sweeper) Start(ctx context.Context) error {
	if !s.running.CAS(false, true) {
		return ErrAlreadyRunning
	}
	defer s.running.Store(false)

	s.logger.Infof(ctx, "[Sweeper] started, interval: %s, batch: %d", s.interval, s.batchSize)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Infof(context.WithoutCancel(ctx), "[Sweeper] stopped")
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				s.logger.Errorf(ctx, "[Sweeper] sweep failed: %v", err)
			}
		}
	}
}

// Running 循环是否在运行
func (s *Sweeper) Running() bool {
	return s.running.Load()
}

// SweepOnce 扫描一批过期任务单，返回实际取消的数量
// 单个任务单失败只记录日志，不中断本批次
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	asOf := s.now()
	orders, err := s.svc.ListExpiredOrders(ctx, asOf, s.batchSize)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, order := range orders {
		if ctx.Err() != nil {
			return expired, ctx.Err()
		}
		_, ok, err := s.svc.ExpireOrder(ctx, order.ID, asOf)
		if err != nil {
			// 并发迁移导致的冲突属于正常竞争
			if errors.Is(err, etjoborder.ErrInvalidTransition) {
				s.logger.Debugf(ctx, "[Sweeper] job order %s no longer pending: %v", order.ID, err)
				continue
			}
			s.logger.Warnf(ctx, "[Sweeper] expire job order %s failed: %v", order.ID, err)
			continue
		}
		if ok {
			expired++
			metrics.ExpiredSweptTotal.Inc()
		}
	}

	if expired > 0 {
		s.logger.Infof(ctx, "[Sweeper] expired %d job orders", expired)
	}
	return expired, nil
}
