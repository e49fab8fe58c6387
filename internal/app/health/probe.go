package health

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"jobsvc/internal/app/pkg/logger"
)

// Checker 单个依赖的健康检查
type Checker interface {
	Check(ctx context.Context) error
}

// CheckerFunc 函数适配器
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Check(ctx context.Context) error {
	return f(ctx)
}

// ServiceReport 单个依赖的检查结果
type ServiceReport struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

// Report 汇总结果，全部依赖健康时 Healthy 为 true
type Report struct {
	Healthy bool            `json:"healthy"`
	Report  []ServiceReport `json:"report"`
}

// Probe 健康探针
type Probe struct {
	mu       sync.RWMutex
	checkers map[string]Checker
	timeout  time.Duration
	log      logger.Logger
}

// NewProbe 创建健康探针
func NewProbe(timeout time.Duration, log logger.Logger) *Probe {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Probe{
		checkers: make(map[string]Checker),
		timeout:  timeout,
		log:      log,
	}
}

// Register 注册依赖，重名时忽略并返回 false
func (p *Probe) Register(name string, checker Checker) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.checkers[name]; ok {
		p.log.Warnf(context.Background(), "already monitoring health on %s, ignoring duplicate registration", name)
		return false
	}
	p.checkers[name] = checker
	p.log.Infof(context.Background(), "monitoring health on %s", name)
	return true
}

// Unregister 取消注册
func (p *Probe) Unregister(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.checkers[name]; !ok {
		return false
	}
	delete(p.checkers, name)
	return true
}

// Check 并发检查所有依赖
func (p *Probe) Check(ctx context.Context) Report {
	p.mu.RLock()
	names := make([]string, 0, len(p.checkers))
	for name := range p.checkers {
		names = append(names, name)
	}
	checkers := make(map[string]Checker, len(p.checkers))
	for name, c := range p.checkers {
		checkers[name] = c
	}
	p.mu.RUnlock()
	sort.Strings(names)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	reports := make([]ServiceReport, len(names))
	var g errgroup.Group
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			reports[i] = ServiceReport{Name: name, Healthy: true}
			if err := checkers[name].Check(ctx); err != nil {
				reports[i].Healthy = false
				reports[i].Error = err.Error()
			}
			return nil
		})
	}
	_ = g.Wait()

	healthy := true
	for _, r := range reports {
		healthy = healthy && r.Healthy
	}
	return Report{Healthy: healthy, Report: reports}
}
