package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Poller 固定间隔轮询器
//
// 显式持有生命周期：Start 启动，Stop 或 ctx 取消后停止并等待在途
// 执行结束。带在途保护：上一轮未结束时跳过本轮，避免慢请求堆叠。
type Poller struct {
	name     string
	interval time.Duration
	fn       func(ctx context.Context) error

	inFlight atomic.Bool
	stopChan chan struct{}
	wg       sync.WaitGroup
	logger   *slog.Logger
}

// NewPoller 创建轮询器
func NewPoller(name string, interval time.Duration, fn func(ctx context.Context) error) *Poller {
	return &Poller{
		name:     name,
		interval: interval,
		fn:       fn,
		stopChan: make(chan struct{}),
		logger:   slog.Default(),
	}
}

// Start 启动轮询，立即执行一次，之后按间隔触发
func (p *Poller) Start(ctx context.Context) {
	p.wg.Add(1)
	go p.loop(ctx)
	p.logger.Info("Poller started", "name", p.name, "interval", p.interval)
}

// Stop 停止轮询并等待在途执行结束
func (p *Poller) Stop() {
	close(p.stopChan)
	p.wg.Wait()
	p.logger.Info("Poller stopped", "name", p.name)
}

func (p *Poller) loop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.run(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopChan:
			return
		case <-ticker.C:
			p.run(ctx)
		}
	}
}

// run 执行一轮；上一轮尚未返回时跳过
func (p *Poller) run(ctx context.Context) {
	if !p.inFlight.CompareAndSwap(false, true) {
		p.logger.Warn("Previous poll still in flight, skipping tick", "name", p.name)
		return
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.inFlight.Store(false)

		if err := p.fn(ctx); err != nil {
			p.logger.Warn("Poll failed", "name", p.name, "error", err)
		}
	}()
}
