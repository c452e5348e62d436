package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoller_RunsImmediately(t *testing.T) {
	var calls atomic.Int32
	poller := NewPoller("test", time.Hour, func(ctx context.Context) error {
		calls.Add(1)
		return nil
	})

	poller.Start(context.Background())
	defer poller.Stop()

	deadline := time.After(2 * time.Second)
	for calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("Expected immediate first run")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestPoller_TicksAtInterval(t *testing.T) {
	var calls atomic.Int32
	poller := NewPoller("test", 20*time.Millisecond, func(ctx context.Context) error {
		calls.Add(1)
		return nil
	})

	poller.Start(context.Background())
	time.Sleep(110 * time.Millisecond)
	poller.Stop()

	// 立即一次 + 若干次定时触发
	if got := calls.Load(); got < 3 {
		t.Errorf("Expected at least 3 runs, got %d", got)
	}
}

// TestPoller_InFlightGuard 上一轮未结束时跳过本轮，慢执行不堆叠
func TestPoller_InFlightGuard(t *testing.T) {
	var concurrent, peak atomic.Int32
	release := make(chan struct{})

	poller := NewPoller("slow", 10*time.Millisecond, func(ctx context.Context) error {
		cur := concurrent.Add(1)
		defer concurrent.Add(-1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		<-release
		return nil
	})

	poller.Start(context.Background())
	time.Sleep(80 * time.Millisecond)
	close(release)
	poller.Stop()

	if peak.Load() != 1 {
		t.Errorf("Expected at most one poll in flight, peak was %d", peak.Load())
	}
}

func TestPoller_StopWaitsForInFlight(t *testing.T) {
	var finished atomic.Bool
	started := make(chan struct{})

	poller := NewPoller("test", time.Hour, func(ctx context.Context) error {
		close(started)
		time.Sleep(50 * time.Millisecond)
		finished.Store(true)
		return nil
	})

	poller.Start(context.Background())
	<-started
	poller.Stop()

	if !finished.Load() {
		t.Error("Expected Stop to wait for in-flight run")
	}
}

func TestPoller_ContextCancelStopsLoop(t *testing.T) {
	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())

	poller := NewPoller("test", 10*time.Millisecond, func(ctx context.Context) error {
		calls.Add(1)
		return nil
	})

	poller.Start(ctx)
	time.Sleep(30 * time.Millisecond)
	cancel()
	time.Sleep(30 * time.Millisecond)

	before := calls.Load()
	time.Sleep(50 * time.Millisecond)
	if calls.Load() != before {
		t.Error("Expected no further runs after context cancel")
	}
}
