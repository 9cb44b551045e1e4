package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type testWork struct {
	id   int
	fail bool
}

func TestNewPool(t *testing.T) {
	processor := func(_ context.Context, _ testWork) error { return nil }

	pool := NewPool(3, 20, processor)
	if pool.workers != 3 {
		t.Errorf("expected 3 workers, got %d", pool.workers)
	}
	if pool.queueSize != 20 {
		t.Errorf("expected queue size 20, got %d", pool.queueSize)
	}

	// Zero values take defaults
	pool = NewPool(0, 0, processor)
	if pool.workers != 4 {
		t.Errorf("expected default 4 workers, got %d", pool.workers)
	}
	if pool.queueSize != 64 {
		t.Errorf("expected default queue size 64, got %d", pool.queueSize)
	}
}

func TestNewPool_NilProcessor(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("expected panic for nil processor")
		}
	}()
	NewPool[testWork](2, 10, nil)
}

func TestPool_SubmitBeforeStart(t *testing.T) {
	pool := NewPool(1, 1, func(_ context.Context, _ testWork) error { return nil })
	if err := pool.Submit(testWork{id: 1}); !errors.Is(err, ErrPoolNotStarted) {
		t.Errorf("expected ErrPoolNotStarted, got %v", err)
	}
}

func TestPool_ProcessesWork(t *testing.T) {
	var processed, failed int64
	processor := func(_ context.Context, w testWork) error {
		atomic.AddInt64(&processed, 1)
		if w.fail {
			atomic.AddInt64(&failed, 1)
			return errors.New("work failed")
		}
		return nil
	}

	pool := NewPool(2, 10, processor)
	if err := pool.Start(context.Background()); err != nil {
		t.Fatalf("failed to start pool: %v", err)
	}
	if err := pool.Start(context.Background()); !errors.Is(err, ErrPoolAlreadyStarted) {
		t.Errorf("expected ErrPoolAlreadyStarted, got %v", err)
	}

	for i := 0; i < 5; i++ {
		if err := pool.Submit(testWork{id: i, fail: i == 3}); err != nil {
			t.Fatalf("submit failed: %v", err)
		}
	}

	if err := pool.Stop(2 * time.Second); err != nil {
		t.Fatalf("failed to stop pool: %v", err)
	}

	if got := atomic.LoadInt64(&processed); got != 5 {
		t.Errorf("expected 5 processed, got %d", got)
	}

	stats := pool.Stats()
	if stats.Submitted != 5 {
		t.Errorf("expected 5 submitted, got %d", stats.Submitted)
	}
	if stats.Failed != 1 {
		t.Errorf("expected 1 failed, got %d", stats.Failed)
	}
}

func TestPool_QueueFull(t *testing.T) {
	blocker := make(chan struct{})
	processor := func(_ context.Context, _ testWork) error {
		<-blocker
		return nil
	}

	pool := NewPool(1, 1, processor)
	if err := pool.Start(context.Background()); err != nil {
		t.Fatalf("failed to start pool: %v", err)
	}

	// Fill the single worker and the single queue slot, then overflow
	sawFull := false
	for i := 0; i < 5; i++ {
		if err := pool.Submit(testWork{id: i}); errors.Is(err, ErrQueueFull) {
			sawFull = true
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !sawFull {
		t.Error("expected ErrQueueFull after saturating the queue")
	}

	close(blocker)
	if err := pool.Stop(2 * time.Second); err != nil {
		t.Fatalf("failed to stop pool: %v", err)
	}

	if pool.Stats().Dropped == 0 {
		t.Error("expected dropped counter to be incremented")
	}
}

func TestPool_StopIdempotent(t *testing.T) {
	pool := NewPool(1, 1, func(_ context.Context, _ testWork) error { return nil })
	if err := pool.Start(context.Background()); err != nil {
		t.Fatalf("failed to start pool: %v", err)
	}
	if err := pool.Stop(time.Second); err != nil {
		t.Fatalf("first stop failed: %v", err)
	}
	if err := pool.Stop(time.Second); err != nil {
		t.Fatalf("second stop should be a no-op, got %v", err)
	}
	if err := pool.Submit(testWork{}); !errors.Is(err, ErrPoolStopped) {
		t.Errorf("expected ErrPoolStopped, got %v", err)
	}
}

func TestPool_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{}, 1)
	processor := func(ctx context.Context, _ testWork) error {
		started <- struct{}{}
		<-ctx.Done()
		return ctx.Err()
	}

	pool := NewPool(1, 1, processor)
	if err := pool.Start(ctx); err != nil {
		t.Fatalf("failed to start pool: %v", err)
	}
	if err := pool.Submit(testWork{id: 1}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	<-started
	cancel()

	if err := pool.Stop(2 * time.Second); err != nil {
		t.Fatalf("stop after cancel failed: %v", err)
	}
}

func TestPool_SubmitAfterStopTimeout(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	processor := func(_ context.Context, _ testWork) error {
		<-block
		return nil
	}

	pool := NewPool(1, 1, processor)
	if err := pool.Start(context.Background()); err != nil {
		t.Fatalf("failed to start pool: %v", err)
	}
	if err := pool.Submit(testWork{id: 1}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if err := pool.Stop(10 * time.Millisecond); !errors.Is(err, ErrStopTimeout) {
		t.Fatalf("expected ErrStopTimeout, got %v", err)
	}

	// The queue is closed; a late Submit must error, not panic
	if err := pool.Submit(testWork{id: 2}); !errors.Is(err, ErrPoolStopped) {
		t.Fatalf("expected ErrPoolStopped, got %v", err)
	}
}
