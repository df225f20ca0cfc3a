package utils

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkerPoolRunsAllJobs(t *testing.T) {
	pool := NewWorkerPool(4)
	var done int64

	for i := 0; i < 50; i++ {
		pool.Submit(func() error {
			atomic.AddInt64(&done, 1)
			return nil
		})
	}
	if err := pool.Wait(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if done != 50 {
		t.Errorf("done: got %d, want 50", done)
	}
}

func TestWorkerPoolBoundsConcurrency(t *testing.T) {
	pool := NewWorkerPool(2)
	var running, peak int64

	for i := 0; i < 10; i++ {
		pool.Submit(func() error {
			n := atomic.AddInt64(&running, 1)
			for {
				p := atomic.LoadInt64(&peak)
				if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt64(&running, -1)
			return nil
		})
	}
	_ = pool.Wait()

	if peak > 2 {
		t.Errorf("peak concurrency: got %d, want <= 2", peak)
	}
}

func TestWorkerPoolCollectsErrors(t *testing.T) {
	pool := NewWorkerPool(3)
	sentinel := errors.New("render failed")

	pool.Submit(func() error { return nil })
	pool.Submit(func() error { return sentinel })

	if err := pool.Wait(); !errors.Is(err, sentinel) {
		t.Errorf("expected sentinel in joined error, got %v", err)
	}
}
