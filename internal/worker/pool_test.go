package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// mockResult implements Result
type mockResult struct {
	id  int
	err error
}

func (r *mockResult) GetError() error {
	return r.err
}

// jobFunc adapts a function to the Job interface
type jobFunc func(ctx context.Context) Result

func (f jobFunc) Execute(ctx context.Context) Result {
	return f(ctx)
}

// idJob returns its id after an optional delay
func idJob(id int, delay time.Duration) Job {
	return jobFunc(func(ctx context.Context) Result {
		select {
		case <-time.After(delay):
			return &mockResult{id: id}
		case <-ctx.Done():
			return &mockResult{id: id, err: ctx.Err()}
		}
	})
}

func waitWithTimeout(t *testing.T, pool *Pool, d time.Duration) []Result {
	t.Helper()
	done := make(chan []Result, 1)
	go func() { done <- pool.Wait() }()

	select {
	case results := <-done:
		return results
	case <-time.After(d):
		t.Fatal("Wait did not return in time")
		return nil
	}
}

func TestNewPool_WorkerCount(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{in: 6, want: 6},
		{in: 1, want: 1},
		{in: 0, want: 1},
		{in: -3, want: 1},
	}

	for _, tt := range tests {
		if got := NewPool(context.Background(), tt.in).workers; got != tt.want {
			t.Errorf("NewPool(%d): expected %d workers, got %d", tt.in, tt.want, got)
		}
	}
}

func TestPool_RunsEveryJob(t *testing.T) {
	pool := NewPool(context.Background(), 3)
	pool.Start()

	var ran int32
	for i := 0; i < 12; i++ {
		pool.Submit(jobFunc(func(ctx context.Context) Result {
			atomic.AddInt32(&ran, 1)
			return &mockResult{}
		}))
	}

	results := waitWithTimeout(t, pool, 2*time.Second)
	if len(results) != 12 {
		t.Errorf("Expected 12 results, got %d", len(results))
	}
	if atomic.LoadInt32(&ran) != 12 {
		t.Errorf("Expected 12 executions, got %d", ran)
	}
}

func TestPool_BoundedConcurrency(t *testing.T) {
	const workers = 4
	pool := NewPool(context.Background(), workers)
	pool.Start()

	var inFlight, peak int32
	for i := 0; i < 24; i++ {
		pool.Submit(jobFunc(func(ctx context.Context) Result {
			n := atomic.AddInt32(&inFlight, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			return &mockResult{}
		}))
	}

	waitWithTimeout(t, pool, 5*time.Second)

	if peak > workers {
		t.Errorf("Expected at most %d concurrent jobs, saw %d", workers, peak)
	}
	if peak < 2 {
		t.Logf("peak concurrency was %d", peak)
	}
}

func TestPool_ErrorsStayWithTheirJob(t *testing.T) {
	pool := NewPool(context.Background(), 2)
	pool.Start()

	failing := errors.New("fetch failed")
	for i := 0; i < 4; i++ {
		id := i
		pool.Submit(jobFunc(func(ctx context.Context) Result {
			if id%2 == 1 {
				return &mockResult{id: id, err: failing}
			}
			return &mockResult{id: id}
		}))
	}

	results := waitWithTimeout(t, pool, 2*time.Second)
	for i, r := range results {
		wantErr := i%2 == 1
		if gotErr := r.GetError() != nil; gotErr != wantErr {
			t.Errorf("result %d: expected error %v, got %v", i, wantErr, r.GetError())
		}
	}
}

func TestResultCollector(t *testing.T) {
	c := NewResultCollector()
	c.Set(2, &mockResult{id: 2})
	c.Set(0, &mockResult{id: 0, err: errors.New("err")})

	if c.Len() != 2 {
		t.Errorf("Expected 2 results, got %d", c.Len())
	}

	res := c.Ordered(3)
	if len(res) != 3 {
		t.Fatalf("Expected 3 slots, got %d", len(res))
	}
	if res[0].(*mockResult).id != 0 || res[2].(*mockResult).id != 2 {
		t.Errorf("Results out of order: %v", res)
	}
	if res[1] != nil {
		t.Errorf("Expected nil for missing index, got %v", res[1])
	}
}

func TestPool_ResultsKeepSubmissionOrder(t *testing.T) {
	pool := NewPool(context.Background(), 4)
	pool.Start()

	// Later submissions finish first
	const count = 8
	for i := 0; i < count; i++ {
		if idx := pool.Submit(idJob(i, time.Duration(count-i)*5*time.Millisecond)); idx != i {
			t.Fatalf("Expected submission index %d, got %d", i, idx)
		}
	}

	results := waitWithTimeout(t, pool, 2*time.Second)
	if len(results) != count {
		t.Fatalf("Expected %d results, got %d", count, len(results))
	}
	for i, r := range results {
		if got := r.(*mockResult).id; got != i {
			t.Errorf("Expected result %d at index %d, got %d", i, i, got)
		}
	}
}

func TestPool_ManyJobsDoNotDeadlock(t *testing.T) {
	pool := NewPool(context.Background(), 2)
	pool.Start()

	for i := 0; i < 200; i++ {
		pool.Submit(idJob(i, 0))
	}

	if results := waitWithTimeout(t, pool, 5*time.Second); len(results) != 200 {
		t.Errorf("Expected 200 results, got %d", len(results))
	}
}

func TestPool_ParentContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPool(ctx, 1)
	pool.Start()
	cancel()

	if idx := pool.Submit(idJob(0, 0)); idx != -1 {
		t.Errorf("Expected -1 after cancel, got %d", idx)
	}
}

func TestPool_SubmitAfterShutdown(t *testing.T) {
	pool := NewPool(context.Background(), 2)
	pool.Start()
	pool.Shutdown()

	done := make(chan int, 1)
	go func() { done <- pool.Submit(idJob(0, 0)) }()

	select {
	case idx := <-done:
		if idx != -1 {
			t.Errorf("Expected -1 after shutdown, got %d", idx)
		}
	case <-time.After(time.Second):
		t.Fatal("Submit after shutdown blocked")
	}
}

func TestPool_ShutdownCancelsRunningJobs(t *testing.T) {
	pool := NewPool(context.Background(), 2)
	pool.Start()

	started := make(chan struct{})
	var cancelled int32
	pool.Submit(jobFunc(func(ctx context.Context) Result {
		close(started)
		select {
		case <-ctx.Done():
			atomic.StoreInt32(&cancelled, 1)
		case <-time.After(2 * time.Second):
		}
		return &mockResult{}
	}))

	<-started
	pool.Shutdown()

	select {
	case <-pool.collected:
	case <-time.After(time.Second):
		t.Fatal("Shutdown did not drain the collector")
	}
	if atomic.LoadInt32(&cancelled) != 1 {
		t.Error("Expected running job to observe cancellation")
	}
}
