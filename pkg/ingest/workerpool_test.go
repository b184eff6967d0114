package ingest

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkerPoolTokenizesEveryDocument(t *testing.T) {
	p := NewWorkerPool(4, 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)

	docs := 64
	var done int32
	for i := 0; i < docs; i++ {
		err := p.Submit(func(ctx context.Context) error {
			atomic.AddInt32(&done, 1)
			return nil
		})
		if err != nil {
			t.Fatalf("submit document %d: %v", i, err)
		}
	}
	p.Close()

	if got := atomic.LoadInt32(&done); int(got) != docs {
		t.Fatalf("expected %d documents processed, got %d", docs, got)
	}
}

func TestCloseDrainsQueuedJobs(t *testing.T) {
	p := NewWorkerPool(1, 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)

	gate := make(chan struct{})
	started := make(chan struct{})
	var ran int32
	if err := p.Submit(func(ctx context.Context) error {
		close(started)
		<-gate
		atomic.AddInt32(&ran, 1)
		return nil
	}); err != nil {
		t.Fatalf("submit gate job: %v", err)
	}
	<-started

	// The only worker is busy, so these stay queued until after Close.
	queued := 5
	for i := 0; i < queued; i++ {
		if err := p.Submit(func(ctx context.Context) error {
			atomic.AddInt32(&ran, 1)
			return nil
		}); err != nil {
			t.Fatalf("submit queued job %d: %v", i, err)
		}
	}

	closed := make(chan struct{})
	go func() {
		p.Close()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatalf("Close returned while a job was still running")
	case <-time.After(20 * time.Millisecond):
	}
	if err := p.Submit(func(ctx context.Context) error { return nil }); !errors.Is(err, ErrPoolClosed) {
		t.Fatalf("expected ErrPoolClosed once closing, got %v", err)
	}

	close(gate)
	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatalf("Close did not return after the queue drained")
	}
	if got := atomic.LoadInt32(&ran); int(got) != queued+1 {
		t.Fatalf("expected %d jobs run including queued ones, got %d", queued+1, got)
	}
}

func TestJobErrorsDoNotStopWorkers(t *testing.T) {
	p := NewWorkerPool(1, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)

	var ok int32
	for i := 0; i < 4; i++ {
		fail := i%2 == 0
		if err := p.Submit(func(ctx context.Context) error {
			if fail {
				return errors.New("tokenize failed")
			}
			atomic.AddInt32(&ok, 1)
			return nil
		}); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	p.Close()
	if got := atomic.LoadInt32(&ok); got != 2 {
		t.Fatalf("expected 2 successful jobs, got %d", got)
	}
}

func TestCloseUnblocksWaitingSubmit(t *testing.T) {
	p := NewWorkerPool(1, 1)
	// Not started: the first job fills the queue and the second Submit waits.
	if err := p.Submit(func(ctx context.Context) error { return nil }); err != nil {
		t.Fatalf("setup submit failed: %v", err)
	}

	errc := make(chan error, 1)
	go func() {
		errc <- p.Submit(func(ctx context.Context) error { return nil })
	}()
	time.Sleep(10 * time.Millisecond)

	p.Close()
	select {
	case err := <-errc:
		if err != ErrPoolClosed {
			t.Fatalf("expected ErrPoolClosed, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Submit still blocked after Close")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	p := NewWorkerPool(0, 0)
	p.Start(context.Background())
	p.Close()
	p.Close()
	if err := p.Submit(func(ctx context.Context) error { return nil }); err != ErrPoolClosed {
		t.Fatalf("expected ErrPoolClosed, got %v", err)
	}
}

func TestCancelledContextStopsWorkers(t *testing.T) {
	p := NewWorkerPool(2, 16)
	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		p.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("Close blocked after context cancellation")
	}
}

func TestSubmitCtxReturnsOnCancel(t *testing.T) {
	p := NewWorkerPool(1, 1)
	defer p.Close()
	// No workers: the first job fills the queue.
	if err := p.Submit(func(ctx context.Context) error { return nil }); err != nil {
		t.Fatalf("setup submit failed: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := p.SubmitCtx(ctx, func(ctx context.Context) error { return nil }); err != context.DeadlineExceeded {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
}
