package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/ad-insights/internal/config"
)

type countingObserver struct {
	queued, started, finished, failed, rejected atomic.Int32
}

func (o *countingObserver) TaskQueued()  { o.queued.Add(1) }
func (o *countingObserver) TaskStarted() { o.started.Add(1) }
func (o *countingObserver) TaskFinished(err error) {
	o.finished.Add(1)
	if err != nil {
		o.failed.Add(1)
	}
}
func (o *countingObserver) TaskRejected() { o.rejected.Add(1) }

func TestPool_RunsTasks(t *testing.T) {
	obs := &countingObserver{}
	p := NewPool(config.WorkerConfig{Concurrency: 3, QueueSize: 10}, obs)
	require.NoError(t, p.Start())

	var wg sync.WaitGroup
	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		wg.Add(1)
		require.NoError(t, p.Dispatch("t", func(context.Context) error {
			defer wg.Done()
			ran.Add(1)
			return nil
		}))
	}
	wg.Wait()
	p.Stop(context.Background())

	assert.EqualValues(t, 5, ran.Load())
	assert.EqualValues(t, 5, obs.queued.Load())
	assert.EqualValues(t, 5, obs.finished.Load())
}

func TestPool_QueueFull(t *testing.T) {
	obs := &countingObserver{}
	p := NewPool(config.WorkerConfig{Concurrency: 1, QueueSize: 1}, obs)
	// Not started: the single slot fills and stays full.
	require.NoError(t, p.Dispatch("a", func(context.Context) error { return nil }))
	err := p.Dispatch("b", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.EqualValues(t, 1, obs.rejected.Load())
}

func TestPool_DispatchAfterStop(t *testing.T) {
	p := NewPool(config.WorkerConfig{Concurrency: 1, QueueSize: 1}, nil)
	require.NoError(t, p.Start())
	p.Stop(context.Background())
	assert.ErrorIs(t, p.Dispatch("x", func(context.Context) error { return nil }), ErrStopped)
}

func TestPool_RecoversPanicAndReportsErrors(t *testing.T) {
	obs := &countingObserver{}
	p := NewPool(config.WorkerConfig{Concurrency: 1, QueueSize: 4}, obs)
	require.NoError(t, p.Start())

	require.NoError(t, p.Dispatch("panics", func(context.Context) error { panic("boom") }))
	require.NoError(t, p.Dispatch("fails", func(context.Context) error { return errors.New("bad") }))
	p.Stop(context.Background())

	assert.EqualValues(t, 2, obs.finished.Load())
	assert.EqualValues(t, 2, obs.failed.Load())
}

func TestPool_TaskTimeout(t *testing.T) {
	p := NewPool(config.WorkerConfig{Concurrency: 1, QueueSize: 1, TaskTimeoutSeconds: 1}, nil)
	require.NoError(t, p.Start())
	done := make(chan error, 1)
	require.NoError(t, p.Dispatch("slow", func(ctx context.Context) error {
		<-ctx.Done()
		done <- ctx.Err()
		return ctx.Err()
	}))
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(5 * time.Second):
		t.Fatal("task was not cancelled by its timeout")
	}
	p.Stop(context.Background())
}

func TestPool_StopDeadlineCancelsRunning(t *testing.T) {
	p := NewPool(config.WorkerConfig{Concurrency: 1, QueueSize: 1}, nil)
	require.NoError(t, p.Start())
	started := make(chan struct{})
	require.NoError(t, p.Dispatch("blocking", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	p.Stop(ctx)
}
