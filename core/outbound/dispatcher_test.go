package outbound

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnqueueRunsJob(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 4})

	done := make(chan struct{})
	err := d.Enqueue(context.Background(), "test.job", "endpoint", func() error {
		close(done)
		return nil
	})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run")
	}
	d.Close()
	assert.EqualValues(t, 0, d.ErrorCount())
}

func TestCloseDrainsQueuedJobs(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 8})

	var ran atomic.Int64
	for i := 0; i < 5; i++ {
		require.NoError(t, d.EnqueueOnce(context.Background(), "test.job", "", func() error {
			ran.Add(1)
			return nil
		}))
	}
	d.Close()
	assert.EqualValues(t, 5, ran.Load())
}

func TestEnqueueAfterClose(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1})
	d.Close()

	err := d.Enqueue(context.Background(), "test.job", "", func() error { return nil })
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestQueueFull(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1})
	defer d.Close()

	block := make(chan struct{})
	// Occupy the single worker.
	require.NoError(t, d.Enqueue(context.Background(), "blocker", "", func() error {
		<-block
		return nil
	}))

	// Fill the queue, then overflow it.
	var full bool
	for i := 0; i < 3; i++ {
		if err := d.Enqueue(context.Background(), "filler", "", func() error { return nil }); err != nil {
			full = errors.Is(err, ErrQueueFull)
			break
		}
	}
	close(block)
	assert.True(t, full, "saturated queue must reject instead of block")
}

func TestEnqueueDuringCloseDoesNotPanic(t *testing.T) {
	d := NewDispatcher(Options{Workers: 2, QueueSize: 4})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				// Racing enqueues either land or get refused; never panic.
				_ = d.Enqueue(context.Background(), "test.job", "", func() error { return nil })
			}
		}()
	}
	d.Close()
	wg.Wait()

	err := d.Enqueue(context.Background(), "test.job", "", func() error { return nil })
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestOnceJobFailureCountsButDoesNotRetry(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, RetryBackoff: time.Millisecond})

	var attempts atomic.Int64
	require.NoError(t, d.EnqueueOnce(context.Background(), "test.ping", "", func() error {
		attempts.Add(1)
		return errors.New("unreachable")
	}))
	d.Close()

	assert.EqualValues(t, 1, attempts.Load())
	assert.EqualValues(t, 1, d.ErrorCount())
}

func TestSanitizeErrorMessageRedactsCredentials(t *testing.T) {
	err := errors.New(`Get "https://api.telegram.org/bot12345:AAAbbbCCC/sendPhoto": timeout`)
	assert.NotContains(t, sanitizeErrorMessage(err), "AAAbbbCCC")

	err = errors.New("unsplash: Client-ID abc_123 rejected")
	assert.NotContains(t, sanitizeErrorMessage(err), "abc_123")
}
