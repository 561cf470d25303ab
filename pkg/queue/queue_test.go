package queue

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

func TestRunKeepsOrderAndSingleFlight(t *testing.T) {
	q := New(Options{})
	defer q.Shutdown()

	gate := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = q.Run(context.Background(), func(ctx context.Context) error {
			close(started)
			<-gate
			return nil
		})
	}()
	<-started

	var (
		mu       sync.Mutex
		order    []int
		inFlight atomic.Int32
		maxSeen  atomic.Int32
		wg       sync.WaitGroup
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := q.Run(context.Background(), func(ctx context.Context) error {
				cur := inFlight.Add(1)
				if cur > maxSeen.Load() {
					maxSeen.Store(cur)
				}
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
				time.Sleep(5 * time.Millisecond)
				inFlight.Add(-1)
				return nil
			})
			assert.NoError(t, err)
		}(i)
		// Enqueue one at a time so submission order is deterministic.
		require.Eventually(t, func() bool { return q.Len() == i+1 }, time.Second, time.Millisecond)
	}

	assert.True(t, q.Processing())
	close(gate)
	wg.Wait()

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
	assert.Equal(t, int32(1), maxSeen.Load())
	assert.Zero(t, q.Len())
}

func TestRunReturnsTaskError(t *testing.T) {
	q := New(Options{})
	defer q.Shutdown()

	boom := errors.New("boom")
	assert.ErrorIs(t, q.Run(context.Background(), func(ctx context.Context) error { return boom }), boom)

	// A failed task does not stall the queue.
	assert.NoError(t, q.Run(context.Background(), func(ctx context.Context) error { return nil }))
}

func TestRunRecoversPanics(t *testing.T) {
	q := New(Options{})
	defer q.Shutdown()

	err := q.Run(context.Background(), func(ctx context.Context) error { panic("kaboom") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")

	assert.NoError(t, q.Run(context.Background(), func(ctx context.Context) error { return nil }))
}

func TestRunSkipsCancelledTask(t *testing.T) {
	q := New(Options{})
	defer q.Shutdown()

	gate := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = q.Run(context.Background(), func(ctx context.Context) error {
			close(started)
			<-gate
			return nil
		})
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	var ran atomic.Bool
	result := make(chan error, 1)
	go func() {
		result <- q.Run(ctx, func(ctx context.Context) error {
			ran.Store(true)
			return nil
		})
	}()
	require.Eventually(t, func() bool { return q.Len() == 1 }, time.Second, time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-result, context.Canceled)

	close(gate)
	assert.NoError(t, q.Run(context.Background(), func(ctx context.Context) error { return nil }))
	assert.False(t, ran.Load())
}

func TestRunQueueFull(t *testing.T) {
	q := New(Options{Capacity: 1})
	defer q.Shutdown()

	gate := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = q.Run(context.Background(), func(ctx context.Context) error {
			close(started)
			<-gate
			return nil
		})
	}()
	<-started

	go func() {
		_ = q.Run(context.Background(), func(ctx context.Context) error { return nil })
	}()
	require.Eventually(t, func() bool { return q.Len() == 1 }, time.Second, time.Millisecond)

	err := q.Run(context.Background(), func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, 1, q.Len())

	close(gate)
}

func TestShutdown(t *testing.T) {
	q := New(Options{})

	gate := make(chan struct{})
	started := make(chan struct{})
	first := make(chan error, 1)
	go func() {
		first <- q.Run(context.Background(), func(ctx context.Context) error {
			close(started)
			<-gate
			return nil
		})
	}()
	<-started

	waiting := make(chan error, 1)
	go func() {
		waiting <- q.Run(context.Background(), func(ctx context.Context) error { return nil })
	}()
	require.Eventually(t, func() bool { return q.Len() == 1 }, time.Second, time.Millisecond)

	done := make(chan struct{})
	go func() {
		q.Shutdown()
		close(done)
	}()

	// The running task finishes before Shutdown returns.
	time.Sleep(20 * time.Millisecond)
	close(gate)
	<-done

	assert.NoError(t, <-first)
	assert.ErrorIs(t, <-waiting, ErrQueueClosed)
	assert.ErrorIs(t, q.Run(context.Background(), func(ctx context.Context) error { return nil }), ErrQueueClosed)

	// Shutdown is idempotent.
	q.Shutdown()
}

func TestMinIntervalSpacesTasks(t *testing.T) {
	interval := 40 * time.Millisecond
	q := New(Options{MinInterval: interval})
	defer q.Shutdown()

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, q.Run(context.Background(), func(ctx context.Context) error { return nil }))
	}
	assert.GreaterOrEqual(t, time.Since(start), 2*interval-5*time.Millisecond)
}

func TestDo(t *testing.T) {
	q := New(Options{})
	defer q.Shutdown()

	v, err := Do(context.Background(), q, func(ctx context.Context) (string, error) {
		return "5531997629068@s.whatsapp.net", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "5531997629068@s.whatsapp.net", v)

	n, err := Do(context.Background(), q, func(ctx context.Context) (int, error) {
		return 42, errors.New("partial")
	})
	assert.Error(t, err)
	assert.Zero(t, n)
}
