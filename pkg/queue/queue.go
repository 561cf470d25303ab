package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/gdbrns/go-whatsapp-number-bot/pkg/log"
)

var (
	ErrQueueClosed = errors.New("queue is closed")
	ErrQueueFull   = errors.New("queue is full")
)

const DefaultCapacity = 1000

// Queue runs submitted tasks one at a time in FIFO order. Exactly one task is in flight
// at any moment and the end of one task, whatever its result, starts the next.
type Queue struct {
	tasks      chan *task
	limiter    *rate.Limiter
	pending    atomic.Int64
	processing atomic.Bool

	mu     sync.RWMutex
	closed bool

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

type task struct {
	ctx  context.Context
	fn   func(ctx context.Context) error
	done chan error
}

type Options struct {
	// Capacity bounds the number of waiting tasks. Zero means DefaultCapacity.
	Capacity int
	// MinInterval spaces the start of consecutive tasks. Zero disables pacing.
	MinInterval time.Duration
}

func New(opts Options) *Queue {
	capacity := opts.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		tasks:  make(chan *task, capacity),
		ctx:    ctx,
		cancel: cancel,
	}
	if opts.MinInterval > 0 {
		q.limiter = rate.NewLimiter(rate.Every(opts.MinInterval), 1)
	}

	q.wg.Add(1)
	go q.worker()

	return q
}

// Run enqueues fn and blocks until it has run or ctx is done. A task whose context is
// already done when its turn comes is skipped.
func (q *Queue) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	t := &task{ctx: ctx, fn: fn, done: make(chan error, 1)}

	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return ErrQueueClosed
	}
	q.pending.Add(1)
	select {
	case q.tasks <- t:
	default:
		q.pending.Add(-1)
		q.mu.RUnlock()
		return ErrQueueFull
	}
	q.mu.RUnlock()

	select {
	case err := <-t.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do is Run for tasks that produce a value.
func Do[T any](ctx context.Context, q *Queue, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := q.Run(ctx, func(ctx context.Context) error {
		var err error
		result, err = fn(ctx)
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// Len reports the number of tasks waiting to start.
func (q *Queue) Len() int {
	return int(q.pending.Load())
}

// Processing reports whether a task is currently running.
func (q *Queue) Processing() bool {
	return q.processing.Load()
}

// Shutdown stops accepting tasks, fails every waiting task with ErrQueueClosed and
// waits for the running one to return.
func (q *Queue) Shutdown() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.tasks)
	q.mu.Unlock()

	q.cancel()
	q.wg.Wait()
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for t := range q.tasks {
		q.pending.Add(-1)
		if q.ctx.Err() != nil {
			t.done <- ErrQueueClosed
			continue
		}
		q.execute(t)
	}
}

func (q *Queue) execute(t *task) {
	if err := t.ctx.Err(); err != nil {
		t.done <- err
		return
	}
	if q.limiter != nil {
		if err := q.limiter.Wait(t.ctx); err != nil {
			t.done <- err
			return
		}
	}

	q.processing.Store(true)
	defer q.processing.Store(false)

	var err error
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				log.Queue().WithField("panic", fmt.Sprintf("%v", rec)).Error("Queued task panicked")
				err = fmt.Errorf("queued task panicked: %v", rec)
			}
		}()
		err = t.fn(t.ctx)
	}()
	t.done <- err
}
