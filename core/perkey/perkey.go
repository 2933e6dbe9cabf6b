// Package perkey serializes work per key while work for different keys
// runs concurrently.
//
// The snapshot repository uses it so writes for one actor id happen in
// submission order, while different actors persist in parallel.
package perkey

import (
	"context"
	"errors"
	"sync"
)

// ErrSchedulerClosed is returned by Do once the scheduler is closed.
var ErrSchedulerClosed = errors.New("scheduler is closed")

const defaultQueueDepth = 64

// Option configures a Scheduler.
type Option func(*config)

type config struct {
	depth int
}

// WithBufferSize sets how many tasks may queue per key before submitters
// block (default 64). Non-positive values keep the default.
func WithBufferSize(size int) Option {
	return func(c *config) {
		if size > 0 {
			c.depth = size
		}
	}
}

// job is one queued unit of work; done carries its result back to the
// submitting goroutine.
type job struct {
	run  func() error
	done chan error
}

// Scheduler executes tasks so that for any single key they run
// sequentially in submission order. Each key gets a dedicated drain
// goroutine on first use.
type Scheduler[K comparable] struct {
	mu       sync.Mutex
	queues   map[K]chan job
	closed   bool
	depth    int
	inflight sync.WaitGroup
}

// New creates a Scheduler.
func New[K comparable](opts ...Option) *Scheduler[K] {
	cfg := config{depth: defaultQueueDepth}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Scheduler[K]{
		queues: make(map[K]chan job),
		depth:  cfg.depth,
	}
}

// Do runs fn under key and blocks until it finishes. Calls for the same
// key execute one at a time, in submission order.
func (s *Scheduler[K]) Do(key K, fn func() error) error {
	return s.DoContext(context.Background(), key, fn)
}

// DoContext is Do with cancellation: if ctx ends while the caller is
// waiting to enqueue or waiting for the result, the context error is
// returned. A task that already reached the queue still executes even if
// its submitter has stopped waiting.
func (s *Scheduler[K]) DoContext(ctx context.Context, key K, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSchedulerClosed
	}
	s.inflight.Add(1)
	q := s.queueLocked(key)
	s.mu.Unlock()
	defer s.inflight.Done()

	j := job{run: fn, done: make(chan error, 1)}

	select {
	case q <- j:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-j.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close rejects new submissions and shuts the queues down. Close waits for
// in-flight Do calls to finish; tasks already enqueued still run.
func (s *Scheduler[K]) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.inflight.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.queues {
		close(q)
	}
	s.queues = nil
}

// queueLocked returns the key's queue, spawning its drain goroutine on
// first use. s.mu must be held.
func (s *Scheduler[K]) queueLocked(key K) chan job {
	q, ok := s.queues[key]
	if ok {
		return q
	}
	q = make(chan job, s.depth)
	s.queues[key] = q
	go func() {
		for j := range q {
			j.done <- j.run()
		}
	}()
	return q
}
