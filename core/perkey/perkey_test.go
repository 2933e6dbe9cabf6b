package perkey

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestScheduler_serializes_per_key(t *testing.T) {
	s := New[string]()
	t.Cleanup(s.Close)

	var mu sync.Mutex
	var order []int

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Do("actor-1", func() error {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
				time.Sleep(10 * time.Millisecond)
				return nil
			})
		}()
		// stagger submissions so the expected order is deterministic
		time.Sleep(2 * time.Millisecond)
	}
	wg.Wait()

	require.Equal(t, []int{0, 1, 2}, order)
}

func TestScheduler_parallel_across_keys(t *testing.T) {
	s := New[string]()
	t.Cleanup(s.Close)

	var running, peak atomic.Int32

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		key := string(rune('a' + i))
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Do(key, func() error {
				cur := running.Add(1)
				for {
					p := peak.Load()
					if cur <= p || peak.CompareAndSwap(p, cur) {
						break
					}
				}
				time.Sleep(50 * time.Millisecond)
				running.Add(-1)
				return nil
			})
		}()
	}
	wg.Wait()

	// different keys must not serialize against each other
	require.GreaterOrEqual(t, peak.Load(), int32(2))
}

func TestScheduler_propagates_errors(t *testing.T) {
	s := New[string]()
	t.Cleanup(s.Close)

	boom := errors.New("write failed")
	require.ErrorIs(t, s.Do("k", func() error { return boom }), boom)
}

func TestScheduler_do_context(t *testing.T) {
	s := New[string]()
	t.Cleanup(s.Close)

	cancelled, cancel := context.WithCancel(t.Context())
	cancel()
	err := s.DoContext(cancelled, "k", func() error {
		t.Error("task ran despite cancelled context")
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)

	// a caller timing out while another task holds the key gets the
	// context error, not the task result
	started := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = s.Do("k", func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	deadline, cancel2 := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel2()
	err = s.DoContext(deadline, "k", func() error { return nil })
	require.ErrorIs(t, err, context.DeadlineExceeded)
	close(release)
}

func TestScheduler_close(t *testing.T) {
	s := New[string]()
	s.Close()
	s.Close() // idempotent

	require.ErrorIs(t, s.Do("k", func() error { return nil }), ErrSchedulerClosed)
}

func TestScheduler_close_drains_queued_tasks(t *testing.T) {
	s := New[string](WithBufferSize(10))

	var executed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Do("k", func() error {
				time.Sleep(10 * time.Millisecond)
				executed.Add(1)
				return nil
			})
		}()
	}
	time.Sleep(20 * time.Millisecond)

	s.Close()
	wg.Wait()

	require.Equal(t, int32(5), executed.Load())
}

func TestScheduler_close_races_with_submissions(t *testing.T) {
	s := New[string]()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Do("k", func() error { return nil })
		}()
	}
	go func() {
		time.Sleep(time.Millisecond)
		s.Close()
	}()
	wg.Wait()
}

func TestScheduler_buffer_size_defaulting(t *testing.T) {
	for _, size := range []int{0, -1} {
		s := New[string](WithBufferSize(size))
		require.NoError(t, s.Do("k", func() error { return nil }))
		s.Close()
	}
}

func TestScheduler_many_keys(t *testing.T) {
	s := New[int]()
	t.Cleanup(s.Close)

	var total atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Do(i, func() error {
				total.Add(1)
				return nil
			})
		}()
	}
	wg.Wait()

	require.Equal(t, int32(100), total.Load())
}
