// Package sf provides a generic single-flight wrapper for deduplicating
// concurrent function calls with the same key: only the first caller
// executes the function, the rest wait and receive the same result.
//
// The snapshot repository uses this to collapse concurrent loads of the
// same actor's persisted state into one store round-trip.
package sf

import "golang.org/x/sync/singleflight"

// Singleflight deduplicates concurrent calls per key with a typed result.
type Singleflight[T any] struct {
	group singleflight.Group
}

// New creates a Singleflight for type T.
func New[T any]() *Singleflight[T] {
	return &Singleflight[T]{}
}

// Do executes fn for key, deduplicating concurrent calls. fn executes at
// most once per key at any given time; concurrent callers for the same key
// block and receive the first call's result.
func (s *Singleflight[T]) Do(key string, fn func() (*T, error)) (*T, error) {
	v, err, _ := s.group.Do(key, func() (any, error) {
		return fn()
	})
	if err != nil {
		return nil, err
	}
	return v.(*T), nil
}
