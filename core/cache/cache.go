// Package cache provides small in-process caches used as read-through
// layers in front of slower stores.
package cache

// Cache is a typed key/value cache.
type Cache[V any] interface {
	Get(key string) (V, bool)
	Put(key string, val V)
	Delete(key string)
}

// Nop is a Cache that stores nothing.
type Nop[V any] struct{}

func NewNop[V any]() *Nop[V] { return &Nop[V]{} }

func (*Nop[V]) Get(string) (out V, ok bool) { return out, false }
func (*Nop[V]) Put(string, V)               {}
func (*Nop[V]) Delete(string)               {}
