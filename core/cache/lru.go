package cache

import (
	"container/list"
	"sync"
)

// LRU is a fixed-size cache evicting the least recently used entry.
// Safe for concurrent use.
type LRU[V any] struct {
	mu    sync.Mutex
	size  int
	order *list.List
	items map[string]*list.Element
}

type lruEntry[V any] struct {
	key string
	val V
}

// NewLRU creates an LRU holding at most size entries (128 if size <= 0).
func NewLRU[V any](size int) *LRU[V] {
	if size <= 0 {
		size = 128
	}
	return &LRU[V]{
		size:  size,
		order: list.New(),
		items: make(map[string]*list.Element),
	}
}

func (l *LRU[V]) Get(key string) (out V, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	el, ok := l.items[key]
	if !ok {
		return out, false
	}
	l.order.MoveToFront(el)
	return el.Value.(*lruEntry[V]).val, true
}

func (l *LRU[V]) Put(key string, val V) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if el, ok := l.items[key]; ok {
		el.Value.(*lruEntry[V]).val = val
		l.order.MoveToFront(el)
		return
	}
	l.items[key] = l.order.PushFront(&lruEntry[V]{key: key, val: val})
	if l.order.Len() > l.size {
		oldest := l.order.Back()
		l.order.Remove(oldest)
		delete(l.items, oldest.Value.(*lruEntry[V]).key)
	}
}

func (l *LRU[V]) Delete(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if el, ok := l.items[key]; ok {
		l.order.Remove(el)
		delete(l.items, key)
	}
}

// Len returns the current number of cached entries.
func (l *LRU[V]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.order.Len()
}

var _ Cache[any] = (*LRU[any])(nil)
