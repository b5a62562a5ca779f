// Package queue holds pending work between producers and a single drainer.
package queue

import (
	"sync"
)

// Queue is a thread-safe FIFO. A coalescing queue keeps at most one pending
// item per key: pushing an item whose key is already pending replaces the
// pending item in place, so the drainer only sees the latest state.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T
	key   func(T) string
	index map[string]int
}

// New creates a plain FIFO queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{}
}

// NewCoalescing creates a queue that collapses items sharing key(item).
func NewCoalescing[T any](key func(T) string) *Queue[T] {
	return &Queue[T]{key: key, index: make(map[string]int)}
}

// Push appends items, replacing pending items with the same key.
func (q *Queue[T]) Push(items ...T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, it := range items {
		if q.key == nil {
			q.items = append(q.items, it)
			continue
		}
		k := q.key(it)
		if i, ok := q.index[k]; ok {
			q.items[i] = it
			continue
		}
		q.index[k] = len(q.items)
		q.items = append(q.items, it)
	}
}

// PushFront puts items back ahead of everything pending, for retrying a
// failed drain. On a coalescing queue an item is dropped when a newer one
// with its key was pushed meanwhile.
func (q *Queue[T]) PushFront(items ...T) {
	q.mu.Lock()
	defer q.mu.Unlock()

	front := make([]T, 0, len(items)+len(q.items))
	if q.key == nil {
		front = append(front, items...)
		q.items = append(front, q.items...)
		return
	}

	seen := make(map[string]bool, len(items))
	for _, it := range items {
		k := q.key(it)
		if _, newer := q.index[k]; newer || seen[k] {
			continue
		}
		seen[k] = true
		front = append(front, it)
	}
	q.items = append(front, q.items...)
	q.reindex()
}

func (q *Queue[T]) reindex() {
	clear(q.index)
	for i, it := range q.items {
		q.index[q.key(it)] = i
	}
}

// Empty returns true if the queue has no items.
func (q *Queue[T]) Empty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) == 0
}

// Len returns the number of items in the queue.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// GetAndEmpty returns all items in order and clears the queue.
func (q *Queue[T]) GetAndEmpty() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	result := q.items
	q.items = nil
	if q.index != nil {
		clear(q.index)
	}
	return result
}
