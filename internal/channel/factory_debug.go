//go:build debug

package channel

import "sync/atomic"

// Tracked wraps a buffered channel and remembers the deepest backlog seen,
// which is what inbox and send buffer sizes get tuned against.
type Tracked[T any] struct {
	*Buffered[T]
	highWater atomic.Int64
}

// New creates a tracked channel. Debug builds never hand out an unbuffered
// channel so queued handlers behave the same as in production.
func New[T any](size int) Channel[T] {
	if size <= 0 {
		size = 1
	}
	return &Tracked[T]{Buffered: NewBuffered[T](size)}
}

func (t *Tracked[T]) Send(v T) {
	t.Buffered.Send(v)
	t.observe()
}

func (t *Tracked[T]) TrySend(v T) bool {
	ok := t.Buffered.TrySend(v)
	if ok {
		t.observe()
	}
	return ok
}

// HighWater returns the largest Len observed right after a send.
func (t *Tracked[T]) HighWater() int {
	return int(t.highWater.Load())
}

func (t *Tracked[T]) observe() {
	n := int64(t.Len())
	for {
		cur := t.highWater.Load()
		if n <= cur || t.highWater.CompareAndSwap(cur, n) {
			return
		}
	}
}
