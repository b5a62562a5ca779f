//go:build !debug

package channel

// New returns the channel used for the coordinator inbox and per-client
// broadcast buffers. A size of zero or less gives an unbuffered channel.
func New[T any](size int) Channel[T] {
	if size <= 0 {
		return NewUnbuffered[T]()
	}
	return NewBuffered[T](size)
}
