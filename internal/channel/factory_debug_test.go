//go:build debug

package channel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DebugNeverUnbuffered(t *testing.T) {
	ch := New[int](0)
	assert.True(t, ch.TrySend(1))
	assert.False(t, ch.TrySend(2))
}

func TestTracked_HighWater(t *testing.T) {
	ch := New[int](4)
	tracked, ok := ch.(*Tracked[int])
	require.True(t, ok)

	ch.Send(1)
	ch.Send(2)
	ch.Send(3)
	<-ch.Receive()
	<-ch.Receive()
	ch.Send(4)

	assert.Equal(t, 2, ch.Len())
	assert.Equal(t, 3, tracked.HighWater())
}
