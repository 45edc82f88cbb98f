package signal

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignalEmit(t *testing.T) {
	var s Signal[int]
	var got []int

	s.Listen(func(v int) { got = append(got, v) })
	s.Emit(1)
	s.Emit(2)

	require.Equal(t, []int{1, 2}, got)
}

func TestSignalUnsubscribe(t *testing.T) {
	var s Signal[string]
	var calls int

	unsub := s.Listen(func(string) { calls++ })
	s.Emit("a")
	unsub()
	s.Emit("b")
	unsub() // second call is a no-op

	require.Equal(t, 1, calls)
	require.Equal(t, 0, s.Len())
}

func TestSignalMultipleListeners(t *testing.T) {
	var s Signal[int]
	var a, b int

	s.Listen(func(v int) { a += v })
	s.Listen(func(v int) { b += v })
	s.Emit(3)

	require.Equal(t, 3, a)
	require.Equal(t, 3, b)
}

func TestSignalReset(t *testing.T) {
	var s Signal[int]
	var calls int

	s.Listen(func(int) { calls++ })
	s.Reset()
	s.Emit(1)

	require.Zero(t, calls)
}
