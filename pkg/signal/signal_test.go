package signal

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalcast/signalcast/pkg/dispatch"
)

func TestEmitInvokesInRegistrationOrder(t *testing.T) {
	var s Signal[int]
	var got []int
	s.Connect(func(_ context.Context, v int) { got = append(got, v*1) })
	s.Connect(func(_ context.Context, v int) { got = append(got, v*2) })
	s.Connect(func(_ context.Context, v int) { got = append(got, v*3) })

	require.NoError(t, s.Emit(context.Background(), 10))
	assert.Equal(t, []int{10, 20, 30}, got)
	assert.Equal(t, dispatch.StateIdle, s.State())
}

func TestEmitNoListeners(t *testing.T) {
	var s Signal[string]
	require.NoError(t, s.Emit(context.Background(), "hello"))
	assert.Equal(t, dispatch.StateIdle, s.State())
}

func TestDisconnectByHandle(t *testing.T) {
	var s Signal[int]
	var got []string
	h := s.Connect(func(context.Context, int) { got = append(got, "a") })
	s.Connect(func(context.Context, int) { got = append(got, "b") })

	require.True(t, h.Valid())
	require.True(t, s.Disconnect(h))
	require.False(t, s.Disconnect(h))

	require.NoError(t, s.Emit(context.Background(), 0))
	assert.Equal(t, []string{"b"}, got)
	assert.Equal(t, 1, s.Len())
}

func TestDuplicateListenersPermitted(t *testing.T) {
	var s Signal[int]
	var count int
	fn := func(context.Context, int) { count++ }
	h1 := s.Connect(fn)
	h2 := s.Connect(fn)
	require.NotEqual(t, h1, h2)

	require.NoError(t, s.Emit(context.Background(), 0))
	assert.Equal(t, 2, count)

	require.True(t, s.Disconnect(h1))
	require.NoError(t, s.Emit(context.Background(), 0))
	assert.Equal(t, 3, count)
}

func TestConnectOnceRunsExactlyOnce(t *testing.T) {
	var s Signal[int]
	var once, always int
	s.ConnectOnce(func(context.Context, int) { once++ })
	s.Connect(func(context.Context, int) { always++ })

	require.NoError(t, s.Emit(context.Background(), 0))
	require.NoError(t, s.Emit(context.Background(), 0))

	// The one-shot removes itself mid-dispatch without skipping the next
	// listener.
	assert.Equal(t, 1, once)
	assert.Equal(t, 2, always)
	assert.Equal(t, 1, s.Len())
}

func TestSelfDisconnectDoesNotSkipSuccessor(t *testing.T) {
	var s Signal[int]
	var got []string
	var h Handle
	h = s.Connect(func(context.Context, int) {
		got = append(got, "L0")
		s.Disconnect(h)
	})
	s.Connect(func(context.Context, int) { got = append(got, "L1") })

	require.NoError(t, s.Emit(context.Background(), 0))
	assert.Equal(t, []string{"L0", "L1"}, got)
}

func TestConnectFrontDuringDispatchDeferred(t *testing.T) {
	var s Signal[int]
	var got []string
	s.Connect(func(context.Context, int) {
		got = append(got, "L0")
		s.ConnectFront(func(context.Context, int) { got = append(got, "front") })
	})
	s.Connect(func(context.Context, int) { got = append(got, "L1") })

	require.NoError(t, s.Emit(context.Background(), 0))
	require.Equal(t, []string{"L0", "L1"}, got)

	got = got[:0]
	require.NoError(t, s.Emit(context.Background(), 0))
	assert.Equal(t, []string{"front", "L0", "L1"}, got)
}

func TestConsumeScenario(t *testing.T) {
	// 3 listeners, L1 consumes: L0 and L1 run, L2 does not, state ends
	// Consumed.
	var s Signal[int]
	var got []string
	s.Connect(func(context.Context, int) { got = append(got, "L0") })
	s.Connect(func(context.Context, int) {
		got = append(got, "L1")
		s.Consume()
	})
	s.Connect(func(context.Context, int) { got = append(got, "L2") })

	require.NoError(t, s.Emit(context.Background(), 0))
	assert.Equal(t, []string{"L0", "L1"}, got)
	assert.Equal(t, dispatch.StateConsumed, s.State())
}

func TestPauseResumeScenario(t *testing.T) {
	// 3 listeners, L1 pauses, external resume: L2 runs after Resume and the
	// payload survives the pause.
	var s Signal[int]
	var got []int
	s.Connect(func(_ context.Context, v int) { got = append(got, v) })
	s.Connect(func(_ context.Context, v int) {
		got = append(got, v+1)
		s.Pause()
	})
	s.Connect(func(_ context.Context, v int) { got = append(got, v+2) })

	require.NoError(t, s.Emit(context.Background(), 100))
	require.Equal(t, dispatch.StatePaused, s.State())
	require.Equal(t, []int{100, 101}, got)

	s.Resume(context.Background())
	assert.Equal(t, dispatch.StateIdle, s.State())
	assert.Equal(t, []int{100, 101, 102}, got)
}

func TestEmitWhilePausedRejected(t *testing.T) {
	var s Signal[int]
	var got []int
	s.Connect(func(_ context.Context, v int) {
		got = append(got, v)
		s.Pause()
	})
	s.Connect(func(_ context.Context, v int) { got = append(got, v) })

	require.NoError(t, s.Emit(context.Background(), 1))
	err := s.Emit(context.Background(), 2)

	var inFlight *dispatch.InFlightError
	require.True(t, errors.As(err, &inFlight))

	// The rejected emit's payload does not leak into the paused dispatch.
	s.Resume(context.Background())
	assert.Equal(t, dispatch.StateIdle, s.State())
	assert.Equal(t, []int{1, 1}, got)
}

func TestDisconnectAll(t *testing.T) {
	var s Signal[int]
	var count int
	s.Connect(func(context.Context, int) { count++ })
	s.Connect(func(context.Context, int) { count++ })
	s.DisconnectAll()

	require.Equal(t, 0, s.Len())
	require.NoError(t, s.Emit(context.Background(), 0))
	assert.Zero(t, count)
}

func TestConnectNilListener(t *testing.T) {
	var s Signal[int]
	h := s.Connect(nil)
	assert.False(t, h.Valid())
	assert.Equal(t, 0, s.Len())
}

func TestConfigure(t *testing.T) {
	var s Signal[int]
	s.Configure(dispatch.WithRestartPolicy(dispatch.RestartReset))

	pause := true
	var count int
	s.Connect(func(context.Context, int) {
		count++
		if pause {
			s.Pause()
		}
	})

	require.NoError(t, s.Emit(context.Background(), 0))
	require.Equal(t, dispatch.StatePaused, s.State())

	// Under the reset policy a fresh emit overrides the lingering pause.
	pause = false
	require.NoError(t, s.Emit(context.Background(), 0))
	assert.Equal(t, dispatch.StateIdle, s.State())
	assert.Equal(t, 2, count)
}

func TestSetNameStable(t *testing.T) {
	var s Signal[int]
	s.SetName("game.Scored")
	s.SetName("other")
	assert.Equal(t, "game.Scored", s.Name())
}

func TestEventEmit(t *testing.T) {
	var e Event
	var got []string
	e.Connect(func(context.Context) { got = append(got, "a") })
	e.ConnectOnce(func(context.Context) { got = append(got, "once") })
	e.Connect(func(context.Context) { got = append(got, "b") })

	require.NoError(t, e.Emit(context.Background()))
	require.NoError(t, e.Emit(context.Background()))
	assert.Equal(t, []string{"a", "once", "b", "a", "b"}, got)
	assert.Equal(t, 2, e.Len())
}

func TestEventPauseConsume(t *testing.T) {
	var e Event
	var got []string
	e.Connect(func(context.Context) {
		got = append(got, "L0")
		e.Pause()
	})
	e.Connect(func(context.Context) {
		got = append(got, "L1")
		e.Consume()
	})
	e.Connect(func(context.Context) { got = append(got, "L2") })

	require.NoError(t, e.Emit(context.Background()))
	require.Equal(t, dispatch.StatePaused, e.State())

	e.Resume(context.Background())
	assert.Equal(t, dispatch.StateConsumed, e.State())
	assert.Equal(t, []string{"L0", "L1"}, got)
}

func BenchmarkEmit(b *testing.B) {
	for _, n := range []int{1, 10, 100} {
		b.Run(fmt.Sprintf("listeners-%d", n), func(b *testing.B) {
			var s Signal[int]
			var sink int
			for i := 0; i < n; i++ {
				s.Connect(func(_ context.Context, v int) { sink += v })
			}
			ctx := context.Background()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = s.Emit(ctx, i)
			}
		})
	}
}
