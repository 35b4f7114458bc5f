package fiber

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	rt, err := New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })
	return rt
}

func TestGo_SpawnedFiberRunsToCompletion(t *testing.T) {
	rt := newTestRuntime(t)

	var ran bool
	_, err := rt.Go(func(args ...any) { ran = true })
	require.NoError(t, err)

	require.NoError(t, rt.Run(nil))
	require.True(t, ran)
}

func TestGo_SchedulesInSpawnOrder(t *testing.T) {
	rt := newTestRuntime(t)

	var order []int
	for i := 0; i < 3; i++ {
		i := i
		_, err := rt.Go(func(args ...any) { order = append(order, i) })
		require.NoError(t, err)
	}

	require.NoError(t, rt.Run(nil))
	require.Equal(t, []int{0, 1, 2}, order)
}

func TestYield_InterleavesTwoFibers(t *testing.T) {
	rt := newTestRuntime(t)

	var trace []string
	_, err := rt.Go(func(args ...any) {
		trace = append(trace, "a1")
		require.NoError(t, rt.Yield())
		trace = append(trace, "a2")
	})
	require.NoError(t, err)
	_, err = rt.Go(func(args ...any) {
		trace = append(trace, "b1")
		require.NoError(t, rt.Yield())
		trace = append(trace, "b2")
	})
	require.NoError(t, err)

	require.NoError(t, rt.Run(nil))
	require.Equal(t, []string{"a1", "b1", "a2", "b2"}, trace)
}

func TestRun_EmptySchedulerReturnsImmediately(t *testing.T) {
	rt := newTestRuntime(t)
	require.NoError(t, rt.Run(nil))
}

func TestRun_DeadlockWhenEveryFiberBlocksForever(t *testing.T) {
	rt := newTestRuntime(t)

	ch, err := rt.NewChannel(1, 0)
	require.NoError(t, err)

	_, err = rt.Go(func(args ...any) {
		buf := make([]byte, 1)
		_ = rt.Recv(ch, buf, -1)
	})
	require.NoError(t, err)

	err = rt.Run(nil)
	require.ErrorIs(t, err, ErrDeadlock)
}

func TestFiberHandle_StaleGenerationIsRejected(t *testing.T) {
	rt := newTestRuntime(t)

	h, err := rt.Go(func(args ...any) {})
	require.NoError(t, err)
	require.NoError(t, rt.Run(nil))

	// The slot was reaped on finish in spirit, but since nothing else has
	// spawned, the arena index is still h's; forging a stale generation
	// must still fail to resolve.
	stale := makeFiberHandle(h.index(), h.generation()+7)
	require.Nil(t, rt.slot(stale))
}
