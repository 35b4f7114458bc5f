package fiber

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTimerHeap_PopsInDeadlineOrder(t *testing.T) {
	var h timerHeap
	pushTimer(&h, 30, Clause{index: 3})
	pushTimer(&h, 10, Clause{index: 1})
	pushTimer(&h, 20, Clause{index: 2})

	d, ok := h.peekDeadline()
	require.True(t, ok)
	require.Equal(t, int64(10), d)

	due := popDue(&h, 25)
	require.Len(t, due, 2)
	require.Equal(t, 1, due[0].clause.index)
	require.Equal(t, 2, due[1].clause.index)

	d, ok = h.peekDeadline()
	require.True(t, ok)
	require.Equal(t, int64(30), d)
}

func TestTimerHeap_PopDueReturnsNothingWhenEarliestIsInTheFuture(t *testing.T) {
	var h timerHeap
	pushTimer(&h, 100, Clause{index: 0})

	due := popDue(&h, 50)
	require.Empty(t, due)

	d, ok := h.peekDeadline()
	require.True(t, ok)
	require.Equal(t, int64(100), d)
}

func TestTimerHeap_RemoveTimerUnlinksWithoutDisturbingOthers(t *testing.T) {
	var h timerHeap
	pushTimer(&h, 10, Clause{index: 1})
	mid := pushTimer(&h, 20, Clause{index: 2})
	pushTimer(&h, 30, Clause{index: 3})

	removeTimer(&h, mid)
	require.Equal(t, 2, h.Len())

	due := popDue(&h, 100)
	require.Len(t, due, 2)
	require.Equal(t, 1, due[0].clause.index)
	require.Equal(t, 3, due[1].clause.index)
}

func TestTimerHeap_PeekDeadlineEmptyHeap(t *testing.T) {
	var h timerHeap
	_, ok := h.peekDeadline()
	require.False(t, ok)
}

func TestSleep_ScheduledFibersWakeInDeadlineOrder(t *testing.T) {
	rt := newTestRuntime(t)

	var trace []string
	base := rt.Now()

	_, err := rt.Go(func(args ...any) {
		require.NoError(t, rt.Sleep(base+30))
		trace = append(trace, "slow")
	})
	require.NoError(t, err)
	_, err = rt.Go(func(args ...any) {
		require.NoError(t, rt.Sleep(base+10))
		trace = append(trace, "fast")
	})
	require.NoError(t, err)

	require.NoError(t, rt.Run(nil))
	require.Equal(t, []string{"fast", "slow"}, trace)
}

func TestSleep_WithAlreadyDueDeadlineFiresImmediately(t *testing.T) {
	rt := newTestRuntime(t)

	var ran bool
	_, err := rt.Go(func(args ...any) {
		require.NoError(t, rt.Sleep(rt.Now()))
		ran = true
	})
	require.NoError(t, err)

	require.NoError(t, rt.Run(nil))
	require.True(t, ran)
}

func TestChoose_TimerClauseFiresAlongsideChannelClauses(t *testing.T) {
	rt := newTestRuntime(t)
	ch, err := rt.NewChannel(1, 0)
	require.NoError(t, err)

	var fired int
	_, err = rt.Go(func(args ...any) {
		buf := make([]byte, 1)
		idx, cerr := rt.Choose([]Clause{
			{Kind: ClauseChannelRecv, Channel: ch, Buf: buf},
			{Kind: ClauseTimer, Deadline: rt.Now()},
		}, -1)
		require.NoError(t, cerr)
		fired = idx
	})
	require.NoError(t, err)

	require.NoError(t, rt.Run(nil))
	require.Equal(t, 1, fired)
}
