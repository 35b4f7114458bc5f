package fiber

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChoose_FiresTheOnlyReadyClause(t *testing.T) {
	rt := newTestRuntime(t)
	a, err := rt.NewChannel(1, 1)
	require.NoError(t, err)
	b, err := rt.NewChannel(1, 1)
	require.NoError(t, err)

	var fired int
	_, err = rt.Go(func(args ...any) {
		require.NoError(t, rt.Send(a, []byte{1}, -1))
	})
	require.NoError(t, err)
	_, err = rt.Go(func(args ...any) {
		bufA, bufB := make([]byte, 1), make([]byte, 1)
		idx, cerr := rt.Choose([]Clause{
			{Kind: ClauseChannelRecv, Channel: a, Buf: bufA},
			{Kind: ClauseChannelRecv, Channel: b, Buf: bufB},
		}, -1)
		require.NoError(t, cerr)
		fired = idx
	})
	require.NoError(t, err)

	require.NoError(t, rt.Run(nil))
	require.Equal(t, 0, fired)
}

func TestChoose_BlocksThenFiresOnWhicheverChannelWakesFirst(t *testing.T) {
	rt := newTestRuntime(t)
	a, err := rt.NewChannel(1, 0)
	require.NoError(t, err)
	b, err := rt.NewChannel(1, 0)
	require.NoError(t, err)

	var fired int
	_, err = rt.Go(func(args ...any) {
		bufA, bufB := make([]byte, 1), make([]byte, 1)
		idx, cerr := rt.Choose([]Clause{
			{Kind: ClauseChannelRecv, Channel: a, Buf: bufA},
			{Kind: ClauseChannelRecv, Channel: b, Buf: bufB},
		}, -1)
		require.NoError(t, cerr)
		fired = idx
	})
	require.NoError(t, err)
	_, err = rt.Go(func(args ...any) {
		require.NoError(t, rt.Send(b, []byte{7}, -1))
	})
	require.NoError(t, err)

	require.NoError(t, rt.Run(nil))
	require.Equal(t, 1, fired)
}

func TestChoose_EmptyClauseListIsInvalid(t *testing.T) {
	rt := newTestRuntime(t)
	var outErr error
	_, err := rt.Go(func(args ...any) {
		_, outErr = rt.Choose(nil, -1)
	})
	require.NoError(t, err)
	require.NoError(t, rt.Run(nil))
	require.ErrorIs(t, outErr, ErrInvalid)
}
