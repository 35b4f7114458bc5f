package fiber

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChannel_UnbufferedRendezvous(t *testing.T) {
	rt := newTestRuntime(t)
	ch, err := rt.NewChannel(4, 0)
	require.NoError(t, err)

	var received []byte
	_, err = rt.Go(func(args ...any) {
		buf := make([]byte, 4)
		require.NoError(t, rt.Recv(ch, buf, -1))
		received = buf
	})
	require.NoError(t, err)
	_, err = rt.Go(func(args ...any) {
		require.NoError(t, rt.Send(ch, []byte("ping"), -1))
	})
	require.NoError(t, err)

	require.NoError(t, rt.Run(nil))
	require.Equal(t, []byte("ping"), received)
}

func TestChannel_BufferedSendDoesNotBlock(t *testing.T) {
	rt := newTestRuntime(t)
	ch, err := rt.NewChannel(1, 2)
	require.NoError(t, err)

	var ranToCompletion bool
	_, err = rt.Go(func(args ...any) {
		require.NoError(t, rt.Send(ch, []byte{1}, -1))
		require.NoError(t, rt.Send(ch, []byte{2}, -1))
		ranToCompletion = true
	})
	require.NoError(t, err)

	var got []byte
	_, err = rt.Go(func(args ...any) {
		buf := make([]byte, 1)
		require.NoError(t, rt.Recv(ch, buf, -1))
		got = append(got, buf[0])
		require.NoError(t, rt.Recv(ch, buf, -1))
		got = append(got, buf[0])
	})
	require.NoError(t, err)

	require.NoError(t, rt.Run(nil))
	require.True(t, ranToCompletion)
	require.Equal(t, []byte{1, 2}, got)
}

func TestChannel_DoneDeliversFinalValueToEveryReceiver(t *testing.T) {
	rt := newTestRuntime(t)
	ch, err := rt.NewChannel(4, 0)
	require.NoError(t, err)

	results := make([][]byte, 2)
	for i := 0; i < 2; i++ {
		i := i
		_, err := rt.Go(func(args ...any) {
			buf := make([]byte, 4)
			require.NoError(t, rt.Recv(ch, buf, -1))
			results[i] = buf
		})
		require.NoError(t, err)
	}
	_, err = rt.Go(func(args ...any) {
		require.NoError(t, rt.Done(ch, []byte("fin!")))
	})
	require.NoError(t, err)

	require.NoError(t, rt.Run(nil))
	require.Equal(t, []byte("fin!"), results[0])
	require.Equal(t, []byte("fin!"), results[1])

	// A later probe-only recv on a done channel is always immediately
	// satisfied with the same sticky value.
	var probed []byte
	_, err = rt.Go(func(args ...any) {
		buf := make([]byte, 4)
		require.NoError(t, rt.Recv(ch, buf, 0))
		probed = buf
	})
	require.NoError(t, err)
	require.NoError(t, rt.Run(nil))
	require.Equal(t, []byte("fin!"), probed)
}

func TestChannel_SendAfterDoneReturnsErrPipe(t *testing.T) {
	rt := newTestRuntime(t)
	ch, err := rt.NewChannel(1, 1)
	require.NoError(t, err)
	require.NoError(t, rt.Done(ch, []byte{9}))

	var sendErr error
	_, err = rt.Go(func(args ...any) {
		sendErr = rt.Send(ch, []byte{1}, 0)
	})
	require.NoError(t, err)
	require.NoError(t, rt.Run(nil))
	require.ErrorIs(t, sendErr, ErrPipe)
}

func TestChannel_DoneWakesAParkedSenderWithErrPipe(t *testing.T) {
	rt := newTestRuntime(t)
	ch, err := rt.NewChannel(1, 0)
	require.NoError(t, err)

	var sendErr error
	_, err = rt.Go(func(args ...any) {
		sendErr = rt.Send(ch, []byte{1}, -1)
	})
	require.NoError(t, err)

	_, err = rt.Go(func(args ...any) {
		require.NoError(t, rt.Yield())
		require.NoError(t, rt.Done(ch, []byte{9}))
	})
	require.NoError(t, err)

	require.NoError(t, rt.Run(nil))
	require.ErrorIs(t, sendErr, ErrPipe)
	require.NotErrorIs(t, sendErr, ErrCanceled)
}

func TestChannel_DupKeepsSlotAliveUntilRefcountZero(t *testing.T) {
	rt := newTestRuntime(t)
	ch, err := rt.NewChannel(1, 1)
	require.NoError(t, err)
	require.NoError(t, rt.Dup(ch))
	require.NoError(t, rt.CloseChannel(ch))
	require.NotNil(t, rt.channel(ch))
	require.NoError(t, rt.CloseChannel(ch))
	require.Nil(t, rt.channel(ch))
}

func TestChannel_MismatchedItemSizeIsInvalid(t *testing.T) {
	rt := newTestRuntime(t)
	ch, err := rt.NewChannel(4, 1)
	require.NoError(t, err)
	err = rt.Send(ch, []byte{1}, 0)
	require.ErrorIs(t, err, ErrInvalid)
}
