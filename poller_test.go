package fiber

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFDWait_WakesWhenPipeBecomesReadable(t *testing.T) {
	rt := newTestRuntime(t)
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	var events IOEvents
	var waitErr error
	_, err = rt.Go(func(args ...any) {
		events, waitErr = rt.FDWait(int(r.Fd()), EventIn, -1)
	})
	require.NoError(t, err)

	_, err = rt.Go(func(args ...any) {
		require.NoError(t, rt.Yield())
		_, werr := w.Write([]byte("x"))
		require.NoError(t, werr)
	})
	require.NoError(t, err)

	require.NoError(t, rt.Run(nil))
	require.NoError(t, waitErr)
	require.Equal(t, EventIn, events)
}

func TestFDWait_SecondWaiterOnSameDirectionIsBusy(t *testing.T) {
	rt := newTestRuntime(t)
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	var firstErr, secondErr error
	_, err = rt.Go(func(args ...any) {
		_, firstErr = rt.FDWait(int(r.Fd()), EventIn, -1)
	})
	require.NoError(t, err)
	_, err = rt.Go(func(args ...any) {
		require.NoError(t, rt.Yield())
		_, secondErr = rt.FDWait(int(r.Fd()), EventIn, -1)
	})
	require.NoError(t, err)

	_, err = rt.Go(func(args ...any) {
		require.NoError(t, rt.Yield())
		require.NoError(t, rt.Yield())
		_, werr := w.Write([]byte("x"))
		require.NoError(t, werr)
	})
	require.NoError(t, err)

	require.NoError(t, rt.Run(nil))
	require.ErrorIs(t, secondErr, ErrBusy)
	require.NoError(t, firstErr)
}

func TestFDWait_TimesOutWhenDeadlinePasses(t *testing.T) {
	rt := newTestRuntime(t)
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	var waitErr error
	_, err = rt.Go(func(args ...any) {
		_, waitErr = rt.FDWait(int(r.Fd()), EventIn, rt.Now())
	})
	require.NoError(t, err)

	require.NoError(t, rt.Run(nil))
	require.ErrorIs(t, waitErr, ErrTimedOut)
}

func TestFDClean_ForciblyWakesParkedWaiterWithCanceled(t *testing.T) {
	rt := newTestRuntime(t)
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	var waitErr error
	_, err = rt.Go(func(args ...any) {
		_, waitErr = rt.FDWait(int(r.Fd()), EventIn, -1)
	})
	require.NoError(t, err)
	_, err = rt.Go(func(args ...any) {
		require.NoError(t, rt.Yield())
		rt.FDClean(int(r.Fd()))
	})
	require.NoError(t, err)

	require.NoError(t, rt.Run(nil))
	require.ErrorIs(t, waitErr, ErrCanceled)
	require.False(t, rt.poller.hasWaiters())
}

func TestFDWait_InvalidFdIsRejected(t *testing.T) {
	rt := newTestRuntime(t)
	var waitErr error
	_, err := rt.Go(func(args ...any) {
		_, waitErr = rt.FDWait(-1, EventIn, -1)
	})
	require.NoError(t, err)
	require.NoError(t, rt.Run(nil))
	require.ErrorIs(t, waitErr, ErrBadFd)
}
