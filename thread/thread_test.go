package thread

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/siffiejoe/tinylthread/internal/errs"
	"github.com/siffiejoe/tinylthread/state"
)

func TestSpawnJoinReturnsCompletionValue(t *testing.T) {
	caller := state.New()
	th, err := Spawn(caller, `1 + 41`)
	require.NoError(t, err)

	ok, results, err := th.Join(caller)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, results, 1)
	require.EqualValues(t, 42, results[0].ToInteger())
}

func TestSpawnCopiesArguments(t *testing.T) {
	caller := state.New()
	th, err := Spawn(caller, `args[0] + args[1]`,
		caller.VM.ToValue(int64(10)),
		caller.VM.ToValue(int64(32)),
	)
	require.NoError(t, err)

	ok, results, err := th.Join(caller)
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 42, results[0].ToInteger())
}

func TestJoinSurfacesScriptError(t *testing.T) {
	caller := state.New()
	th, err := Spawn(caller, `throw new Error("boom")`)
	require.NoError(t, err)

	ok, _, err := th.Join(caller)
	require.NoError(t, err) // script errors are reported via ok=false, not a Join error
	require.False(t, ok)
}

func TestDoubleJoinIsBadState(t *testing.T) {
	caller := state.New()
	th, err := Spawn(caller, `1`)
	require.NoError(t, err)

	_, _, err = th.Join(caller)
	require.NoError(t, err)

	_, _, err = th.Join(caller)
	require.ErrorIs(t, err, errs.ErrBadState)
}

func TestDetachThenJoinIsBadState(t *testing.T) {
	caller := state.New()
	th, err := Spawn(caller, `1`)
	require.NoError(t, err)

	require.NoError(t, th.Detach())
	require.ErrorIs(t, th.Detach(), errs.ErrBadState)

	_, _, err = th.Join(caller)
	require.ErrorIs(t, err, errs.ErrBadState)

	time.Sleep(50 * time.Millisecond) // let the detached goroutine finish
}

func TestNonParentWrapperWrongRole(t *testing.T) {
	caller := state.New()
	th, err := Spawn(caller, `1`)
	require.NoError(t, err)

	child, err := th.CopyTo(state.New())
	require.NoError(t, err)

	require.ErrorIs(t, child.Detach(), errs.ErrWrongRole)
	_, _, err = child.Join(caller)
	require.ErrorIs(t, err, errs.ErrWrongRole)

	_, _, err = th.Join(caller)
	require.NoError(t, err)
}

func TestCheckLeakedBeforeAndAfterJoin(t *testing.T) {
	caller := state.New()
	th, err := Spawn(caller, `1`)
	require.NoError(t, err)
	require.Error(t, th.CheckLeaked())

	_, _, err = th.Join(caller)
	require.NoError(t, err)
	require.NoError(t, th.CheckLeaked())
}

func TestInterruptUnblocksJoin(t *testing.T) {
	caller := state.New()
	// for-loop with no body: never returns on its own, so Join would block
	// forever without the caller interrupting it.
	th, err := Spawn(caller, `for (;;) {}`)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, _, err := th.Join(caller)
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	caller.Interrupt.Interrupt()

	select {
	case err := <-done:
		require.ErrorIs(t, err, errs.ErrInterrupted)
	case <-time.After(2 * time.Second):
		t.Fatal("interrupt did not unblock Join")
	}

	require.NoError(t, th.Detach())
}

func TestNonJoinedThreadLeakDetected(t *testing.T) {
	caller := state.New()
	leaked := func() *Thread {
		th, err := Spawn(caller, `1`)
		require.NoError(t, err)
		time.Sleep(20 * time.Millisecond) // let it finish running
		return th
	}()
	require.Error(t, leaked.CheckLeaked())
	runtime.KeepAlive(leaked)
}
