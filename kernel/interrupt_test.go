package kernel

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInterruptControllerBadParamOutOfRange(t *testing.T) {
	ic := NewInterruptController(4, 0, 10)

	_, err := ic.IsPending(4)
	require.True(t, errors.Is(err, ErrBadParam))

	require.True(t, errors.Is(ic.SetHandler(-1, nil), ErrBadParam))
	require.True(t, errors.Is(ic.SetPriority(4, 0), ErrBadParam))
	require.True(t, errors.Is(ic.Enable(4), ErrBadParam))
	require.True(t, errors.Is(ic.Disable(4), ErrBadParam))
	require.True(t, errors.Is(ic.Pend(4), ErrBadParam))
	require.True(t, errors.Is(ic.Clear(4), ErrBadParam))
}

func TestInterruptControllerPendRequiresEnableAndManagedRange(t *testing.T) {
	ic := NewInterruptController(4, 0, 10)
	require.NoError(t, ic.SetPriority(0, 5))
	require.NoError(t, ic.Pend(0))

	pending, err := ic.IsPending(0)
	require.NoError(t, err)
	require.False(t, pending, "not enabled yet")

	require.NoError(t, ic.Enable(0))
	pending, err = ic.IsPending(0)
	require.NoError(t, err)
	require.True(t, pending)

	// Outside the managed range, even enabled+pended lines don't report
	// pending.
	require.NoError(t, ic.SetPriority(0, 20))
	pending, err = ic.IsPending(0)
	require.NoError(t, err)
	require.False(t, pending, "priority outside managed range")
}

func TestInterruptControllerClearUnlatches(t *testing.T) {
	ic := NewInterruptController(4, 0, 10)
	require.NoError(t, ic.SetPriority(1, 3))
	require.NoError(t, ic.Enable(1))
	require.NoError(t, ic.Pend(1))

	require.NoError(t, ic.Clear(1))
	pending, err := ic.IsPending(1)
	require.NoError(t, err)
	require.False(t, pending)
}

func TestInterruptControllerDisablePreservesPendedBit(t *testing.T) {
	ic := NewInterruptController(4, 0, 10)
	require.NoError(t, ic.SetPriority(2, 3))
	require.NoError(t, ic.Enable(2))
	require.NoError(t, ic.Pend(2))
	require.NoError(t, ic.Disable(2))

	pending, err := ic.IsPending(2)
	require.NoError(t, err)
	require.False(t, pending, "disabled line doesn't report pending")

	require.NoError(t, ic.Enable(2))
	pending, err = ic.IsPending(2)
	require.NoError(t, err)
	require.True(t, pending, "re-enabling resumes delivery of the preserved pend")
}

func TestInterruptControllerDispatchPicksHighestPriorityAndClearsPend(t *testing.T) {
	ic := NewInterruptController(4, 0, 10)
	tk := tok(t)

	var ran []InterruptNum
	for i := InterruptNum(0); i < 3; i++ {
		line := i
		require.NoError(t, ic.SetHandler(line, func(*CPULockToken) { ran = append(ran, line) }))
	}
	// Line 1 has the lowest (most urgent) priority value.
	require.NoError(t, ic.SetPriority(0, 5))
	require.NoError(t, ic.SetPriority(1, 2))
	require.NoError(t, ic.SetPriority(2, 8))
	for _, l := range []InterruptNum{0, 1, 2} {
		require.NoError(t, ic.Enable(l))
		require.NoError(t, ic.Pend(l))
	}

	require.True(t, ic.Dispatch(tk))
	require.Equal(t, []InterruptNum{1}, ran, "line 1 has the lowest priority value, most urgent")

	pending, err := ic.IsPending(1)
	require.NoError(t, err)
	require.False(t, pending, "dispatch clears the pended bit")

	// Remaining lines still pending: 0 (priority 5) beats 2 (priority 8).
	require.True(t, ic.Dispatch(tk))
	require.Equal(t, []InterruptNum{1, 0}, ran)

	require.True(t, ic.Dispatch(tk))
	require.Equal(t, []InterruptNum{1, 0, 2}, ran)

	require.False(t, ic.Dispatch(tk), "nothing left pending")
}

func TestInterruptControllerDispatchTiesBreakOnLineIndex(t *testing.T) {
	ic := NewInterruptController(4, 0, 10)
	tk := tok(t)

	var ran []InterruptNum
	for i := InterruptNum(0); i < 2; i++ {
		line := i
		require.NoError(t, ic.SetHandler(line, func(*CPULockToken) { ran = append(ran, line) }))
		require.NoError(t, ic.SetPriority(line, 4))
		require.NoError(t, ic.Enable(line))
		require.NoError(t, ic.Pend(line))
	}

	require.True(t, ic.Dispatch(tk))
	require.Equal(t, []InterruptNum{0}, ran, "equal priority breaks on the lower line index")
}

func TestInterruptControllerDispatchNoHandlerStillClearsPend(t *testing.T) {
	ic := NewInterruptController(4, 0, 10)
	tk := tok(t)

	require.NoError(t, ic.SetPriority(3, 1))
	require.NoError(t, ic.Enable(3))
	require.NoError(t, ic.Pend(3))

	require.True(t, ic.Dispatch(tk))
	pending, err := ic.IsPending(3)
	require.NoError(t, err)
	require.False(t, pending)
}

func TestInterruptControllerOutsideManagedRangeNeverDispatched(t *testing.T) {
	ic := NewInterruptController(4, 5, 10)
	tk := tok(t)

	dispatched := false
	require.NoError(t, ic.SetHandler(0, func(*CPULockToken) { dispatched = true }))
	require.NoError(t, ic.SetPriority(0, 1)) // below managedLo
	require.NoError(t, ic.Enable(0))
	require.NoError(t, ic.Pend(0))

	require.False(t, ic.Dispatch(tk))
	require.False(t, dispatched)
}

func TestDispatchLineDefaultsToDispatchPriority(t *testing.T) {
	ic := NewInterruptController(0, 0, 1<<14)
	tk := tok(t)

	dispatched := false
	require.NoError(t, ic.SetHandler(DispatchLine, func(*CPULockToken) { dispatched = true }))
	require.NoError(t, ic.Enable(DispatchLine))
	require.NoError(t, ic.Pend(DispatchLine))

	require.True(t, ic.Dispatch(tk))
	require.True(t, dispatched)
}

func TestNewInterruptControllerDefaultsLineCount(t *testing.T) {
	ic := NewInterruptController(0, 0, 1)
	require.True(t, ic.valid(DefaultNumInterruptLines-1))
	require.False(t, ic.valid(DefaultNumInterruptLines))
}
