package kernel

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTimerOneShotFiresOnceAtDelay(t *testing.T) {
	var heap TimeoutHeap
	tk := tok(t)

	var fired []Tick
	tm := NewTimer(&heap, func(_ *CPULockToken, scheduled Tick) { fired = append(fired, scheduled) })

	tm.StartOneShot(tk, 100, 20)
	require.True(t, tm.Running(tk))

	heap.ExpireDue(tk, 120)
	require.Equal(t, []Tick{120}, fired)
	require.False(t, tm.Running(tk), "one-shot does not re-arm")
	require.Equal(t, 0, heap.Len(tk))
}

func TestTimerStopThenStartPreservesNoIntermediateFire(t *testing.T) {
	var heap TimeoutHeap
	tk := tok(t)

	fired := 0
	tm := NewTimer(&heap, func(*CPULockToken, Tick) { fired++ })
	tm.StartOneShot(tk, 0, 50)
	tm.Stop(tk)
	require.False(t, tm.Running(tk))

	heap.ExpireDue(tk, 100)
	require.Equal(t, 0, fired, "stopped timer must not fire")

	tm.StartOneShot(tk, 100, 10)
	heap.ExpireDue(tk, 110)
	require.Equal(t, 1, fired)
}

// TestTimerPeriodicCatchUp reproduces the periodic-timer catch-up scenario:
// delay=70, period=40, but expire_due is not driven again until well past
// several missed arrivals; the timer must have fired at 70, 110, 150 and 190
// by the time "now" reaches 200 - steady-rate recovery, not drift to
// now+period measured from the late call.
func TestTimerPeriodicCatchUp(t *testing.T) {
	var heap TimeoutHeap
	tk := tok(t)

	var fired []Tick
	tm := NewTimer(&heap, func(_ *CPULockToken, scheduled Tick) { fired = append(fired, scheduled) })
	tm.StartPeriodic(tk, 0, 70, 40)

	// A single expire_due call at t=200 must catch up through every
	// missed arrival in one pass, each re-arming from its own scheduled
	// tick rather than from "now".
	heap.ExpireDue(tk, 200)

	require.Equal(t, []Tick{70, 110, 150, 190}, fired)
	require.True(t, tm.Running(tk), "periodic timer stays armed")
}

func TestTimerPeriodicRunsOnePassAtATime(t *testing.T) {
	var heap TimeoutHeap
	tk := tok(t)

	var fired []Tick
	tm := NewTimer(&heap, func(_ *CPULockToken, scheduled Tick) { fired = append(fired, scheduled) })
	tm.StartPeriodic(tk, 0, 10, 10)

	heap.ExpireDue(tk, 10)
	require.Equal(t, []Tick{10}, fired)
	heap.ExpireDue(tk, 20)
	require.Equal(t, []Tick{10, 20}, fired)
}

func TestSetDelayRearmsWithoutChangingPeriod(t *testing.T) {
	var heap TimeoutHeap
	tk := tok(t)

	var fired []Tick
	tm := NewTimer(&heap, func(_ *CPULockToken, scheduled Tick) { fired = append(fired, scheduled) })
	tm.StartPeriodic(tk, 0, 100, 10)

	tm.SetDelay(tk, 0, 5)
	require.True(t, tm.Running(tk))

	heap.ExpireDue(tk, 5)
	require.Equal(t, []Tick{5}, fired)
	// the period from StartPeriodic carries through SetDelay untouched.
	heap.ExpireDue(tk, 15)
	require.Equal(t, []Tick{5, 15}, fired)
}

func TestSetDelayToInfiniteLeavesTimerUnlinked(t *testing.T) {
	var heap TimeoutHeap
	tk := tok(t)

	fired := 0
	tm := NewTimer(&heap, func(*CPULockToken, Tick) { fired++ })
	tm.StartOneShot(tk, 0, 10)

	tm.SetDelay(tk, 0, BadDuration)
	require.False(t, tm.Running(tk))

	heap.ExpireDue(tk, 100)
	require.Equal(t, 0, fired, "an infinite delay leaves the timer unlinked until a later finite SetDelay")
}

func TestSetPeriodIsWriteThroughNotRetroactive(t *testing.T) {
	var heap TimeoutHeap
	tk := tok(t)

	var fired []Tick
	tm := NewTimer(&heap, func(_ *CPULockToken, scheduled Tick) { fired = append(fired, scheduled) })
	tm.StartPeriodic(tk, 0, 10, 10)

	require.NoError(t, tm.SetPeriod(tk, 100))

	heap.ExpireDue(tk, 10)
	require.Equal(t, []Tick{10}, fired, "the currently armed firing at 10 is untouched by SetPeriod")

	heap.ExpireDue(tk, 110)
	require.Equal(t, []Tick{10, 110}, fired, "the new period of 100 governs the next re-arm")
}

func TestSetPeriodToInfiniteMakesNextFiringTerminal(t *testing.T) {
	var heap TimeoutHeap
	tk := tok(t)

	fired := 0
	tm := NewTimer(&heap, func(*CPULockToken, Tick) { fired++ })
	tm.StartPeriodic(tk, 0, 10, 10)
	require.NoError(t, tm.SetPeriod(tk, BadDuration))

	heap.ExpireDue(tk, 10)
	require.Equal(t, 1, fired)
	require.False(t, tm.Running(tk), "BadDuration period makes the next firing one-shot")
}

func TestSetPeriodRejectsNonPositiveFinitePeriod(t *testing.T) {
	var heap TimeoutHeap
	tk := tok(t)
	tm := NewTimer(&heap, func(*CPULockToken, Tick) {})

	err := tm.SetPeriod(tk, 0)
	require.True(t, errors.Is(err, ErrBadParam))
}

func TestStartPeriodicRejectsNonPositivePeriod(t *testing.T) {
	var heap TimeoutHeap
	tk := tok(t)
	tm := NewTimer(&heap, func(*CPULockToken, Tick) {})

	err := tm.StartPeriodic(tk, 0, 10, 0)
	require.True(t, errors.Is(err, ErrBadParam))
	require.False(t, tm.Running(tk))
}
