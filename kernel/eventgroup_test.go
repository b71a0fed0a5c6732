package kernel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEventGroupTryWaitAnyMode(t *testing.T) {
	e := NewEventGroup(TaskPriority)
	tk := tok(t)
	e.SetBits(tk, nil, 0b0100)

	_, ok := e.TryWait(tk, WaitAny, 0b0011, false)
	require.False(t, ok)

	matched, ok := e.TryWait(tk, WaitAny, 0b0110, false)
	require.True(t, ok)
	require.Equal(t, EventBits(0b0100), matched)
}

func TestEventGroupTryWaitAllMode(t *testing.T) {
	e := NewEventGroup(TaskPriority)
	tk := tok(t)
	e.SetBits(tk, nil, 0b0110)

	_, ok := e.TryWait(tk, WaitAll, 0b1110, false)
	require.False(t, ok, "not every requested bit is set")

	matched, ok := e.TryWait(tk, WaitAll, 0b0110, false)
	require.True(t, ok)
	require.Equal(t, EventBits(0b0110), matched)
}

func TestEventGroupTryWaitClearsMatchedBitsOnExit(t *testing.T) {
	e := NewEventGroup(TaskPriority)
	tk := tok(t)
	e.SetBits(tk, nil, 0b1110)

	matched, ok := e.TryWait(tk, WaitAny, 0b0110, true)
	require.True(t, ok)
	require.Equal(t, EventBits(0b1110), matched)
	require.Equal(t, EventBits(0b1000), e.Bits(tk), "only the requested, matched bits clear")
}

// TestEventGroupAnyBitsWithAutoClear reproduces the any-bits auto-clear
// end-to-end scenario: a waiter blocked on 0b0110 in any|clear mode wakes
// with the bits observed at the moment of match, and the group itself ends
// up with only the matched bits cleared.
func TestEventGroupAnyBitsWithAutoClear(t *testing.T) {
	e := NewEventGroup(TaskPriority)
	tk := tok(t)

	port := &fakePort{}
	task := &Task{id: 0, priority: 1, readyPrev: noTask, readyNext: noTask}
	tasks := []*Task{task}
	rq := NewReadyQueue(tasks, 4)
	sched := NewScheduler(rq, tasks, port)

	wr := &WaitRecord{task: task}
	_, ok := e.BeginWait(tk, sched, nil, 0, BadDuration, WaitAny, 0b0110, true, wr)
	require.False(t, ok)

	e.SetBits(tk, sched, 0b0100)

	require.Equal(t, WaitSuccess, wr.Result())
	require.Equal(t, EventBits(0b0100), EventGroupWaitResult(wr))
	require.Equal(t, EventBits(0b0000), e.Bits(tk))
}

func TestEventGroupSetBitsWakesOnlySatisfiedWaiters(t *testing.T) {
	e := NewEventGroup(TaskPriority)
	tk := tok(t)

	port := &fakePort{}
	loTask := &Task{id: 0, priority: 2, status: Waiting, readyPrev: noTask, readyNext: noTask}
	hiTask := &Task{id: 1, priority: 1, status: Waiting, readyPrev: noTask, readyNext: noTask}
	tasks := []*Task{loTask, hiTask}
	rq := NewReadyQueue(tasks, 4)
	sched := NewScheduler(rq, tasks, port)

	waitAll := &WaitRecord{task: loTask}
	waitAny := &WaitRecord{task: hiTask}
	_, ok := e.BeginWait(tk, sched, nil, 0, BadDuration, WaitAll, 0b11, false, waitAll)
	require.False(t, ok)
	_, ok = e.BeginWait(tk, sched, nil, 0, BadDuration, WaitAny, 0b100, false, waitAny)
	require.False(t, ok)

	e.SetBits(tk, sched, 0b01)
	require.Equal(t, Waiting, loTask.status, "not every requested bit is set yet")
	require.Equal(t, Waiting, hiTask.status, "unrelated bit")

	e.SetBits(tk, sched, 0b10)
	require.Equal(t, Ready, loTask.status)
	require.Equal(t, Waiting, hiTask.status)
}

func TestEventGroupClearBitsNeverWakes(t *testing.T) {
	e := NewEventGroup(TaskPriority)
	tk := tok(t)
	e.SetBits(tk, nil, 0b1111)
	e.ClearBits(tk, 0b0101)
	require.Equal(t, EventBits(0b1010), e.Bits(tk))
}
