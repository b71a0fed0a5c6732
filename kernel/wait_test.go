package kernel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func waitRecordFor(priority int) (*Task, *WaitRecord) {
	task := &Task{priority: priority, readyPrev: noTask, readyNext: noTask}
	return task, &WaitRecord{task: task}
}

func TestWaitQueuePriorityOrderedEnqueue(t *testing.T) {
	q := NewWaitQueue(TaskPriority)
	tk := tok(t)

	_, low := waitRecordFor(5)
	_, high := waitRecordFor(1)
	_, mid := waitRecordFor(3)

	q.Enqueue(tk, low)
	q.Enqueue(tk, high)
	q.Enqueue(tk, mid)

	require.Same(t, high, q.Front(tk))
	require.Same(t, high, q.PopFront(tk))
	require.Same(t, mid, q.PopFront(tk))
	require.Same(t, low, q.PopFront(tk))
	require.True(t, q.Empty(tk))
}

func TestWaitQueueFIFOAmongEqualPriority(t *testing.T) {
	q := NewWaitQueue(TaskPriority)
	tk := tok(t)

	_, a := waitRecordFor(2)
	_, b := waitRecordFor(2)
	_, c := waitRecordFor(2)

	q.Enqueue(tk, a)
	q.Enqueue(tk, b)
	q.Enqueue(tk, c)

	require.Same(t, a, q.PopFront(tk))
	require.Same(t, b, q.PopFront(tk))
	require.Same(t, c, q.PopFront(tk))
}

func TestWaitQueueRemoveMiddle(t *testing.T) {
	q := NewWaitQueue(TaskPriority)
	tk := tok(t)

	_, a := waitRecordFor(1)
	_, b := waitRecordFor(1)
	_, c := waitRecordFor(1)
	q.Enqueue(tk, a)
	q.Enqueue(tk, b)
	q.Enqueue(tk, c)

	q.Remove(tk, b)
	require.Same(t, a, q.PopFront(tk))
	require.Same(t, c, q.PopFront(tk))
	require.True(t, q.Empty(tk))

	// removing something already unlinked is a no-op.
	q.Remove(tk, b)
}

func TestWakeUnlinksFromQueueAndTimeoutHeap(t *testing.T) {
	port := &fakePort{}
	task, wr := waitRecordFor(1)
	task.status = Waiting
	task.currentWait = wr

	q := NewWaitQueue(TaskPriority)
	rq := NewReadyQueue([]*Task{task}, 4)
	sched := NewScheduler(rq, []*Task{task}, port)
	tk := tok(t)

	q.Enqueue(tk, wr)

	var heap TimeoutHeap
	wr.timeouts = &heap
	heap.Insert(tk, &wr.timeout, 100, func(*CPULockToken, *Timeout) {})

	Wake(tk, sched, wr, WaitSuccess)

	require.True(t, q.Empty(tk))
	require.False(t, wr.timeout.Linked())
	require.Nil(t, task.currentWait)
	require.Equal(t, Ready, task.status)
	require.Equal(t, WaitSuccess, wr.Result())
}
