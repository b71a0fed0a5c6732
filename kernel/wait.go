package kernel

// WaitResult describes why a blocked task woke up.
type WaitResult int

const (
	// WaitSuccess: woken by the object it was waiting on becoming
	// satisfied (semaphore signalled, event-group bits set, ...).
	WaitSuccess WaitResult = iota
	// WaitTimedOut: the timeout attached to the wait expired first.
	WaitTimedOut
	// WaitInterrupted: something force-woke the task out of band, e.g. the
	// wait queue it belonged to was destroyed or reset out from under it.
	WaitInterrupted
)

// WaitRecord is the stack-resident link between a blocked [Task] and the
// [WaitQueue] it is parked on (spec component H). Unlike the ready queue's
// TaskID-indexed intrusive list, a WaitRecord is owned by whichever blocking
// call created it (conceptually, it lives in that call's stack frame); the
// kernel only ever holds a pointer into it for the duration of the wait.
type WaitRecord struct {
	task   *Task
	queue  *WaitQueue
	result WaitResult
	data   any // object-specific payload: an event-group wait's *eventWait; nil for semaphore waits

	prev, next *WaitRecord // intrusive links within queue, nil if unlinked

	// timeout, timeouts back the optional timed-wait: when BeginWait
	// links a timeout, timeouts records which heap it belongs to, so
	// Wake can unlink it on an ordinary (non-timeout) wakeup without the
	// caller having to remember to.
	timeout  Timeout
	timeouts *TimeoutHeap
}

// Task returns the task this record belongs to.
func (wr *WaitRecord) Task() *Task { return wr.task }

// Result returns why the wait ended. Valid only after the wait has ended.
func (wr *WaitRecord) Result() WaitResult { return wr.result }

// Data returns the object-specific payload the blocking primitive attached
// when it enqueued this record (nil for semaphore waits).
func (wr *WaitRecord) Data() any { return wr.data }

// QueueOrder selects how a [WaitQueue] orders the tasks blocked on it (spec
// §3/§6: semaphores, event groups, and other wait objects each carry a
// per-object queue-order property). Grounded on the original's
// `QueueOrder`/`queue_order` definer field
// (original_source/src/r3/src/kernel/semaphore.rs).
type QueueOrder int

const (
	// TaskPriority orders waiters by descending task priority (highest
	// priority first), FIFO among equal priorities. This is the original's
	// default queue order.
	TaskPriority QueueOrder = iota
	// FIFO orders waiters strictly by arrival order, ignoring task
	// priority entirely.
	FIFO
)

// WaitQueue is a list of blocked tasks ordered per its configured
// [QueueOrder] (spec component H). Under TaskPriority, insertion keeps the
// list sorted by ascending task priority, with FIFO order preserved among
// equal-priority waiters; under FIFO, insertion always appends at the tail.
// Either way the highest-priority (TaskPriority) or earliest-arrived (FIFO)
// waiter is always the head. It holds no task memory; it only links
// WaitRecords supplied by callers.
type WaitQueue struct {
	head, tail *WaitRecord
	order      QueueOrder
}

// NewWaitQueue returns an empty wait queue ordered per order.
func NewWaitQueue(order QueueOrder) *WaitQueue { return &WaitQueue{order: order} }

// Enqueue links wr into q per q's [QueueOrder]. Requires CPU Lock.
func (q *WaitQueue) Enqueue(_ *CPULockToken, wr *WaitRecord) {
	wr.queue = q
	if q.head == nil {
		q.head, q.tail = wr, wr
		return
	}
	if q.order == FIFO {
		wr.prev = q.tail
		q.tail.next = wr
		q.tail = wr
		return
	}
	// Walk from the tail: new arrivals at a given priority are rare to be
	// higher priority than most of an already-sorted queue, so inserting
	// from the back is the common fast path.
	cur := q.tail
	for cur != nil && cur.task.priority > wr.task.priority {
		cur = cur.prev
	}
	if cur == nil {
		wr.next = q.head
		q.head.prev = wr
		q.head = wr
		return
	}
	wr.next = cur.next
	wr.prev = cur
	if cur.next != nil {
		cur.next.prev = wr
	} else {
		q.tail = wr
	}
	cur.next = wr
}

// Remove unlinks wr from q. It is a no-op if wr is not linked into q.
// Requires CPU Lock.
func (q *WaitQueue) Remove(_ *CPULockToken, wr *WaitRecord) {
	if wr.queue != q {
		return
	}
	if wr.prev != nil {
		wr.prev.next = wr.next
	} else {
		q.head = wr.next
	}
	if wr.next != nil {
		wr.next.prev = wr.prev
	} else {
		q.tail = wr.prev
	}
	wr.prev, wr.next, wr.queue = nil, nil, nil
}

// Front returns the highest-priority waiter, or nil if q is empty. Requires
// CPU Lock.
func (q *WaitQueue) Front(_ *CPULockToken) *WaitRecord { return q.head }

// Empty reports whether q has no waiters. Requires CPU Lock.
func (q *WaitQueue) Empty(_ *CPULockToken) bool { return q.head == nil }

// PopFront unlinks and returns the highest-priority waiter, or nil if q is
// empty. Requires CPU Lock.
func (q *WaitQueue) PopFront(tok *CPULockToken) *WaitRecord {
	wr := q.head
	if wr == nil {
		return nil
	}
	q.Remove(tok, wr)
	return wr
}

// Wake pops wr off its queue (if still linked), sets its result, marks the
// owning task Ready, and lets the scheduler link it back into the ready
// queue. It does not itself trigger a dispatch check; callers normally run
// this from inside a CPU-Lock-held region and let [CPULock.Release]'s
// onRelease hook perform the preemption check once, after all wakes for the
// current system call have been applied. Requires CPU Lock.
func Wake(tok *CPULockToken, sched *Scheduler, wr *WaitRecord, result WaitResult) {
	if wr.queue != nil {
		wr.queue.Remove(tok, wr)
	}
	if wr.timeouts != nil && wr.timeout.Linked() {
		wr.timeouts.Remove(tok, &wr.timeout)
	}
	wr.result = result
	t := wr.task
	t.currentWait = nil
	sched.MakeReady(tok, t)
}
