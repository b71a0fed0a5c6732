package kernel

// Semaphore is a counting semaphore (spec component I): a non-negative
// count bounded by a configured maximum, plus a queue of tasks blocked
// waiting for the count to become positive, ordered per its [QueueOrder].
type Semaphore struct {
	count    int
	maxCount int
	waiters  *WaitQueue
}

// NewSemaphore constructs a semaphore with the given initial and maximum
// count, queueing blocked waiters per order. Returns [ErrBadParam] if
// initial is negative, exceeds max, or max is not positive.
func NewSemaphore(initial, max int, order QueueOrder) (*Semaphore, error) {
	if max <= 0 || initial < 0 || initial > max {
		return nil, badParam("initial/max", [2]int{initial, max})
	}
	return &Semaphore{count: initial, maxCount: max, waiters: NewWaitQueue(order)}, nil
}

// Count returns the current count. Requires CPU Lock.
func (s *Semaphore) Count(_ *CPULockToken) int { return s.count }

// Signal delivers n permits (spec §4.8): while waiters remain and n > 0, it
// pops the head of the wait queue and hands it one permit directly, rather
// than incrementing count and letting the waiter re-check (which would open
// a lost-wakeup window against a racing TryWait). Any remainder is added to
// count. If the remainder would push count past maxCount, count is left
// unchanged and [ErrQueueOverflow] is returned; permits already handed to
// waiters in the same call stay delivered. Requires CPU Lock.
func (s *Semaphore) Signal(tok *CPULockToken, sched *Scheduler, n int) error {
	if n <= 0 {
		return badParam("n", n)
	}
	delivered := 0
	for delivered < n {
		wr := s.waiters.Front(tok)
		if wr == nil {
			break
		}
		Wake(tok, sched, wr, WaitSuccess)
		delivered++
	}
	remainder := n - delivered
	if remainder == 0 {
		return nil
	}
	if s.count+remainder > s.maxCount {
		return ErrQueueOverflow
	}
	s.count += remainder
	return nil
}

// Drain sets count to zero without waking anyone; per the invariant count >
// 0 ⇒ waiters is empty, there can be nothing to wake. Requires CPU Lock.
func (s *Semaphore) Drain(_ *CPULockToken) {
	s.count = 0
}

// TryWait attempts to take one unit of count without blocking. It reports
// whether it succeeded. Requires CPU Lock.
func (s *Semaphore) TryWait(_ *CPULockToken) bool {
	if s.count == 0 {
		return false
	}
	s.count--
	return true
}

// BeginWait takes one unit of count if immediately available; otherwise it
// enqueues wr (which must be zero-valued other than its Task) onto s's
// waiters and, if timeout is finite, links a timeout on heap that will wake
// wr with WaitTimedOut at now+timeout. It reports whether the wait
// completed immediately (true: count was taken, no further action needed)
// or must block (false: the caller must hand off to the scheduler and
// Port, then inspect wr.Result() once woken). Requires CPU Lock.
func (s *Semaphore) BeginWait(tok *CPULockToken, sched *Scheduler, heap *TimeoutHeap, now Tick, timeout Duration, wr *WaitRecord) bool {
	if s.TryWait(tok) {
		return true
	}
	s.waiters.Enqueue(tok, wr)
	if !timeout.IsInfinite() {
		wr.timeouts = heap
		heap.Insert(tok, &wr.timeout, AddDuration(now, timeout), func(tok *CPULockToken, _ *Timeout) {
			Wake(tok, sched, wr, WaitTimedOut)
		})
	}
	return false
}
