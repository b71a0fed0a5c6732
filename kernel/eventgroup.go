package kernel

// EventBits is the fixed-width bitset an [EventGroup] carries (spec
// component I). 32 bits matches a typical target word size; nothing in the
// kernel depends on a wider set.
type EventBits uint32

// WaitMode selects how a waiter's requested bits are matched against an
// event group's current bits.
type WaitMode int

const (
	// WaitAny is satisfied once any one of the requested bits is set.
	WaitAny WaitMode = iota
	// WaitAll is satisfied only once every requested bit is set.
	WaitAll
)

// eventWait is the payload threaded through a [WaitRecord] while blocked on
// an [EventGroup]: the bits it is waiting for, the mode, and whether a
// successful wait should clear the matched bits on the way out. matched is
// filled in by whoever satisfies the wait, recording the group's bits at
// the moment of the match (spec §4.8's orig_bits_out), for the caller to
// read back via WaitRecord.Data after waking.
type eventWait struct {
	mode    WaitMode
	bits    EventBits
	clearOn bool
	matched EventBits
}

// EventGroup is a set of named boolean flags with AND/OR wait semantics
// (spec component I): SetBits can satisfy several waiters with differing
// WaitAny/WaitAll requirements in one call.
type EventGroup struct {
	bits    EventBits
	waiters *WaitQueue
}

// NewEventGroup constructs an event group with all bits initially clear,
// queueing blocked waiters per order.
func NewEventGroup(order QueueOrder) *EventGroup {
	return &EventGroup{waiters: NewWaitQueue(order)}
}

// Bits returns the current bit pattern. Requires CPU Lock.
func (e *EventGroup) Bits(_ *CPULockToken) EventBits { return e.bits }

func satisfied(current EventBits, w *eventWait) bool {
	switch w.mode {
	case WaitAll:
		return current&w.bits == w.bits
	default:
		return current&w.bits != 0
	}
}

// SetBits ORs pattern into the group's bits, then scans waiters in queue
// order, waking every one whose requested pattern is now satisfied (clearing
// matched bits first for any waiter configured to clear-on-exit, before
// testing the next waiter against the updated bits). Requires CPU Lock.
func (e *EventGroup) SetBits(tok *CPULockToken, sched *Scheduler, pattern EventBits) {
	e.bits |= pattern
	for wr := e.waiters.Front(tok); wr != nil; {
		next := wr.next
		w := wr.data.(*eventWait)
		if satisfied(e.bits, w) {
			w.matched = e.bits
			if w.clearOn {
				e.bits &^= w.bits
			}
			Wake(tok, sched, wr, WaitSuccess)
		}
		wr = next
	}
}

// ClearBits ANDs the complement of pattern into the group's bits. Clearing
// bits never satisfies a waiter, so no wake scan is needed. Requires CPU
// Lock.
func (e *EventGroup) ClearBits(_ *CPULockToken, pattern EventBits) {
	e.bits &^= pattern
}

// TryWait attempts to satisfy a wait for bits under mode without blocking,
// clearing matched bits first if clearOnExit. It returns the group's bits
// at the moment of the match and whether it succeeded. Requires CPU Lock.
func (e *EventGroup) TryWait(_ *CPULockToken, mode WaitMode, bits EventBits, clearOnExit bool) (EventBits, bool) {
	w := &eventWait{mode: mode, bits: bits}
	if !satisfied(e.bits, w) {
		return 0, false
	}
	matched := e.bits
	if clearOnExit {
		e.bits &^= bits
	}
	return matched, true
}

// BeginWait attempts TryWait; on failure it enqueues wr (populating
// wr.data with the wait's mode/bits/clearOnExit) and, if timeout is finite,
// arms a timeout that wakes wr with WaitTimedOut. It returns the matched
// bits and whether the wait completed immediately; on a blocking path, read
// the matched bits back from wr.Data().(*eventWait).matched once woken via
// [EventGroupWaitResult]. Requires CPU Lock.
func (e *EventGroup) BeginWait(tok *CPULockToken, sched *Scheduler, heap *TimeoutHeap, now Tick, timeout Duration, mode WaitMode, bits EventBits, clearOnExit bool, wr *WaitRecord) (EventBits, bool) {
	if matched, ok := e.TryWait(tok, mode, bits, clearOnExit); ok {
		return matched, true
	}
	wr.data = &eventWait{mode: mode, bits: bits, clearOn: clearOnExit}
	e.waiters.Enqueue(tok, wr)
	if !timeout.IsInfinite() {
		wr.timeouts = heap
		heap.Insert(tok, &wr.timeout, AddDuration(now, timeout), func(tok *CPULockToken, _ *Timeout) {
			Wake(tok, sched, wr, WaitTimedOut)
		})
	}
	return 0, false
}

// EventGroupWaitResult reads back the matched bits recorded for wr by
// [EventGroup.SetBits], once wr's wait has ended. A wait that timed out
// records nothing, so this returns 0 for it.
// Valid only for a WaitRecord created by [EventGroup.BeginWait].
func EventGroupWaitResult(wr *WaitRecord) EventBits {
	return wr.data.(*eventWait).matched
}
