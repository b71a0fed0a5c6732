package kernel

import "container/heap"

// timeoutCallback is invoked when a [Timeout] expires. It runs under CPU
// Lock, on the kernel's logical call stack (the interrupt/task context that
// drove expire_due). It may re-link the same Timeout (e.g. a periodic
// timer re-arming itself) before returning.
type timeoutCallback func(tok *CPULockToken, t *Timeout)

// Timeout is an absolute expiration together with a callback, linkable into
// exactly one [TimeoutHeap]. It has two states:
//
//   - linked: awaiting expiration, a member of the heap.
//   - unlinked: not a member of the heap. expiration keeps the absolute
//     tick it was last linked at; unlinking does not convert it into a
//     remaining delay, and re-linking always supplies a new absolute tick.
//
// Timeout is ordinarily embedded by value in the structure that owns the
// future event (a [Timer], or a stack-resident [WaitRecord]); it carries no
// heap-external allocation of its own.
type Timeout struct {
	expiration Tick
	callback   timeoutCallback
	linked     bool
	seq        uint64 // insertion sequence, for FIFO tie-break among equal expirations
	index      int    // position in the heap's backing slice, maintained by container/heap
}

// Linked reports whether t is currently a member of a [TimeoutHeap].
func (t *Timeout) Linked() bool { return t.linked }

// Expiration returns the absolute tick at which t is due to fire, if linked,
// or the absolute tick it was last linked at, if unlinked.
func (t *Timeout) Expiration() Tick { return t.expiration }

// timeoutHeapEntries is the backing store for TimeoutHeap, implementing
// container/heap.Interface. Ordering is modular-before-now, with FIFO
// tie-break among equal expirations (spec §4.2).
type timeoutHeapEntries []*Timeout

func (h timeoutHeapEntries) Len() int { return len(h) }

func (h timeoutHeapEntries) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.expiration != b.expiration {
		// Comparisons are always relative to one another; since every
		// member of the heap is "not yet due" relative to some common
		// reference, ordinary wrap-safe Before is sufficient here because
		// no two pending deadlines can be more than TimeUserHeadroom apart
		// in a correctly configured system.
		return Before(a.expiration, b.expiration)
	}
	return a.seq < b.seq
}

func (h timeoutHeapEntries) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timeoutHeapEntries) Push(x any) {
	t := x.(*Timeout)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timeoutHeapEntries) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

// TimeoutHeap is the kernel's ordered set of pending absolute deadlines
// (spec component B). It does not own the memory behind any [Timeout]; it
// only holds back-pointers, matching the "no runtime allocation" invariant
// that every kernel object is statically allocated somewhere else (a
// [Timer], or a suspended task's stack frame).
type TimeoutHeap struct {
	entries timeoutHeapEntries
	nextSeq uint64
}

// Insert links t into the heap at the given absolute expiration, with the
// given callback. t must not already be linked. Requires CPU Lock.
func (h *TimeoutHeap) Insert(_ *CPULockToken, t *Timeout, expiration Tick, cb timeoutCallback) {
	if t.linked {
		invariantf("Insert: timeout already linked")
	}
	t.expiration = expiration
	t.callback = cb
	t.linked = true
	t.seq = h.nextSeq
	h.nextSeq++
	heap.Push(&h.entries, t)
}

// Remove unlinks t from the heap, if linked. It is a no-op if t is not
// currently linked. Requires CPU Lock.
func (h *TimeoutHeap) Remove(_ *CPULockToken, t *Timeout) {
	if !t.linked {
		return
	}
	heap.Remove(&h.entries, t.index)
	t.linked = false
}

// PeekEarliest returns the timeout with the earliest expiration, or nil if
// the heap is empty. Requires CPU Lock.
func (h *TimeoutHeap) PeekEarliest(_ *CPULockToken) *Timeout {
	if len(h.entries) == 0 {
		return nil
	}
	return h.entries[0]
}

// ExpireDue pops and fires every timeout whose expiration is not after now,
// in modular order, invoking each callback under CPU Lock. A callback may
// re-link the timeout it was given (periodic re-arming) before ExpireDue
// resumes popping the next entry. Requires CPU Lock.
func (h *TimeoutHeap) ExpireDue(tok *CPULockToken, now Tick) {
	for len(h.entries) > 0 {
		earliest := h.entries[0]
		if Before(now, earliest.expiration) {
			break
		}
		heap.Pop(&h.entries)
		earliest.linked = false
		cb := earliest.callback
		earliest.callback = nil
		if cb != nil {
			cb(tok, earliest)
		}
	}
}

// Len returns the number of pending timeouts. Requires CPU Lock.
func (h *TimeoutHeap) Len(_ *CPULockToken) int { return len(h.entries) }
