package kernel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// CPULockToken is the logical affordance described in spec §3/§4.3: a
// one-bit global critical section, represented here as a pointer so the Go
// compiler forces every state-mutating kernel method to accept proof that
// the caller already holds CPU Lock. It carries no data of its own; callers
// must never construct one directly, only ever thread through the value
// returned by [CPULock.Acquire].
type CPULockToken struct{}

// CPULock is the kernel-wide critical section described in spec §4.3. On
// real hardware it would mask interrupts at the kernel's managed priority
// range; the hosted model instead uses a real mutex, which is exactly the
// "mutex plus a CPU-lock-on flag" construction the spec calls out for the
// hosted port. Mutual exclusion here also plays the part that a single
// processor plays for free on real hardware: a [Port] implementation must
// still ensure that only the logically-running task (or a single simulated
// interrupt) ever attempts to hold CPULock at a time, but if two goroutines
// legitimately contend for it (a task mid-syscall and a simulated interrupt
// wanting to deliver), blocking on the mutex is the correct, wanted
// behaviour - it is what masking would have achieved on real hardware.
type CPULock struct {
	mu    sync.Mutex
	held  atomic.Bool
	owner atomic.Uint64

	// onRelease is invoked after the mutex is actually unlocked, with CPU
	// Lock no longer held, so it is free to re-enter the kernel (e.g. to
	// run the scheduler's preemption check and request a context switch).
	// Set once at System construction time.
	onRelease func()

	// firingRelease guards onRelease against its own reentrance: onRelease
	// (Scheduler.CheckDispatch) itself acquires and releases CPU Lock, and
	// that inner Release would otherwise fire onRelease again, and again,
	// recursing without a base case. Only the outermost Release runs the
	// hook; a Release reached while already inside it is a no-op here.
	firingRelease atomic.Bool
}

// Acquire takes CPU Lock. It returns [ErrBadContext] if the calling
// goroutine already holds it (nested acquire, spec §4.3); a different
// goroutine that is legitimately contending blocks until Release.
func (c *CPULock) Acquire() (*CPULockToken, error) {
	gid := currentGoroutineID()
	if c.held.Load() && c.owner.Load() == gid {
		return nil, ErrBadContext
	}
	c.mu.Lock()
	c.owner.Store(gid)
	c.held.Store(true)
	return &CPULockToken{}, nil
}

// Release gives up CPU Lock and runs the scheduler's preemption check,
// unless this Release was itself reached from within that check (see
// firingRelease), in which case the check is already in progress further up
// the call stack and must not be re-entered.
func (c *CPULock) Release(tok *CPULockToken) {
	if tok == nil {
		invariantf("Release: nil CPULockToken")
	}
	c.held.Store(false)
	c.owner.Store(0)
	c.mu.Unlock()
	if c.onRelease != nil && c.firingRelease.CompareAndSwap(false, true) {
		c.onRelease()
		c.firingRelease.Store(false)
	}
}

// Yield temporarily drops CPU Lock for the duration of fn, then reacquires
// it before returning. This is the "drop and re-acquire" borrow documented
// in spec §4.3, used by the wait subsystem (to call the port's blocking
// primitive) and by timers (to invoke the application callback without CPU
// Lock held). fn must not itself try to acquire CPU Lock reentrantly from
// the same logical caller; it is expected to either do work that requires
// no kernel state, or to re-enter the kernel via the normal Acquire path.
func (c *CPULock) Yield(tok *CPULockToken, fn func()) {
	if tok == nil {
		invariantf("Yield: nil CPULockToken")
	}
	c.held.Store(false)
	c.owner.Store(0)
	c.mu.Unlock()

	fn()

	gid := currentGoroutineID()
	c.mu.Lock()
	c.owner.Store(gid)
	c.held.Store(true)
}

// IsActive reports whether CPU Lock is currently held by anyone. Safe to
// call without holding the lock. Acquire's nested-acquire check does not use
// it; that check also compares the owning goroutine.
func (c *CPULock) IsActive() bool {
	return c.held.Load()
}

// currentGoroutineID extracts the calling goroutine's runtime id by parsing
// the leading "goroutine N " of a captured stack trace. It exists solely to
// distinguish "the same logical caller tried to reacquire CPU Lock" from
// "a different task/interrupt is legitimately contending for it"; the
// kernel never otherwise cares about goroutine identity.
func currentGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] >= '0' && buf[i] <= '9' {
			id = id*10 + uint64(buf[i]-'0')
		} else {
			break
		}
	}
	return id
}
