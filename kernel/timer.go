package kernel

// TimerCallback runs under CPU Lock when a [Timer] fires. It receives the
// tick the firing was scheduled for (not the tick it actually ran at),
// matching the teacher's period callback pattern but backed by absolute
// arrival times rather than open-ended timer.Reset rearming.
type TimerCallback func(tok *CPULockToken, scheduled Tick)

// Timer is a one-shot or periodic software timer (spec component J): it
// links a [Timeout] into the kernel's [TimeoutHeap] and, on firing, either
// stops (one-shot) or re-links itself at the next absolute arrival (period).
//
// Periodic timers use catch-up semantics: the next arrival is always
// computed as the previous scheduled arrival plus the period, never as
// now+period, so a timer delayed by a long-running handler or a burst of
// higher-priority work does not drift - it simply fires the missed tick(s)
// back-to-back rather than sliding later forever.
type Timer struct {
	timeout  Timeout
	heap     *TimeoutHeap
	callback TimerCallback
	period   Duration // BadDuration for one-shot
	running  bool
}

// NewTimer constructs a stopped timer bound to heap, invoking cb on each
// firing.
func NewTimer(heap *TimeoutHeap, cb TimerCallback) *Timer {
	return &Timer{heap: heap, callback: cb, period: BadDuration}
}

// Running reports whether the timer is currently linked into its heap.
// Requires CPU Lock.
func (tm *Timer) Running(_ *CPULockToken) bool { return tm.running }

// StartOneShot arms the timer to fire once, at now+delay. Stops any
// previous arming first. Requires CPU Lock.
func (tm *Timer) StartOneShot(tok *CPULockToken, now Tick, delay Duration) {
	tm.Stop(tok)
	tm.period = BadDuration
	tm.arm(tok, AddDuration(now, delay))
}

// StartPeriodic arms the timer to fire first at now+delay, then every
// period thereafter (catch-up semantics; see the Timer doc comment). Returns
// [ErrBadParam] if period is not positive, leaving the timer's previous
// arming untouched. Requires CPU Lock.
func (tm *Timer) StartPeriodic(tok *CPULockToken, now Tick, delay, period Duration) error {
	if period <= 0 {
		return badParam("period", period)
	}
	tm.Stop(tok)
	tm.period = period
	tm.arm(tok, AddDuration(now, delay))
	return nil
}

// SetDelay reprograms the delay until the timer's next one-shot firing, as
// an offset from now, without changing its period (spec §4.9/§6
// set_delay): it unlinks any existing arming first, then, if delay is
// finite, re-arms at now+delay; an infinite delay leaves the timer
// unlinked, armed again only by a later SetDelay with a finite value.
// Requires CPU Lock.
func (tm *Timer) SetDelay(tok *CPULockToken, now Tick, delay Duration) {
	tm.Stop(tok)
	if delay.IsInfinite() {
		return
	}
	tm.arm(tok, AddDuration(now, delay))
}

// SetPeriod reprograms the timer's period without touching its next
// scheduled arrival. Passing [BadDuration] converts a periodic timer into a
// one-shot that still fires at its already-armed next tick. Returns
// [ErrBadParam] if period is neither positive nor BadDuration.
func (tm *Timer) SetPeriod(_ *CPULockToken, period Duration) error {
	if period <= 0 && !period.IsInfinite() {
		return badParam("period", period)
	}
	tm.period = period
	return nil
}

// Stop disarms the timer, if running. It is a no-op otherwise. Requires
// CPU Lock.
func (tm *Timer) Stop(tok *CPULockToken) {
	if !tm.running {
		return
	}
	tm.heap.Remove(tok, &tm.timeout)
	tm.running = false
}

func (tm *Timer) arm(tok *CPULockToken, at Tick) {
	tm.running = true
	tm.heap.Insert(tok, &tm.timeout, at, tm.fire)
}

// fire is the [timeoutCallback] installed on tm.timeout: it runs the
// application callback, then, for a periodic timer, re-arms at the
// previous scheduled arrival plus the period - not at now+period - so a
// late firing catches up rather than drifting.
func (tm *Timer) fire(tok *CPULockToken, t *Timeout) {
	scheduled := t.Expiration()
	tm.running = false
	if tm.callback != nil {
		tm.callback(tok, scheduled)
	}
	if !tm.period.IsInfinite() {
		tm.arm(tok, AddDuration(scheduled, tm.period))
	}
}
