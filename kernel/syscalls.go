package kernel

// This file collects the System-level system calls for the synchronization
// objects (spec §6 Runtime Operations): semaphores, event groups, and
// timers. Each wraps the matching object-level primitive in exactly the
// blocking protocol spec §4.8 describes: construct a stack-resident wait
// record, hand off to the scheduler and port across the suspension, then
// translate the wait's result back into an error.

// runningOrBadContext returns the caller's Running task, or [ErrBadContext]
// if nothing is Running (boot context, or called from an interrupt
// handler - spec §5's "no blocking syscall from an interrupt or boot
// context"). Requires CPU Lock.
func (s *System) runningOrBadContext(tok *CPULockToken) (*Task, error) {
	t := s.sched.Running(tok)
	if t == nil {
		return nil, ErrBadContext
	}
	return t, nil
}

// block hands the caller off to the scheduler and port for the duration of
// a wait already linked into its queue: it transitions running to Waiting,
// drops CPU Lock, runs a dispatch round so another task can be selected,
// parks the calling goroutine via the port, and reacquires CPU Lock on the
// way out. Requires CPU Lock; re-takes it before returning.
func (s *System) block(tok *CPULockToken, running *Task, wr *WaitRecord) {
	running.currentWait = wr
	s.sched.MakeWaiting(tok, running)
	s.lock.Yield(tok, func() {
		s.sched.CheckDispatch(&s.lock)
		s.port.Block(running)
	})
}

// SemaphoreWait blocks the calling task until sem has a permit available,
// or timeout elapses. A [BadDuration] timeout blocks indefinitely.
func (s *System) SemaphoreWait(id SemaphoreID, timeout Duration) error {
	tok, err := s.lock.Acquire()
	if err != nil {
		return err
	}
	sem, err := s.semaphore(id)
	if err != nil {
		s.lock.Release(tok)
		return err
	}
	running, err := s.runningOrBadContext(tok)
	if err != nil {
		s.lock.Release(tok)
		return err
	}
	wr := &WaitRecord{task: running}
	if sem.BeginWait(tok, s.sched, &s.timeouts, s.tick, timeout, wr) {
		s.lock.Release(tok)
		return nil
	}
	s.block(tok, running, wr)
	s.lock.Release(tok)
	return waitError(wr.result)
}

// SemaphorePollOne attempts to take a permit without blocking, returning
// [ErrTimeout] if none is immediately available (spec §6: poll_one fails
// with Timeout rather than blocking).
func (s *System) SemaphorePollOne(id SemaphoreID) error {
	tok, err := s.lock.Acquire()
	if err != nil {
		return err
	}
	defer s.lock.Release(tok)
	sem, err := s.semaphore(id)
	if err != nil {
		return err
	}
	if !sem.TryWait(tok) {
		return ErrTimeout
	}
	return nil
}

// SemaphoreSignal delivers n permits to sem (spec §4.8 signal(n)). If this
// wakes a higher-priority task, the caller is preempted at the point of
// return, exactly as spec §8 scenario 3 describes.
func (s *System) SemaphoreSignal(id SemaphoreID, n int) error {
	tok, err := s.lock.Acquire()
	if err != nil {
		return err
	}
	sem, err := s.semaphore(id)
	if err != nil {
		s.lock.Release(tok)
		return err
	}
	caller := s.sched.Running(tok)
	err = sem.Signal(tok, s.sched, n)
	s.lock.Release(tok)
	s.yieldIfPreempted(caller)
	return err
}

// SemaphoreDrain sets sem's count to zero.
func (s *System) SemaphoreDrain(id SemaphoreID) error {
	tok, err := s.lock.Acquire()
	if err != nil {
		return err
	}
	defer s.lock.Release(tok)
	sem, err := s.semaphore(id)
	if err != nil {
		return err
	}
	sem.Drain(tok)
	return nil
}

// SemaphoreCount returns sem's current count.
func (s *System) SemaphoreCount(id SemaphoreID) (int, error) {
	tok, err := s.lock.Acquire()
	if err != nil {
		return 0, err
	}
	defer s.lock.Release(tok)
	sem, err := s.semaphore(id)
	if err != nil {
		return 0, err
	}
	return sem.Count(tok), nil
}

// EventGroupSet ORs pattern into group's bits, waking any waiter it
// satisfies. May preempt the caller, per the same reasoning as
// [System.SemaphoreSignal].
func (s *System) EventGroupSet(id EventGroupID, pattern EventBits) error {
	tok, err := s.lock.Acquire()
	if err != nil {
		return err
	}
	g, err := s.eventGroup(id)
	if err != nil {
		s.lock.Release(tok)
		return err
	}
	caller := s.sched.Running(tok)
	g.SetBits(tok, s.sched, pattern)
	s.lock.Release(tok)
	s.yieldIfPreempted(caller)
	return nil
}

// EventGroupClear ANDs the complement of pattern into group's bits.
func (s *System) EventGroupClear(id EventGroupID, pattern EventBits) error {
	tok, err := s.lock.Acquire()
	if err != nil {
		return err
	}
	defer s.lock.Release(tok)
	g, err := s.eventGroup(id)
	if err != nil {
		return err
	}
	g.ClearBits(tok, pattern)
	return nil
}

// EventGroupWait blocks the calling task until group's bits satisfy mode
// against bits, or timeout elapses, optionally clearing the matched bits on
// success. It returns the bits observed at the moment of the match.
func (s *System) EventGroupWait(id EventGroupID, mode WaitMode, bits EventBits, clearOnExit bool, timeout Duration) (EventBits, error) {
	tok, err := s.lock.Acquire()
	if err != nil {
		return 0, err
	}
	g, err := s.eventGroup(id)
	if err != nil {
		s.lock.Release(tok)
		return 0, err
	}
	running, err := s.runningOrBadContext(tok)
	if err != nil {
		s.lock.Release(tok)
		return 0, err
	}
	wr := &WaitRecord{task: running}
	if matched, ok := g.BeginWait(tok, s.sched, &s.timeouts, s.tick, timeout, mode, bits, clearOnExit, wr); ok {
		s.lock.Release(tok)
		return matched, nil
	}
	s.block(tok, running, wr)
	s.lock.Release(tok)
	if err := waitError(wr.result); err != nil {
		return 0, err
	}
	return EventGroupWaitResult(wr), nil
}

// TimerStart arms timer id to fire once at now+delay, or, if period is
// finite, periodically thereafter with absolute-arrival catch-up
// scheduling (spec §4.9). Returns [ErrBadParam] for a non-positive period.
func (s *System) TimerStart(id TimerID, delay, period Duration) error {
	tok, err := s.lock.Acquire()
	if err != nil {
		return err
	}
	defer s.lock.Release(tok)
	tm, err := s.timer(id)
	if err != nil {
		return err
	}
	if period.IsInfinite() {
		tm.StartOneShot(tok, s.tick, delay)
		return nil
	}
	return tm.StartPeriodic(tok, s.tick, delay, period)
}

// TimerSetDelay reprograms timer id's delay until its next one-shot firing,
// without touching its period. A [BadDuration] delay leaves it unlinked
// until a later, finite SetDelay.
func (s *System) TimerSetDelay(id TimerID, delay Duration) error {
	tok, err := s.lock.Acquire()
	if err != nil {
		return err
	}
	defer s.lock.Release(tok)
	tm, err := s.timer(id)
	if err != nil {
		return err
	}
	tm.SetDelay(tok, s.tick, delay)
	return nil
}

// TimerSetPeriod reprograms timer id's period, write-through (it takes
// effect on the timer's next firing, not retroactively on its currently
// armed one). Returns [ErrBadParam] if period is neither positive nor
// [BadDuration].
func (s *System) TimerSetPeriod(id TimerID, period Duration) error {
	tok, err := s.lock.Acquire()
	if err != nil {
		return err
	}
	defer s.lock.Release(tok)
	tm, err := s.timer(id)
	if err != nil {
		return err
	}
	return tm.SetPeriod(tok, period)
}

// TimerStop disarms timer id.
func (s *System) TimerStop(id TimerID) error {
	tok, err := s.lock.Acquire()
	if err != nil {
		return err
	}
	defer s.lock.Release(tok)
	tm, err := s.timer(id)
	if err != nil {
		return err
	}
	tm.Stop(tok)
	return nil
}

// waitError translates a [WaitResult] into the corresponding syscall error,
// or nil for WaitSuccess.
func waitError(r WaitResult) error {
	switch r {
	case WaitTimedOut:
		return ErrTimeout
	case WaitInterrupted:
		return ErrInterrupted
	default:
		return nil
	}
}
