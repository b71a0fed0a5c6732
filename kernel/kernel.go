package kernel

// SemaphoreID, EventGroupID and TimerID index the statically configured
// tables of their respective objects, dense from 0, matching [TaskID]'s
// convention.
type (
	SemaphoreID  int
	EventGroupID int
	TimerID      int
)

// System is the kernel aggregate described in spec §9's "Global mutable
// state" design note: one process-wide struct, initialized once by [New]
// and never torn down, with every state-mutating method gated on
// possession of [CPULockToken]. It is the single entry point the Port
// binds against.
type System struct {
	lock CPULock

	tasks    []*Task
	rq       *ReadyQueue
	sched    *Scheduler
	timeouts TimeoutHeap

	semaphores  []*Semaphore
	eventGroups []*EventGroup
	timers      []*Timer

	interrupts *InterruptController
	hunks      *HunkPool
	port       Port
	logger     Logger

	tick   Tick
	booted bool
}

// New constructs a System from the given port and options. Tasks are
// registered Dormant (or PendingActivation, if configured Activated); no
// task runs until [System.Boot].
func New(port Port, opts ...Option) (*System, error) {
	if port == nil {
		return nil, badParam("port", nil)
	}
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	if len(cfg.tasks) == 0 {
		return nil, badParam("tasks", 0)
	}

	s := &System{
		port:       port,
		logger:     cfg.logger,
		interrupts: NewInterruptController(cfg.numInterrupts, 0, DispatchPriority),
		hunks:      cfg.hunkPool,
	}

	s.tasks = make([]*Task, len(cfg.tasks))
	for i, tc := range cfg.tasks {
		if tc.Priority < 0 || tc.Priority >= cfg.numPriorities {
			return nil, badParam("priority", tc.Priority)
		}
		status := Dormant
		if tc.Activated {
			status = PendingActivation
		}
		s.tasks[i] = &Task{
			id:        TaskID(i),
			entry:     tc.Entry,
			param:     tc.Param,
			priority:  tc.Priority,
			stack:     tc.Stack,
			status:    status,
			readyPrev: noTask,
			readyNext: noTask,
		}
	}
	s.rq = NewReadyQueue(s.tasks, cfg.numPriorities)
	s.sched = NewScheduler(s.rq, s.tasks, port)
	s.lock.onRelease = func() { s.sched.CheckDispatch(&s.lock) }

	s.interrupts.SetHandler(DispatchLine, func(tok *CPULockToken) {
		s.sched.Dispatch(tok)
	})
	s.interrupts.Enable(DispatchLine)

	return s, nil
}

// task resolves id, returning [ErrBadID] if out of range.
func (s *System) task(id TaskID) (*Task, error) {
	if id < 0 || int(id) >= len(s.tasks) {
		return nil, badID("task", int(id))
	}
	return s.tasks[id], nil
}

// NewSemaphore registers a new semaphore in the system's table, returning
// its ID. order selects how blocked waiters are queued (spec §6's
// per-object queue-order property); pass [TaskPriority] for the original's
// default. This is the configuration-time semaphore table (spec §6);
// NewSemaphore itself does not check whether [System.Boot] has run.
func (s *System) NewSemaphore(initial, max int, order QueueOrder) (SemaphoreID, error) {
	sem, err := NewSemaphore(initial, max, order)
	if err != nil {
		return 0, err
	}
	s.semaphores = append(s.semaphores, sem)
	return SemaphoreID(len(s.semaphores) - 1), nil
}

func (s *System) semaphore(id SemaphoreID) (*Semaphore, error) {
	if id < 0 || int(id) >= len(s.semaphores) {
		return nil, badID("semaphore", int(id))
	}
	return s.semaphores[id], nil
}

// NewEventGroup registers a new event group, returning its ID. order
// selects how blocked waiters are queued, as with [System.NewSemaphore].
// Configuration-time only.
func (s *System) NewEventGroup(order QueueOrder) EventGroupID {
	s.eventGroups = append(s.eventGroups, NewEventGroup(order))
	return EventGroupID(len(s.eventGroups) - 1)
}

func (s *System) eventGroup(id EventGroupID) (*EventGroup, error) {
	if id < 0 || int(id) >= len(s.eventGroups) {
		return nil, badID("event group", int(id))
	}
	return s.eventGroups[id], nil
}

// NewTimer registers a new timer bound to cb, returning its ID.
// Configuration-time only.
func (s *System) NewTimer(cb TimerCallback) TimerID {
	s.timers = append(s.timers, NewTimer(&s.timeouts, cb))
	return TimerID(len(s.timers) - 1)
}

func (s *System) timer(id TimerID) (*Timer, error) {
	if id < 0 || int(id) >= len(s.timers) {
		return nil, badID("timer", int(id))
	}
	return s.timers[id], nil
}

// Boot runs the hunk pool's initializers, then performs the first dispatch
// and asks the port to enter the first selected task. It must be called
// exactly once, from boot context (before any task runs), and never
// returns in a well-formed embedded build; on the hosted port it returns as
// soon as the first dispatch has been requested, while the tasks go on
// running on the port's goroutines. Boot itself never
// blocks from an interrupt or task context because nothing is running yet.
func (s *System) Boot() error {
	if s.booted {
		return ErrBadContext
	}
	s.booted = true
	if s.hunks != nil {
		s.hunks.boot()
	}

	tok, err := s.lock.Acquire()
	if err != nil {
		return err
	}
	next := s.sched.Dispatch(tok)
	s.lock.Release(tok)

	s.logger.Info().Int(`numTasks`, len(s.tasks)).Log(`kernel booted`)

	if next != nil {
		s.port.RequestDispatch()
	}
	return nil
}

// TimerTick advances the time base by one tick and expires any timeouts now
// due (spec §4.10: exposed to the port's tick interrupt driver). Safe to
// call from interrupt context; never blocks.
func (s *System) TimerTick() error {
	tok, err := s.lock.Acquire()
	if err != nil {
		return err
	}
	s.tick++
	s.timeouts.ExpireDue(tok, s.tick)
	s.lock.Release(tok)
	return nil
}

// SetTime reprograms the time base to t. Because every pending timeout is
// stored as an absolute tick (not a delay-remaining), reprogramming the
// wall clock alone preserves every timeout's relative ordering (spec
// §4.1); no heap entries need adjusting. Returns [ErrBadContext] from
// interrupt context.
func (s *System) SetTime(t Tick) error {
	tok, err := s.lock.Acquire()
	if err != nil {
		return err
	}
	s.tick = t
	s.timeouts.ExpireDue(tok, s.tick)
	s.lock.Release(tok)
	return nil
}

// SchedulerRunning returns the currently Running task, or nil, for a
// [Port] implementation's own bookkeeping (e.g. deciding which task's
// release channel to signal). Requires a token from
// [System.AcquireCPULock].
func (s *System) SchedulerRunning(tok *CPULockToken) *Task { return s.sched.Running(tok) }

// Now returns the current tick, without requiring CPU Lock (reads are
// racy only in the sense that the value may be stale the instant it
// returns, which is inherent to any free-running clock read).
func (s *System) Now() Tick { return s.tick }

// HunkPool returns the system's configured hunk pool (see [WithHunkPool]),
// or nil if none was configured. A caller that carved hunks into a pool
// before constructing the system may still hold and use its own reference;
// this accessor exists for code that only has the [System].
func (s *System) HunkPool() *HunkPool { return s.hunks }

// AcquireCPULock takes CPU Lock on behalf of the calling task, for use
// across a manually-delimited critical section of application code. Pairs
// with [System.ReleaseCPULock]. Per spec §8 scenario 6, any further system
// call made while still holding the returned token fails with
// [ErrBadContext] (nested acquire), exactly as intended: CPU Lock is a
// single global critical section, not a per-call convenience.
func (s *System) AcquireCPULock() (*CPULockToken, error) { return s.lock.Acquire() }

// ReleaseCPULock releases a token obtained from [System.AcquireCPULock],
// running the scheduler's preemption check, and - if that check selected a
// different task - parks the caller until it is dispatched again.
func (s *System) ReleaseCPULock(tok *CPULockToken) {
	caller := s.sched.Running(tok)
	s.lock.Release(tok)
	s.yieldIfPreempted(caller)
}

// yieldIfPreempted is the hosted port's stand-in for what a real target
// gets for free at the interrupt-return boundary: a check, on the way back
// from a system call, of whether the preemption check actually changed who
// is selected to run. A goroutine cannot be force-suspended from outside,
// so any call that might have made a higher-priority task Ready must
// explicitly ask whether it is still the one that should be executing, and
// park itself via the port if not. No-op if caller is nil (called from
// boot or interrupt context, which never owns a Running slot to lose).
func (s *System) yieldIfPreempted(caller *Task) {
	if caller == nil {
		return
	}
	for {
		tok, err := s.lock.Acquire()
		if err != nil {
			return
		}
		stillRunning := s.sched.Running(tok) == caller
		s.lock.Release(tok)
		if stillRunning {
			return
		}
		s.port.Block(caller)
	}
}

// ActivateTask requests activation of id. Returns [ErrQueueOverflow] if id
// is not currently Dormant (spec §4.5: at most one outstanding activation).
func (s *System) ActivateTask(id TaskID) error {
	tok, err := s.lock.Acquire()
	if err != nil {
		return err
	}
	t, err := s.task(id)
	if err != nil {
		s.lock.Release(tok)
		return err
	}
	if t.status != Dormant {
		s.lock.Release(tok)
		return ErrQueueOverflow
	}
	t.status = PendingActivation
	caller := s.sched.Running(tok)
	s.logger.Debug().Int(`task`, int(id)).Log(`activation requested`)
	s.lock.Release(tok)
	s.yieldIfPreempted(caller)
	return nil
}

// ExitTask transitions the Running task id to Dormant and requests a
// dispatch. It models the kernel-state half of spec §4.5's exit_task; the
// divergent "abandon this stack" half is the calling goroutine's own
// responsibility (the hosted port's task loop calls runtime.Goexit after
// this returns). Returns [ErrBadContext] if id is not the Running task.
func (s *System) ExitTask(id TaskID) error {
	tok, err := s.lock.Acquire()
	if err != nil {
		return err
	}
	defer s.lock.Release(tok)
	t, err := s.task(id)
	if err != nil {
		return err
	}
	if t.status != Running {
		return ErrBadContext
	}
	s.sched.Exit(tok, t)
	return nil
}

// Park blocks the calling task until it has a park permit, consuming the
// permit on return. It is independent of every wait queue: a concurrent
// semaphore/event-group wait is unaffected by a park/unpark pair against
// the same task. Returns [ErrBadContext] if id is not the Running task or
// CPU Lock is already held by the caller.
func (s *System) Park(id TaskID) error {
	tok, err := s.lock.Acquire()
	if err != nil {
		return err
	}
	t, err := s.task(id)
	if err != nil {
		s.lock.Release(tok)
		return err
	}
	if t.status != Running {
		s.lock.Release(tok)
		return ErrBadContext
	}
	if t.parkPermit {
		t.parkPermit = false
		s.lock.Release(tok)
		return nil
	}
	s.sched.MakeWaiting(tok, t)
	s.lock.Yield(tok, func() {
		s.sched.CheckDispatch(&s.lock)
		s.port.Block(t)
	})
	s.lock.Release(tok)
	t.parkPermit = false
	return nil
}

// Unpark grants id a park permit, waking it immediately if it is currently
// blocked in [System.Park]. Non-blocking. Returns [ErrBadID] for an unknown
// task.
func (s *System) Unpark(id TaskID) error {
	tok, err := s.lock.Acquire()
	if err != nil {
		return err
	}
	t, err := s.task(id)
	if err != nil {
		s.lock.Release(tok)
		return err
	}
	caller := s.sched.Running(tok)
	if t.status == Waiting && t.currentWait == nil {
		// parked via Park, not via a synchronization-object wait
		s.sched.MakeReady(tok, t)
		s.lock.Release(tok)
		s.yieldIfPreempted(caller)
		return nil
	}
	t.parkPermit = true
	s.lock.Release(tok)
	return nil
}
