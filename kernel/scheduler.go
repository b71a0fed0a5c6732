package kernel

// Scheduler selects the single Running task from the [ReadyQueue] and
// decides when a context switch must happen (spec component G). It owns no
// task memory; it mutates the shared [Task.status] field and the ready
// queue's links.
//
// The dispatch-on-release discipline mirrors the teacher's event loop: a
// cheap check runs every time CPU Lock is released (see [CPULock.onRelease])
// rather than scheduler logic being interleaved inline with every mutation.
type Scheduler struct {
	rq      *ReadyQueue
	tasks   []*Task
	port    Port
	running TaskID
}

// NewScheduler constructs a Scheduler over the given ready queue, task
// table, and port. No task is initially running.
func NewScheduler(rq *ReadyQueue, tasks []*Task, port Port) *Scheduler {
	return &Scheduler{rq: rq, tasks: tasks, port: port, running: noTask}
}

// Running returns the currently Running task, or nil if none is (the
// kernel is idle, or has not yet dispatched for the first time).
func (s *Scheduler) Running(_ *CPULockToken) *Task {
	if s.running == noTask {
		return nil
	}
	return s.tasks[s.running]
}

// MakeReady transitions t out of Dormant/PendingActivation/Waiting into
// Ready and links it into the ready queue. Requires CPU Lock.
func (s *Scheduler) MakeReady(tok *CPULockToken, t *Task) {
	t.status = Ready
	t.currentWait = nil
	s.rq.PushBack(tok, t)
}

// MakeWaiting transitions the Running task t out of Running into Waiting.
// The caller is responsible for linking t into the relevant [WaitQueue]
// and for setting t.currentWait (System.block does so; System.Park leaves
// it nil). t must currently be Running. Requires CPU Lock.
func (s *Scheduler) MakeWaiting(tok *CPULockToken, t *Task) {
	if t.id != s.running {
		invariantf("MakeWaiting: task is not the running task")
	}
	t.status = Waiting
	s.running = noTask
}

// Exit transitions the Running task t to Dormant (task function returned,
// or ExitTask was called). t must currently be Running. Requires CPU Lock.
func (s *Scheduler) Exit(_ *CPULockToken, t *Task) {
	if t.id != s.running {
		invariantf("Exit: task is not the running task")
	}
	t.status = Dormant
	s.running = noTask
}

// ShouldPreempt reports whether the Running task (if any) is no longer the
// correct choice: either nothing is running and some task is ready, or the
// highest ready task strictly outranks the running one. Requires CPU Lock.
func (s *Scheduler) ShouldPreempt(tok *CPULockToken) bool {
	best := s.rq.Highest(tok)
	if best == nil {
		return false
	}
	running := s.Running(tok)
	if running == nil {
		return true
	}
	return best.priority < running.priority
}

// processActivations reinitializes every task still awaiting its activation
// (spec §4.7 choose_running_task step 1) and makes it Ready. Requires CPU
// Lock.
func (s *Scheduler) processActivations(tok *CPULockToken) {
	for _, t := range s.tasks {
		if t.status != PendingActivation {
			continue
		}
		if s.port != nil {
			s.port.InitializeTaskState(t)
		}
		s.MakeReady(tok, t)
	}
}

// Dispatch performs one round of task selection (choose_running_task, spec
// §4.7): it first reinitializes any pending-activation tasks, then, if
// ShouldPreempt holds, pulls the highest-priority ready task off the queue,
// demotes the previously running task back onto the ready queue's tail at
// its level (round-robin among equal priorities is a consequence of
// FIFO-within-level, not separately implemented), and installs the new task
// as Running. It reports the newly running task, or nil if no change was
// made. Requires CPU Lock.
func (s *Scheduler) Dispatch(tok *CPULockToken) *Task {
	s.processActivations(tok)
	if !s.ShouldPreempt(tok) {
		return nil
	}
	if prev := s.Running(tok); prev != nil {
		prev.status = Ready
		s.rq.PushBack(tok, prev)
	}
	next := s.rq.Highest(tok)
	s.rq.Remove(tok, next)
	next.status = Running
	s.running = next.id
	return next
}

// CheckDispatch is the hook installed as [CPULock.onRelease]: it re-acquires
// CPU Lock just long enough to run one dispatch round, requesting a context
// switch from the port if the running task actually changed. If the round
// leaves nothing Running, it asks the port to idle (spec component K's
// "idle processor" behavior) and, once Idle returns, loops to re-run
// dispatch - exactly the processor's own execution context standing in for
// the idle task, rather than a separate one. It must not be called while
// already holding CPU Lock.
func (s *Scheduler) CheckDispatch(lock *CPULock) {
	for {
		tok, err := lock.Acquire()
		if err != nil {
			return
		}
		next := s.Dispatch(tok)
		idle := s.Running(tok) == nil
		lock.Release(tok)
		if next != nil && s.port != nil {
			s.port.RequestDispatch()
		}
		if !idle || s.port == nil {
			return
		}
		s.port.Idle()
	}
}
