package kernel

// TaskID indexes into the statically configured task table. IDs are dense,
// starting at 0; there is no dynamic task creation (spec §1 Non-goals).
type TaskID int

// TaskEntry is a task's entry function: one unsigned parameter, as per spec
// §3. It runs as ordinary application code (not under CPU Lock); any
// interaction with the kernel goes through System's system-call methods,
// which acquire CPU Lock themselves.
type TaskEntry func(param uintptr)

// TaskState enumerates task status, mirroring the state machine in spec
// §4.5. The zero value is Dormant, matching a never-activated task.
type TaskState int

const (
	// Dormant: never activated, or exited, or stopped pending reactivation.
	Dormant TaskState = iota
	// PendingActivation: an activation request is outstanding; the
	// scheduler will reinitialize and ready this task on its next pass.
	PendingActivation
	// Ready: eligible to run, linked into the ready queue at its priority.
	Ready
	// Running: the currently selected task (there is at most one).
	Running
	// Waiting: parked on a wait queue (CurrentWait set), or blocked in
	// System.Park (CurrentWait nil).
	Waiting
)

func (s TaskState) String() string {
	switch s {
	case Dormant:
		return "Dormant"
	case PendingActivation:
		return "PendingActivation"
	case Ready:
		return "Ready"
	case Running:
		return "Running"
	case Waiting:
		return "Waiting"
	default:
		return "Unknown"
	}
}

// Task is a task control block: the immutable configuration-time
// attributes plus the mutable runtime state described in spec §3.
type Task struct {
	id       TaskID
	entry    TaskEntry
	param    uintptr
	priority int
	stack    StackRegion

	status      TaskState
	currentWait *WaitRecord

	// parkPermit is the binary permit backing Park/Unpark (spec §4.5),
	// orthogonal to wait queue membership.
	parkPermit bool

	// readyPrev/readyNext are index links (TaskID, or -1) within the
	// doubly linked ready-queue list for this task's priority level - an
	// intrusive list into the statically sized task pool, per spec §4.6
	// and the Design Notes' guidance to prefer handle-based lists over
	// pointer graphs for statically allocated objects.
	readyPrev, readyNext TaskID
}

// StackRegion is an opaque handle to a task's statically allocated stack.
// The kernel never reads or writes it; it is threaded through to
// [Port.InitializeTaskState] unchanged, for the port's context-switch
// machinery to set up. On the hosted port this is unused (goroutines have
// no kernel-visible stack); real targets would carry a base address and
// size here.
type StackRegion struct {
	Base uintptr
	Size uintptr
}

// ID returns t's static identifier.
func (t *Task) ID() TaskID { return t.id }

// Priority returns t's configured priority level (0 = highest).
func (t *Task) Priority() int { return t.priority }

// Status returns t's current state.
func (t *Task) Status() TaskState { return t.status }

// CurrentWait returns the wait record t is parked on, or nil if t is not
// Waiting on a wait queue (including while it is blocked in System.Park).
func (t *Task) CurrentWait() *WaitRecord { return t.currentWait }

// Entry returns t's configured entry function, for a [Port]'s
// InitializeTaskState to invoke on first dispatch.
func (t *Task) Entry() TaskEntry { return t.entry }

// Param returns t's configured entry parameter.
func (t *Task) Param() uintptr { return t.param }

// Stack returns t's configured stack region.
func (t *Task) Stack() StackRegion { return t.stack }
