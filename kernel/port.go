package kernel

// Port is the architecture binding the kernel delegates to for everything
// that is inherently hardware- or host-specific (spec component K):
// context-switch assembly, idle-wait, and the mechanics of "make this task
// run next". None of the kernel's own logic lives behind this interface;
// it is a pure boundary, the same role the teacher's Poller interface plays
// for readiness notification versus the event loop's own dispatch logic.
//
// A real target implements Port against its architecture's context-switch
// routine and interrupt controller; the hosted [simport] package implements
// it with goroutines standing in for tasks.
type Port interface {
	// InitializeTaskState prepares t so that, the first time it is
	// dispatched, execution begins at t's entry function with its
	// configured parameter. Called on each activation of t, while t is
	// still PendingActivation, just before the scheduler makes it Ready.
	InitializeTaskState(t *Task)

	// RequestDispatch asks the port to arrange a context switch into
	// whichever task the scheduler most recently selected as Running. It
	// may be called from task context or from a simulated interrupt
	// context; it must never block, and must never be called while the
	// caller holds CPU Lock (the scheduler calls it only after releasing
	// CPU Lock, per spec §4.3/§4.7's drop-before-switch discipline).
	RequestDispatch()

	// Idle runs when no task is Ready. It must return once something has
	// happened that could change that (a timer interrupt, an external
	// event delivered through the port) so the scheduler can re-run its
	// dispatch check; a no-op Idle that returns immediately is legal but
	// busy-spins.
	Idle()

	// Block suspends whatever execution context is backing t until t is
	// next selected as Running and RequestDispatch names it. This stands
	// in for the context-switch-out half of a real target's assembly:
	// on real hardware, the caller's call stack simply stops executing
	// here and resumes when switched back in; the hosted port instead
	// parks the goroutine backing t on a channel. Called with CPU Lock
	// not held.
	Block(t *Task)
}
