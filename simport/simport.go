// Package simport is a hosted [kernel.Port]: it runs each task as its own
// goroutine and stands Go's own scheduler in for a real target's
// context-switch assembly and user-mode scheduler, rather than
// reimplementing one (the hosted port's own scheduling logic is explicitly
// out of scope; see the original Rust std port this package is modeled
// after, constance_port_std, which spins one OS thread per task and parks
// all but the logically-running one on a condition variable - here, a
// per-task channel takes that role).
package simport

import (
	"runtime"
	"sync"

	"github.com/kairos-rtos/kairos/kernel"
)

// Port implements [kernel.Port] by running every task as a goroutine,
// parked on its own channel except while it is the kernel's selected
// Running task.
type Port struct {
	mu      sync.Mutex
	sys     *kernel.System
	release map[kernel.TaskID]chan struct{}
	idle    chan struct{}
}

// New constructs an unbound hosted port. Call [Port.Bind] with the
// [kernel.System] constructed from it before calling [kernel.System.Boot];
// the two-step construction exists because the port must exist before
// [kernel.New] can accept it, but needs the System back to drive
// task-entry and exit.
func New() *Port {
	return &Port{
		release: make(map[kernel.TaskID]chan struct{}),
		idle:    make(chan struct{}, 1),
	}
}

// Bind supplies the System p is the port for. Must be called exactly once,
// before [kernel.System.Boot].
func (p *Port) Bind(sys *kernel.System) {
	p.sys = sys
}

func (p *Port) channelFor(id kernel.TaskID) chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch, ok := p.release[id]
	if !ok {
		// Buffered by one: RequestDispatch may run (and signal) before the
		// newly spawned goroutine in InitializeTaskState has reached its
		// first receive, so the release must not require a simultaneous
		// rendezvous.
		ch = make(chan struct{}, 1)
		p.release[id] = ch
	}
	return ch
}

// InitializeTaskState spawns the goroutine backing t. It immediately parks
// on its release channel; it only calls t's entry function once the
// scheduler actually selects it as Running and [Port.RequestDispatch]
// signals it awake. On return from the entry function, it reports
// ExitTask and the goroutine ends.
func (p *Port) InitializeTaskState(t *kernel.Task) {
	ch := p.channelFor(t.ID())
	go func(id kernel.TaskID, entry kernel.TaskEntry, param uintptr) {
		<-ch
		entry(param)
		if err := p.sys.ExitTask(id); err != nil {
			panic(err)
		}
		runtime.Goexit()
	}(t.ID(), t.Entry(), t.Param())
}

// RequestDispatch signals whichever task the scheduler most recently
// selected as Running, releasing it from [Port.Block] or its initial park
// in [Port.InitializeTaskState]. Must be called with CPU Lock released.
func (p *Port) RequestDispatch() {
	tok, err := p.sys.AcquireCPULock()
	if err != nil {
		// The calling goroutine itself already holds CPU Lock (nested
		// acquire); nothing is signaled.
		return
	}
	running := p.sys.SchedulerRunning(tok)
	p.sys.ReleaseCPULock(tok)
	if running == nil {
		select {
		case p.idle <- struct{}{}:
		default:
		}
		return
	}
	ch := p.channelFor(running.ID())
	select {
	case ch <- struct{}{}:
	default:
		// Already signaled (e.g. its first activation) and not yet
		// consumed; RequestDispatch is idempotent with respect to a task
		// that hasn't had a chance to run yet.
	}
}

// Idle blocks until RequestDispatch indicates there may be work again.
func (p *Port) Idle() {
	<-p.idle
}

// Block parks the calling goroutine (which must be the one backing t)
// until t is next released by [Port.RequestDispatch].
func (p *Port) Block(t *kernel.Task) {
	<-p.channelFor(t.ID())
}
