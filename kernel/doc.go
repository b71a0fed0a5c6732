// Package kernel implements the core of a statically-configured, preemptive,
// priority-based real-time kernel targeting single-processor embedded
// systems, plus a hosted model suitable for running the same scheduling,
// synchronization and timeout semantics on a workstation.
//
// # Architecture
//
// The kernel is built around a [System], an aggregate of statically sized
// object tables (tasks, semaphores, event groups, timers, a hunk pool) plus
// the four subsystems that give the kernel its real-time behaviour:
//
//   - the [Scheduler] (choose-running-task, preemption checking),
//   - the [CPULock] discipline (a single global critical section that every
//     kernel-state mutation must hold),
//   - the wait subsystem ([WaitQueue], [WaitRecord]) that parks tasks on
//     [Semaphore] and [EventGroup] objects, and
//   - the [TimeoutHeap] / [Timer] machinery built on a wrap-safe 32-bit
//     [Tick] domain.
//
// Everything else - the [Port] binding, static configuration ([TaskConfig],
// [Option]), and the
// [HunkPool] - exists to feed these four subsystems or to receive their
// requests (e.g. "switch context now").
//
// # Concurrency model
//
// There is exactly one logical thread of kernel execution at a time: the
// running task, or an interrupt handler that preempted it. [CPULock] is the
// mechanism that serializes all mutation of kernel-owned state; every
// object-level method that mutates state (on [Semaphore], [EventGroup],
// [Timer], [ReadyQueue], ...) requires proof of possession, in the form of a
// [CPULockToken] obtained from [CPULock.Acquire], and every [System] system
// call acquires CPU Lock itself. The kernel itself
// never spawns goroutines; the only place goroutines appear is in a hosted
// [Port] implementation (see the sibling simport package) that stands in for
// real task stacks and an interrupt controller when validating the kernel on
// a workstation.
//
// # Errors
//
// Errors are drawn from a small closed taxonomy (see errors.go) and are
// returned, never panicked, for any well-formed call. A panic indicates a
// kernel invariant was violated and is never expected in response to a
// well-formed API call.
package kernel
