package kernel

import (
	"errors"
	"fmt"
)

// Sentinel errors forming the kernel's closed error taxonomy (see spec §7).
// Every operation returns one of these, or wraps one of these via [BadParamError]
// or [BadIDError] so that [errors.Is] still matches the sentinel.
var (
	// ErrBadContext is returned when an operation is called from a context
	// that disallows it: from an interrupt handler, from boot context,
	// or while CPU Lock is held by the caller where that is forbidden.
	ErrBadContext = errors.New("kernel: bad calling context")

	// ErrBadID is returned when a task, semaphore, event group, timer or
	// hunk reference does not identify a configured object.
	ErrBadID = errors.New("kernel: bad object id")

	// ErrBadParam is returned when a numeric argument lies outside its
	// accepted range.
	ErrBadParam = errors.New("kernel: bad parameter")

	// ErrBadObjectState is returned when an object is in the wrong state
	// for the requested operation (e.g. interrupting a Dormant task).
	ErrBadObjectState = errors.New("kernel: bad object state")

	// ErrQueueOverflow is returned when a bounded queue is full: a second
	// activation request against a non-Dormant task, or a semaphore
	// signal that would push value past maximum.
	ErrQueueOverflow = errors.New("kernel: queue overflow")

	// ErrTimeout is returned when a deadline elapsed before the awaited
	// condition was satisfied.
	ErrTimeout = errors.New("kernel: timed out")

	// ErrInterrupted is returned when a waiter was woken administratively
	// (e.g. by a task interrupt) rather than by its awaited condition.
	ErrInterrupted = errors.New("kernel: wait interrupted")
)

// BadIDError wraps [ErrBadID] with the offending identifier, for diagnostics.
type BadIDError struct {
	Kind string // "task", "semaphore", "event group", "timer", "hunk"
	ID   int
}

func (e *BadIDError) Error() string {
	return fmt.Sprintf("kernel: bad %s id %d", e.Kind, e.ID)
}

func (e *BadIDError) Unwrap() error { return ErrBadID }

func badID(kind string, id int) error {
	return &BadIDError{Kind: kind, ID: id}
}

// BadParamError wraps [ErrBadParam] with the offending value, for diagnostics.
type BadParamError struct {
	Param string
	Value any
}

func (e *BadParamError) Error() string {
	return fmt.Sprintf("kernel: bad parameter %s=%v", e.Param, e.Value)
}

func (e *BadParamError) Unwrap() error { return ErrBadParam }

func badParam(param string, value any) error {
	return &BadParamError{Param: param, Value: value}
}

// InvariantViolation is the panic value raised when the kernel detects that
// one of its own bookkeeping invariants has been broken. It is never raised
// in response to a well-formed API call; seeing one indicates a kernel bug,
// not caller misuse.
type InvariantViolation struct {
	Msg string
}

func (e *InvariantViolation) Error() string {
	return "kernel: invariant violation: " + e.Msg
}

func invariantf(format string, args ...any) {
	panic(&InvariantViolation{Msg: fmt.Sprintf(format, args...)})
}
