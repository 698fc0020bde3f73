package vm

import "fmt"

// NotCallableError is raised when Call targets a value that is not a
// Closure, Extern or PartialApplication (spec §7 error taxonomy).
type NotCallableError struct {
	Got Value
}

func (e *NotCallableError) Error() string {
	return fmt.Sprintf("value is not callable: %s", e.Got)
}

// ArrayIndexOutOfBoundsError reports an array index outside
// [0, Length). No opcode or extern in this module returns it.
type ArrayIndexOutOfBoundsError struct {
	Index, Length int
}

func (e *ArrayIndexOutOfBoundsError) Error() string {
	return fmt.Sprintf("array index %d out of bounds (length %d)", e.Index, e.Length)
}

// DivisionByZeroError is raised by DivInt/ModInt when the divisor is 0.
type DivisionByZeroError struct{}

func (e *DivisionByZeroError) Error() string { return "division by zero" }

// StackOverflowError is raised when the call-frame stack exceeds
// config.MaxFrameCount.
type StackOverflowError struct{}

func (e *StackOverflowError) Error() string { return "stack overflow" }

// PanicError is a host- or program-raised unconditional failure,
// carrying a user-supplied message (spec §4.5 "PanicNonExhaustive" and
// extern-raised panics share this shape).
type PanicError struct {
	Message string
}

func (e *PanicError) Error() string { return "panic: " + e.Message }

// NonExhaustiveMatchError is raised by OP_PANIC_NON_EXHAUSTIVE when no
// match arm's pattern accepted the scrutinee (spec §9 Open Questions
// #1: compiler does best-effort exhaustiveness checking, but the VM
// still carries a runtime fallback for the cases it cannot prove).
type NonExhaustiveMatchError struct {
	Scrutinee Value
}

func (e *NonExhaustiveMatchError) Error() string {
	return fmt.Sprintf("non-exhaustive match: no pattern matched %s", e.Scrutinee)
}

// YieldError is not a failure: it unwinds a Thread's Resume call when
// the thread's body invokes the host's yield extern (spec §6
// SUPPLEMENT "Thread.Resume/Yield").
type YieldError struct {
	Value Value
}

func (e *YieldError) Error() string { return "yield outside a running thread" }

// DeadThreadError is raised by Resume on a Thread that has already
// returned or panicked.
type DeadThreadError struct{}

func (e *DeadThreadError) Error() string { return "thread is dead" }
