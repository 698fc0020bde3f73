package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// sum3 builds a 3-argument closure computing arg0+arg1+arg2 purely out
// of hand-assembled bytecode, standing in for what internal/compiler
// would have emitted for `fn a b c = a + b + c` (OP_PUSH indexes a
// local relative to the current frame's Base, exactly like a
// compiled function's own parameters; spec §4.6 "Calling convention").
func sum3() *ClosureObj {
	fn := NewBytecodeFunction("sum3", 3)
	fn.WriteOp(OP_PUSH, 0)
	fn.WriteU16(0, 0)
	fn.WriteOp(OP_PUSH, 0)
	fn.WriteU16(1, 0)
	fn.WriteOp(OP_ADD_INT, 0)
	fn.WriteOp(OP_PUSH, 0)
	fn.WriteU16(2, 0)
	fn.WriteOp(OP_ADD_INT, 0)
	fn.WriteOp(OP_RETURN, 0)
	return &ClosureObj{Function: fn}
}

// TestCallFunctionRoundTripsAcrossPartialApplication is spec §8's
// calling-convention round-trip property, checked for every split
// point: applying a 3-arity closure to all its arguments at once must
// produce the same value as applying it to a prefix (which, since
// n < arity in dispatchCall, yields a PartialAppObj rather than
// running the body) and then reapplying the remaining suffix to that
// PartialAppObj.
func TestCallFunctionRoundTripsAcrossPartialApplication(t *testing.T) {
	args := []Value{VInt(1), VInt(20), VInt(300)}
	want := VInt(321)

	for k := 0; k <= len(args); k++ {
		thread := NewThread(nil, sum3())

		full, err := thread.CallFunction(sum3(), args)
		require.NoError(t, err)
		require.Equal(t, want, full, "calling with all arguments at once")

		step1, err := thread.CallFunction(sum3(), args[:k])
		require.NoError(t, err)

		if k < len(args) {
			partial, ok := step1.(*PartialAppObj)
			require.True(t, ok, "a sub-arity call must yield a PartialAppObj, got %T", step1)
			require.Len(t, partial.Arguments, k)
		} else {
			require.Equal(t, want, step1, "a fully-saturated first step needs no second step")
			continue
		}

		step2, err := thread.CallFunction(step1, args[k:])
		require.NoError(t, err)
		require.Equal(t, want, step2, "split at k=%d must match the all-at-once result", k)
	}
}

// identity builds a 1-arity closure that just returns its argument,
// standing in for `fn x = x` the same way sum3 stands in for a
// compiled 3-argument sum.
func identity() *ClosureObj {
	fn := NewBytecodeFunction("identity", 1)
	fn.WriteOp(OP_PUSH, 0)
	fn.WriteU16(0, 0)
	fn.WriteOp(OP_RETURN, 0)
	return &ClosureObj{Function: fn}
}

// TestCallFunctionExcessArgumentsReapplyToResult covers the n > arity
// side of the same convention: calling identity with its one declared
// argument plus three more boxes the three excess arguments and
// reapplies them to whatever identity returns — here, the sum3
// closure passed as identity's own argument — so the net effect of one
// CallFunction call is identical to calling sum3 directly (spec §4.6
// "excess arguments box").
func TestCallFunctionExcessArgumentsReapplyToResult(t *testing.T) {
	thread := NewThread(nil, identity())

	result, err := thread.CallFunction(identity(), []Value{sum3(), VInt(1), VInt(20), VInt(300)})
	require.NoError(t, err)
	require.Equal(t, VInt(321), result)
}

// addExtern builds a 2-arity extern summing two Ints, so the same
// round-trip property can be checked against the Extern callable kind
// (spec §4.6 step 1 names "Closure/Function" together — an extern must
// partially apply and absorb excess arguments exactly like a closure).
func addExtern() *ExternObj {
	return &ExternObj{ID: "add", Arity: 2, Fn: func(_ *Thread, args []Value) (Value, error) {
		return args[0].(VInt) + args[1].(VInt), nil
	}}
}

// constExtern builds a 1-arity extern that ignores its argument and
// returns a fixed callable, for driving the extern excess path.
func constExtern(v Value) *ExternObj {
	return &ExternObj{ID: "const", Arity: 1, Fn: func(_ *Thread, _ []Value) (Value, error) {
		return v, nil
	}}
}

func TestExternRoundTripsAcrossPartialApplication(t *testing.T) {
	args := []Value{VInt(7), VInt(40)}
	want := VInt(47)

	for k := 0; k <= len(args); k++ {
		thread := NewThread(nil, identity())

		step1, err := thread.CallFunction(addExtern(), args[:k])
		require.NoError(t, err)

		if k < len(args) {
			partial, ok := step1.(*PartialAppObj)
			require.True(t, ok, "a sub-arity extern call must yield a PartialAppObj, got %T", step1)
			require.Len(t, partial.Arguments, k)
		} else {
			require.Equal(t, want, step1)
			continue
		}

		step2, err := thread.CallFunction(step1, args[k:])
		require.NoError(t, err)
		require.Equal(t, want, step2, "split at k=%d must match the all-at-once result", k)
	}
}

func TestExternExcessArgumentsReapplyToResult(t *testing.T) {
	thread := NewThread(nil, identity())

	// constExtern consumes one argument and returns the add extern; the
	// two excess Ints must be re-applied to that returned extern.
	result, err := thread.CallFunction(constExtern(addExtern()), []Value{VInt(0), VInt(7), VInt(40)})
	require.NoError(t, err)
	require.Equal(t, VInt(47), result)
}

// countdown builds a self-recursive `fn n = if n == 0 then n else
// countdown (n - 1)` entirely in tail position, capturing itself as
// upvar 0 — standing in for what internal/compiler emits for spec
// Scenario 4's `let rec loop n acc = ... loop (n-1) (acc+1)`, collapsed
// to one counter since only the stack-bound property is under test.
func countdown() *ClosureObj {
	fn := NewBytecodeFunction("countdown", 1)
	zero := fn.AddInt(0)
	one := fn.AddInt(1)

	fn.WriteOp(OP_PUSH, 0)
	fn.WriteU16(0, 0)
	fn.WriteOp(OP_PUSH_INT, 0)
	fn.WriteU16(zero, 0)
	fn.WriteOp(OP_INT_EQ, 0)
	fn.WriteOp(OP_CJUMP, 0)
	cjumpOperand := fn.Len()
	fn.WriteU16(0, 0)

	fn.WriteOp(OP_PUSH_UPVAR, 0)
	fn.WriteU16(0, 0)
	fn.WriteOp(OP_PUSH, 0)
	fn.WriteU16(0, 0)
	fn.WriteOp(OP_PUSH_INT, 0)
	fn.WriteU16(one, 0)
	fn.WriteOp(OP_SUB_INT, 0)
	fn.WriteOp(OP_TAIL_CALL, 0)
	fn.WriteU16(1, 0)

	fn.PatchU16(cjumpOperand, fn.Len())
	fn.WriteOp(OP_PUSH, 0)
	fn.WriteU16(0, 0)
	fn.WriteOp(OP_RETURN, 0)

	cl := &ClosureObj{Function: fn}
	cl.Upvars = []Value{cl}
	return cl
}

// TestTailCallStackBound is spec §8 testable property 7: a program
// consisting solely of tail calls must use stack space bounded by a
// constant, independent of call depth (Scenario 4's million-iteration
// loop). A frame-reuse bug that forgets to truncate the reused frame's
// old locals before installing the new ones leaks one value per
// iteration, which this checks for by asserting the operand stack's
// backing array never grows past its initial capacity across a
// hundred-thousand-deep tail-recursive countdown.
func TestTailCallStackBound(t *testing.T) {
	thread := NewThread(nil, countdown())
	initialCap := cap(thread.stack.values)

	result, err := thread.CallFunction(countdown(), []Value{VInt(100000)})
	require.NoError(t, err)
	require.Equal(t, VInt(0), result)
	require.Equal(t, 0, thread.stack.FrameDepth(), "the Lock sentinel is popped by CallFunction and nothing else should remain")
	require.LessOrEqual(t, cap(thread.stack.values), initialCap,
		"a tail-recursive loop must not grow the operand stack's backing array")
}
