package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// gcChurningCountdown builds a self-recursive `fn n = if n == 0 then n
// else (let _ = Tag0(n) in countdown (n - 1))` — like countdown in
// calling_convention_test.go, but each iteration also allocates and
// immediately discards a throwaway *DataObj via OP_CONSTRUCT/OP_POP, so
// running it exercises the interpreter loop's own allocation sites (not
// just hand-called Gc.Track, as gc_test.go does) and gives Collect real
// garbage to sweep.
func gcChurningCountdown() *ClosureObj {
	fn := NewBytecodeFunction("gcChurningCountdown", 1)
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

	fn.WriteOp(OP_PUSH, 0)
	fn.WriteU16(0, 0)
	fn.WriteOp(OP_CONSTRUCT, 0)
	fn.WriteU16(0, 0) // tag
	fn.WriteU16(1, 0) // argc
	fn.WriteOp(OP_POP, 0)
	fn.WriteU16(1, 0)

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

// TestGCTracksAndSweepsRuntimeAllocations is spec §4.7's "alloc_and_collect
// runs a collection before allocation" and §8.5's tracing-GC property,
// exercised end to end: a long-running loop whose every iteration
// allocates a DataObj that becomes unreachable the instant it's
// discarded. If nothing ever called Collect, the Gc's intrusive
// allocation list would carry every one of the loop's iterations by the
// end, since nothing would ever have swept the dead ones. A missing
// Gc.Track at OP_CONSTRUCT would leave the list empty instead, which
// this assertion does not tell apart from a working collector.
func TestGCTracksAndSweepsRuntimeAllocations(t *testing.T) {
	thread := NewThread(nil, gcChurningCountdown())
	const iterations = 200000

	result, err := thread.CallFunction(gcChurningCountdown(), []Value{VInt(iterations)})
	require.NoError(t, err)
	require.Equal(t, VInt(0), result)

	survivors := 0
	for o := thread.gc.head; o != nil; o = o.header().next {
		survivors++
	}
	require.Less(t, survivors, iterations,
		"a GC cycle must have run and swept allocations that were already unreachable")
}
