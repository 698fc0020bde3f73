package compiler

import (
	"github.com/rowlang/rowlang/internal/ast"
	"github.com/rowlang/rowlang/internal/vm"
)

// primOp records the opcode a saturated call to a known prelude
// primitive (internal/global's RegisterPrelude) compiles down to
// instead of the ordinary PushGlobal+Call dispatch (spec §4.5's typed
// arithmetic/comparison instructions; spec §9 "Implementers may inline
// the common case [...] to avoid the allocation" — here, to avoid the
// closure-call dispatch entirely for the handful of primitives that
// are always saturated at their use site).
type primOp struct {
	op    vm.Opcode
	arity int
}

// primitiveOps maps a primitive's unqualified global name to its
// opcode and arity. Int gets the bare, unsuffixed operator names
// (matching spec scenario 4's bare `n - 1`/`acc + 1`/`n == 0`); Float
// gets a `.`-suffixed sibling, the conventional ML-family split
// between a default numeric type's operators and every other
// numeric type's (see DESIGN.md's operator-naming Open Question
// decision).
var primitiveOps = map[string]primOp{
	"+": {vm.OP_ADD_INT, 2}, "-": {vm.OP_SUB_INT, 2}, "*": {vm.OP_MUL_INT, 2},
	"/": {vm.OP_DIV_INT, 2}, "%": {vm.OP_MOD_INT, 2}, "~-": {vm.OP_NEG_INT, 1},
	"==": {vm.OP_INT_EQ, 2}, "<": {vm.OP_INT_LT, 2}, "<=": {vm.OP_INT_LE, 2},
	">": {vm.OP_INT_GT, 2}, ">=": {vm.OP_INT_GE, 2},

	"+.": {vm.OP_ADD_FLOAT, 2}, "-.": {vm.OP_SUB_FLOAT, 2}, "*.": {vm.OP_MUL_FLOAT, 2},
	"/.": {vm.OP_DIV_FLOAT, 2}, "~-.": {vm.OP_NEG_FLOAT, 1},
	"==.": {vm.OP_FLOAT_EQ, 2}, "<.": {vm.OP_FLOAT_LT, 2}, "<=.": {vm.OP_FLOAT_LE, 2},
	">.": {vm.OP_FLOAT_GT, 2}, ">=.": {vm.OP_FLOAT_GE, 2},

	"byteEq": {vm.OP_BYTE_EQ, 2}, "byteLt": {vm.OP_BYTE_LT, 2}, "byteLe": {vm.OP_BYTE_LE, 2},
	"byteGt": {vm.OP_BYTE_GT, 2}, "byteGe": {vm.OP_BYTE_GE, 2},

	"charEq":   {vm.OP_CHAR_EQ, 2},
	"stringEq": {vm.OP_STRING_EQ, 2},
	"++":       {vm.OP_STRING_CONCAT, 2},
}

// compilePrimitiveCall emits the single opcode primitiveOps names for
// a saturated application of callee to args, or reports ok=false if
// callee/args don't match a known primitive exactly — in which case
// the caller falls back to the ordinary PushGlobal+Call path (so using
// one of these names as a first-class value, or partially applying
// it, still goes through internal/global's ExternObj fallback).
func (c *Compiler) compilePrimitiveCall(callee ast.Expr, args []ast.Expr) (bool, error) {
	v, ok := callee.(*ast.Var)
	if !ok {
		return false, nil
	}
	// A primitive name can be shadowed by a local binding or upvar;
	// only the unshadowed global resolves to the fast path.
	if _, ok := c.resolveLocal(v.Name); ok {
		return false, nil
	}
	if _, ok := c.resolveUpvar(v.Name); ok {
		return false, nil
	}
	prim, ok := primitiveOps[v.Name.String()]
	if !ok || prim.arity != len(args) {
		return false, nil
	}
	for _, a := range args {
		if err := c.compileExpr(a, false); err != nil {
			return true, err
		}
	}
	c.emit(prim.op, callee.Span().StartLine)
	return true, nil
}
