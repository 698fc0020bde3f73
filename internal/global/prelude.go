package global

import (
	"github.com/rowlang/rowlang/internal/symbols"
	"github.com/rowlang/rowlang/internal/types"
	"github.com/rowlang/rowlang/internal/vm"
)

// RegisterPrelude publishes the handful of bindings every compiled
// program needs but that spec §1 places outside the parser/macro
// layer's scope: the Bool variant's two nullary constructors, and the
// typed arithmetic/comparison/string primitives spec §4.5's
// instruction table names (AddInt, FloatEQ, ByteLT, ...). It mirrors
// funxy's idempotent registerBuiltinsToPrelude (internal/analyzer/
// builtins.go: "registers the types of built-in functions into the
// prelude symbol table"), adapted from that package's single shared
// symbol table to this project's Env.
//
// Each primitive is bound to a real ExternObj here so it behaves like
// any other function when passed around as a value (partial
// application, higher-order use); internal/compiler separately
// recognizes a saturated call to one of these exact global names and
// emits the matching single opcode instead of the ordinary Call
// dispatch (spec §9 "Implementers may inline the common case"), so
// the ExternObj path is only actually reached when a primitive escapes
// direct application.
func RegisterPrelude(e *Env, in *symbols.Interner) {
	registerBool(e, in)
	registerArithmetic(e, in)
}

func registerBool(e *Env, in *symbols.Interner) {
	boolType := types.BoolVariant(in)
	falseTag := e.DefineTag("False")
	trueTag := e.DefineTag("True")
	e.Define("False", boolType, vm.VTag{ID: falseTag}, Metadata{Builtin: true, Doc: "the False constructor of Bool"})
	e.Define("True", boolType, vm.VTag{ID: trueTag}, Metadata{Builtin: true, Doc: "the True constructor of Bool"})
}

func vBool(b bool) vm.Value {
	if b {
		return vm.VTag{ID: 1}
	}
	return vm.VTag{ID: 0}
}

func binInt(op func(a, b int64) int64) vm.ExternFn {
	return func(_ *vm.Thread, args []vm.Value) (vm.Value, error) {
		a, b := args[0].(vm.VInt), args[1].(vm.VInt)
		return vm.VInt(op(int64(a), int64(b))), nil
	}
}

func cmpInt(op func(a, b int64) bool) vm.ExternFn {
	return func(_ *vm.Thread, args []vm.Value) (vm.Value, error) {
		a, b := args[0].(vm.VInt), args[1].(vm.VInt)
		return vBool(op(int64(a), int64(b))), nil
	}
}

func binFloat(op func(a, b float64) float64) vm.ExternFn {
	return func(_ *vm.Thread, args []vm.Value) (vm.Value, error) {
		a, b := args[0].(vm.VFloat), args[1].(vm.VFloat)
		return vm.VFloat(op(float64(a), float64(b))), nil
	}
}

func cmpFloat(op func(a, b float64) bool) vm.ExternFn {
	return func(_ *vm.Thread, args []vm.Value) (vm.Value, error) {
		a, b := args[0].(vm.VFloat), args[1].(vm.VFloat)
		return vBool(op(float64(a), float64(b))), nil
	}
}

func cmpByte(op func(a, b byte) bool) vm.ExternFn {
	return func(_ *vm.Thread, args []vm.Value) (vm.Value, error) {
		a, b := args[0].(vm.VByte), args[1].(vm.VByte)
		return vBool(op(byte(a), byte(b))), nil
	}
}

// registerArithmetic installs the Int-default / Float-dotted-suffix
// operator naming convention (spec §9 Open Question: the source
// doesn't fix operator surface names; this project follows the
// ML-family convention of a bare, unsuffixed operator for the default
// numeric type — Int, matching scenario 4's bare `n - 1`/`acc + 1`/
// `n == 0` — and a `.`-suffixed sibling for Float) plus the
// type-specific equality/ordering primitives spec §4.5's instruction
// table gives Byte/Char/String but no infix sugar.
func registerArithmetic(e *Env, in *symbols.Interner) {
	boolType := types.BoolVariant(in)
	intT := types.Builtin(types.TagInt)
	floatT := types.Builtin(types.TagFloat)
	byteT := types.Builtin(types.TagByte)
	charT := types.Builtin(types.TagChar)
	stringT := types.Builtin(types.TagString)

	binaryIntT := types.Curry([]types.Type{intT, intT}, intT)
	cmpIntT := types.Curry([]types.Type{intT, intT}, boolType)
	unaryIntT := types.Curry([]types.Type{intT}, intT)

	binaryFloatT := types.Curry([]types.Type{floatT, floatT}, floatT)
	cmpFloatT := types.Curry([]types.Type{floatT, floatT}, boolType)
	unaryFloatT := types.Curry([]types.Type{floatT}, floatT)

	cmpByteT := types.Curry([]types.Type{byteT, byteT}, boolType)
	cmpCharT := types.Curry([]types.Type{charT, charT}, boolType)
	cmpStringT := types.Curry([]types.Type{stringT, stringT}, boolType)
	concatStringT := types.Curry([]types.Type{stringT, stringT}, stringT)

	register := func(name string, typ types.Type, arity int, fn vm.ExternFn) {
		e.RegisterExtern(name, typ, arity, fn)
	}

	register("+", binaryIntT, 2, binInt(func(a, b int64) int64 { return a + b }))
	register("-", binaryIntT, 2, binInt(func(a, b int64) int64 { return a - b }))
	register("*", binaryIntT, 2, binInt(func(a, b int64) int64 { return a * b }))
	register("/", binaryIntT, 2, binInt(func(a, b int64) int64 { return a / b }))
	register("%", binaryIntT, 2, binInt(func(a, b int64) int64 { return a % b }))
	register("~-", unaryIntT, 1, func(_ *vm.Thread, args []vm.Value) (vm.Value, error) {
		return -args[0].(vm.VInt), nil
	})
	register("==", cmpIntT, 2, cmpInt(func(a, b int64) bool { return a == b }))
	register("<", cmpIntT, 2, cmpInt(func(a, b int64) bool { return a < b }))
	register("<=", cmpIntT, 2, cmpInt(func(a, b int64) bool { return a <= b }))
	register(">", cmpIntT, 2, cmpInt(func(a, b int64) bool { return a > b }))
	register(">=", cmpIntT, 2, cmpInt(func(a, b int64) bool { return a >= b }))

	register("+.", binaryFloatT, 2, binFloat(func(a, b float64) float64 { return a + b }))
	register("-.", binaryFloatT, 2, binFloat(func(a, b float64) float64 { return a - b }))
	register("*.", binaryFloatT, 2, binFloat(func(a, b float64) float64 { return a * b }))
	register("/.", binaryFloatT, 2, binFloat(func(a, b float64) float64 { return a / b }))
	register("~-.", unaryFloatT, 1, func(_ *vm.Thread, args []vm.Value) (vm.Value, error) {
		return -args[0].(vm.VFloat), nil
	})
	register("==.", cmpFloatT, 2, cmpFloat(func(a, b float64) bool { return a == b }))
	register("<.", cmpFloatT, 2, cmpFloat(func(a, b float64) bool { return a < b }))
	register("<=.", cmpFloatT, 2, cmpFloat(func(a, b float64) bool { return a <= b }))
	register(">.", cmpFloatT, 2, cmpFloat(func(a, b float64) bool { return a > b }))
	register(">=.", cmpFloatT, 2, cmpFloat(func(a, b float64) bool { return a >= b }))

	register("byteEq", cmpByteT, 2, cmpByte(func(a, b byte) bool { return a == b }))
	register("byteLt", cmpByteT, 2, cmpByte(func(a, b byte) bool { return a < b }))
	register("byteLe", cmpByteT, 2, cmpByte(func(a, b byte) bool { return a <= b }))
	register("byteGt", cmpByteT, 2, cmpByte(func(a, b byte) bool { return a > b }))
	register("byteGe", cmpByteT, 2, cmpByte(func(a, b byte) bool { return a >= b }))

	register("charEq", cmpCharT, 2, func(_ *vm.Thread, args []vm.Value) (vm.Value, error) {
		a, b := args[0].(vm.VChar), args[1].(vm.VChar)
		return vBool(a == b), nil
	})
	register("stringEq", cmpStringT, 2, func(_ *vm.Thread, args []vm.Value) (vm.Value, error) {
		a, b := args[0].(*vm.StringObj), args[1].(*vm.StringObj)
		return vBool(a.Data == b.Data), nil
	})
	register("++", concatStringT, 2, func(t *vm.Thread, args []vm.Value) (vm.Value, error) {
		a, b := args[0].(*vm.StringObj), args[1].(*vm.StringObj)
		obj := &vm.StringObj{Data: a.Data + b.Data}
		t.Track(obj)
		return obj, nil
	})
}
