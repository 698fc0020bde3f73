// Package hostext is the worked example of the public registration
// interface spec §1/§6 carve out for "bindings to host facilities
// (regex, random, filesystem, RPC)": every binding here goes through
// internal/global.Env's ordinary RegisterExtern/RegisterType surface,
// the same surface an embedder would use, rather than reaching into
// the VM or compiler. Nothing in internal/check, internal/compiler or
// internal/vm imports this package or the libraries it wires
// (grpc/protobuf/protoreflect/uuid/yaml/isatty/funbit/sqlite) — the
// core triad stays embeddable without pulling in an RPC or database
// stack.
//
// A niladic-looking host facility (`uuid.v4`, `io.isTerminal`) is
// still registered at arity 1 over an explicit Unit argument:
// internal/ast's App node is always single-argument (multi-argument
// calls are nested Apps over a curried Function chain), so there is no
// surface syntax for a literal zero-argument call site — a caller
// writes `uuid.v4 {}`, not `uuid.v4 ()`.
package hostext

import (
	"fmt"

	"github.com/rowlang/rowlang/internal/global"
	"github.com/rowlang/rowlang/internal/symbols"
	"github.com/rowlang/rowlang/internal/vm"
)

// RegisterAll wires every hostext binding into e. Callers that only
// want a subset (say, an embedding that never dials RPC) call the
// individual Register* functions directly instead.
func RegisterAll(e *global.Env, in *symbols.Interner) {
	RegisterUUID(e)
	RegisterYAML(e, in)
	RegisterTTY(e, in)
	RegisterRPC(e, in)
	RegisterBits(e)
}

// constructorValue builds the runtime value bound to an arity>0
// constructor name: a tiny synthesized BytecodeFunction that pushes
// each of its arguments and constructs a Data with tag, so it goes
// through the ordinary Closure calling convention (partial
// application included) instead of ExternObj's — identical in shape to
// internal/pipeline's own constructorValue, which publishes
// checker-declared variant constructors the same way.
func constructorValue(tag uint32, arity int) vm.Value {
	fn := vm.NewBytecodeFunction(fmt.Sprintf("<ctor:%d>", tag), arity)
	for i := 0; i < arity; i++ {
		fn.WriteOp(vm.OP_PUSH, 0)
		fn.WriteU16(i, 0)
	}
	fn.WriteOp(vm.OP_CONSTRUCT, 0)
	fn.WriteU16(int(tag), 0)
	fn.WriteU16(arity, 0)
	fn.WriteOp(vm.OP_RETURN, 0)
	return &vm.ClosureObj{Function: fn}
}
