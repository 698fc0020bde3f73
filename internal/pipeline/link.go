// Package pipeline implements C12, the façade that drives the whole
// parse -> typecheck -> compile -> link -> run pipeline (spec §4.9)
// over a shared global environment: Link resolves the two kinds of
// placeholder operand internal/compiler leaves behind (a module-local
// global index and a module-local string-table index standing in for
// a constructor tag), and Pipeline ties internal/check, internal/compiler
// and internal/vm together around one internal/global.Env.
package pipeline

import (
	"fmt"

	"github.com/rowlang/rowlang/internal/vm"
)

// Link rewrites every OP_PUSH_GLOBAL and OP_TEST_TAG operand in fn,
// and recursively in every function fn.Inner nests, from the
// compiler's module-local placeholder (an index into fn.Globals or
// fn.Strings) to the real value globalSlot/tagOf resolve it to against
// the shared environment (spec §4.5 "resolved to a real ... id by the
// linker (C11)", §3 "module_globals ... deferred until linking").
func Link(fn *vm.BytecodeFunction, globalSlot func(name string) (int, bool), tagOf func(name string) (uint32, bool)) error {
	pc := 0
	for pc < len(fn.Code) {
		op := vm.Opcode(fn.Code[pc])
		pc++
		switch op {
		case vm.OP_PUSH_GLOBAL:
			name := fn.Globals[fn.ReadU16(pc)]
			slot, ok := globalSlot(name)
			if !ok {
				return fmt.Errorf("pipeline: link %s: undefined global %q", fn.Name, name)
			}
			fn.PatchU16(pc, slot)
		case vm.OP_TEST_TAG:
			name := fn.Strings[fn.ReadU16(pc)]
			tag, ok := tagOf(name)
			if !ok {
				return fmt.Errorf("pipeline: link %s: undefined constructor %q", fn.Name, name)
			}
			fn.PatchU16(pc, int(tag))
		}
		pc += op.OperandBytes()
	}
	for _, inner := range fn.Inner {
		if err := Link(inner, globalSlot, tagOf); err != nil {
			return err
		}
	}
	return nil
}
