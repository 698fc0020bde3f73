// Command rowlang is the thin CLI façade spec.md §6 names: `run
// <file>`, `check <file>`, `repl`, dispatched by a plain os.Args
// switch in the teacher's own style (cmd/funxy/main.go never reaches
// for the flag package either — it walks os.Args by hand per
// subcommand). It is deliberately non-core: this module never parses
// source text (internal/ast's doc comment — "the parser that produces
// these nodes is out of scope"), so `<file>` here names a precompiled
// bytecode artifact produced by internal/compiler.Serialize, not
// rowlang source. An embedder with a real front end drives
// internal/pipeline directly instead of going through this binary.
package main

import (
	"fmt"
	"os"

	"github.com/rowlang/rowlang/internal/compiler"
	"github.com/rowlang/rowlang/internal/global"
	"github.com/rowlang/rowlang/internal/hostext"
	"github.com/rowlang/rowlang/internal/symbols"
	"github.com/rowlang/rowlang/internal/vm"
)

// Exit codes per spec.md §6.
const (
	exitOK         = 0
	exitCompileErr = 1
	exitRuntimeErr = 2
	exitUsageErr   = 3
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		usage()
		return exitUsageErr
	}
	switch args[0] {
	case "run":
		if len(args) != 2 {
			usage()
			return exitUsageErr
		}
		return runFile(args[1])
	case "check":
		if len(args) != 2 {
			usage()
			return exitUsageErr
		}
		return checkFile(args[1])
	case "repl":
		return repl()
	default:
		usage()
		return exitUsageErr
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s run <bytecode-file> | check <bytecode-file> | repl\n", os.Args[0])
}

// checkFile decodes a precompiled bytecode artifact without running
// it. There is no source text for this build to type-check (no
// lexer/parser), so the only verification left on this side of the
// pipeline is that the artifact's tagged tree decodes cleanly — a
// malformed or truncated artifact is reported the same way spec.md
// §6 reports a compilation error.
func checkFile(path string) int {
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitCompileErr
	}
	defer f.Close()

	if _, err := compiler.Deserialize(f); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitCompileErr
	}
	fmt.Printf("%s: ok\n", path)
	return exitOK
}

// runFile decodes a precompiled bytecode artifact, links it against a
// fresh environment carrying the typed-arithmetic prelude and every
// internal/hostext binding, then runs it to completion on a new
// thread — the same check→publish→link→run shape
// internal/pipeline.Pipeline.Run follows for a declaration's thunk,
// collapsed to a single already-compiled entry point since there is no
// ast.Program here to walk declaration by declaration.
func runFile(path string) int {
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitCompileErr
	}
	fn, err := compiler.Deserialize(f)
	f.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitCompileErr
	}

	interner := symbols.NewInterner()
	env := global.New()
	global.RegisterPrelude(env, interner)
	hostext.RegisterAll(env, interner)

	if err := linkAgainst(fn, env); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitCompileErr
	}

	thread := vm.NewThread(nil, &vm.ClosureObj{Function: fn})
	thread.SetGlobals(env.Values())
	result, err := thread.Resume(nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitRuntimeErr
	}
	fmt.Println(describe(result))
	return exitOK
}

// linkAgainst resolves fn's deferred global/tag placeholders against
// env, the same two lookups internal/pipeline.Link performs, named
// locally so this command does not need to import internal/pipeline
// just for its Link function's two callback signatures.
func linkAgainst(fn *vm.BytecodeFunction, env *global.Env) error {
	return linkRec(fn, env.SlotOf, env.TagOf)
}

func linkRec(fn *vm.BytecodeFunction, slotOf func(string) (int, bool), tagOf func(string) (uint32, bool)) error {
	pc := 0
	for pc < len(fn.Code) {
		op := vm.Opcode(fn.Code[pc])
		pc++
		switch op {
		case vm.OP_PUSH_GLOBAL:
			name := fn.Globals[fn.ReadU16(pc)]
			slot, ok := slotOf(name)
			if !ok {
				return fmt.Errorf("rowlang: link %s: undefined global %q", fn.Name, name)
			}
			fn.PatchU16(pc, slot)
		case vm.OP_TEST_TAG:
			name := fn.Strings[fn.ReadU16(pc)]
			tag, ok := tagOf(name)
			if !ok {
				return fmt.Errorf("rowlang: link %s: undefined constructor %q", fn.Name, name)
			}
			fn.PatchU16(pc, int(tag))
		}
		pc += op.OperandBytes()
	}
	for _, inner := range fn.Inner {
		if err := linkRec(inner, slotOf, tagOf); err != nil {
			return err
		}
	}
	return nil
}

// describe renders a top-level result value for the terminal. It only
// needs to handle the handful of shapes a program's final expression
// plausibly returns; it is not a general pretty printer (out of scope
// per spec.md §1).
func describe(v vm.Value) string {
	switch x := v.(type) {
	case nil:
		return "()"
	case vm.VInt:
		return fmt.Sprintf("%d", int64(x))
	case vm.VFloat:
		return fmt.Sprintf("%g", float64(x))
	case vm.VTag:
		return fmt.Sprintf("<tag %d>", x.ID)
	case *vm.StringObj:
		return x.Data
	default:
		return fmt.Sprintf("%v", x)
	}
}

// repl reports that this build carries no lexer/parser to drive an
// interactive loop with (spec.md §1's own out-of-scope list), rather
// than silently accepting input it cannot evaluate. An embedder that
// wants an interactive frontend parses its own input and drives
// internal/pipeline.Pipeline.Run per line.
func repl() int {
	fmt.Fprintln(os.Stderr, "rowlang: repl requires a source-text front end; this build only runs precompiled bytecode artifacts")
	return exitUsageErr
}
