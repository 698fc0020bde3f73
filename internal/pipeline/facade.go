package pipeline

import (
	"fmt"

	"github.com/rowlang/rowlang/internal/ast"
	"github.com/rowlang/rowlang/internal/check"
	"github.com/rowlang/rowlang/internal/compiler"
	"github.com/rowlang/rowlang/internal/global"
	"github.com/rowlang/rowlang/internal/symbols"
	"github.com/rowlang/rowlang/internal/types"
	"github.com/rowlang/rowlang/internal/vm"
)

// Pipeline owns one shared global environment and the id/symbol
// tables every Check/Run call against it draws fresh type variables
// and interned names from (spec §4.9's "global environment every
// compiled module links against").
type Pipeline struct {
	IDs      *types.IDGen
	Interner *symbols.Interner
	Env      *global.Env
}

// New creates a pipeline over a fresh global environment pre-seeded
// with the Bool constructors and typed arithmetic/comparison/string
// primitives every compiled program needs (spec §1's "out of scope"
// list leaves no room for a parser-level prelude to supply these, so
// the façade publishes them directly — see internal/global.RegisterPrelude).
func New() *Pipeline {
	interner := symbols.NewInterner()
	env := global.New()
	global.RegisterPrelude(env, interner)
	return &Pipeline{
		IDs:      &types.IDGen{},
		Interner: interner,
		Env:      env,
	}
}

// Run type-checks, compiles, links and executes prog against p's
// shared environment, in declaration order: each top-level `let`/`let
// rec` binding's value is compiled into its own thunk, linked against
// whatever the environment already knows, run once, and its resulting
// value published back into the environment under its name — so a
// later declaration's OP_PUSH_GLOBAL resolves to a real value rather
// than a placeholder (spec §4.9 "parse -> typecheck -> compile -> link
// -> run"). Run returns the value of the final declaration evaluated
// (a trailing `let`'s value, or a `let rec` group's last binding).
func (p *Pipeline) Run(prog *ast.Program) (vm.Value, *check.Checker, error) {
	c := check.New(p.IDs, p.Interner, p.Env)
	c.CheckProgram(prog)
	c.Finalize()
	if len(c.Errors) > 0 {
		return nil, c, fmt.Errorf("pipeline: %d type error(s), first: %w", len(c.Errors), c.Errors[0])
	}

	if err := p.publishConstructors(c); err != nil {
		return nil, c, err
	}

	var last vm.Value
	for _, d := range prog.Decls {
		switch n := d.(type) {
		case *ast.TypeBinding:
			// constructors already published above; nothing else to run
		case *ast.Let:
			v, err := p.runBinding(c, n.Name, n.Value)
			if err != nil {
				return nil, c, err
			}
			last = v
		case *ast.LetRec:
			for _, b := range n.Bindings {
				v, err := p.runBinding(c, b.Name, b.Value)
				if err != nil {
					return nil, c, err
				}
				last = v
			}
		}
	}
	return last, c, nil
}

// runBinding reserves name's global slot before compiling value (so a
// self- or mutually-recursive reference inside value links against its
// own binding rather than failing to resolve), compiles value as a
// zero-argument thunk, links it, runs it to completion on a fresh
// thread, and publishes the result back under name so later
// declarations see a real value rather than the placeholder (spec
// §4.9 "publishing new globals", scenario 4's self-recursive `let rec
// loop`).
func (p *Pipeline) runBinding(c *check.Checker, name symbols.Symbol, value ast.Expr) (vm.Value, error) {
	typ, _ := c.GlobalType(name)
	p.Env.Define(name.String(), typ, vm.VTag{}, global.Metadata{})

	fn, err := compiler.CompileFunction(name.String(), nil, value, c)
	if err != nil {
		return nil, fmt.Errorf("pipeline: compile %s: %w", name.String(), err)
	}
	if err := Link(fn, p.Env.SlotOf, p.Env.TagOf); err != nil {
		return nil, err
	}

	v, err := p.eval(fn)
	if err != nil {
		return nil, fmt.Errorf("pipeline: run %s: %w", name.String(), err)
	}
	if err := p.Env.SetValue(name.String(), v); err != nil {
		return nil, err
	}
	return v, nil
}

// eval runs a zero-argument compiled thunk to completion on a fresh
// thread over p.Env's current published globals.
func (p *Pipeline) eval(fn *vm.BytecodeFunction) (vm.Value, error) {
	thread := vm.NewThread(nil, &vm.ClosureObj{Function: fn})
	thread.SetGlobals(p.Env.Values())
	return thread.Resume(nil)
}

// publishConstructors materializes every variant constructor the
// checker registered while checking prog into p.Env, in declaration
// order (spec §4.5 "variant constructors receive tags in declaration
// order"): a nullary constructor becomes a bare VTag immediate exactly
// like the builtin Bool encoding; an arity>0 constructor becomes a
// real ClosureObj over a tiny synthesized function, so it goes through
// the ordinary exact/partial/excess calling convention without an
// extern round trip per construction.
func (p *Pipeline) publishConstructors(c *check.Checker) error {
	for _, name := range c.ConstructorNames() {
		tag := p.Env.DefineTag(name.String())
		arity, fnType, ok := c.ConstructorInfo(name)
		if !ok {
			return fmt.Errorf("pipeline: constructor %s missing from checker", name.String())
		}
		p.Env.Define(name.String(), fnType, constructorValue(tag, arity), global.Metadata{Builtin: true})
	}
	return nil
}

// constructorValue builds the runtime value bound to a variant
// constructor's name (spec §4.5's Data/Tag encoding, internal/vm's
// value.go doc comment: "A Data with arity 0 is represented as Tag(n),
// not as a heap-allocated Data").
func constructorValue(tag uint32, arity int) vm.Value {
	if arity == 0 {
		return vm.VTag{ID: tag}
	}
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
