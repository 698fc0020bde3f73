// Package compiler implements C6: it lowers the checked, implicit-
// elaborated AST into the bytecode internal/vm executes. It imports
// internal/vm for Opcode/BytecodeFunction but is never imported back,
// keeping the dependency one-directional (see internal/vm's package
// doc for why opcodes themselves live in vm rather than here).
package compiler

import (
	"fmt"

	"github.com/rowlang/rowlang/internal/ast"
	"github.com/rowlang/rowlang/internal/symbols"
	"github.com/rowlang/rowlang/internal/types"
	"github.com/rowlang/rowlang/internal/vm"
)

// TypeInfo resolves the type the checker (C5) assigned to an
// expression, letting the compiler pick GetOffset (monomorphic) over
// GetField (polymorphic) whenever a record's row is closed.
type TypeInfo interface {
	TypeOf(e ast.Expr) types.Type
}

type localBinding struct {
	Name symbols.Symbol
	Slot int
}

// upvalueRef is one entry in a function's free-variable capture list:
// either the Index'th local of the immediately enclosing function, or
// that function's own Index'th upvalue (spec §4.2 "closure conversion"
// — grounded on funxy's Upvalue{Index, IsLocal} in internal/vm/
// compiler.go, generalized here to a purely-functional, capture-by-
// value scheme since this language has no mutable closed-over cells).
type upvalueRef struct {
	FromLocal bool
	Index     int
}

// Compiler holds the state for compiling one function body; nested
// Lambdas get their own Compiler chained via enclosing. depth models
// the operand stack's height above the frame base at the current
// emission point, so that locals bound mid-expression (a let or match
// in argument position sits above transient operands no binding
// accounts for) still get their true frame-relative slot.
type Compiler struct {
	fn        *vm.BytecodeFunction
	enclosing *Compiler
	locals    []localBinding
	upvars    []upvalueRef
	ti        TypeInfo
	depth     int
	maxDepth  int
}

func newCompiler(name string, arity int, enclosing *Compiler, ti TypeInfo) *Compiler {
	return &Compiler{
		fn:        vm.NewBytecodeFunction(name, arity),
		enclosing: enclosing,
		ti:        ti,
	}
}

// bindParam registers the next parameter slot; arguments occupy
// base..base+arity-1 before the body runs (spec §3 "Stack").
func (c *Compiler) bindParam(name symbols.Symbol) {
	c.locals = append(c.locals, localBinding{Name: name, Slot: c.depth})
	c.note(1)
}

// addLocal binds the value currently on top of the stack to name.
func (c *Compiler) addLocal(name symbols.Symbol) int {
	slot := c.depth - 1
	c.locals = append(c.locals, localBinding{Name: name, Slot: slot})
	return slot
}

func (c *Compiler) resolveLocal(name symbols.Symbol) (int, bool) {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].Name == name {
			return c.locals[i].Slot, true
		}
	}
	return 0, false
}

// resolveUpvar finds name in an enclosing function and threads a
// capture entry through every intervening function, returning this
// function's upvalue index for it.
func (c *Compiler) resolveUpvar(name symbols.Symbol) (int, bool) {
	if c.enclosing == nil {
		return 0, false
	}
	if slot, ok := c.enclosing.resolveLocal(name); ok {
		return c.addUpvalue(upvalueRef{FromLocal: true, Index: slot}), true
	}
	if idx, ok := c.enclosing.resolveUpvar(name); ok {
		return c.addUpvalue(upvalueRef{FromLocal: false, Index: idx}), true
	}
	return 0, false
}

func (c *Compiler) addUpvalue(ref upvalueRef) int {
	for i, existing := range c.upvars {
		if existing == ref {
			return i
		}
	}
	c.upvars = append(c.upvars, ref)
	return len(c.upvars) - 1
}

// CompileFunction compiles a lambda body (or a top-level thunk with no
// params) into a standalone BytecodeFunction.
func CompileFunction(name string, params []ast.Param, body ast.Expr, ti TypeInfo) (*vm.BytecodeFunction, error) {
	c := newCompiler(name, len(params), nil, ti)
	for _, p := range params {
		c.bindParam(p.Name)
	}
	if err := c.compileExpr(body, true); err != nil {
		return nil, err
	}
	c.emit(vm.OP_RETURN, 0)
	c.fn.FreeVars = 0
	c.fn.MaxStack = c.maxDepth
	return c.fn, nil
}

func (c *Compiler) note(effect int) {
	c.depth += effect
	if c.depth > c.maxDepth {
		c.maxDepth = c.depth
	}
}

func (c *Compiler) emit(op vm.Opcode, line int) {
	c.fn.WriteOp(op, line)
	c.note(stackEffect(op, 0, 0))
}

func (c *Compiler) emitU16(op vm.Opcode, n int, line int) {
	c.fn.WriteOp(op, line)
	c.fn.WriteU16(n, line)
	c.note(stackEffect(op, n, 0))
}

func (c *Compiler) emitU16x2(op vm.Opcode, a, b int, line int) {
	c.fn.WriteOp(op, line)
	c.fn.WriteU16(a, line)
	c.fn.WriteU16(b, line)
	c.note(stackEffect(op, a, b))
}

// stackEffect is an instruction's net operand-stack change in terms of
// its decoded operands (a first, b second). OP_SPLIT counts only the
// Data it pops; the fields it pushes are accounted at the emission
// site, where the pattern's arity is known.
func stackEffect(op vm.Opcode, a, b int) int {
	switch op {
	case vm.OP_PUSH, vm.OP_PUSH_INT, vm.OP_PUSH_BYTE, vm.OP_PUSH_FLOAT,
		vm.OP_PUSH_STRING, vm.OP_PUSH_CHAR, vm.OP_PUSH_GLOBAL,
		vm.OP_PUSH_UPVAR, vm.OP_NEW_CLOSURE:
		return 1
	case vm.OP_CALL, vm.OP_TAIL_CALL, vm.OP_POP, vm.OP_SLIDE:
		return -a
	case vm.OP_CONSTRUCT, vm.OP_CONSTRUCT_RECORD, vm.OP_MAKE_CLOSURE:
		return 1 - b
	case vm.OP_CONSTRUCT_ARRAY:
		return 1 - a
	case vm.OP_CLOSE_CLOSURE:
		return -b
	case vm.OP_CJUMP, vm.OP_SPLIT:
		return -1
	case vm.OP_ADD_INT, vm.OP_SUB_INT, vm.OP_MUL_INT, vm.OP_DIV_INT, vm.OP_MOD_INT,
		vm.OP_INT_EQ, vm.OP_INT_LT, vm.OP_INT_LE, vm.OP_INT_GT, vm.OP_INT_GE,
		vm.OP_ADD_FLOAT, vm.OP_SUB_FLOAT, vm.OP_MUL_FLOAT, vm.OP_DIV_FLOAT,
		vm.OP_FLOAT_EQ, vm.OP_FLOAT_LT, vm.OP_FLOAT_LE, vm.OP_FLOAT_GT, vm.OP_FLOAT_GE,
		vm.OP_BYTE_EQ, vm.OP_BYTE_LT, vm.OP_BYTE_LE, vm.OP_BYTE_GT, vm.OP_BYTE_GE,
		vm.OP_CHAR_EQ, vm.OP_STRING_EQ, vm.OP_STRING_CONCAT:
		return -1
	default:
		// NegInt/NegFloat, GetField/GetOffset, TestTag, Jump, Return,
		// PanicNonExhaustive: net zero (or frame-terminating).
		return 0
	}
}

func line(s ast.Expr) int { return s.Span().StartLine }

// compileExpr compiles e, leaving exactly one value on the stack. tail
// reports whether e is in tail position (its result is the enclosing
// function's return value), letting App compile a TailCall instead of
// Call.
func (c *Compiler) compileExpr(e ast.Expr, tail bool) error {
	ln := line(e)
	switch n := e.(type) {
	case *ast.IntLit:
		c.emitU16(vm.OP_PUSH_INT, c.fn.AddInt(n.Value), ln)
	case *ast.FloatLit:
		c.emitU16(vm.OP_PUSH_FLOAT, c.fn.AddFloat(n.Value), ln)
	case *ast.ByteLit:
		c.emitU16(vm.OP_PUSH_BYTE, int(n.Value), ln)
	case *ast.CharLit:
		c.emitU16(vm.OP_PUSH_CHAR, int(n.Value), ln)
	case *ast.StringLit:
		c.emitU16(vm.OP_PUSH_STRING, c.fn.AddString(n.Value), ln)

	case *ast.Var:
		return c.compileVar(n)

	case *ast.Lambda:
		return c.compileLambda(n)

	case *ast.App:
		return c.compileApp(n, tail)

	case *ast.Let:
		savedLocals := len(c.locals)
		if err := c.compileExpr(n.Value, false); err != nil {
			return err
		}
		c.addLocal(n.Name)
		if err := c.compileExpr(n.Body, tail); err != nil {
			return err
		}
		c.emitU16(vm.OP_SLIDE, 1, ln)
		c.locals = c.locals[:savedLocals]
		return nil

	case *ast.LetRec:
		return c.compileLetRec(n, tail)

	case *ast.If:
		return c.compileIf(n, tail)

	case *ast.RecordLit:
		return c.compileRecordLit(n)

	case *ast.FieldAccess:
		return c.compileFieldAccess(n)

	case *ast.ArrayLit:
		for _, el := range n.Elements {
			if err := c.compileExpr(el, false); err != nil {
				return err
			}
		}
		c.emitU16(vm.OP_CONSTRUCT_ARRAY, len(n.Elements), ln)

	case *ast.Match:
		return c.compileMatch(n, tail)

	case *ast.Do:
		// do is plain sequencing: Bind is evaluated and kept as an
		// anonymous local, Body is evaluated, and a Slide drops Bind's
		// value from under the result. No flat_map call is made.
		savedLocals := len(c.locals)
		if err := c.compileExpr(n.Bind, false); err != nil {
			return err
		}
		c.addLocal(symbols.Symbol{})
		if err := c.compileExpr(n.Body, tail); err != nil {
			return err
		}
		c.emitU16(vm.OP_SLIDE, 1, ln)
		c.locals = c.locals[:savedLocals]
		return nil

	case *ast.Ascription:
		return c.compileExpr(n.Value, tail)

	default:
		return fmt.Errorf("compiler: unhandled expression node %T", e)
	}
	return nil
}

func (c *Compiler) compileVar(v *ast.Var) error {
	ln := v.Span().StartLine
	if slot, ok := c.resolveLocal(v.Name); ok {
		c.emitU16(vm.OP_PUSH, slot, ln)
		return nil
	}
	if idx, ok := c.resolveUpvar(v.Name); ok {
		c.emitU16(vm.OP_PUSH_UPVAR, idx, ln)
		return nil
	}
	c.emitU16(vm.OP_PUSH_GLOBAL, c.fn.AddGlobal(v.Name.String()), ln)
	return nil
}

func (c *Compiler) compileLambda(lam *ast.Lambda) error {
	ln := lam.Span().StartLine
	child := newCompiler(fmt.Sprintf("<lambda:%d>", ln), len(lam.Params), c, c.ti)
	for _, p := range lam.Params {
		child.bindParam(p.Name)
	}
	if err := child.compileExpr(lam.Body, true); err != nil {
		return err
	}
	child.emit(vm.OP_RETURN, ln)
	child.fn.FreeVars = len(child.upvars)
	child.fn.MaxStack = child.maxDepth

	fi := len(c.fn.Inner)
	c.fn.Inner = append(c.fn.Inner, child.fn)
	for _, ref := range child.upvars {
		if ref.FromLocal {
			c.emitU16(vm.OP_PUSH, ref.Index, ln)
		} else {
			c.emitU16(vm.OP_PUSH_UPVAR, ref.Index, ln)
		}
	}
	c.emitU16x2(vm.OP_MAKE_CLOSURE, fi, len(child.upvars), ln)
	return nil
}

// flattenApp unrolls a left-nested chain of single-argument App nodes
// into one callee plus an ordered argument list, so the VM's n-ary
// Call instruction only ever has to run once per call site.
func flattenApp(e ast.Expr) (ast.Expr, []ast.Expr) {
	var args []ast.Expr
	for {
		app, ok := e.(*ast.App)
		if !ok {
			break
		}
		args = append([]ast.Expr{app.Arg}, args...)
		e = app.Func
	}
	return e, args
}

func (c *Compiler) compileApp(app *ast.App, tail bool) error {
	callee, args := flattenApp(app)
	if handled, err := c.compilePrimitiveCall(callee, args); handled {
		return err
	}
	if err := c.compileExpr(callee, false); err != nil {
		return err
	}
	for _, a := range args {
		if err := c.compileExpr(a, false); err != nil {
			return err
		}
	}
	op := vm.OP_CALL
	if tail {
		op = vm.OP_TAIL_CALL
	}
	c.emitU16(op, len(args), app.Span().StartLine)
	return nil
}

func (c *Compiler) compileIf(n *ast.If, tail bool) error {
	ln := n.Span().StartLine
	if err := c.compileExpr(n.Cond, false); err != nil {
		return err
	}
	thenJump := c.fn.Len()
	c.emitU16(vm.OP_CJUMP, 0, ln)
	branchDepth := c.depth
	// false fallthrough: compile Else, then jump over Then.
	if err := c.compileExpr(n.Else, tail); err != nil {
		return err
	}
	elseJump := c.fn.Len()
	c.emitU16(vm.OP_JUMP, 0, ln)
	c.fn.PatchU16(thenJump+1, c.fn.Len())
	c.depth = branchDepth // only one branch runs; Then starts where Else did
	if err := c.compileExpr(n.Then, tail); err != nil {
		return err
	}
	c.fn.PatchU16(elseJump+1, c.fn.Len())
	return nil
}

// compileLetRec knot-ties mutually recursive closures in two passes
// (spec §4.2 "NewClosure/CloseClosure"): first every binding is
// allocated with zeroed upvars so all of its siblings' slots exist on
// the stack, then each is patched with its real captures, which may
// now include any sibling by an ordinary local/upvar reference.
func (c *Compiler) compileLetRec(n *ast.LetRec, tail bool) error {
	ln := n.Span().StartLine
	childFns := make([]*vm.BytecodeFunction, len(n.Bindings))
	childUpvars := make([][]upvalueRef, len(n.Bindings))
	slots := make([]int, len(n.Bindings))

	// The NewClosure run below pushes one closure per binding starting
	// at the current depth; register the binding locals at those slots
	// up front so sibling bodies can capture each other while compiling.
	savedLocals := len(c.locals)
	for i, b := range n.Bindings {
		slots[i] = c.depth + i
		c.locals = append(c.locals, localBinding{Name: b.Name, Slot: slots[i]})
	}
	for i, b := range n.Bindings {
		lam, ok := b.Value.(*ast.Lambda)
		if !ok {
			return fmt.Errorf("compiler: recursive-let binding %q must be a lambda", b.Name.String())
		}
		child := newCompiler(fmt.Sprintf("<rec:%s>", b.Name.String()), len(lam.Params), c, c.ti)
		for _, p := range lam.Params {
			child.bindParam(p.Name)
		}
		if err := child.compileExpr(lam.Body, true); err != nil {
			return err
		}
		child.emit(vm.OP_RETURN, ln)
		child.fn.FreeVars = len(child.upvars)
		child.fn.MaxStack = child.maxDepth
		childFns[i] = child.fn
		childUpvars[i] = child.upvars
	}

	fnBase := len(c.fn.Inner)
	for i, fn := range childFns {
		c.fn.Inner = append(c.fn.Inner, fn)
		c.emitU16x2(vm.OP_NEW_CLOSURE, fnBase+i, 0, ln)
	}
	for i, refs := range childUpvars {
		for _, ref := range refs {
			if ref.FromLocal {
				c.emitU16(vm.OP_PUSH, ref.Index, ln)
			} else {
				c.emitU16(vm.OP_PUSH_UPVAR, ref.Index, ln)
			}
		}
		c.emitU16x2(vm.OP_CLOSE_CLOSURE, slots[i], len(refs), ln)
	}
	if err := c.compileExpr(n.Body, tail); err != nil {
		return err
	}
	c.emitU16(vm.OP_SLIDE, len(n.Bindings), ln)
	c.locals = c.locals[:savedLocals]
	return nil
}

// closedRecordFields reports a record type's field names in row order
// if — and only if — its row is fully closed (TEmptyRow tail), meaning
// every reader and writer of it statically agrees on layout and a
// GetOffset is safe; an open tail means some other call site may pass
// a record with additional fields, so field access must go through
// GetField by name instead (spec §9 Open Question: row-polymorphic
// field access).
func closedRecordFields(t types.Type) ([]string, bool) {
	rec, ok := t.(types.TRecord)
	if !ok {
		return nil, false
	}
	if _, closed := types.RowRest(rec.Row).(types.TEmptyRow); !closed {
		return nil, false
	}
	fields := types.RowIter(rec.Row)
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name.String()
	}
	return names, true
}

func (c *Compiler) compileRecordLit(lit *ast.RecordLit) error {
	ln := lit.Span().StartLine
	if lit.Base == nil {
		names := make([]string, len(lit.Fields))
		for i, f := range lit.Fields {
			names[i] = f.Name.String()
			if err := c.compileExpr(f.Value, false); err != nil {
				return err
			}
		}
		rec := c.fn.AddRecord(names)
		c.emitU16x2(vm.OP_CONSTRUCT_RECORD, rec, len(lit.Fields), ln)
		return nil
	}

	// Functional record update: { base | overridden fields... }. Bind
	// base once, then rebuild every field — explicit overrides from
	// lit.Fields, everything else read back off base — into a fresh
	// record built from the full (statically known, closed) layout.
	baseType := c.ti.TypeOf(lit.Base)
	allFields, ok := closedRecordFields(baseType)
	if !ok {
		return fmt.Errorf("compiler: record update requires a statically known closed row at line %d", ln)
	}
	if err := c.compileExpr(lit.Base, false); err != nil {
		return err
	}
	baseSlot := c.addLocal(symbols.Symbol{})

	overrides := make(map[string]ast.Expr, len(lit.Fields))
	for _, f := range lit.Fields {
		overrides[f.Name.String()] = f.Value
	}
	for i, name := range allFields {
		if ov, ok := overrides[name]; ok {
			if err := c.compileExpr(ov, false); err != nil {
				return err
			}
			continue
		}
		c.emitU16(vm.OP_PUSH, baseSlot, ln)
		c.emitU16(vm.OP_GET_OFFSET, i, ln)
	}
	rec := c.fn.AddRecord(allFields)
	c.emitU16x2(vm.OP_CONSTRUCT_RECORD, rec, len(allFields), ln)
	c.locals = c.locals[:len(c.locals)-1]
	c.emitU16(vm.OP_SLIDE, 1, ln)
	return nil
}

func (c *Compiler) compileFieldAccess(n *ast.FieldAccess) error {
	ln := n.Span().StartLine
	if err := c.compileExpr(n.Record, false); err != nil {
		return err
	}
	recType := c.ti.TypeOf(n.Record)
	if names, ok := closedRecordFields(recType); ok {
		for i, name := range names {
			if name == n.Field.String() {
				c.emitU16(vm.OP_GET_OFFSET, i, ln)
				return nil
			}
		}
	}
	c.emitU16(vm.OP_GET_FIELD, c.fn.AddString(n.Field.String()), ln)
	return nil
}

// compileMatch compiles a pattern match as a cascade of TestTag/
// comparison tests, each guarding a Split-and-bind of that arm's
// payload; a scrutinee none of the arms accept falls through to the
// runtime's best-effort fallback opcode (spec §9 Open Question #1:
// the checker's exhaustiveness pass is best-effort, so the VM still
// needs this backstop).
func (c *Compiler) compileMatch(m *ast.Match, tail bool) error {
	ln := m.Span().StartLine
	if err := c.compileExpr(m.Scrutinee, false); err != nil {
		return err
	}
	scrutSlot := c.addLocal(symbols.Symbol{})
	armEntry := c.depth

	var endJumps []int
	for _, cs := range m.Cases {
		c.depth = armEntry // each arm starts from the post-scrutinee state
		savedLocals := len(c.locals)
		failJump, bound, err := c.compilePatternTest(cs.Pat, scrutSlot, ln)
		if err != nil {
			return err
		}
		if err := c.compileExpr(cs.Body, tail); err != nil {
			return err
		}
		c.emitU16(vm.OP_SLIDE, bound, ln)
		c.locals = c.locals[:savedLocals]
		endJumps = append(endJumps, c.fn.Len())
		c.emitU16(vm.OP_JUMP, 0, ln)
		if failJump >= 0 {
			c.fn.PatchU16(failJump+1, c.fn.Len())
		}
	}
	c.depth = armEntry
	c.emit(vm.OP_PANIC_NON_EXHAUSTIVE, ln)
	for _, j := range endJumps {
		c.fn.PatchU16(j+1, c.fn.Len())
	}
	c.depth = armEntry + 1 // the join: one arm's result above the scrutinee
	c.locals = c.locals[:len(c.locals)-1]
	c.emitU16(vm.OP_SLIDE, 1, ln)
	return nil
}

// compilePatternTest emits the test for one pattern against a fresh
// copy of the scrutinee (read from scrutSlot as needed — no value is
// assumed already on the stack), binding its captures as new locals.
// It returns the offset of a CJump operand to patch to this arm's
// failure continuation (-1 if the pattern cannot fail) and how many
// locals it bound (for the caller's cleanup Slide).
func (c *Compiler) compilePatternTest(p ast.Pattern, scrutSlot int, ln int) (int, int, error) {
	switch pat := p.(type) {
	case *ast.PWildcard:
		return -1, 0, nil
	case *ast.PVar:
		c.emitU16(vm.OP_PUSH, scrutSlot, ln)
		c.addLocal(pat.Name)
		return -1, 1, nil
	case *ast.PVariant:
		tagID := c.fn.AddString(pat.Ctor.String()) // resolved to a real tag id by the linker (C11)
		c.emitU16(vm.OP_PUSH, scrutSlot, ln)
		c.emitU16(vm.OP_TEST_TAG, tagID, ln)
		cont := c.fn.Len()
		c.emitU16(vm.OP_CJUMP, 0, ln) // jumps past the failure branch when the tag matched
		fail := c.fn.Len()
		c.emitU16(vm.OP_JUMP, 0, ln)
		c.fn.PatchU16(cont+1, c.fn.Len())

		if len(pat.Args) == 0 {
			// A nullary constructor is a bare Tag immediate with no
			// payload to Split.
			return fail, 0, nil
		}
		c.emitU16(vm.OP_PUSH, scrutSlot, ln)
		c.emit(vm.OP_SPLIT, ln)
		bound := 0
		for _, argPat := range pat.Args {
			c.note(1) // the field Split pushed for this sub-pattern
			n, err := c.bindSubPattern(argPat)
			if err != nil {
				return 0, 0, err
			}
			bound += n
		}
		return fail, bound, nil
	case *ast.PRecord:
		bound := 0
		for _, f := range pat.Fields {
			c.emitU16(vm.OP_PUSH, scrutSlot, ln)
			c.emitU16(vm.OP_GET_FIELD, c.fn.AddString(f.Name.String()), ln)
			n, err := c.bindSubPattern(f.Pattern)
			if err != nil {
				return 0, 0, err
			}
			bound += n
		}
		return -1, bound, nil
	case *ast.PAs:
		fail, bound, err := c.compilePatternTest(pat.Inner, scrutSlot, ln)
		if err != nil {
			return 0, 0, err
		}
		c.emitU16(vm.OP_PUSH, scrutSlot, ln)
		c.addLocal(pat.Name)
		return fail, bound + 1, nil
	case *ast.PLiteral:
		var eqOp vm.Opcode
		switch pat.Value.(type) {
		case *ast.IntLit:
			eqOp = vm.OP_INT_EQ
		case *ast.FloatLit:
			eqOp = vm.OP_FLOAT_EQ
		case *ast.ByteLit:
			eqOp = vm.OP_BYTE_EQ
		case *ast.CharLit:
			eqOp = vm.OP_CHAR_EQ
		case *ast.StringLit:
			eqOp = vm.OP_STRING_EQ
		default:
			return 0, 0, fmt.Errorf("compiler: unsupported literal pattern %T", pat.Value)
		}
		c.emitU16(vm.OP_PUSH, scrutSlot, ln)
		if err := c.compileExpr(pat.Value, false); err != nil {
			return 0, 0, err
		}
		c.emit(eqOp, ln)
		cont := c.fn.Len()
		c.emitU16(vm.OP_CJUMP, 0, ln)
		fail := c.fn.Len()
		c.emitU16(vm.OP_JUMP, 0, ln)
		c.fn.PatchU16(cont+1, c.fn.Len())
		return fail, 0, nil
	default:
		return 0, 0, fmt.Errorf("compiler: unhandled pattern %T", p)
	}
}

// bindSubPattern binds a value already on top of the stack to a
// nested pattern, returning how many locals it introduced. Deeper
// refutable sub-patterns (nested constructors) are rejected here:
// internal/check compiles match arms against flattened patterns,
// leaving only variables/wildcards in constructor-argument position.
//
// A wildcard still consumes a local slot here rather than popping the
// value immediately: OP_SPLIT (the PVariant caller) pushes every
// field up front in declaration order, so a field's stack position —
// and thus the frame-relative offset any later OP_PUSH must use to
// reach it — is fixed by how many fields were pushed before it, not
// by whether this particular one happens to be named. Popping a
// wildcard's field the moment its own sub-pattern is visited (rather
// than leaving it for the arm's single cleanup Slide) would desync
// every subsequent field's slot from the offset compiled for it.
// Letting the caller's Slide(bound) drop every bound slot — wildcards
// included — after the arm body runs keeps slot numbering and stack
// position in lockstep regardless of which sub-patterns are named.
func (c *Compiler) bindSubPattern(p ast.Pattern) (int, error) {
	switch pat := p.(type) {
	case *ast.PVar:
		c.addLocal(pat.Name)
		return 1, nil
	case *ast.PWildcard:
		c.addLocal(symbols.Symbol{})
		return 1, nil
	default:
		return 0, fmt.Errorf("compiler: nested refutable patterns in constructor/record position must be flattened before compilation")
	}
}
