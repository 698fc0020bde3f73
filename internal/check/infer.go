package check

import (
	"github.com/rowlang/rowlang/internal/ast"
	"github.com/rowlang/rowlang/internal/token"
	"github.com/rowlang/rowlang/internal/types"
)

// CheckProgram type-checks every declaration in order, threading a
// single top-level scope so later declarations see earlier ones (spec
// §4.4's module-level environment). Type-level errors are recorded on
// c.Errors rather than aborting, so later declarations still get a
// best-effort pass, with TError recorded for any expression whose type
// could not be determined.
func (c *Checker) CheckProgram(prog *ast.Program) {
	for _, d := range prog.Decls {
		c.checkDecl(d)
	}
}

func (c *Checker) checkDecl(d ast.Decl) {
	switch n := d.(type) {
	case *ast.TypeBinding:
		c.checkTypeBinding(n)
	case *ast.Let:
		c.checkTopLevelLet(n)
	case *ast.LetRec:
		c.checkTopLevelLetRec(n)
	}
}

// checkTopLevelLet handles a top-level `let name = value` declaration
// (Body is nil; the remaining program decls play the role a nested
// Let's Body would).
func (c *Checker) checkTopLevelLet(n *ast.Let) {
	c.enterLevel()
	valType := c.infer(n.Value)
	c.leaveLevel()
	if n.Annotation != nil {
		if _, ok := n.Annotation.(types.THole); !ok {
			c.unify(valType, n.Annotation, n.Span())
		}
	}
	if n.Pat != nil {
		c.checkPattern(n.Pat, valType)
		return
	}
	c.bind(n.Name, c.generalize(valType, c.level))
}

func (c *Checker) checkTopLevelLetRec(n *ast.LetRec) {
	c.inferRecGroup(n.Bindings, n.Span())
}

// --- Expression inference ---------------------------------------------

func (c *Checker) record(e ast.Expr, t types.Type) types.Type {
	c.TypeMap[e] = t
	return t
}

func (c *Checker) unify(t1, t2 types.Type, at token.Span) bool {
	if err := c.U.Unify(t1, t2); err != nil {
		c.addError(wrapUnifyError(err, at))
		return false
	}
	return true
}

// wrapUnifyError is a passthrough: internal/types' own error structs
// already carry everything a caller needs (expected/actual types);
// the span is the only thing the checker adds, so errors from the
// unifier are reported alongside a spanned wrapper rather than
// re-packaged into a new type.
type unifyErrorAt struct {
	Err error
	At  token.Span
}

func (e *unifyErrorAt) Error() string { return e.At.String() + ": " + e.Err.Error() }
func (e *unifyErrorAt) Unwrap() error { return e.Err }

func wrapUnifyError(err error, at token.Span) error {
	return &unifyErrorAt{Err: err, At: at}
}

func (c *Checker) infer(e ast.Expr) types.Type {
	switch n := e.(type) {
	case *ast.IntLit:
		return c.record(e, types.Builtin(types.TagInt))
	case *ast.FloatLit:
		return c.record(e, types.Builtin(types.TagFloat))
	case *ast.ByteLit:
		return c.record(e, types.Builtin(types.TagByte))
	case *ast.CharLit:
		return c.record(e, types.Builtin(types.TagChar))
	case *ast.StringLit:
		return c.record(e, types.Builtin(types.TagString))

	case *ast.Var:
		t, ok := c.resolveVar(n.Name)
		if !ok {
			c.addError(&UndefinedVariableError{Name: n.Name.String(), At: n.Span()})
			return c.record(e, types.TError{})
		}
		return c.record(e, t)

	case *ast.Lambda:
		return c.record(e, c.inferLambda(n))

	case *ast.App:
		return c.record(e, c.inferApp(n))

	case *ast.Let:
		return c.record(e, c.inferLet(n))

	case *ast.LetRec:
		return c.record(e, c.inferLetRec(n))

	case *ast.If:
		return c.record(e, c.inferIf(n))

	case *ast.RecordLit:
		return c.record(e, c.inferRecordLit(n))

	case *ast.FieldAccess:
		return c.record(e, c.inferFieldAccess(n))

	case *ast.ArrayLit:
		return c.record(e, c.inferArrayLit(n))

	case *ast.Match:
		return c.record(e, c.inferMatch(n))

	case *ast.Do:
		return c.record(e, c.inferDo(n))

	case *ast.Ascription:
		return c.record(e, c.inferAscription(n))

	default:
		c.addError(&UndefinedVariableError{Name: "<unknown expression>", At: e.Span()})
		return c.record(e, types.TError{})
	}
}

// inferLambda checks a (possibly curried, possibly implicit-parameter)
// function literal, binding every parameter in the one scope pushed for
// the lambda body (spec §4.4 "Lambda: fresh type variable per
// unannotated parameter").
func (c *Checker) inferLambda(n *ast.Lambda) types.Type {
	c.pushScope()
	defer c.popScope()

	domains := make([]types.Type, len(n.Params))
	kinds := make([]types.ArgKind, len(n.Params))
	for i, p := range n.Params {
		dom := p.Annotation
		if dom == nil {
			dom = c.freshVar(types.Star)
		} else if _, ok := dom.(types.THole); ok {
			dom = c.freshVar(types.Star)
		}
		c.bind(p.Name, dom)
		domains[i] = dom
		if p.Implicit {
			kinds[i] = types.Implicit
			c.addImplicit(dom, p.Name)
		} else {
			kinds[i] = types.Explicit
		}
	}

	bodyType := c.infer(n.Body)

	result := bodyType
	for i := len(domains) - 1; i >= 0; i-- {
		if kinds[i] == types.Implicit {
			result = types.ImplicitFunction(domains[i], result)
		} else {
			result = types.Function(domains[i], result)
		}
	}
	return result
}

// inferApp infers a single-argument application, automatically
// peeling (and resolving against the implicit environment) any
// leading implicit parameters the callee's type exposes before
// matching the explicit argument the App node actually supplies (spec
// §4.4 "Implicit arguments", SPEC_FULL Open Question 3: innermost
// scope first, then lexical order).
func (c *Checker) inferApp(n *ast.App) types.Type {
	fnType := c.U.Subst().Apply(c.infer(n.Func))
	fnType = c.elaborateImplicits(fnType, n.Span())

	fn, ok := fnType.(types.TFunction)
	if !ok {
		switch fnType.(type) {
		case types.TError:
			// still check the argument for cascading diagnostics
			c.infer(n.Arg)
			return types.TError{}
		case types.TVariable:
			// The head's type is not yet known (e.g. a parameter applied
			// inside its own lambda body): unify it with a fresh α → β
			// and propagate (spec §4.4 "Function applications").
			arrow := types.TFunction{Arg: types.Explicit, Domain: c.freshVar(types.Star), Range: c.freshVar(types.Star)}
			c.unify(fnType, arrow, n.Span())
			fn = arrow
		default:
			c.addError(&NotAFunctionError{Got: fnType, At: n.Span()})
			c.infer(n.Arg)
			return types.TError{}
		}
	}

	argType := c.infer(n.Arg)
	c.unify(fn.Domain, argType, n.Arg.Span())
	return c.elaborateImplicits(fn.Range, n.Span())
}

// elaborateImplicits resolves and peels every leading implicit arrow
// in t, left to right, each time picking the best candidate the
// implicit scopes offer (innermost scope first, then each enclosing
// scope in turn; within one scope, a single candidate is required or
// the argument is ambiguous).
func (c *Checker) elaborateImplicits(t types.Type, at token.Span) types.Type {
	for {
		fn, ok := c.U.Find(t).(types.TFunction)
		if !ok || fn.Arg != types.Implicit {
			return t
		}
		c.resolveImplicit(fn.Domain, at)
		t = fn.Range
	}
}

func (c *Checker) resolveImplicit(want types.Type, at token.Span) {
	// Trial matches run on a throwaway unifier so a rejected candidate
	// leaves no bindings behind, but both sides are first resolved
	// through the live substitution — a candidate whose variables were
	// bound since it was registered must match by what they became.
	s := c.U.Subst()
	wanted := s.Apply(want)
	for i := len(c.implicits) - 1; i >= 0; i-- {
		var matches []implicitCandidate
		for _, cand := range c.implicits[i] {
			if types.NewUnifier(c.IDs).Unify(s.Apply(cand.Type), wanted) == nil {
				matches = append(matches, cand)
			}
		}
		if len(matches) == 1 {
			c.unify(matches[0].Type, want, at)
			return
		}
		if len(matches) > 1 {
			names := make([]string, len(matches))
			for j, m := range matches {
				names[j] = m.Ref.String()
			}
			c.addError(&AmbiguousImplicitError{Want: want, Candidates: names, At: at})
			return
		}
	}
	c.addError(&UnresolvedImplicitError{Want: want, At: at})
}

func (c *Checker) inferLet(n *ast.Let) types.Type {
	c.enterLevel()
	valType := c.infer(n.Value)
	c.leaveLevel()
	if n.Annotation != nil {
		if _, ok := n.Annotation.(types.THole); !ok {
			c.unify(valType, n.Annotation, n.Span())
		}
	}

	c.pushScope()
	defer c.popScope()
	if n.Pat != nil {
		c.checkPattern(n.Pat, valType)
	} else {
		c.bind(n.Name, c.generalize(valType, c.level))
	}
	return c.infer(n.Body)
}

func (c *Checker) inferLetRec(n *ast.LetRec) types.Type {
	c.pushScope()
	defer c.popScope()
	c.inferRecGroup(n.Bindings, n.Span())
	return c.infer(n.Body)
}

// inferRecGroup type-checks a mutually recursive binding group:
// every name is pre-bound to a fresh (ungeneralized) variable so the
// bodies can reference each other and themselves, then each body is
// inferred and unified against its placeholder, and finally every
// binding is generalized together (spec §4.4 "Recursive let groups").
func (c *Checker) inferRecGroup(bindings []ast.RecBinding, at token.Span) {
	c.enterLevel()
	placeholders := make([]types.Type, len(bindings))
	for i, b := range bindings {
		v := c.freshVar(types.Star)
		placeholders[i] = v
		c.bind(b.Name, v)
	}
	for i, b := range bindings {
		bodyType := c.infer(b.Value)
		c.unify(placeholders[i], bodyType, at)
	}
	c.leaveLevel()
	for i, b := range bindings {
		c.bind(b.Name, c.generalize(placeholders[i], c.level))
	}
}

func (c *Checker) inferIf(n *ast.If) types.Type {
	condType := c.infer(n.Cond)
	c.unify(condType, c.variantBool(), n.Cond.Span())
	thenType := c.infer(n.Then)
	elseType := c.infer(n.Else)
	c.unify(thenType, elseType, n.Span())
	return thenType
}

// variantBool is the Cond/guard expected type; see types.BoolVariant
// for the shape (shared with internal/global's prelude registration so
// the True/False constructors it publishes unify with what the
// checker expects here).
func (c *Checker) variantBool() types.Type {
	return types.BoolVariant(c.Interner)
}

func (c *Checker) inferRecordLit(n *ast.RecordLit) types.Type {
	var fields []types.ValueField
	for _, f := range n.Fields {
		fields = append(fields, types.ValueField{Name: f.Name, Typ: c.infer(f.Value)})
	}
	if n.Base == nil {
		return types.Record(types.ExtendRow(nil, fields, types.TEmptyRow{}))
	}
	baseType := c.infer(n.Base)
	rest := c.freshVar(types.RowK)
	c.unify(baseType, types.Record(rest), n.Base.Span())
	return types.Record(types.ExtendRow(nil, fields, rest))
}

func (c *Checker) inferFieldAccess(n *ast.FieldAccess) types.Type {
	recType := c.infer(n.Record)
	fieldType := c.freshVar(types.Star)
	rest := c.freshVar(types.RowK)
	expected := types.Record(types.ExtendRow(nil, []types.ValueField{{Name: n.Field, Typ: fieldType}}, rest))
	if !c.unify(recType, expected, n.Span()) {
		c.addError(&UndefinedFieldError{RecordType: recType, Field: n.Field.String(), At: n.Span()})
		return types.TError{}
	}
	return fieldType
}

func (c *Checker) inferArrayLit(n *ast.ArrayLit) types.Type {
	elem := c.freshVar(types.Star)
	for _, el := range n.Elements {
		elType := c.infer(el)
		c.unify(elem, elType, el.Span())
	}
	return types.Array(elem)
}

func (c *Checker) inferMatch(n *ast.Match) types.Type {
	scrutType := c.infer(n.Scrutinee)
	result := c.freshVar(types.Star)
	for _, cs := range n.Cases {
		c.pushScope()
		c.checkPattern(cs.Pat, scrutType)
		if cs.Guard != nil {
			guardType := c.infer(cs.Guard)
			c.unify(guardType, c.variantBool(), cs.Guard.Span())
		}
		bodyType := c.infer(cs.Body)
		c.unify(result, bodyType, cs.Body.Span())
		c.popScope()
	}
	c.checkExhaustiveness(scrutType, n.Cases, n.Span())
	return result
}

// inferDo mirrors the compiler's runtime semantics for `do`
// (internal/compiler compiles Bind, discards its value with a Slide,
// then evaluates Body): Bind is inferred and its type discarded, and the
// result is Body's type. No flat_map rewrite is performed and Bind's type
// is left unconstrained — see DESIGN.md's Do-sequencing decision.
func (c *Checker) inferDo(n *ast.Do) types.Type {
	c.infer(n.Bind)
	return c.infer(n.Body)
}

func (c *Checker) inferAscription(n *ast.Ascription) types.Type {
	valType := c.infer(n.Value)
	c.unify(valType, n.Annotation, n.Span())
	return n.Annotation
}
