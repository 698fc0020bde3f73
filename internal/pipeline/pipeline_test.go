package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rowlang/rowlang/internal/ast"
	"github.com/rowlang/rowlang/internal/symbols"
	"github.com/rowlang/rowlang/internal/types"
	"github.com/rowlang/rowlang/internal/vm"
)

// --- tiny AST builders ------------------------------------------------
//
// internal/ast's contract is parser output (spec §1); since this
// module carries no parser, these helpers stand in for one, building
// exactly the typed-AST shapes spec §8's end-to-end scenarios
// describe by hand.

func intLit(n int64) ast.Expr        { return &ast.IntLit{Value: n} }
func strLit(s string) ast.Expr       { return &ast.StringLit{Value: s} }
func varE(s symbols.Symbol) ast.Expr { return &ast.Var{Name: s} }

func appN(fn ast.Expr, args ...ast.Expr) ast.Expr {
	e := fn
	for _, a := range args {
		e = &ast.App{Func: e, Arg: a}
	}
	return e
}

func lambda(params []symbols.Symbol, body ast.Expr) ast.Expr {
	ps := make([]ast.Param, len(params))
	for i, p := range params {
		ps[i] = ast.Param{Name: p}
	}
	return &ast.Lambda{Params: ps, Body: body}
}

func topLet(name symbols.Symbol, value ast.Expr) ast.Decl {
	return &ast.Let{Name: name, Value: value}
}

// --- Scenario 1: identity polymorphism ---------------------------------
//
// `let id x = x in id 1` — expected result Int 1 (spec §8 scenario 1).

func TestScenarioIdentityPolymorphism(t *testing.T) {
	p := New()
	in := p.Interner

	idSym := in.InternLocal("id")
	xSym := in.InternLocal("x")
	resultSym := in.InternLocal("result")

	prog := &ast.Program{Decls: []ast.Decl{
		topLet(idSym, lambda([]symbols.Symbol{xSym}, varE(xSym))),
		topLet(resultSym, appN(varE(idSym), intLit(1))),
	}}

	v, c, err := p.Run(prog)
	require.NoError(t, err)
	require.Equal(t, vm.VInt(1), v)

	resultType, ok := c.GlobalType(resultSym)
	require.True(t, ok)
	require.Equal(t, types.Builtin(types.TagInt), resultType)
}

// --- Scenario 2: row-polymorphic field access ---------------------------
//
// `let f r = r.x in f { x = 2, y = 3 }` — expected result Int 2; before
// generalization f : { x : a | rho } -> a (spec §8 scenario 2).

func TestScenarioRowPolymorphicFieldAccess(t *testing.T) {
	p := New()
	in := p.Interner

	fSym := in.InternLocal("f")
	rSym := in.InternLocal("r")
	xField := in.InternLocal("x")
	yField := in.InternLocal("y")
	resultSym := in.InternLocal("result")

	fBody := &ast.FieldAccess{Record: varE(rSym), Field: xField}
	recordArg := &ast.RecordLit{Fields: []ast.RecordFieldInit{
		{Name: xField, Value: intLit(2)},
		{Name: yField, Value: intLit(3)},
	}}

	prog := &ast.Program{Decls: []ast.Decl{
		topLet(fSym, lambda([]symbols.Symbol{rSym}, fBody)),
		topLet(resultSym, appN(varE(fSym), recordArg)),
	}}

	v, c, err := p.Run(prog)
	require.NoError(t, err)
	require.Equal(t, vm.VInt(2), v)

	fType, ok := c.GlobalType(fSym)
	require.True(t, ok)
	forall, ok := fType.(types.TForall)
	require.True(t, ok, "f's scheme must be generalized: got %s", fType)
	require.Len(t, forall.Params, 2, "one generic for the field's value, one for the row tail")
}

// --- Scenario 3: mutually recursive variants ----------------------------
//
// `type List a = | Nil | Cons a (List a) in Cons 1 (Cons 2 Nil)` —
// expected result type List Int; the runtime value is a two-field Data
// nesting another Data, ending in Nil's bare Tag immediate (spec §3 "A
// Data with arity 0 is represented as Tag(n)", §8 scenario 3). Nil's
// tag number comes from the environment's shared tag counter (2 here,
// after False/True), so both tags are looked up through Env.TagOf.

func TestScenarioRecursiveVariant(t *testing.T) {
	p := New()
	in := p.Interner

	listSym := in.InternLocal("List")
	nilSym := in.InternLocal("Nil")
	consSym := in.InternLocal("Cons")
	resultSym := in.InternLocal("result")

	aParam := p.IDs.FreshGeneric(types.Star)

	typeDecl := &ast.TypeBinding{Members: []ast.TypeBindingMember{
		{
			Name:   listSym,
			Params: []types.TGeneric{aParam},
			Constructors: []ast.VariantConstructor{
				{Name: nilSym, ArgTypes: nil},
				{Name: consSym, ArgTypes: []types.Type{
					aParam,
					types.App(types.TIdent{Name: listSym}, aParam),
				}},
			},
		},
	}}

	value := appN(varE(consSym), intLit(1),
		appN(varE(consSym), intLit(2), varE(nilSym)))

	prog := &ast.Program{Decls: []ast.Decl{
		typeDecl,
		topLet(resultSym, value),
	}}

	v, c, err := p.Run(prog)
	require.NoError(t, err)

	nilTag, ok := p.Env.TagOf("Nil")
	require.True(t, ok)
	consTag, ok := p.Env.TagOf("Cons")
	require.True(t, ok)

	outer, ok := v.(*vm.DataObj)
	require.True(t, ok, "expected a Data value, got %T", v)
	require.Equal(t, consTag, outer.Tag)
	require.Equal(t, vm.VInt(1), outer.Fields[0])

	inner, ok := outer.Fields[1].(*vm.DataObj)
	require.True(t, ok, "expected a nested Data value, got %T", outer.Fields[1])
	require.Equal(t, consTag, inner.Tag)
	require.Equal(t, vm.VInt(2), inner.Fields[0])
	require.Equal(t, vm.VTag{ID: nilTag}, inner.Fields[1])

	resultType, ok := c.GlobalType(resultSym)
	require.True(t, ok)
	head, args := types.SplitApp(resultType)
	alias, ok := head.(types.TAlias)
	require.True(t, ok)
	require.Equal(t, listSym, alias.Ref.Name())
	require.Equal(t, []types.Type{types.Builtin(types.TagInt)}, args)
}

// --- Scenario 4: partial application and tail recursion -----------------
//
// `let rec loop n acc = if n == 0 then acc else loop (n - 1) (acc + 1)
// in loop n 0`, run here with n = 200,000 (the scenario itself uses
// 1,000,000) — expected Int n, stack depth bounded by tail-call reuse
// of the current frame (spec §4.6 "Tail call", §8 scenario 4).

func TestScenarioTailRecursiveLoop(t *testing.T) {
	p := New()
	in := p.Interner

	loopSym := in.InternLocal("loop")
	nSym := in.InternLocal("n")
	accSym := in.InternLocal("acc")
	resultSym := in.InternLocal("result")
	plusSym := in.InternLocal("+")
	minusSym := in.InternLocal("-")
	eqSym := in.InternLocal("==")

	cond := appN(varE(eqSym), varE(nSym), intLit(0))
	recurse := appN(varE(loopSym),
		appN(varE(minusSym), varE(nSym), intLit(1)),
		appN(varE(plusSym), varE(accSym), intLit(1)))
	body := &ast.If{Cond: cond, Then: varE(accSym), Else: recurse}

	const iterations = 200000

	prog := &ast.Program{Decls: []ast.Decl{
		&ast.LetRec{Bindings: []ast.RecBinding{
			{Name: loopSym, Value: lambda([]symbols.Symbol{nSym, accSym}, body)},
		}},
		topLet(resultSym, appN(varE(loopSym), intLit(iterations), intLit(0))),
	}}

	v, _, err := p.Run(prog)
	require.NoError(t, err)
	require.Equal(t, vm.VInt(iterations), v)
}

// --- Scenario 6: pattern-match with excess arguments via partial
// application -----------------------------------------------------------
//
// `let pair x y = { fst = x, snd = y } in (pair 1) "two"` — expected a
// record with fst = 1, snd = "two" (spec §8 scenario 6). This
// exercises the `n < arity` PartialApplication path across two
// separate global bindings rather than one fully-flattened App, since
// a single nested `App(App(pair, 1), "two")` would flatten to one
// saturated two-argument call site (spec §4.6 calling convention).

func TestScenarioPartialApplicationRecord(t *testing.T) {
	p := New()
	in := p.Interner

	pairSym := in.InternLocal("pair")
	xSym := in.InternLocal("x")
	ySym := in.InternLocal("y")
	fstField := in.InternLocal("fst")
	sndField := in.InternLocal("snd")
	pair1Sym := in.InternLocal("pair1")
	resultSym := in.InternLocal("result")

	recordBody := &ast.RecordLit{Fields: []ast.RecordFieldInit{
		{Name: fstField, Value: varE(xSym)},
		{Name: sndField, Value: varE(ySym)},
	}}

	prog := &ast.Program{Decls: []ast.Decl{
		topLet(pairSym, lambda([]symbols.Symbol{xSym, ySym}, recordBody)),
		topLet(pair1Sym, appN(varE(pairSym), intLit(1))),
		topLet(resultSym, appN(varE(pair1Sym), strLit("two"))),
	}}

	v, _, err := p.Run(prog)
	require.NoError(t, err)

	rec, ok := v.(*vm.DataObj)
	require.True(t, ok, "expected a Data value, got %T", v)
	require.NotNil(t, rec.Layout)
	require.Equal(t, []string{"fst", "snd"}, rec.Layout.Fields)
	require.Equal(t, vm.VInt(1), rec.Fields[0])
	require.Equal(t, "two", rec.Fields[1].(*vm.StringObj).Data)
}

// --- Variant sub-pattern binding: a wildcard ahead of a bound
// variable in constructor-argument position --------------------------
//
// `type List a = | Nil | Cons a (List a) in match Cons 1 (Cons 2 Nil)
// with | Cons _ rest -> rest` — expected result `Cons 2 Nil`, the
// *tail*. OP_SPLIT pushes a Data's fields in declaration order (so the
// last field, here the tail, ends up on top); compilePatternTest walks
// pat.Args front-to-back (head's wildcard first, then rest's PVar), so
// this is the regression case for a wildcard and a bound variable
// disagreeing about which physical stack slot each field landed in.

func TestVariantPatternWildcardThenBoundVariable(t *testing.T) {
	p := New()
	in := p.Interner

	listSym := in.InternLocal("List")
	nilSym := in.InternLocal("Nil")
	consSym := in.InternLocal("Cons")
	restSym := in.InternLocal("rest")
	resultSym := in.InternLocal("result")

	aParam := p.IDs.FreshGeneric(types.Star)

	typeDecl := &ast.TypeBinding{Members: []ast.TypeBindingMember{
		{
			Name:   listSym,
			Params: []types.TGeneric{aParam},
			Constructors: []ast.VariantConstructor{
				{Name: nilSym, ArgTypes: nil},
				{Name: consSym, ArgTypes: []types.Type{
					aParam,
					types.App(types.TIdent{Name: listSym}, aParam),
				}},
			},
		},
	}}

	scrutinee := appN(varE(consSym), intLit(1),
		appN(varE(consSym), intLit(2), varE(nilSym)))

	match := &ast.Match{
		Scrutinee: scrutinee,
		Cases: []ast.MatchCase{
			{
				Pat: &ast.PVariant{
					Ctor: consSym,
					Args: []ast.Pattern{&ast.PWildcard{}, &ast.PVar{Name: restSym}},
				},
				Body: varE(restSym),
			},
		},
	}

	prog := &ast.Program{Decls: []ast.Decl{
		typeDecl,
		topLet(resultSym, match),
	}}

	v, _, err := p.Run(prog)
	require.NoError(t, err)

	nilTag, ok := p.Env.TagOf("Nil")
	require.True(t, ok)
	consTag, ok := p.Env.TagOf("Cons")
	require.True(t, ok)

	tail, ok := v.(*vm.DataObj)
	require.True(t, ok, "expected rest to bind to the nested Cons, got %T", v)
	require.Equal(t, consTag, tail.Tag)
	require.Equal(t, vm.VInt(2), tail.Fields[0], "rest must bind to the tail (Cons 2 Nil), not the discarded head")
	require.Equal(t, vm.VTag{ID: nilTag}, tail.Fields[1])
}

// --- Nested (non-top-level) let rec ------------------------------------
//
// `let result = (let rec fact n = if n == 0 then 1 else n * fact (n - 1)
// in fact 5) in result` — expected result Int 120. Unlike
// TestScenarioTailRecursiveLoop's top-level `let rec`, which facade's
// per-binding compilation lowers straight to a global closure and never
// touches compileLetRec, this one appears as an expression (the value
// of an ordinary top-level `let`), exercising the NewClosure/CloseClosure
// knot-tying compileLetRec itself emits.

func TestNestedLetRecFactorial(t *testing.T) {
	p := New()
	in := p.Interner

	factSym := in.InternLocal("fact")
	nSym := in.InternLocal("n")
	resultSym := in.InternLocal("result")
	plusSym := in.InternLocal("*")
	minusSym := in.InternLocal("-")
	eqSym := in.InternLocal("==")

	cond := appN(varE(eqSym), varE(nSym), intLit(0))
	recurse := appN(varE(plusSym), varE(nSym),
		appN(varE(factSym), appN(varE(minusSym), varE(nSym), intLit(1))))
	body := &ast.If{Cond: cond, Then: intLit(1), Else: recurse}

	letRec := &ast.LetRec{
		Bindings: []ast.RecBinding{
			{Name: factSym, Value: lambda([]symbols.Symbol{nSym}, body)},
		},
		Body: appN(varE(factSym), intLit(5)),
	}

	prog := &ast.Program{Decls: []ast.Decl{
		topLet(resultSym, letRec),
	}}

	v, _, err := p.Run(prog)
	require.NoError(t, err)
	require.Equal(t, vm.VInt(120), v)
}
