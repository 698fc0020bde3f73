// Package check implements C5, the bidirectional-flavored
// Hindley-Milner type-checker: level-based let-generalization, row
// unification over records/variants via internal/types, pattern
// exhaustiveness as a best-effort warning, and implicit-argument
// elaboration (spec §4.4).
package check

import (
	"github.com/rowlang/rowlang/internal/ast"
	"github.com/rowlang/rowlang/internal/symbols"
	"github.com/rowlang/rowlang/internal/types"
)

// Globals is the read side of C11 the checker needs: resolving an
// identifier that isn't lexically bound against whatever a previous
// compile published (spec §4.9's global environment). internal/global's
// *Env satisfies this directly; kept as an interface here so internal/check
// never has to import internal/global (which in turn imports internal/vm
// for runtime values the checker has no business touching).
type Globals interface {
	Lookup(name string) (types.Type, bool)
}

type varBinding struct {
	Type  types.Type
	Level int
}

// ctorInfo is what a variant declaration's constructor needs recorded
// for pattern-matching (spec §4.4 "Variant constructors: looked up as
// global bindings with function type" covers expression-level use;
// this side table is the piece patterns need that a plain function
// type throws away: how many sub-patterns bind, and which Variant type
// they belong to).
type ctorInfo struct {
	Params      []types.TGeneric // the variant's type parameters, instantiated per use
	ArgTypes    []types.Type
	VariantType types.Type
}

// implicitCandidate is one entry in the scoped implicit-resolution
// environment (spec §4.4 "a scoped map of Type -> Value candidates").
// Ref is the identifier the elaborator inserts as the implicit
// argument's application target.
type implicitCandidate struct {
	Type types.Type
	Ref  symbols.Symbol
}

// Checker is the C5 type-checker's mutable state for one compilation
// unit (spec §4.4's environment: "(a) stack of lexical variable->type
// bindings, (b) stack of alias bindings, (c) global type environment,
// (d) substitution").
type Checker struct {
	IDs      *types.IDGen
	U        *types.Unifier
	Interner *symbols.Interner
	Globals  Globals

	// TypeMap records each expression's type in the current
	// substitution as it is inferred; Finalize re-applies the final
	// substitution once checking completes (spec §4.4 "Output").
	TypeMap map[ast.Expr]types.Type

	scopes      []map[symbols.Symbol]varBinding
	aliasScopes []map[symbols.Symbol]types.AliasRef
	implicits   [][]implicitCandidate

	level    int
	varLevel map[uint64]int

	ctors     map[symbols.Symbol]ctorInfo
	ctorOrder []symbols.Symbol

	Errors   []error
	Warnings []error
}

// New creates a checker over a fresh top-level scope.
func New(ids *types.IDGen, interner *symbols.Interner, globals Globals) *Checker {
	if ids == nil {
		ids = &types.IDGen{}
	}
	c := &Checker{
		IDs:      ids,
		U:        types.NewUnifier(ids),
		Interner: interner,
		Globals:  globals,
		TypeMap:  make(map[ast.Expr]types.Type),
		varLevel: make(map[uint64]int),
		ctors:    make(map[symbols.Symbol]ctorInfo),
	}
	c.pushScope()
	return c
}

// TypeOf implements internal/compiler's TypeInfo contract.
func (c *Checker) TypeOf(e ast.Expr) types.Type { return c.TypeMap[e] }

// Finalize re-applies the checker's final substitution to every
// recorded type so the compiler sees fully-resolved types (in
// particular, so it can tell a closed record row from an open one).
func (c *Checker) Finalize() {
	s := c.U.Subst()
	for e, t := range c.TypeMap {
		c.TypeMap[e] = s.Apply(t)
	}
}

func (c *Checker) pushScope() {
	c.scopes = append(c.scopes, make(map[symbols.Symbol]varBinding))
	c.aliasScopes = append(c.aliasScopes, make(map[symbols.Symbol]types.AliasRef))
	c.implicits = append(c.implicits, nil)
}

func (c *Checker) popScope() {
	c.scopes = c.scopes[:len(c.scopes)-1]
	c.aliasScopes = c.aliasScopes[:len(c.aliasScopes)-1]
	c.implicits = c.implicits[:len(c.implicits)-1]
}

func (c *Checker) enterLevel() { c.level++ }
func (c *Checker) leaveLevel() { c.level-- }

// bind introduces name -> typ in the innermost scope at the current
// level (non-generalized — used for lambda params, pattern captures,
// and pre-binding recursive-let names before their bodies are typed).
func (c *Checker) bind(name symbols.Symbol, typ types.Type) {
	c.scopes[len(c.scopes)-1][name] = varBinding{Type: typ, Level: c.level}
}

func (c *Checker) bindAlias(name symbols.Symbol, ref types.AliasRef) {
	c.aliasScopes[len(c.aliasScopes)-1][name] = ref
}

func (c *Checker) lookupAlias(name symbols.Symbol) (types.AliasRef, bool) {
	for i := len(c.aliasScopes) - 1; i >= 0; i-- {
		if ref, ok := c.aliasScopes[i][name]; ok {
			return ref, true
		}
	}
	return types.AliasRef{}, false
}

// addImplicit registers a candidate in the innermost implicit scope
// (spec §4.4; resolution order decided in SPEC_FULL.md: innermost
// scope first, then outer scopes in lexical/declaration order).
func (c *Checker) addImplicit(typ types.Type, ref symbols.Symbol) {
	top := len(c.implicits) - 1
	c.implicits[top] = append(c.implicits[top], implicitCandidate{Type: typ, Ref: ref})
}

func (c *Checker) freshVar(k types.Kind) types.TVariable {
	v := c.IDs.FreshVar(k)
	c.varLevel[v.ID] = c.level
	return v
}

// generalize quantifies t over every unification variable free in it
// (after applying the current substitution) whose level exceeds
// bindingLevel — the standard level-based generalization rule (spec
// §4.4 "a variable at level L may be generalized when leaving scope
// level L").
func (c *Checker) generalize(t types.Type, bindingLevel int) types.Type {
	t = c.U.Subst().Apply(t)
	var gens []types.TGeneric
	sub := types.Subst{}
	for _, v := range types.FreeTypeVariables(t) {
		if c.varLevel[v.ID] > bindingLevel {
			g := c.IDs.FreshGeneric(v.KindVal)
			sub[v.ID] = g
			gens = append(gens, g)
		}
	}
	if len(gens) == 0 {
		return t
	}
	return types.Forall(gens, sub.Apply(t))
}

// instantiate replaces a TForall's bound params with fresh unification
// variables at the current level (spec §4.1/§4.4 "generalization /
// instantiation").
func (c *Checker) instantiate(t types.Type) types.Type {
	forall, ok := t.(types.TForall)
	if !ok {
		return t
	}
	sub := make(types.Subst, len(forall.Params))
	for _, p := range forall.Params {
		sub[p.ID] = c.freshVar(p.KindVal)
	}
	return sub.Apply(forall.Body)
}

// resolveVar looks up name against the lexical scopes (innermost
// first), falling back to the checker's own constructor/alias-local
// bindings and finally the shared global environment (spec §4.4's
// three-tier environment).
func (c *Checker) resolveVar(name symbols.Symbol) (types.Type, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if b, ok := c.scopes[i][name]; ok {
			return c.instantiate(b.Type), true
		}
	}
	if t, ok := c.Globals.Lookup(name.String()); ok {
		return c.instantiate(t), true
	}
	return nil, false
}

func (c *Checker) addError(err error) { c.Errors = append(c.Errors, err) }

// GlobalType returns the generalized scheme a top-level `let`/`let rec`
// binding was checked at, looking only in the outermost scope (the one
// Checker.New pushes and checkTopLevelLet/checkTopLevelLetRec never
// pop) — the type internal/pipeline needs to publish alongside the
// binding's compiled-and-run value.
func (c *Checker) GlobalType(name symbols.Symbol) (types.Type, bool) {
	b, ok := c.scopes[0][name]
	return b.Type, ok
}

// ConstructorNames returns every variant constructor registered while
// checking, in declaration order — the order internal/pipeline's
// linker must assign runtime tags in (spec §4.5 "Tag assignment:
// variant constructors receive tags in declaration order").
func (c *Checker) ConstructorNames() []symbols.Symbol { return c.ctorOrder }

// ConstructorInfo returns a constructor's declared arity and full
// curried function type, for callers like internal/pipeline that need
// to install a runtime constructor binding without reaching into
// internal/check's own bookkeeping.
func (c *Checker) ConstructorInfo(name symbols.Symbol) (arity int, fnType types.Type, ok bool) {
	info, ok := c.ctors[name]
	if !ok {
		return 0, nil, false
	}
	return len(info.ArgTypes), types.Forall(info.Params, types.Curry(info.ArgTypes, info.VariantType)), true
}
