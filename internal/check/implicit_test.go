package check

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rowlang/rowlang/internal/symbols"
	"github.com/rowlang/rowlang/internal/token"
	"github.com/rowlang/rowlang/internal/types"
)

// Scenario 5's "given a type-class-like Eq record and instances for
// Int and List, eq (Cons 1 Nil) (Cons 1 Nil) elaborates to eq
// {{Eq_List {{Eq_Int}}}} ..." names a whole dictionary-passing feature
// this module only implements the single-argument slice of (spec §4.4
// "Implicit arguments": one candidate resolved per leading implicit
// arrow, not a typeclass-method-dispatch layer on top). These tests
// exercise resolveImplicit/elaborateImplicits directly against the
// scoped Type -> Value candidate environment spec §4.4 describes,
// standing in for the full scenario the way pipeline_test.go's other
// five scenarios stand in for their prose.

func newTestChecker() *Checker {
	return New(&types.IDGen{}, symbols.NewInterner(), stubGlobals{})
}

type stubGlobals struct{}

func (stubGlobals) Lookup(string) (types.Type, bool) { return nil, false }

// eqIntType is Int -> Int -> Bool, the shape an `Eq Int` dictionary's
// single method would have.
func eqIntType(c *Checker) types.Type {
	boolT := types.BoolVariant(c.Interner)
	return types.Function(types.Builtin(types.TagInt), types.Function(types.Builtin(types.TagInt), boolT))
}

func TestResolveImplicitSingleCandidateResolves(t *testing.T) {
	c := newTestChecker()
	eqInt := c.Interner.InternLocal("eqInt")
	want := eqIntType(c)

	c.addImplicit(want, eqInt)
	c.resolveImplicit(want, token.Span{})

	require.Empty(t, c.Errors)
}

func TestResolveImplicitInnermostScopeWins(t *testing.T) {
	c := newTestChecker()
	outer := c.Interner.InternLocal("eqIntOuter")
	inner := c.Interner.InternLocal("eqIntInner")
	want := eqIntType(c)

	c.addImplicit(want, outer)
	c.pushScope()
	c.addImplicit(want, inner)

	c.resolveImplicit(want, token.Span{})
	require.Empty(t, c.Errors)

	c.popScope()
}

func TestResolveImplicitAmbiguousWithTwoCandidatesInOneScope(t *testing.T) {
	c := newTestChecker()
	a := c.Interner.InternLocal("eqIntA")
	b := c.Interner.InternLocal("eqIntB")
	want := eqIntType(c)

	c.addImplicit(want, a)
	c.addImplicit(want, b)
	c.resolveImplicit(want, token.Span{})

	require.Len(t, c.Errors, 1)
	var ambiguous *AmbiguousImplicitError
	require.ErrorAs(t, c.Errors[0], &ambiguous)
}

func TestResolveImplicitUnresolvedWithNoCandidates(t *testing.T) {
	c := newTestChecker()
	want := eqIntType(c)

	c.resolveImplicit(want, token.Span{})

	require.Len(t, c.Errors, 1)
	var unresolved *UnresolvedImplicitError
	require.ErrorAs(t, c.Errors[0], &unresolved)
}

// TestElaborateImplicitsPeelsOnlyLeadingImplicitArrows checks that
// elaborateImplicits stops at the first explicit arrow, leaving it
// untouched for inferApp's ordinary unification to match against the
// call site's actual argument (spec §4.4: only a *leading* implicit
// arrow is auto-inserted).
func TestElaborateImplicitsPeelsOnlyLeadingImplicitArrows(t *testing.T) {
	c := newTestChecker()
	eqInt := c.Interner.InternLocal("eqInt")
	implicitDom := eqIntType(c)
	c.addImplicit(implicitDom, eqInt)

	boolT := types.BoolVariant(c.Interner)
	// (Int -> Int -> Bool) -{implicit}-> (String -{explicit}-> Bool):
	// resolving the single leading implicit (the Eq-Int-shaped
	// dictionary argument) must leave the trailing explicit arrow
	// untouched for the caller's own argument to unify against.
	fnType := types.ImplicitFunction(implicitDom,
		types.Function(types.Builtin(types.TagString), boolT))

	result := c.elaborateImplicits(fnType, token.Span{})
	require.Empty(t, c.Errors)

	remaining, ok := result.(types.TFunction)
	require.True(t, ok, "expected the trailing explicit arrow to survive, got %T", result)
	require.Equal(t, types.Explicit, remaining.Arg)
	require.Equal(t, types.Builtin(types.TagString), remaining.Domain)
	require.Equal(t, boolT, remaining.Range)
}
