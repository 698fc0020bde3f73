package check

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rowlang/rowlang/internal/ast"
	"github.com/rowlang/rowlang/internal/token"
	"github.com/rowlang/rowlang/internal/types"
)

// closedVariant builds a fully closed (non-polymorphic) variant type
// over the given nullary constructor names, the shape
// checkExhaustiveness requires before it will enumerate anything.
func closedVariant(c *Checker, names ...string) types.Type {
	fields := make([]types.ValueField, len(names))
	for i, n := range names {
		fields[i] = types.ValueField{Name: c.Interner.InternLocal(n), Typ: types.Record(types.TEmptyRow{})}
	}
	return types.Variant(types.ExtendRow(nil, fields, types.TEmptyRow{}))
}

func variantCase(c *Checker, ctor string) ast.MatchCase {
	return ast.MatchCase{Pat: &ast.PVariant{Ctor: c.Interner.InternLocal(ctor)}}
}

// TestCheckExhaustivenessWarnsOnMissingConstructor checks spec §9 Open
// Question 1's resolution: a closed variant match missing a
// constructor and with no catch-all arm produces a warning, never a
// hard error.
func TestCheckExhaustivenessWarnsOnMissingConstructor(t *testing.T) {
	c := newTestChecker()
	variant := closedVariant(c, "A", "B", "C")
	cases := []ast.MatchCase{variantCase(c, "A"), variantCase(c, "B")}

	c.checkExhaustiveness(variant, cases, token.Span{})

	require.Empty(t, c.Errors, "a missing arm must never be a hard error")
	require.Len(t, c.Warnings, 1)
	var warn *NonExhaustiveMatchWarning
	require.ErrorAs(t, c.Warnings[0], &warn)
	require.Equal(t, []string{"C"}, warn.Missing)
}

// TestCheckExhaustivenessCoveredEmitsNothing checks that covering every
// constructor produces no warning.
func TestCheckExhaustivenessCoveredEmitsNothing(t *testing.T) {
	c := newTestChecker()
	variant := closedVariant(c, "A", "B")
	cases := []ast.MatchCase{variantCase(c, "A"), variantCase(c, "B")}

	c.checkExhaustiveness(variant, cases, token.Span{})

	require.Empty(t, c.Errors)
	require.Empty(t, c.Warnings)
}

// TestCheckExhaustivenessCatchAllSuppressesWarning checks that a
// trailing wildcard arm counts as covering every constructor no earlier
// arm names (here B and C, after an explicit A arm).
func TestCheckExhaustivenessCatchAllSuppressesWarning(t *testing.T) {
	c := newTestChecker()
	variant := closedVariant(c, "A", "B", "C")
	cases := []ast.MatchCase{
		variantCase(c, "A"),
		{Pat: &ast.PWildcard{}},
	}

	c.checkExhaustiveness(variant, cases, token.Span{})

	require.Empty(t, c.Errors)
	require.Empty(t, c.Warnings)
}

// TestCheckExhaustivenessSkipsOpenRow checks that a row-polymorphic
// (not-yet-closed) variant is never flagged, since its full
// constructor set isn't known yet (e.g. a function matching on one
// case of a variant whose type is still generic in the caller).
func TestCheckExhaustivenessSkipsOpenRow(t *testing.T) {
	c := newTestChecker()
	tail := c.freshVar(types.RowK)
	fields := []types.ValueField{{Name: c.Interner.InternLocal("A"), Typ: types.Record(types.TEmptyRow{})}}
	openVariant := types.Variant(types.ExtendRow(nil, fields, tail))
	cases := []ast.MatchCase{variantCase(c, "A")}

	c.checkExhaustiveness(openVariant, cases, token.Span{})

	require.Empty(t, c.Errors)
	require.Empty(t, c.Warnings)
}
