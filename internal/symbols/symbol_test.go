package symbols

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInternDeduplicates(t *testing.T) {
	in := NewInterner()

	a := in.Intern("List", "map")
	b := in.Intern("List", "map")
	require.Equal(t, a, b)

	c := in.Intern("", "map")
	require.NotEqual(t, a, c, "same name, different module must differ")
}

func TestLookupRoundTrips(t *testing.T) {
	in := NewInterner()
	sym := in.Intern("Option", "Some")

	module, name := in.Lookup(sym)
	require.Equal(t, "Option", module)
	require.Equal(t, "Some", name)
	require.Equal(t, "Option.Some", in.String(sym))
}

func TestInternLocalIsUnqualified(t *testing.T) {
	in := NewInterner()
	sym := in.InternLocal("x")
	require.Equal(t, "x", in.String(sym))
}
