package global

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rowlang/rowlang/internal/symbols"
	"github.com/rowlang/rowlang/internal/types"
	"github.com/rowlang/rowlang/internal/vm"
)

// TestDefineAssignsSlotsInPublicationOrder checks the flat-slot
// contract internal/pipeline's linker relies on: each new global gets
// the next index, and Values() returns them in that same order so a
// Thread's Globals slice lines up with every compiled PushGlobal
// operand (spec §3 "module_globals is a table mapping local indices to
// global names").
func TestDefineAssignsSlotsInPublicationOrder(t *testing.T) {
	e := New()

	slotA := e.Define("a", types.Builtin(types.TagInt), vm.VInt(1), Metadata{})
	slotB := e.Define("b", types.Builtin(types.TagInt), vm.VInt(2), Metadata{})

	require.Equal(t, 0, slotA)
	require.Equal(t, 1, slotB)

	sa, ok := e.SlotOf("a")
	require.True(t, ok)
	require.Equal(t, slotA, sa)

	require.Equal(t, []vm.Value{vm.VInt(1), vm.VInt(2)}, e.Values())
}

// TestDefineOnExistingNameReusesSlot checks Define's republication
// path: redefining an already-published name (the same global
// recompiled in a later pipeline.Run call) must not shift every
// later global's slot index.
func TestDefineOnExistingNameReusesSlot(t *testing.T) {
	e := New()
	first := e.Define("x", types.Builtin(types.TagInt), vm.VInt(1), Metadata{})
	second := e.Define("x", types.Builtin(types.TagInt), vm.VInt(99), Metadata{})

	require.Equal(t, first, second)
	typ, ok := e.Lookup("x")
	require.True(t, ok)
	require.Equal(t, types.Builtin(types.TagInt), typ)
	require.Equal(t, []vm.Value{vm.VInt(99)}, e.Values())
}

// TestSetValueOverwritesWithoutChangingSlotOrType exercises the path
// internal/pipeline.runBinding uses: reserve a global under a
// placeholder value, then publish the real one once its thunk has run.
func TestSetValueOverwritesWithoutChangingSlotOrType(t *testing.T) {
	e := New()
	slot := e.Define("loop", types.Builtin(types.TagInt), vm.VTag{}, Metadata{})

	require.NoError(t, e.SetValue("loop", vm.VInt(1000000)))

	s, ok := e.SlotOf("loop")
	require.True(t, ok)
	require.Equal(t, slot, s)
	require.Equal(t, []vm.Value{vm.VInt(1000000)}, e.Values())
}

func TestSetValueOnUndefinedGlobalErrors(t *testing.T) {
	e := New()
	require.Error(t, e.SetValue("nope", vm.VInt(1)))
}

// TestDefineTagIsIdempotentAndOrdered checks spec §4.5's "variant
// constructors receive tags in declaration order" plus the re-linking
// idempotence DefineTag's doc comment promises.
func TestDefineTagIsIdempotentAndOrdered(t *testing.T) {
	e := New()
	nilTag := e.DefineTag("Nil")
	consTag := e.DefineTag("Cons")
	require.Equal(t, uint32(0), nilTag)
	require.Equal(t, uint32(1), consTag)

	again := e.DefineTag("Nil")
	require.Equal(t, nilTag, again, "redeclaring a constructor must not mint a new tag")

	tag, ok := e.TagOf("Cons")
	require.True(t, ok)
	require.Equal(t, consTag, tag)

	_, ok = e.TagOf("Unknown")
	require.False(t, ok)
}

func TestAliasRegistryRoundTrips(t *testing.T) {
	e := New()
	in := symbols.NewInterner()
	group := types.NewAliasGroup([]types.AliasData{{Name: in.InternLocal("List")}}, false)
	ref := types.AliasRef{Group: group, Index: 0}

	e.DefineAlias("List", ref)
	got, ok := e.LookupAlias("List")
	require.True(t, ok)
	require.Equal(t, ref, got)

	_, ok = e.LookupAlias("Missing")
	require.False(t, ok)
}

func TestUserdataAndMacroRegistriesRoundTrip(t *testing.T) {
	e := New()
	e.RegisterType("Handle", 1)
	ty, ok := e.LookupType("Handle")
	require.True(t, ok)
	require.Equal(t, UserdataType{Name: "Handle", Arity: 1}, ty)

	e.RegisterMacro("import", 1)
	m, ok := e.LookupMacro("import")
	require.True(t, ok)
	require.Equal(t, Macro{Name: "import", Arity: 1}, m)

	_, ok = e.LookupType("Missing")
	require.False(t, ok)
	_, ok = e.LookupMacro("missing")
	require.False(t, ok)
}

// TestRegisterExternPublishesACallableExternObj checks that
// RegisterExtern goes through the ordinary Define path so a hostext
// binding resolves via Lookup/Values exactly like any user global,
// wrapped in an ExternObj the VM's dispatchCall can call directly.
func TestRegisterExternPublishesACallableExternObj(t *testing.T) {
	e := New()
	fnType := types.Function(types.Builtin(types.TagInt), types.Builtin(types.TagInt))
	e.RegisterExtern("succ", fnType, 1, func(_ *vm.Thread, args []vm.Value) (vm.Value, error) {
		return args[0].(vm.VInt) + 1, nil
	})

	typ, ok := e.Lookup("succ")
	require.True(t, ok)
	require.Equal(t, fnType, typ)

	values := e.Values()
	require.Len(t, values, 1)
	extern, ok := values[0].(*vm.ExternObj)
	require.True(t, ok)
	require.Equal(t, 1, extern.Arity)

	result, err := extern.Fn(nil, []vm.Value{vm.VInt(41)})
	require.NoError(t, err)
	require.Equal(t, vm.VInt(42), result)

	require.Equal(t, "", e.Doc("succ"), "RegisterExtern does not set a Doc string")
}
