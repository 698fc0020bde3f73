package types

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rowlang/rowlang/internal/symbols"
)

func field(in *symbols.Interner, name string, t Type) ValueField {
	return ValueField{Name: in.InternLocal(name), Typ: t}
}

func TestUnifyBuiltinsMatch(t *testing.T) {
	u := NewUnifier(&IDGen{})
	require.NoError(t, u.Unify(Builtin(TagInt), Builtin(TagInt)))
	require.Error(t, u.Unify(Builtin(TagInt), Builtin(TagString)))
}

func TestUnifyBindsVariable(t *testing.T) {
	ids := &IDGen{}
	u := NewUnifier(ids)
	v := ids.FreshVar(Star)
	require.NoError(t, u.Unify(v, Builtin(TagInt)))
	require.Equal(t, Builtin(TagInt), u.Subst().Apply(v))
}

func TestUnifyOccursCheckFails(t *testing.T) {
	ids := &IDGen{}
	u := NewUnifier(ids)
	v := ids.FreshVar(Star)
	cyclic := Array(v)
	err := u.Unify(v, cyclic)
	require.Error(t, err)
	var occ *OccursError
	require.ErrorAs(t, err, &occ)
}

func TestUnifyRowsWithCommonFields(t *testing.T) {
	in := symbols.NewInterner()
	ids := &IDGen{}
	u := NewUnifier(ids)

	row1 := ExtendRow(nil, []ValueField{field(in, "x", Builtin(TagInt))}, TEmptyRow{})
	row2 := ExtendRow(nil, []ValueField{field(in, "x", Builtin(TagInt))}, TEmptyRow{})

	require.NoError(t, u.Unify(Record(row1), Record(row2)))
}

func TestUnifyClosedRowsMissingFieldFails(t *testing.T) {
	in := symbols.NewInterner()
	ids := &IDGen{}
	u := NewUnifier(ids)

	row1 := ExtendRow(nil, []ValueField{field(in, "x", Builtin(TagInt))}, TEmptyRow{})
	row2 := ExtendRow(nil, nil, TEmptyRow{})

	err := u.Unify(Record(row1), Record(row2))
	require.Error(t, err)
	var mf *MissingFieldError
	require.ErrorAs(t, err, &mf)
}

func TestUnifyOpenRowAcceptsExtraFields(t *testing.T) {
	in := symbols.NewInterner()
	ids := &IDGen{}
	u := NewUnifier(ids)

	open := ids.FreshVar(RowK)
	polyRow := ExtendRow(nil, []ValueField{field(in, "x", Builtin(TagInt))}, open)
	closedRow := ExtendRow(nil, []ValueField{
		field(in, "x", Builtin(TagInt)),
		field(in, "y", Builtin(TagString)),
	}, TEmptyRow{})

	require.NoError(t, u.Unify(Record(polyRow), Record(closedRow)))
}

func TestUnifyFunctionArrows(t *testing.T) {
	ids := &IDGen{}
	u := NewUnifier(ids)
	f1 := Function(Builtin(TagInt), Builtin(TagString))
	f2 := Function(Builtin(TagInt), Builtin(TagString))
	require.NoError(t, u.Unify(f1, f2))

	f3 := ImplicitFunction(Builtin(TagInt), Builtin(TagString))
	require.Error(t, u.Unify(f1, f3))
}

func TestUnifyAliasUnfoldsOneStep(t *testing.T) {
	ids := &IDGen{}
	in := symbols.NewInterner()
	group := NewAliasGroup([]AliasData{{
		Name: in.InternLocal("IntAlias"),
		Body: Builtin(TagInt),
	}}, false)
	aliased := Alias(AliasRef{Group: group, Index: 0})

	u := NewUnifier(ids)
	require.NoError(t, u.Unify(aliased, Builtin(TagInt)))
}

func TestUnifyOpaqueAliasNeverUnfolds(t *testing.T) {
	ids := &IDGen{}
	in := symbols.NewInterner()
	group := NewAliasGroup([]AliasData{{
		Name: in.InternLocal("Hidden"),
		Body: Builtin(TagInt),
	}}, true)
	aliased := Alias(AliasRef{Group: group, Index: 0})

	u := NewUnifier(ids)
	require.Error(t, u.Unify(aliased, Builtin(TagInt)))
}

func TestIntersectDoesNotMutateOriginal(t *testing.T) {
	ids := &IDGen{}
	v := ids.FreshVar(Star)
	result, err := Intersect(ids, v, Builtin(TagInt))
	require.NoError(t, err)
	require.Equal(t, Builtin(TagInt), result)

	u := NewUnifier(ids)
	require.Equal(t, v, u.Find(v))
}
