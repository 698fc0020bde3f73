package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInferKindOfBuiltins(t *testing.T) {
	ids := &IDGen{}
	k, err := CheckKind(Builtin(TagInt), ids)
	require.NoError(t, err)
	require.True(t, k.Equal(Star))
}

func TestInferKindOfArray(t *testing.T) {
	ids := &IDGen{}
	k, err := CheckKind(Array(Builtin(TagInt)), ids)
	require.NoError(t, err)
	require.True(t, k.Equal(Star))
}

func TestInferKindRejectsRowInRecordPosition(t *testing.T) {
	ids := &IDGen{}
	// Array applied to a bare row-kinded argument fails: Array : Type -> Type.
	bad := Array(TEmptyRow{})
	_, err := CheckKind(bad, ids)
	require.Error(t, err)

	// Wrapped in a Record the same row is a proper Type, which Array accepts.
	wrapped := Array(Record(TEmptyRow{}))
	k, err := CheckKind(wrapped, ids)
	require.NoError(t, err)
	require.True(t, k.Equal(Star))
}

func TestInferKindOfFunctionArrow(t *testing.T) {
	ids := &IDGen{}
	k, err := CheckKind(Function(Builtin(TagInt), Builtin(TagString)), ids)
	require.NoError(t, err)
	require.True(t, k.Equal(Star))
}

func TestInferKindOfEmptyRecord(t *testing.T) {
	ids := &IDGen{}
	k, err := CheckKind(Record(TEmptyRow{}), ids)
	require.NoError(t, err)
	require.True(t, k.Equal(Star))
}

func TestUnifyKindsBindsVariable(t *testing.T) {
	ids := &IDGen{}
	kv := ids.FreshKVar()
	s, err := UnifyKinds(kv, Star)
	require.NoError(t, err)
	require.True(t, ApplyKindSubst(s, kv).Equal(Star))
}

func TestUnifyKindsOccursCheck(t *testing.T) {
	ids := &IDGen{}
	kv := ids.FreshKVar()
	_, err := UnifyKinds(kv, KFunc{Arg: kv, Result: Star})
	require.Error(t, err)
}
