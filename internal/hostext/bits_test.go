package hostext

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rowlang/rowlang/internal/global"
	"github.com/rowlang/rowlang/internal/vm"
)

func newBitsEnv(t *testing.T) (*global.Env, *vm.Thread) {
	t.Helper()
	e := global.New()
	RegisterBits(e)
	thread := vm.NewThread(nil, &vm.ClosureObj{Function: vm.NewBytecodeFunction("main", 0)})
	return e, thread
}

func externNamed(t *testing.T, e *global.Env, name string) *vm.ExternObj {
	t.Helper()
	slot, ok := e.SlotOf(name)
	require.True(t, ok, "extern %q must be registered", name)
	ext, ok := e.Values()[slot].(*vm.ExternObj)
	require.True(t, ok, "%q must be published as an ExternObj", name)
	return ext
}

// TestBitsPackUnpackRoundTrip drives the funbit builder and matcher
// through the registered externs: packing an integer at a bit size and
// unpacking at the same size must hand the value back.
func TestBitsPackUnpackRoundTrip(t *testing.T) {
	e, thread := newBitsEnv(t)
	pack := externNamed(t, e, "bits.packInt")
	unpack := externNamed(t, e, "bits.unpackInt")

	for _, tc := range []struct {
		value int64
		size  int64
	}{
		{value: 42, size: 8},
		{value: 0x1234, size: 16},
		{value: 7, size: 32},
	} {
		packed, err := pack.Fn(thread, []vm.Value{vm.VInt(tc.value), vm.VInt(tc.size)})
		require.NoError(t, err)
		arr, ok := packed.(*vm.ArrayObj)
		require.True(t, ok)
		require.Equal(t, vm.ElemByte, arr.Kind)
		require.Len(t, arr.Bytes, int(tc.size/8))

		unpacked, err := unpack.Fn(thread, []vm.Value{arr, vm.VInt(tc.size)})
		require.NoError(t, err)
		require.Equal(t, vm.VInt(tc.value), unpacked, "round trip at size %d", tc.size)
	}
}

// TestBitsPackIsBigEndian pins the Erlang bit-syntax default the doc
// comment promises: multi-byte segments lay out most significant byte
// first.
func TestBitsPackIsBigEndian(t *testing.T) {
	e, thread := newBitsEnv(t)
	pack := externNamed(t, e, "bits.packInt")

	packed, err := pack.Fn(thread, []vm.Value{vm.VInt(0x0102), vm.VInt(16)})
	require.NoError(t, err)
	require.Equal(t, []byte{0x01, 0x02}, packed.(*vm.ArrayObj).Bytes)
}

func TestBitsConcatJoinsByteArrays(t *testing.T) {
	e, thread := newBitsEnv(t)
	concat := externNamed(t, e, "bits.concat")

	a := &vm.ArrayObj{Kind: vm.ElemByte, Bytes: []byte{1, 2}}
	b := &vm.ArrayObj{Kind: vm.ElemByte, Bytes: []byte{3}}
	joined, err := concat.Fn(thread, []vm.Value{a, b})
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, joined.(*vm.ArrayObj).Bytes)
}

func TestBitsRejectsWrongRuntimeTypes(t *testing.T) {
	e, thread := newBitsEnv(t)
	pack := externNamed(t, e, "bits.packInt")

	_, err := pack.Fn(thread, []vm.Value{vm.VFloat(1.0), vm.VInt(8)})
	var typeErr *HostTypeError
	require.ErrorAs(t, err, &typeErr)
}
