package hostext

import (
	"fmt"

	"github.com/funvibe/funbit/pkg/funbit"

	"github.com/rowlang/rowlang/internal/global"
	"github.com/rowlang/rowlang/internal/types"
	"github.com/rowlang/rowlang/internal/vm"
)

// RegisterBits publishes the binary-data externs over Array<Byte> using
// github.com/funvibe/funbit, the teacher's Erlang-style bitstring
// construction/matching dependency. Like uuid, funbit is a direct
// dependency of the teacher's go.mod that its core never imports by
// name — it is reached through the ext build-plugin surface — so the
// binding shape here follows funbit's own builder/matcher API rather
// than any one teacher call site:
//
//	bits.packInt   : Int -> Int -> Array<Byte>   (value, size in bits)
//	bits.unpackInt : Array<Byte> -> Int -> Int   (bytes, size in bits)
//	bits.concat    : Array<Byte> -> Array<Byte> -> Array<Byte>
//
// Sizes follow Erlang bit-syntax semantics: big-endian, unsigned, and
// a pack of n bits occupies ceil(n/8) bytes with the value left-aligned
// the way funbit's builder lays segments out.
func RegisterBits(e *global.Env) {
	intT := types.Builtin(types.TagInt)
	bytesT := types.Array(types.Builtin(types.TagByte))

	e.RegisterExtern("bits.packInt", types.Curry([]types.Type{intT, intT}, bytesT), 2,
		func(t *vm.Thread, args []vm.Value) (vm.Value, error) {
			value, ok := args[0].(vm.VInt)
			if !ok {
				return nil, &HostTypeError{Extern: "bits.packInt", Want: "Int"}
			}
			size, ok := args[1].(vm.VInt)
			if !ok || size <= 0 {
				return nil, &HostTypeError{Extern: "bits.packInt", Want: "Int"}
			}
			b := funbit.NewBuilder()
			funbit.AddInteger(b, int(value), funbit.WithSize(uint(size)))
			bs, err := funbit.Build(b)
			if err != nil {
				return nil, fmt.Errorf("bits.packInt: %w", err)
			}
			obj := &vm.ArrayObj{Kind: vm.ElemByte, Bytes: bs.ToBytes()}
			t.Track(obj)
			return obj, nil
		})

	e.RegisterExtern("bits.unpackInt", types.Curry([]types.Type{bytesT, intT}, intT), 2,
		func(t *vm.Thread, args []vm.Value) (vm.Value, error) {
			data, ok := args[0].(*vm.ArrayObj)
			if !ok || data.Kind != vm.ElemByte {
				return nil, &HostTypeError{Extern: "bits.unpackInt", Want: "Array<Byte>"}
			}
			size, ok := args[1].(vm.VInt)
			if !ok || size <= 0 {
				return nil, &HostTypeError{Extern: "bits.unpackInt", Want: "Int"}
			}
			var out int
			var rest []byte
			m := funbit.NewMatcher()
			funbit.Integer(m, &out, funbit.WithSize(uint(size)))
			funbit.RestBinary(m, &rest)
			if _, err := funbit.Match(m, funbit.NewBitStringFromBytes(data.Bytes)); err != nil {
				return nil, fmt.Errorf("bits.unpackInt: %w", err)
			}
			return vm.VInt(out), nil
		})

	e.RegisterExtern("bits.concat", types.Curry([]types.Type{bytesT, bytesT}, bytesT), 2,
		func(t *vm.Thread, args []vm.Value) (vm.Value, error) {
			a, ok := args[0].(*vm.ArrayObj)
			if !ok || a.Kind != vm.ElemByte {
				return nil, &HostTypeError{Extern: "bits.concat", Want: "Array<Byte>"}
			}
			bArr, ok := args[1].(*vm.ArrayObj)
			if !ok || bArr.Kind != vm.ElemByte {
				return nil, &HostTypeError{Extern: "bits.concat", Want: "Array<Byte>"}
			}
			b := funbit.NewBuilder()
			funbit.AddBinary(b, a.Bytes)
			funbit.AddBinary(b, bArr.Bytes)
			bs, err := funbit.Build(b)
			if err != nil {
				return nil, fmt.Errorf("bits.concat: %w", err)
			}
			obj := &vm.ArrayObj{Kind: vm.ElemByte, Bytes: bs.ToBytes()}
			t.Track(obj)
			return obj, nil
		})
}
