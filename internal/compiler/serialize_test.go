package compiler

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rowlang/rowlang/internal/vm"
)

func sampleFunction() *vm.BytecodeFunction {
	fn := vm.NewBytecodeFunction("outer", 1)
	fn.DebugFile = "sample.rowlang"
	si := fn.AddString("hello")
	gi := fn.AddGlobal("print")
	ii := fn.AddInt(42)
	fi := fn.AddFloat(3.5)
	ri := fn.AddRecord([]string{"x", "y"})
	fn.WriteOp(vm.OP_PUSH_STRING, 1)
	fn.WriteU16(si, 1)
	fn.WriteOp(vm.OP_PUSH_GLOBAL, 2)
	fn.WriteU16(gi, 2)
	fn.WriteOp(vm.OP_PUSH_INT, 3)
	fn.WriteU16(ii, 3)
	fn.WriteOp(vm.OP_PUSH_FLOAT, 3)
	fn.WriteU16(fi, 3)
	fn.WriteOp(vm.OP_CONSTRUCT_RECORD, 4)
	fn.WriteU16(ri, 4)
	fn.WriteOp(vm.OP_RETURN, 5)

	inner := vm.NewBytecodeFunction("inner", 0)
	inner.AddString("hello") // same text as outer's, must collapse to one table entry
	inner.WriteOp(vm.OP_RETURN, 1)
	fn.Inner = []*vm.BytecodeFunction{inner}
	return fn
}

func TestSerializeRoundTrips(t *testing.T) {
	fn := sampleFunction()

	var buf bytes.Buffer
	require.NoError(t, Serialize(&buf, fn))

	got, err := Deserialize(&buf)
	require.NoError(t, err)

	require.Equal(t, fn.Name, got.Name)
	require.Equal(t, fn.Arity, got.Arity)
	require.Equal(t, fn.Code, got.Code)
	require.Equal(t, fn.Lines, got.Lines)
	require.Equal(t, fn.Strings, got.Strings)
	require.Equal(t, fn.Globals, got.Globals)
	require.Equal(t, fn.Ints, got.Ints)
	require.Equal(t, fn.Floats, got.Floats)
	require.Equal(t, fn.Records, got.Records)
	require.Equal(t, fn.DebugFile, got.DebugFile)
	require.Len(t, got.Inner, 1)
	require.Equal(t, "inner", got.Inner[0].Name)
	require.Equal(t, []string{"hello"}, got.Inner[0].Strings)
}

func TestSerializeDeduplicatesStringsAcrossTree(t *testing.T) {
	fn := sampleFunction()

	table := newStringTable()
	table.collect(fn)

	count := 0
	for _, s := range table.order {
		if s == "hello" {
			count++
		}
	}
	require.Equal(t, 1, count, "the same literal in a nested function must not duplicate the shared table entry")
}

func TestDeserializeRejectsUnknownVersion(t *testing.T) {
	_, err := Deserialize(bytes.NewReader([]byte{0x7f}))
	require.Error(t, err)
}

func TestDeserializeRejectsTruncatedInput(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Serialize(&buf, sampleFunction()))
	truncated := buf.Bytes()[:buf.Len()-4]

	_, err := Deserialize(bytes.NewReader(truncated))
	require.Error(t, err)
}

func TestVarintRoundTripsAcrossRange(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 300, 1 << 20, 1 << 40}
	for _, v := range values {
		e := &encoder{}
		e.writeVarint(v)
		d := &decoder{buf: e.buf.Bytes()}
		require.Equal(t, v, d.readVarint())
	}
}

func TestZigzagRoundTripsNegatives(t *testing.T) {
	values := []int64{0, -1, 1, -128, 128, -1 << 30}
	for _, v := range values {
		e := &encoder{}
		e.writeZigzag(v)
		d := &decoder{buf: e.buf.Bytes()}
		require.Equal(t, v, d.readZigzag())
	}
}
