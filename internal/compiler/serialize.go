package compiler

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/rowlang/rowlang/internal/vm"
)

// serializeVersion is the leading version byte every encoded artifact
// carries (spec §6 "Wire / on-disk formats"). Bump it and branch in
// Deserialize whenever the tagged-tree shape below changes in a
// backward-incompatible way.
const serializeVersion = 1

// Serialize encodes fn's whole compiled tree (fn and every function it
// transitively nests in Inner) as a tagged tree of varint and
// length-prefixed records — the same encoding family
// google.golang.org/protobuf's wire format uses, hand-rolled here
// rather than built on the generated-code library so the compiler
// stays free of a reflection-based serialization dependency (spec §6
// SUPPLEMENT; the teacher's generated-protobuf stack is reserved for
// internal/hostext's RPC bindings, never the core). Every string the
// tree mentions — function names, string-literal pool entries,
// deferred global names, record field names, debug file names — is
// deduplicated once into a single leading string table; each function
// node then carries small integer indices into that table instead of
// repeating text.
func Serialize(w io.Writer, fn *vm.BytecodeFunction) error {
	table := newStringTable()
	table.collect(fn)

	e := &encoder{}
	e.writeByte(serializeVersion)
	table.encode(e)
	e.writeFunction(fn, table)

	_, err := w.Write(e.buf.Bytes())
	return err
}

// Deserialize reads an artifact Serialize produced back into a
// *vm.BytecodeFunction tree.
func Deserialize(r io.Reader) (*vm.BytecodeFunction, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	d := &decoder{buf: data}
	version := d.readByte()
	if version != serializeVersion {
		return nil, fmt.Errorf("compiler: unsupported bytecode artifact version %d", version)
	}
	table := decodeStringTable(d)
	fn := d.readFunction(table)
	if d.err != nil {
		return nil, d.err
	}
	return fn, nil
}

// stringTable is the whole artifact's deduplicated string pool,
// indexed by first-seen order across every function in the tree: each
// string any function in the tree refers to is stored here once.
type stringTable struct {
	order []string
	index map[string]int
}

func newStringTable() *stringTable {
	return &stringTable{index: make(map[string]int)}
}

func (t *stringTable) intern(s string) int {
	if i, ok := t.index[s]; ok {
		return i
	}
	i := len(t.order)
	t.order = append(t.order, s)
	t.index[s] = i
	return i
}

// collect walks fn and every nested Inner function, interning every
// string it mentions so the table is complete before any function
// node is encoded against it.
func (t *stringTable) collect(fn *vm.BytecodeFunction) {
	t.intern(fn.Name)
	for _, s := range fn.Strings {
		t.intern(s)
	}
	for _, g := range fn.Globals {
		t.intern(g)
	}
	for _, rec := range fn.Records {
		for _, f := range rec.Fields {
			t.intern(f)
		}
	}
	if fn.DebugFile != "" {
		t.intern(fn.DebugFile)
	}
	for _, inner := range fn.Inner {
		t.collect(inner)
	}
}

func (t *stringTable) encode(e *encoder) {
	e.writeVarint(uint64(len(t.order)))
	for _, s := range t.order {
		e.writeBytes([]byte(s))
	}
}

func decodeStringTable(d *decoder) []string {
	n := d.readCount()
	out := make([]string, n)
	for i := range out {
		out[i] = string(d.readBytes())
	}
	return out
}

// readCount reads a sequence length, rejecting values no well-formed
// artifact of this size could carry so a corrupt length fails cleanly
// instead of forcing an absurd allocation.
func (d *decoder) readCount() int {
	n := d.readVarint()
	if d.err != nil {
		return 0
	}
	if n > uint64(len(d.buf)) {
		d.fail("compiler: malformed count in bytecode artifact")
		return 0
	}
	return int(n)
}

// tableString reads a string-table index and resolves it with a bounds
// check, so a corrupt index fails closed instead of panicking.
func (d *decoder) tableString(table []string) string {
	idx := d.readVarint()
	if d.err != nil {
		return ""
	}
	if idx >= uint64(len(table)) {
		d.fail("compiler: string-table index out of range in bytecode artifact")
		return ""
	}
	return table[idx]
}

// writeFunction encodes one BytecodeFunction node: its scalar fields,
// then each pool (Code, Lines, Strings, Ints, Floats, Globals,
// Records) as a length-prefixed sequence, then its Inner functions
// recursively. Strings/Globals/Records field names are stored as
// table indices rather than raw text.
func (e *encoder) writeFunction(fn *vm.BytecodeFunction, table *stringTable) {
	e.writeVarint(uint64(table.intern(fn.Name)))
	e.writeVarint(uint64(fn.Arity))
	e.writeVarint(uint64(fn.MaxStack))
	e.writeVarint(uint64(fn.FreeVars))
	e.writeBytes(fn.Code)
	e.writeLines(fn.Lines)

	e.writeVarint(uint64(len(fn.Strings)))
	for _, s := range fn.Strings {
		e.writeVarint(uint64(table.intern(s)))
	}
	e.writeVarint(uint64(len(fn.Ints)))
	for _, n := range fn.Ints {
		e.writeZigzag(n)
	}
	e.writeVarint(uint64(len(fn.Floats)))
	for _, f := range fn.Floats {
		e.writeFixed64(math.Float64bits(f))
	}
	e.writeVarint(uint64(len(fn.Globals)))
	for _, g := range fn.Globals {
		e.writeVarint(uint64(table.intern(g)))
	}
	e.writeVarint(uint64(len(fn.Records)))
	for _, rec := range fn.Records {
		e.writeVarint(uint64(len(rec.Fields)))
		for _, f := range rec.Fields {
			e.writeVarint(uint64(table.intern(f)))
		}
	}
	if fn.DebugFile == "" {
		e.writeVarint(0)
	} else {
		e.writeVarint(uint64(table.intern(fn.DebugFile) + 1))
	}

	e.writeVarint(uint64(len(fn.Inner)))
	for _, inner := range fn.Inner {
		e.writeFunction(inner, table)
	}
}

func (d *decoder) readFunction(table []string) *vm.BytecodeFunction {
	fn := &vm.BytecodeFunction{}
	fn.Name = d.tableString(table)
	fn.Arity = int(d.readVarint())
	fn.MaxStack = int(d.readVarint())
	fn.FreeVars = int(d.readVarint())
	fn.Code = d.readBytes()
	fn.Lines = d.readLines(len(fn.Code))

	if n := d.readCount(); n > 0 {
		fn.Strings = make([]string, n)
		for i := range fn.Strings {
			fn.Strings[i] = d.tableString(table)
		}
	}
	if n := d.readCount(); n > 0 {
		fn.Ints = make([]int64, n)
		for i := range fn.Ints {
			fn.Ints[i] = d.readZigzag()
		}
	}
	if n := d.readCount(); n > 0 {
		fn.Floats = make([]float64, n)
		for i := range fn.Floats {
			fn.Floats[i] = math.Float64frombits(d.readFixed64())
		}
	}
	if n := d.readCount(); n > 0 {
		fn.Globals = make([]string, n)
		for i := range fn.Globals {
			fn.Globals[i] = d.tableString(table)
		}
	}
	if n := d.readCount(); n > 0 {
		fn.Records = make([]vm.RecordLayout, n)
		for i := range fn.Records {
			fields := make([]string, d.readCount())
			for j := range fields {
				fields[j] = d.tableString(table)
			}
			fn.Records[i] = vm.RecordLayout{Fields: fields}
		}
	}
	if idx := d.readVarint(); idx > 0 {
		if idx > uint64(len(table)) {
			d.fail("compiler: string-table index out of range in bytecode artifact")
		} else {
			fn.DebugFile = table[idx-1]
		}
	}

	if n := d.readCount(); n > 0 {
		fn.Inner = make([]*vm.BytecodeFunction, n)
		for i := range fn.Inner {
			fn.Inner[i] = d.readFunction(table)
		}
	}
	return fn
}

// writeLines zigzag-delta-encodes a Lines array (one int per Code
// byte, almost always repeating the same source line across a
// multi-byte instruction's operand bytes) so a long run of the same
// line compresses to a run of zero deltas.
func (e *encoder) writeLines(lines []int) {
	e.writeVarint(uint64(len(lines)))
	prev := 0
	for _, l := range lines {
		e.writeZigzag(int64(l - prev))
		prev = l
	}
}

func (d *decoder) readLines(n int) []int {
	count := d.readCount()
	out := make([]int, count)
	prev := int64(0)
	for i := range out {
		prev += d.readZigzag()
		out[i] = int(prev)
	}
	_ = n
	return out
}

// encoder is an append-only byte buffer with the primitive writers the
// wire format needs: unsigned LEB128 varints, zigzag-encoded signed
// varints, fixed-width 8-byte floats, and length-prefixed byte runs.
type encoder struct {
	buf bytes.Buffer
}

func (e *encoder) writeByte(b byte) { e.buf.WriteByte(b) }

func (e *encoder) writeVarint(n uint64) {
	for n >= 0x80 {
		e.buf.WriteByte(byte(n) | 0x80)
		n >>= 7
	}
	e.buf.WriteByte(byte(n))
}

func (e *encoder) writeZigzag(n int64) {
	e.writeVarint(uint64(uint64(n<<1) ^ uint64(n>>63)))
}

func (e *encoder) writeFixed64(bits uint64) {
	var b [8]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(bits >> (8 * i))
	}
	e.buf.Write(b[:])
}

func (e *encoder) writeBytes(b []byte) {
	e.writeVarint(uint64(len(b)))
	e.buf.Write(b)
}

// decoder walks a byte slice written by encoder, failing closed: the
// first malformed read sets err and every subsequent read becomes a
// no-op, so Deserialize's caller only needs to check err once at the
// end rather than after every field.
type decoder struct {
	buf []byte
	pos int
	err error
}

func (d *decoder) fail(format string, args ...any) {
	if d.err == nil {
		d.err = fmt.Errorf(format, args...)
	}
}

func (d *decoder) readByte() byte {
	if d.err != nil || d.pos >= len(d.buf) {
		d.fail("compiler: truncated bytecode artifact")
		return 0
	}
	b := d.buf[d.pos]
	d.pos++
	return b
}

func (d *decoder) readVarint() uint64 {
	var result uint64
	var shift uint
	for {
		b := d.readByte()
		if d.err != nil {
			return 0
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result
		}
		shift += 7
		if shift >= 64 {
			d.fail("compiler: varint overflow in bytecode artifact")
			return 0
		}
	}
}

func (d *decoder) readZigzag() int64 {
	u := d.readVarint()
	return int64(u>>1) ^ -int64(u&1)
}

func (d *decoder) readFixed64() uint64 {
	if d.err != nil || d.pos+8 > len(d.buf) {
		d.fail("compiler: truncated bytecode artifact")
		return 0
	}
	var bits uint64
	for i := 0; i < 8; i++ {
		bits |= uint64(d.buf[d.pos+i]) << (8 * i)
	}
	d.pos += 8
	return bits
}

func (d *decoder) readBytes() []byte {
	n := d.readVarint()
	if d.err != nil {
		return nil
	}
	if d.pos+int(n) > len(d.buf) {
		d.fail("compiler: truncated bytecode artifact")
		return nil
	}
	out := make([]byte, n)
	copy(out, d.buf[d.pos:d.pos+int(n)])
	d.pos += int(n)
	return out
}
