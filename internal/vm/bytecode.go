package vm

// RecordLayout names the fields (in order) of one ConstructRecord
// shape, indexed by BytecodeFunction.Records (spec §4.5
// "ConstructRecord{record, args}").
type RecordLayout struct {
	Fields []string
}

// BytecodeFunction is the immutable-after-publication artifact the
// compiler (C6) emits and a Closure points at (spec §3
// "BytecodeFunction"). Inner holds nested function literals compiled
// alongside it (lambdas, recursive-let members); Globals is
// module_globals, deferred local-index-to-name bindings resolved at
// link time by the global environment (C11).
type BytecodeFunction struct {
	Name      string
	Arity     int
	MaxStack  int
	FreeVars  int // upvars this function's closures capture
	Code      []byte
	Lines     []int
	Inner     []*BytecodeFunction
	Strings   []string
	Ints      []int64
	Floats    []float64
	Globals   []string
	Records   []RecordLayout
	DebugFile string
}

// NewBytecodeFunction creates an empty function shell ready for
// instructions to be appended during compilation.
func NewBytecodeFunction(name string, arity int) *BytecodeFunction {
	return &BytecodeFunction{Name: name, Arity: arity, Code: make([]byte, 0, 256), Lines: make([]int, 0, 256)}
}

// WriteOp appends an opcode byte.
func (f *BytecodeFunction) WriteOp(op Opcode, line int) {
	f.Code = append(f.Code, byte(op))
	f.Lines = append(f.Lines, line)
}

// WriteU16 appends a two-byte big-endian operand.
func (f *BytecodeFunction) WriteU16(n int, line int) {
	f.Code = append(f.Code, byte(n>>8), byte(n))
	f.Lines = append(f.Lines, line, line)
}

// PatchU16 overwrites a previously-written two-byte operand at offset
// (back-patches a forward jump once its destination PC is known).
func (f *BytecodeFunction) PatchU16(offset, n int) {
	f.Code[offset] = byte(n >> 8)
	f.Code[offset+1] = byte(n)
}

// ReadU16 reads a two-byte big-endian operand at offset.
func (f *BytecodeFunction) ReadU16(offset int) int {
	return int(f.Code[offset])<<8 | int(f.Code[offset+1])
}

// Len returns the number of bytes emitted so far (the next
// instruction's PC).
func (f *BytecodeFunction) Len() int { return len(f.Code) }

// AddString interns a string literal into the function's string
// table, returning its index (spec: "strings indexed into function's
// string table").
func (f *BytecodeFunction) AddString(s string) int {
	for i, existing := range f.Strings {
		if existing == s {
			return i
		}
	}
	f.Strings = append(f.Strings, s)
	return len(f.Strings) - 1
}

// AddInt interns an int literal into the function's int pool.
func (f *BytecodeFunction) AddInt(n int64) int {
	for i, existing := range f.Ints {
		if existing == n {
			return i
		}
	}
	f.Ints = append(f.Ints, n)
	return len(f.Ints) - 1
}

// AddFloat interns a float literal into the function's float pool.
func (f *BytecodeFunction) AddFloat(n float64) int {
	for i, existing := range f.Floats {
		if existing == n {
			return i
		}
	}
	f.Floats = append(f.Floats, n)
	return len(f.Floats) - 1
}

// AddRecord registers a ConstructRecord field layout, returning its
// index.
func (f *BytecodeFunction) AddRecord(fields []string) int {
	for i, r := range f.Records {
		if sameFields(r.Fields, fields) {
			return i
		}
	}
	f.Records = append(f.Records, RecordLayout{Fields: fields})
	return len(f.Records) - 1
}

// AddGlobal registers a deferred global reference, returning its
// module-local index.
func (f *BytecodeFunction) AddGlobal(name string) int {
	for i, g := range f.Globals {
		if g == name {
			return i
		}
	}
	f.Globals = append(f.Globals, name)
	return len(f.Globals) - 1
}

func sameFields(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
