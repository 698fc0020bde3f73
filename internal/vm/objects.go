package vm

import (
	"fmt"
	"strings"
)

// StringObj is a GC-managed immutable UTF-8 byte string (spec:
// "String(ptr) — GC-managed immutable UTF-8 byte string").
type StringObj struct {
	Header
	Data string
}

func (*StringObj) isValue()              {}
func (s *StringObj) String() string      { return fmt.Sprintf("%q", s.Data) }
func (s *StringObj) Trace(func(Value))   {} // no contained Values
func (s *StringObj) TypeName() string    { return "String" }

// DataObj is a GC-managed record/variant payload (spec: "Data { tag,
// fields }").
type DataObj struct {
	Header
	Tag    uint32
	Fields []Value
	// Layout names Fields when this Data was built by ConstructRecord
	// (nil for variant constructors built by Construct, which are
	// always accessed by statically-known tag+offset). GetField uses it
	// to resolve a field name to an offset at runtime when the compiler
	// could not prove a monomorphic GetOffset was safe (spec: polymorphic
	// field access over an open row).
	Layout *RecordLayout
}

func (*DataObj) isValue() {}
func (d *DataObj) String() string {
	parts := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		parts[i] = f.String()
	}
	return fmt.Sprintf("Data{tag=%d, [%s]}", d.Tag, strings.Join(parts, ", "))
}
func (d *DataObj) Trace(mark func(Value)) {
	for _, f := range d.Fields {
		mark(f)
	}
}
func (d *DataObj) TypeName() string { return "Data" }

// ArrayElemKind tags an Array's element representation so the GC can
// decide whether to trace elements (spec: "Array(ptr) — homogeneous
// array with element-kind tag (byte/float/value)").
type ArrayElemKind byte

const (
	ElemByte ArrayElemKind = iota
	ElemFloat
	ElemValue
)

// ArrayObj is a GC-managed homogeneous array.
type ArrayObj struct {
	Header
	Kind   ArrayElemKind
	Bytes  []byte
	Floats []float64
	Values []Value
}

func (*ArrayObj) isValue() {}
func (a *ArrayObj) String() string {
	switch a.Kind {
	case ElemByte:
		return fmt.Sprintf("Array<Byte>[%d]", len(a.Bytes))
	case ElemFloat:
		return fmt.Sprintf("Array<Float>[%d]", len(a.Floats))
	default:
		return fmt.Sprintf("Array<Value>[%d]", len(a.Values))
	}
}
func (a *ArrayObj) Trace(mark func(Value)) {
	if a.Kind != ElemValue {
		return // byte/float arrays hold no GC pointers
	}
	for _, v := range a.Values {
		mark(v)
	}
}
func (a *ArrayObj) TypeName() string { return "Array" }
func (a *ArrayObj) Len() int {
	switch a.Kind {
	case ElemByte:
		return len(a.Bytes)
	case ElemFloat:
		return len(a.Floats)
	default:
		return len(a.Values)
	}
}

// ClosureObj is a GC-managed function value with captured upvars
// (spec: "Closure { function, upvars }").
type ClosureObj struct {
	Header
	Function *BytecodeFunction
	Upvars   []Value
}

func (*ClosureObj) isValue() {}
func (c *ClosureObj) String() string { return fmt.Sprintf("<closure %s/%d>", c.Function.Name, c.Function.Arity) }
func (c *ClosureObj) Trace(mark func(Value)) {
	for _, u := range c.Upvars {
		mark(u)
	}
}
func (c *ClosureObj) TypeName() string { return "Closure" }
func (c *ClosureObj) Arity() int       { return c.Function.Arity }

// ExternFn is a host-implemented primitive invoked by the interpreter
// loop when a frame's state is Extern (spec §4.8).
type ExternFn func(t *Thread, args []Value) (Value, error)

// ExternObj is a GC-managed descriptor of an extern function (spec:
// "Function(extern_ptr) — descriptor of an extern function { id, args,
// fn_ptr }").
type ExternObj struct {
	Header
	ID    string
	Arity int
	Fn    ExternFn
}

func (*ExternObj) isValue() {}
func (e *ExternObj) String() string { return fmt.Sprintf("<extern %s/%d>", e.ID, e.Arity) }
func (e *ExternObj) Trace(func(Value)) {} // externs capture no GC state of their own
func (e *ExternObj) TypeName() string  { return "Function" }

// PartialAppObj records a partially-applied function (spec:
// "PartialApplication { function, arguments }"). Callable is either a
// *ClosureObj or a *ExternObj (invariant: Arguments is always shorter
// than the callable's arity, enforced at construction in vm.go).
type PartialAppObj struct {
	Header
	Callable  Value
	Arguments []Value
}

func (*PartialAppObj) isValue() {}
func (p *PartialAppObj) String() string {
	return fmt.Sprintf("<partial %s +%d args>", p.Callable, len(p.Arguments))
}
func (p *PartialAppObj) Trace(mark func(Value)) {
	mark(p.Callable)
	for _, a := range p.Arguments {
		mark(a)
	}
}
func (p *PartialAppObj) TypeName() string { return "PartialApplication" }

// callableArity returns the declared arity of a Closure/Extern/partial
// application value, or -1 if v is not callable.
func callableArity(v Value) int {
	switch c := v.(type) {
	case *ClosureObj:
		return c.Function.Arity
	case *ExternObj:
		return c.Arity
	case *PartialAppObj:
		return callableArity(c.Callable) - len(c.Arguments)
	default:
		return -1
	}
}

// TraceHook lets host-owned Userdata expose its own GC pointers (spec:
// "Userdata: delegate to the userdata's traversal hook").
type TraceHook func(mark func(Value))

// UserdataObj is opaque host-owned data (spec: "Userdata(ptr) — opaque
// host-owned data with a traversal hook").
type UserdataObj struct {
	Header
	TypeName_ string
	Data      any
	Trace_    TraceHook
	Finalizer func(any)
}

func (*UserdataObj) isValue() {}
func (u *UserdataObj) String() string { return fmt.Sprintf("<userdata %s>", u.TypeName_) }
func (u *UserdataObj) Trace(mark func(Value)) {
	if u.Trace_ != nil {
		u.Trace_(mark)
	}
}
func (u *UserdataObj) TypeName() string { return u.TypeName_ }
