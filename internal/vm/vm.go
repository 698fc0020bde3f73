package vm

import "fmt"

// ThreadStatus tracks a Thread's cooperative-scheduling state (spec §6
// SUPPLEMENT "Thread.Resume/Yield").
type ThreadStatus byte

const (
	ThreadReady ThreadStatus = iota
	ThreadRunning
	ThreadYielded
	ThreadDone
	ThreadPanicked
)

func (s ThreadStatus) String() string {
	switch s {
	case ThreadReady:
		return "ready"
	case ThreadRunning:
		return "running"
	case ThreadYielded:
		return "yielded"
	case ThreadDone:
		return "done"
	default:
		return "panicked"
	}
}

type threadMsgKind byte

const (
	msgYield threadMsgKind = iota
	msgReturn
	msgError
)

type threadMsg struct {
	kind  threadMsgKind
	value Value
	err   error
}

// Thread is a VM instance (spec: "Thread(ptr) — another VM instance").
// It owns its own Stack and a generational child Gc, and is itself a
// GC-managed Value/Object so closures can pass threads around as first
// class data (e.g. storing a spawned worker in a Data field).
//
// Resume/Yield are implemented the idiomatic Go way for a cooperative
// coroutine: the thread's body runs on its own goroutine, and control
// is handed back and forth over a pair of unbuffered channels rather
// than through any kind of saved native stack snapshot.
type Thread struct {
	Header
	entry    *ClosureObj
	stack    *Stack
	gc       *Gc
	parent   *Thread
	rooted   []Value
	status   ThreadStatus
	started  bool
	resumeCh chan []Value
	yieldCh  chan threadMsg

	// Globals holds the module-local global slots this thread's program
	// was linked against (spec §4.9 "the global environment resolves
	// module_globals at link time"); internal/pipeline populates it
	// before the first Resume/CallFunction so OP_PUSH_GLOBAL never has
	// to reach back into the global environment's map/lock at runtime.
	Globals []Value
}

// SetGlobals installs the linked module-global slots this thread's
// bytecode indexes by position.
func (t *Thread) SetGlobals(globals []Value) { t.Globals = globals }

// NewThread creates a thread ready to run entry once Resumed. parent is
// nil for the root thread the embedder creates directly.
func NewThread(parent *Thread, entry *ClosureObj) *Thread {
	var g *Gc
	if parent != nil {
		g = NewChildGc(parent.gc)
	} else {
		g = NewGc()
	}
	return &Thread{
		entry:    entry,
		stack:    NewStack(),
		gc:       g,
		parent:   parent,
		status:   ThreadReady,
		resumeCh: make(chan []Value),
		yieldCh:  make(chan threadMsg),
	}
}

func (*Thread) isValue()                  {}
func (t *Thread) String() string          { return fmt.Sprintf("<thread %s>", t.status) }
func (t *Thread) TypeName() string        { return "Thread" }
func (t *Thread) Trace(mark func(Value))  {
	for _, v := range t.stack.values {
		mark(v)
	}
	for _, v := range t.rooted {
		mark(v)
	}
	for _, v := range t.Globals {
		mark(v)
	}
}

func (t *Thread) gcStack() *Stack   { return t.stack }
func (t *Thread) gcRooted() []Value { return t.rooted }
func (t *Thread) gcParent() *Thread { return t.parent }

// Root pins a value against collection for the rest of the thread's
// life (used by the embedder API to hold onto values across Resume
// calls); there is no call that unpins it.
func (t *Thread) Root(v Value) { t.rooted = append(t.rooted, v) }

// Track registers a freshly allocated heap object on this thread's Gc so
// the collector actually traces what the running program produces,
// instead of the allocation list sitting permanently empty: every
// OP_CONSTRUCT/OP_PUSH_STRING/OP_MAKE_CLOSURE-family site in step and
// the PartialAppObj/excess-box construction in dispatchCall call it
// directly; internal/global's and internal/hostext's ExternFn
// implementations call it too, for the objects they allocate outside
// the bytecode interpreter loop.
func (t *Thread) Track(o Object) { t.gc.Track(o) }

// Collect runs a GC cycle on this thread's heap, if allocations since
// the last cycle have crossed its threshold, rooted at this thread
// plus any caller-supplied extra roots (typically the global
// environment's live bindings).
func (t *Thread) Collect(extraRoots []Value) {
	if t.gc.ShouldCollect() {
		t.gc.Collect(t, extraRoots)
	}
}

// Resume starts the thread (first call) or hands control back to it
// after a prior Yield (subsequent calls), blocking until the thread
// either yields again, returns, or errors (spec §6 SUPPLEMENT).
func (t *Thread) Resume(args []Value) (Value, error) {
	if t.status == ThreadDone || t.status == ThreadPanicked {
		return nil, &DeadThreadError{}
	}
	t.status = ThreadRunning
	if !t.started {
		t.started = true
		go t.run(args)
	} else {
		t.resumeCh <- args
	}
	msg := <-t.yieldCh
	switch msg.kind {
	case msgYield:
		t.status = ThreadYielded
		return msg.value, nil
	case msgReturn:
		t.status = ThreadDone
		return msg.value, nil
	default:
		t.status = ThreadPanicked
		return nil, msg.err
	}
}

func (t *Thread) run(args []Value) {
	v, err := t.CallFunction(t.entry, args)
	if err != nil {
		t.yieldCh <- threadMsg{kind: msgError, err: err}
		return
	}
	t.yieldCh <- threadMsg{kind: msgReturn, value: v}
}

// Yield suspends the calling extern's thread, handing value back to
// whoever called Resume, and blocks until the next Resume supplies
// fresh arguments. It is called directly from Go by an extern running
// on this thread; no extern in this module calls it.
func (t *Thread) Yield(value Value) []Value {
	t.yieldCh <- threadMsg{kind: msgYield, value: value}
	return <-t.resumeCh
}

// CallFunction invokes a Closure or Extern synchronously within this
// thread's own stack and returns its result, without forking a new
// Thread (spec §6 SUPPLEMENT "Thread.CallFunction"). For a Closure or
// PartialApplication it pushes a sentinel Lock frame marking the
// reentrant call's floor, runs the flat dispatch loop until control
// unwinds back down to that floor, then pops the sentinel. OP_CALL
// inside the loop does not come through here; it calls dispatchCall.
func (t *Thread) CallFunction(callee Value, args []Value) (Value, error) {
	switch c := callee.(type) {
	case *ExternObj:
		switch {
		case len(args) == c.Arity:
			return c.Fn(t, args)
		case len(args) < c.Arity:
			obj := &PartialAppObj{Callable: c, Arguments: append([]Value{}, args...)}
			t.Track(obj)
			return obj, nil
		default:
			result, err := c.Fn(t, args[:c.Arity])
			if err != nil {
				return nil, err
			}
			return t.CallFunction(result, args[c.Arity:])
		}
	case *ClosureObj, *PartialAppObj:
		floor := t.stack.FrameDepth()
		if err := t.stack.PushFrame(Frame{Base: t.stack.Len(), State: StateLock}); err != nil {
			return nil, err
		}
		t.stack.Push(callee)
		for _, a := range args {
			t.stack.Push(a)
		}
		if err := t.dispatchCall(len(args), false); err != nil {
			return nil, err
		}
		result, err := t.runLoop(floor + 1)
		if err != nil {
			return nil, err
		}
		t.stack.PopFrame() // the Lock sentinel
		return result, nil
	default:
		return nil, &NotCallableError{Got: callee}
	}
}

// runLoop executes instructions until the frame stack depth drops back
// to floor, then returns the value left on top of the operand stack
// (spec §4.8 interpreter loop; flat rather than recursive so TailCall
// can reuse a frame instead of growing the Go call stack).
func (t *Thread) runLoop(floor int) (Value, error) {
	for t.stack.FrameDepth() > floor {
		fr := t.stack.CurrentFrame()
		if fr.State == StateLock {
			// A nested CallFunction floor was reached with nothing left
			// to run above it; its result is already on the stack.
			return t.stack.Peek(0), nil
		}
		fn := fr.Closure.Function
		op := Opcode(fn.Code[fr.PC])
		line := fn.Lines[fr.PC]
		fr.PC++
		if err := t.step(op, fn, fr, line); err != nil {
			return nil, err
		}
	}
	if t.stack.Len() == 0 {
		return nil, nil
	}
	return t.stack.Peek(0), nil
}

func readU16(code []byte, pc int) int { return int(code[pc])<<8 | int(code[pc+1]) }

// step executes a single instruction on the current frame, advancing
// fr.PC past any operand bytes itself.
func (t *Thread) step(op Opcode, fn *BytecodeFunction, fr *Frame, line int) error {
	s := t.stack
	operand := func() int {
		n := readU16(fn.Code, fr.PC)
		fr.PC += 2
		return n
	}

	// Run a collection, if the heap warrants one, before this
	// instruction does any allocating of its own (spec §4.7
	// "alloc_and_collect runs a collection before allocation"). Doing
	// this at the top of step, rather than immediately before each
	// individual allocation, means the check always runs while the
	// operand stack and frames are still in the fully-consistent state
	// the previous instruction left them in — nothing has been popped
	// yet that this instruction's own result will re-wrap.
	if t.gc.ShouldCollect() {
		t.gc.Collect(t, nil)
	}

	switch op {
	case OP_PUSH:
		s.Push(s.Get(fr.Base + operand()))
	case OP_PUSH_INT:
		s.Push(VInt(fn.Ints[operand()]))
	case OP_PUSH_BYTE:
		s.Push(VByte(byte(operand())))
	case OP_PUSH_FLOAT:
		s.Push(VFloat(fn.Floats[operand()]))
	case OP_PUSH_STRING:
		k := operand()
		obj := &StringObj{Data: fn.Strings[k]}
		t.Track(obj)
		s.Push(obj)
	case OP_PUSH_CHAR:
		s.Push(VChar(rune(operand())))
	case OP_PUSH_GLOBAL:
		s.Push(t.Globals[operand()])
	case OP_PUSH_UPVAR:
		k := operand()
		s.Push(fr.Closure.Upvars[k])
	case OP_POP:
		s.Truncate(s.Len() - operand())
	case OP_SLIDE:
		n := operand()
		top := s.Pop()
		s.Truncate(s.Len() - n)
		s.Push(top)

	case OP_CALL:
		n := operand()
		return t.dispatchCall(n, false)
	case OP_TAIL_CALL:
		n := operand()
		return t.dispatchCall(n, true)
	case OP_RETURN:
		ret := s.Pop()
		done := s.PopFrame()
		s.Truncate(done.Base)
		s.Push(ret)
		if done.ExcessBox != nil {
			return t.reapplyExcess(done.ExcessBox, ret)
		}

	case OP_CONSTRUCT:
		tag := operand()
		argc := operand()
		args := s.PopN(argc)
		obj := &DataObj{Tag: uint32(tag), Fields: args}
		t.Track(obj)
		s.Push(obj)
	case OP_CONSTRUCT_RECORD:
		rec := operand()
		argc := operand()
		args := s.PopN(argc)
		obj := &DataObj{Fields: args, Layout: &fn.Records[rec]}
		t.Track(obj)
		s.Push(obj)
	case OP_CONSTRUCT_ARRAY:
		n := operand()
		vals := s.PopN(n)
		obj := &ArrayObj{Kind: ElemValue, Values: vals}
		t.Track(obj)
		s.Push(obj)

	case OP_GET_FIELD:
		k := operand()
		name := fn.Strings[k]
		d := s.Pop().(*DataObj)
		idx := -1
		for i, f := range d.Layout.Fields {
			if f == name {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("field %q not present at runtime (unification guarantees this cannot happen)", name)
		}
		s.Push(d.Fields[idx])
	case OP_GET_OFFSET:
		k := operand()
		d := s.Pop().(*DataObj)
		s.Push(d.Fields[k])
	case OP_TEST_TAG:
		tag := operand()
		switch v := s.Pop().(type) {
		case VTag:
			s.Push(vBool(uint32(v.ID) == uint32(tag)))
		case *DataObj:
			s.Push(vBool(v.Tag == uint32(tag)))
		default:
			return fmt.Errorf("TestTag against non-variant value %s", v)
		}
	case OP_SPLIT:
		d := s.Pop().(*DataObj)
		for _, f := range d.Fields {
			s.Push(f)
		}

	case OP_JUMP:
		fr.PC = operand()
	case OP_CJUMP:
		target := operand()
		if toBool(s.Pop()) {
			fr.PC = target
		}

	case OP_MAKE_CLOSURE:
		fi := operand()
		uc := operand()
		upvars := s.PopN(uc)
		obj := &ClosureObj{Function: fn.Inner[fi], Upvars: upvars}
		t.Track(obj)
		s.Push(obj)
	case OP_NEW_CLOSURE:
		fi := operand()
		_ = operand() // upvar count reserved for the matching CloseClosure
		obj := &ClosureObj{Function: fn.Inner[fi]}
		t.Track(obj)
		s.Push(obj)
	case OP_CLOSE_CLOSURE:
		slot := operand()
		uc := operand()
		upvars := s.PopN(uc)
		cl := s.Get(fr.Base + slot).(*ClosureObj)
		cl.Upvars = upvars

	case OP_ADD_INT:
		b, a := s.Pop().(VInt), s.Pop().(VInt)
		s.Push(a + b)
	case OP_SUB_INT:
		b, a := s.Pop().(VInt), s.Pop().(VInt)
		s.Push(a - b)
	case OP_MUL_INT:
		b, a := s.Pop().(VInt), s.Pop().(VInt)
		s.Push(a * b)
	case OP_DIV_INT:
		b, a := s.Pop().(VInt), s.Pop().(VInt)
		if b == 0 {
			return &DivisionByZeroError{}
		}
		s.Push(a / b)
	case OP_MOD_INT:
		b, a := s.Pop().(VInt), s.Pop().(VInt)
		if b == 0 {
			return &DivisionByZeroError{}
		}
		s.Push(a % b)
	case OP_NEG_INT:
		s.Push(-s.Pop().(VInt))
	case OP_INT_EQ:
		b, a := s.Pop().(VInt), s.Pop().(VInt)
		s.Push(vBool(a == b))
	case OP_INT_LT:
		b, a := s.Pop().(VInt), s.Pop().(VInt)
		s.Push(vBool(a < b))
	case OP_INT_LE:
		b, a := s.Pop().(VInt), s.Pop().(VInt)
		s.Push(vBool(a <= b))
	case OP_INT_GT:
		b, a := s.Pop().(VInt), s.Pop().(VInt)
		s.Push(vBool(a > b))
	case OP_INT_GE:
		b, a := s.Pop().(VInt), s.Pop().(VInt)
		s.Push(vBool(a >= b))

	case OP_ADD_FLOAT:
		b, a := s.Pop().(VFloat), s.Pop().(VFloat)
		s.Push(a + b)
	case OP_SUB_FLOAT:
		b, a := s.Pop().(VFloat), s.Pop().(VFloat)
		s.Push(a - b)
	case OP_MUL_FLOAT:
		b, a := s.Pop().(VFloat), s.Pop().(VFloat)
		s.Push(a * b)
	case OP_DIV_FLOAT:
		b, a := s.Pop().(VFloat), s.Pop().(VFloat)
		s.Push(a / b)
	case OP_NEG_FLOAT:
		s.Push(-s.Pop().(VFloat))
	case OP_FLOAT_EQ:
		b, a := s.Pop().(VFloat), s.Pop().(VFloat)
		s.Push(vBool(a == b))
	case OP_FLOAT_LT:
		b, a := s.Pop().(VFloat), s.Pop().(VFloat)
		s.Push(vBool(a < b))
	case OP_FLOAT_LE:
		b, a := s.Pop().(VFloat), s.Pop().(VFloat)
		s.Push(vBool(a <= b))
	case OP_FLOAT_GT:
		b, a := s.Pop().(VFloat), s.Pop().(VFloat)
		s.Push(vBool(a > b))
	case OP_FLOAT_GE:
		b, a := s.Pop().(VFloat), s.Pop().(VFloat)
		s.Push(vBool(a >= b))

	case OP_BYTE_EQ:
		b, a := s.Pop().(VByte), s.Pop().(VByte)
		s.Push(vBool(a == b))
	case OP_BYTE_LT:
		b, a := s.Pop().(VByte), s.Pop().(VByte)
		s.Push(vBool(a < b))
	case OP_BYTE_LE:
		b, a := s.Pop().(VByte), s.Pop().(VByte)
		s.Push(vBool(a <= b))
	case OP_BYTE_GT:
		b, a := s.Pop().(VByte), s.Pop().(VByte)
		s.Push(vBool(a > b))
	case OP_BYTE_GE:
		b, a := s.Pop().(VByte), s.Pop().(VByte)
		s.Push(vBool(a >= b))

	case OP_CHAR_EQ:
		b, a := s.Pop().(VChar), s.Pop().(VChar)
		s.Push(vBool(a == b))
	case OP_STRING_EQ:
		b, a := s.Pop().(*StringObj), s.Pop().(*StringObj)
		s.Push(vBool(a.Data == b.Data))
	case OP_STRING_CONCAT:
		b, a := s.Pop().(*StringObj), s.Pop().(*StringObj)
		obj := &StringObj{Data: a.Data + b.Data}
		t.Track(obj)
		s.Push(obj)

	case OP_PANIC_NON_EXHAUSTIVE:
		return &NonExhaustiveMatchError{Scrutinee: s.Peek(0)}

	default:
		return fmt.Errorf("unknown opcode %s at line %d", op, line)
	}
	return nil
}

// variant tag reserved for the two-constructor Bool encoding every
// comparison/test primitive produces (spec's builtin Bool is a
// zero-field two-constructor variant: False=0, True=1).
func vBool(b bool) Value {
	if b {
		return VTag{ID: 1}
	}
	return VTag{ID: 0}
}

func toBool(v Value) bool {
	t, ok := v.(VTag)
	return ok && t.ID == 1
}

// dispatchCall implements the calling convention (spec §4.6): exact,
// partial and excess argument counts, plus TailCall's frame reuse.
func (t *Thread) dispatchCall(n int, tail bool) error {
	s := t.stack
	calleeIdx := s.Len() - n - 1
	callee := s.Get(calleeIdx)

	switch c := callee.(type) {
	case *ExternObj:
		arity := c.Arity
		switch {
		case n == arity:
			args := s.PopN(n)
			s.Pop() // the extern descriptor itself
			result, err := c.Fn(t, args)
			if err != nil {
				return err
			}
			s.Push(result)
			return nil
		case n < arity:
			args := s.PopN(n)
			s.Pop()
			obj := &PartialAppObj{Callable: c, Arguments: args}
			t.Track(obj)
			s.Push(obj)
			return nil
		default:
			// Externs return synchronously, so the excess arguments can
			// be re-applied directly instead of boxed on a frame.
			excess := s.PopN(n - arity)
			args := s.PopN(arity)
			s.Pop()
			result, err := c.Fn(t, args)
			if err != nil {
				return err
			}
			s.Push(result)
			for _, a := range excess {
				s.Push(a)
			}
			return t.dispatchCall(len(excess), tail)
		}

	case *ClosureObj:
		arity := c.Function.Arity
		switch {
		case n == arity:
			return t.enterOrReuse(c, n, tail, nil)
		case n < arity:
			args := s.PopN(n)
			s.Pop() // closure
			obj := &PartialAppObj{Callable: c, Arguments: args}
			t.Track(obj)
			s.Push(obj)
			return nil
		default: // n > arity: excess arguments reapplied to the result
			excess := s.PopN(n - arity)
			box := &DataObj{Fields: excess}
			t.Track(box)
			return t.enterOrReuse(c, arity, tail, box)
		}

	case *PartialAppObj:
		full := append(append([]Value{}, c.Arguments...), s.PopN(n)...)
		s.Pop() // the partial application value
		s.Push(c.Callable)
		for _, a := range full {
			s.Push(a)
		}
		return t.dispatchCall(len(full), tail)

	default:
		return &NotCallableError{Got: callee}
	}
}

// enterOrReuse pushes a new frame for c, or — if tail is true —
// overwrites the caller's own frame in place so the stack does not grow
// (spec §4.6 "the arguments are shifted down to overwrite the current
// frame's locals, the current frame is popped, and the new frame is
// entered at the same depth"). Reuse requires shifting the freshly
// evaluated args down to the reused frame's own base and truncating
// away whatever locals that frame still had live above it — otherwise
// every tail call would leak its caller's locals and the stack would
// grow without bound across a tail-recursive loop.
func (t *Thread) enterOrReuse(c *ClosureObj, n int, tail bool, excess *DataObj) error {
	s := t.stack
	if tail && s.FrameDepth() > 0 {
		if cur := s.CurrentFrame(); cur.State == StateClosure {
			args := s.PopN(n)
			s.Pop() // the closure itself
			base := cur.Base
			s.Truncate(base)
			for _, a := range args {
				s.Push(a)
			}
			cur.Closure = c
			cur.PC = 0
			cur.ExcessBox = excess
			cur.Base = base
			return nil
		}
	}
	args := s.PopN(n)
	s.Pop() // the closure itself
	base := s.Len()
	for _, a := range args {
		s.Push(a)
	}
	return s.PushFrame(Frame{Base: base, State: StateClosure, Closure: c, ExcessBox: excess})
}

// reapplyExcess pushes the boxed excess arguments back and recursively
// calls the value the callee just returned (spec §4.6).
func (t *Thread) reapplyExcess(box *DataObj, returned Value) error {
	// returned is already on top of the stack (OP_RETURN just pushed it).
	for _, a := range box.Fields {
		t.stack.Push(a)
	}
	return t.dispatchCall(len(box.Fields), false)
}
