package vm

import "github.com/rowlang/rowlang/internal/config"

// Gc is a mark-sweep tracing collector over one intrusive allocation
// list (spec §4.7: "every allocation is preceded by a header { next,
// type_id, marked }"). Go's own runtime owns the memory; this list and
// mark bit exist purely so the VM can decide, independently of Go's
// GC, which of its own heap objects are still reachable from the
// program's perspective (bytecode-level memory accounting). Sweep does
// not call a Userdata's Finalizer.
//
// A Thread forked from another (spec §6 SUPPLEMENT "Thread.Resume")
// gets a child Gc whose Parent points at the forking thread's Gc: the
// child's mark phase follows pointers across the boundary into the
// parent's objects (so nothing reachable through a captured upvar is
// ever swept prematurely), but a child's Collect only sweeps entries on
// its own list — the parent generation is swept only by its own
// Collect call.
type Gc struct {
	head      Object
	allocated int
	threshold int
	Parent    *Gc
}

// NewGc creates a top-level heap.
func NewGc() *Gc {
	return &Gc{threshold: config.GCInitialThreshold}
}

// NewChildGc creates a heap for a forked thread, generationally nested
// under parent.
func NewChildGc(parent *Gc) *Gc {
	return &Gc{threshold: config.GCInitialThreshold, Parent: parent}
}

// Track registers a freshly allocated object on this heap's list and
// charges its estimated size toward the collection threshold.
func (g *Gc) Track(o Object) {
	h := o.header()
	h.next = g.head
	g.head = o
	g.allocated += approxSize(o)
}

// ShouldCollect reports whether allocations since the last sweep have
// crossed this heap's soft threshold.
func (g *Gc) ShouldCollect() bool { return g.allocated >= g.threshold }

// RootSource supplies the GC roots owned by one running thread (spec
// §4.7 "Root enumeration": operand stack, saved frame closures/externs,
// explicitly rooted values, and — transitively — the thread it was
// forked from).
type RootSource interface {
	gcStack() *Stack
	gcRooted() []Value
	gcParent() *Thread
}

// Collect runs one mark-sweep cycle rooted at t (and transitively at
// every thread t was forked from) plus any extra roots the caller
// supplies — e.g. the global environment's live bindings, which live
// in a different package and so cannot be reached by Gc directly.
func (g *Gc) Collect(t *Thread, extraRoots []Value) {
	// The per-cycle map, not the header bit, is the visited set: a child
	// heap's mark phase crosses into parent-generation objects it never
	// sweeps, so their header bits stay set after this cycle — trusting
	// them on the parent's own next cycle would skip tracing (and then
	// sweep) values that are still live.
	marked := make(map[Object]bool)
	var mark func(v Value)
	mark = func(v Value) {
		obj, ok := v.(Object)
		if !ok {
			return // immediate scalar: VInt/VByte/VFloat/VChar/VTag carry no pointers
		}
		if marked[obj] {
			return
		}
		marked[obj] = true
		obj.header().marked = true
		obj.Trace(mark)
	}

	for th := t; th != nil; th = th.gcParent() {
		for _, v := range th.gcStack().values {
			mark(v)
		}
		for _, fr := range th.gcStack().frames {
			if fr.Closure != nil {
				mark(fr.Closure)
			}
			if fr.Extern != nil {
				mark(fr.Extern)
			}
			if fr.ExcessBox != nil {
				mark(fr.ExcessBox)
			}
		}
		for _, v := range th.gcRooted() {
			mark(v)
		}
		for _, v := range th.Globals {
			mark(v)
		}
	}
	for _, v := range extraRoots {
		mark(v)
	}

	g.sweep(marked)
}

// sweep rebuilds this heap's allocation list from the survivors,
// clearing their mark bit for the next cycle; unmarked entries are
// simply dropped from the list so Go's own collector can reclaim them
// once nothing else references them.
func (g *Gc) sweep(marked map[Object]bool) {
	var survivors Object
	for o := g.head; o != nil; {
		h := o.header()
		next := h.next
		if marked[o] {
			h.marked = false
			h.next = survivors
			survivors = o
		}
		o = next
	}
	g.head = survivors
	g.allocated = 0
	g.threshold = int(float64(g.threshold) * config.GCGrowthFactor)
}

// approxSize gives a rough per-kind accounting weight; exact byte
// counts aren't worth tracking since the backing memory is Go-GC'd
// regardless.
func approxSize(o Object) int {
	switch v := o.(type) {
	case *StringObj:
		return 32 + len(v.Data)
	case *DataObj:
		return 24 + 8*len(v.Fields)
	case *ArrayObj:
		return 24 + len(v.Bytes) + 8*len(v.Floats) + 8*len(v.Values)
	case *ClosureObj:
		return 32 + 8*len(v.Upvars)
	case *ExternObj:
		return 32
	case *PartialAppObj:
		return 24 + 8*len(v.Arguments)
	case *UserdataObj:
		return 32
	case *Thread:
		return 128
	default:
		return 16
	}
}
