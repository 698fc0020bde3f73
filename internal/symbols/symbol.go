// Package symbols implements interned, module-scoped identifiers (C2).
//
// A Symbol is a small value type carrying only an interned id; two
// symbols are equal iff their ids match, which makes Symbol cheap to
// use as a map key and to compare inside the hot paths of the
// unifier and the bytecode compiler.
package symbols

import "sync"

// Symbol is an interned identifier, optionally qualified by a module
// path (e.g. "List.map" has module "List", name "map"). Module and
// Name are denormalized copies of the interner's record so that
// display code (Type.String, compiler error messages) doesn't need a
// reference to the interner; equality still reduces to id comparison
// because a given id always carries the same Module/Name.
type Symbol struct {
	id     uint32
	Module string
	Name   string
}

// Interner holds the append-only table of Name/Module pairs backing
// every Symbol minted during a process's lifetime. It is guarded by a
// mutex because type-checking and compilation of independent modules
// may run on different VM threads sharing one global environment
// (spec §5, "the interner ... is append-only and guarded by a mutex").
type Interner struct {
	mu      sync.Mutex
	records []record
	byKey   map[key]Symbol
}

type record struct {
	module string
	name   string
}

type key struct {
	module string
	name   string
}

// NewInterner creates an empty interner.
func NewInterner() *Interner {
	return &Interner{byKey: make(map[key]Symbol)}
}

// Intern returns the Symbol for (module, name), minting a new id the
// first time this pair is seen.
func (in *Interner) Intern(module, name string) Symbol {
	k := key{module: module, name: name}

	in.mu.Lock()
	defer in.mu.Unlock()

	if sym, ok := in.byKey[k]; ok {
		return sym
	}
	sym := Symbol{id: uint32(len(in.records)), Module: module, Name: name}
	in.records = append(in.records, record{module: module, name: name})
	in.byKey[k] = sym
	return sym
}

// InternLocal interns an unqualified (no module) name.
func (in *Interner) InternLocal(name string) Symbol {
	return in.Intern("", name)
}

// Lookup copies out the (module, name) pair for a symbol. The copy-out
// means the lock is released before the caller touches the strings,
// matching the interner's "lookups are copy-out" locking discipline
// (spec §5).
func (in *Interner) Lookup(sym Symbol) (module, name string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	r := in.records[sym.id]
	return r.module, r.name
}

// Name is a convenience wrapper around Lookup that returns only the
// unqualified name.
func (in *Interner) Name(sym Symbol) string {
	_, name := in.Lookup(sym)
	return name
}

// String renders "module.name" or just "name" for unqualified symbols.
func (in *Interner) String(sym Symbol) string { return sym.String() }

// String renders "module.name" or just "name" without consulting the
// interner, using the symbol's own denormalized fields.
func (s Symbol) String() string {
	if s.Module == "" {
		return s.Name
	}
	return s.Module + "." + s.Name
}

// ID returns the raw interned id, useful as a dense array index and
// for Hash.
func (s Symbol) ID() uint32 { return s.id }

// Hash is a cheap hash for Symbol, suitable for map/set use when a
// plain Symbol key isn't convenient (e.g. composite keys).
func (s Symbol) Hash() uint32 { return s.id }
