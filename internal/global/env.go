// Package global implements C11: the global environment a compiled
// module links against. It holds named globals (each with a type, a
// small metadata record and a runtime value), a variant-constructor
// tag registry, a userdata type registry and a macro registry, all
// guarded by a single reader-writer lock so that compiling one module
// (the writer: publishing new globals) and running another (the
// reader: resolving PushGlobal/TestTag at call boundaries) can proceed
// on separate VM threads without racing (spec §5 "Shared-resource
// policy").
package global

import (
	"fmt"
	"sync"

	"github.com/rowlang/rowlang/internal/types"
	"github.com/rowlang/rowlang/internal/vm"
)

// Metadata is the small descriptive record spec §4.9 pairs with every
// global alongside its type and value ("Global { type, metadata,
// value }"). Doc is a one-line human-readable description; Builtin
// marks a global the façade itself installed (the prelude, variant
// constructors) rather than one a user program defined.
type Metadata struct {
	Doc     string
	Builtin bool
}

// binding is one published global: its resolved type, its runtime
// value and its slot — the flat index a linked BytecodeFunction's
// PushGlobal instructions are patched to reference (spec §3
// "module_globals is a table mapping local indices to global names
// deferred until linking").
type binding struct {
	Type  types.Type
	Value vm.Value
	Meta  Metadata
	Slot  int
}

// UserdataType is a registered host type descriptor (spec §6
// "register_type<T>(thread, name, arity)").
type UserdataType struct {
	Name  string
	Arity int
}

// Macro is a named macro registration (spec §6 "Macro registry:
// embedders install named macros; the parser invokes them by the
// syntactic form macro_name! expr"). The module never executes a
// macro itself — import!/macro expansion is an out-of-scope external
// collaborator (spec §1) — so this registry only records that a name
// is claimed, for embedders that want to validate `macro_name!` forms
// before handing source to that external expander.
type Macro struct {
	Name  string
	Arity int
}

// Env is the process-wide C11 global environment. A single Env may be
// shared by multiple VM threads (spec §5 "Multiple VMs ... share a
// process-wide GlobalVmState protected by coarse locks").
type Env struct {
	mu sync.RWMutex

	order   []string // global names in publication order == slot index
	globals map[string]*binding

	typeAliases map[string]types.AliasRef

	tagOrder []string // variant constructor names in declaration order
	tags     map[string]uint32

	userdataTypes map[string]UserdataType
	macros        map[string]Macro
}

// New creates an empty global environment.
func New() *Env {
	return &Env{
		globals:       make(map[string]*binding),
		typeAliases:   make(map[string]types.AliasRef),
		tags:          make(map[string]uint32),
		userdataTypes: make(map[string]UserdataType),
		macros:        make(map[string]Macro),
	}
}

// Define publishes (or republishes) a global under name, acquiring the
// writer lock (spec §5 "compilation acquires the writer lock when
// publishing new globals"). Returns the global's flat slot index.
func (e *Env) Define(name string, typ types.Type, value vm.Value, meta Metadata) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if b, ok := e.globals[name]; ok {
		b.Type, b.Value, b.Meta = typ, value, meta
		return b.Slot
	}
	slot := len(e.order)
	e.order = append(e.order, name)
	e.globals[name] = &binding{Type: typ, Value: value, Meta: meta, Slot: slot}
	return slot
}

// Lookup resolves a global's type under a read lock (spec §5
// "execution acquires a reader lock at call boundaries"); used by the
// type-checker when resolving an unbound identifier against the
// global scope.
func (e *Env) Lookup(name string) (types.Type, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	b, ok := e.globals[name]
	if !ok {
		return nil, false
	}
	return b.Type, true
}

// SlotOf returns the flat slot index a linked function's PushGlobal
// operand should carry for name, or false if name was never defined.
func (e *Env) SlotOf(name string) (int, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	b, ok := e.globals[name]
	if !ok {
		return 0, false
	}
	return b.Slot, true
}

// Values copies out the flat global-value table a Thread links against
// (Thread.Globals), indexed by slot.
func (e *Env) Values() []vm.Value {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]vm.Value, len(e.order))
	for i, name := range e.order {
		out[i] = e.globals[name].Value
	}
	return out
}

// SetValue overwrites a previously-defined global's runtime value
// without touching its type or slot (used once a top-level binding's
// thunk has actually been run, spec §4.9's pipeline publishing a real
// value after compiling+running it).
func (e *Env) SetValue(name string, value vm.Value) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	b, ok := e.globals[name]
	if !ok {
		return fmt.Errorf("global: cannot set undefined global %q", name)
	}
	b.Value = value
	return nil
}

// DefineAlias publishes a named type alias (from a top-level `type`
// declaration) into the shared alias environment so later modules
// linked against the same Env can resolve it by name (spec §4.9
// "publishing new globals" extends to published type names).
func (e *Env) DefineAlias(name string, ref types.AliasRef) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.typeAliases[name] = ref
}

// LookupAlias resolves a previously published alias by name.
func (e *Env) LookupAlias(name string) (types.AliasRef, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ref, ok := e.typeAliases[name]
	return ref, ok
}

// DefineTag assigns the next free tag number to a variant constructor
// name and returns it. Tags come from one counter shared by every
// constructor registered on this Env, in registration order; numbering
// does not restart per Variant row, so once the prelude has registered
// False (0) and True (1) the next constructor gets tag 2. Re-declaring the same name returns its
// existing tag rather than minting a new one, so re-linking a module
// already checked against this Env is idempotent.
func (e *Env) DefineTag(name string) uint32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if tag, ok := e.tags[name]; ok {
		return tag
	}
	tag := uint32(len(e.tagOrder))
	e.tagOrder = append(e.tagOrder, name)
	e.tags[name] = tag
	return tag
}

// TagOf resolves a constructor name to its assigned tag, used by the
// linker to patch a compiled TestTag instruction's string-table-index
// placeholder operand into the real tag number (spec §4.5's
// "compiler.go: resolved to a real tag id by the linker (C11)").
func (e *Env) TagOf(name string) (uint32, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	tag, ok := e.tags[name]
	return tag, ok
}

// RegisterType declares a userdata type (spec §6 "register_type<T>").
func (e *Env) RegisterType(name string, arity int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.userdataTypes[name] = UserdataType{Name: name, Arity: arity}
}

// LookupType resolves a previously registered userdata type.
func (e *Env) LookupType(name string) (UserdataType, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	t, ok := e.userdataTypes[name]
	return t, ok
}

// RegisterMacro claims a macro name (spec §6 "Macro registry").
func (e *Env) RegisterMacro(name string, arity int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.macros[name] = Macro{Name: name, Arity: arity}
}

// LookupMacro resolves a previously registered macro name.
func (e *Env) LookupMacro(name string) (Macro, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	m, ok := e.macros[name]
	return m, ok
}

// RegisterExtern is the public registration interface spec §1/§6
// describe host facility bindings going through ("registered as
// extern functions through the VM's public registration interface").
// internal/hostext is this surface's worked example.
func (e *Env) RegisterExtern(name string, typ types.Type, arity int, fn vm.ExternFn) {
	e.Define(name, typ, &vm.ExternObj{ID: name, Arity: arity, Fn: fn}, Metadata{Builtin: true})
}

// Doc returns the documentation string recorded for a global, if any.
func (e *Env) Doc(name string) string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if b, ok := e.globals[name]; ok {
		return b.Meta.Doc
	}
	return ""
}
