package types

import "github.com/rowlang/rowlang/internal/symbols"

// AliasData is one member of a (possibly mutually recursive)
// `type A = ... and B = ...` binding group.
type AliasData struct {
	Name   symbols.Symbol
	Params []TGeneric
	Body   Type
}

// AliasGroup is the shared, immutable-once-published backing store for
// a set of mutually recursive aliases. Cycles in the type graph flow
// only through the *AliasGroup pointer (spec §9 "Recursive aliases
// without cyclic references") — every other Type node forms a DAG, so
// a plain Go pointer (rather than an arena handle) is safely shared
// without creating reference cycles that a naive refcounter would leak.
type AliasGroup struct {
	Members []AliasData
	// Opaque marks a group whose members must never be unfolded during
	// unification (an abstract exported type with a real but hidden
	// definition) — see Unify's alias-unfolding step (spec §4.3).
	Opaque bool
}

// AliasRef names one member of a group by index.
type AliasRef struct {
	Group *AliasGroup
	Index int
}

// Data returns the AliasData this reference points to.
func (r AliasRef) Data() AliasData { return r.Group.Members[r.Index] }

// Name returns the alias's own symbol.
func (r AliasRef) Name() symbols.Symbol { return r.Data().Name }

// Params returns the alias's type parameters.
func (r AliasRef) Params() []TGeneric { return r.Data().Params }

// Body returns the alias's (unsubstituted) body type.
func (r AliasRef) Body() Type { return r.Data().Body }

// Alias constructs a TAlias type from a reference (C1 constructor
// library, spec §4.1).
func Alias(ref AliasRef) Type { return TAlias{Ref: ref} }

// NewAliasGroup publishes a new, immutable group of mutually recursive
// aliases. Bodies may reference TAlias{Ref} values pointing back into
// the same group, tying the recursive knot before the group is
// returned (analogous to NewClosure/CloseClosure in the compiler,
// spec §4.5).
func NewAliasGroup(members []AliasData, opaque bool) *AliasGroup {
	return &AliasGroup{Members: members, Opaque: opaque}
}
