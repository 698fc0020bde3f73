package types

import (
	"sort"

	"github.com/rowlang/rowlang/internal/config"
	"github.com/rowlang/rowlang/internal/symbols"
)

// Unifier is the mutable C4 substitution/unification engine: a
// union-find-style map from unification-variable ids to the type they
// are bound to, plus the id generator used to mint fresh row/type
// variables while unifying two open rows (spec §4.3).
type Unifier struct {
	IDs   *IDGen
	subst Subst
}

// NewUnifier creates an empty unifier sharing ids with the rest of a
// single type-checking run.
func NewUnifier(ids *IDGen) *Unifier {
	if ids == nil {
		ids = &IDGen{}
	}
	return &Unifier{IDs: ids, subst: Subst{}}
}

// Subst returns the substitution accumulated so far.
func (u *Unifier) Subst() Subst { return u.subst }

// Find walks a (possibly already-bound) variable to its current
// representative, compressing the chain of bindings it walks through
// (spec §4.3 "find(v) walks parent pointers with path compression").
// Non-variables are returned unchanged.
func (u *Unifier) Find(t Type) Type {
	v, ok := t.(TVariable)
	if !ok {
		return t
	}
	bound, ok := u.subst[v.ID]
	if !ok {
		return v
	}
	root := u.Find(bound)
	u.subst[v.ID] = root
	return root
}

// Bind records v := t after an occurs check, unless t is v itself
// (spec §4.3 "Bind").
func (u *Unifier) Bind(v TVariable, t Type) error {
	t = u.Find(t)
	if tv, ok := t.(TVariable); ok && tv.ID == v.ID {
		return nil
	}
	if occurs(v.ID, t, u) {
		return &OccursError{Var: v, In: t}
	}
	u.subst[v.ID] = t
	return nil
}

// occurs reports whether the variable with id vid appears free in t,
// chasing any already-bound variables inside t through u.
func occurs(vid uint64, t Type, u *Unifier) bool {
	t = u.Find(t)
	switch typ := t.(type) {
	case TVariable:
		return typ.ID == vid
	case TForall:
		return occurs(vid, typ.Body, u)
	case TApp:
		if occurs(vid, typ.Head, u) {
			return true
		}
		for _, a := range typ.Args {
			if occurs(vid, a, u) {
				return true
			}
		}
		return false
	case TFunction:
		return occurs(vid, typ.Domain, u) || occurs(vid, typ.Range, u)
	case TRecord:
		return occurs(vid, typ.Row, u)
	case TVariant:
		return occurs(vid, typ.Row, u)
	case TEffect:
		return occurs(vid, typ.Row, u)
	case TExtendRow:
		for _, f := range typ.Fields {
			if occurs(vid, f.Typ, u) {
				return true
			}
		}
		return occurs(vid, typ.Rest, u)
	default:
		return false
	}
}

// budget bounds how many times Unify will unfold a recursive alias
// while trying to reconcile it with a structural type, shared across
// one top-level Unify call (spec §4.3 "a fixed depth bound ... prevents
// infinite expansion of irreducible recursive aliases").
type budget struct{ remaining int }

func (b *budget) take() bool {
	if b.remaining <= 0 {
		return false
	}
	b.remaining--
	return true
}

// Unify attempts to unify t1 and t2, returning the substitution that
// makes them equal (invariant 1, §8 "Unification soundness").
func (u *Unifier) Unify(t1, t2 Type) error {
	return u.unify(t1, t2, &budget{remaining: config.AliasUnfoldDepth})
}

func (u *Unifier) unify(t1, t2 Type, b *budget) error {
	t1 = u.Find(t1)
	t2 = u.Find(t2)

	if v, ok := t1.(TVariable); ok {
		return u.Bind(v, t2)
	}
	if v, ok := t2.(TVariable); ok {
		return u.Bind(v, t1)
	}

	// Alias handling (spec §4.3): try structural unification first,
	// and only unfold a non-opaque alias one step on failure.
	if a1, ok := t1.(TAlias); ok {
		if err := u.unifyStructural(t1, t2, b); err == nil {
			return nil
		}
		if a1.Ref.Group.Opaque || !b.take() {
			return &TypeMismatchError{Expected: t1, Actual: t2}
		}
		return u.unify(instantiateAliasBody(a1.Ref), t2, b)
	}
	if a2, ok := t2.(TAlias); ok {
		if err := u.unifyStructural(t1, t2, b); err == nil {
			return nil
		}
		if a2.Ref.Group.Opaque || !b.take() {
			return &TypeMismatchError{Expected: t1, Actual: t2}
		}
		return u.unify(t1, instantiateAliasBody(a2.Ref), b)
	}

	// Same one-step unfolding for an *applied* alias (spec §4.3: "when
	// unifying App(Alias A, args) with T, first try structural
	// unification; if that fails and A is not opaque, unfold one step
	// and retry"), substituting the application's arguments for the
	// alias's parameters.
	if ap, ok := t1.(TApp); ok {
		if a, isAlias := ap.Head.(TAlias); isAlias {
			if err := u.unifyStructural(t1, t2, b); err == nil {
				return nil
			}
			if a.Ref.Group.Opaque || !b.take() {
				return &TypeMismatchError{Expected: t1, Actual: t2}
			}
			return u.unify(unfoldAliasApp(a.Ref, ap.Args), t2, b)
		}
	}
	if ap, ok := t2.(TApp); ok {
		if a, isAlias := ap.Head.(TAlias); isAlias {
			if err := u.unifyStructural(t1, t2, b); err == nil {
				return nil
			}
			if a.Ref.Group.Opaque || !b.take() {
				return &TypeMismatchError{Expected: t1, Actual: t2}
			}
			return u.unify(t1, unfoldAliasApp(a.Ref, ap.Args), b)
		}
	}

	return u.unifyStructural(t1, t2, b)
}

// unfoldAliasApp expands one step of an applied alias, substituting
// args for the alias's parameters (partial application leaves the
// surplus arguments re-applied to the substituted body).
func unfoldAliasApp(ref AliasRef, args []Type) Type {
	params := ref.Params()
	sub := make(Subst, len(params))
	n := len(args)
	if n > len(params) {
		n = len(params)
	}
	for i := 0; i < n; i++ {
		sub[params[i].ID] = args[i]
	}
	body := sub.Apply(ref.Body())
	if len(args) > len(params) {
		return App(body, args[len(params):]...)
	}
	return body
}

// instantiateAliasBody substitutes fresh type parameters are *not*
// introduced here: an alias with params can only appear applied
// (App(Alias, args)); unfolding a bare TAlias (arity 0) just returns
// its body.
func instantiateAliasBody(ref AliasRef) Type {
	return ref.Body()
}

func (u *Unifier) unifyStructural(t1, t2 Type, b *budget) error {
	switch a := t1.(type) {
	case TSkolem:
		s, ok := t2.(TSkolem)
		if ok && s.ID == a.ID {
			return nil
		}
		return &TypeMismatchError{Expected: t1, Actual: t2}

	case TGeneric:
		g, ok := t2.(TGeneric)
		if ok && g.ID == a.ID {
			return nil
		}
		return &TypeMismatchError{Expected: t1, Actual: t2}

	case TBuiltin:
		o, ok := t2.(TBuiltin)
		if ok && o.Tag == a.Tag {
			return nil
		}
		return &TypeMismatchError{Expected: t1, Actual: t2}

	case THole, TOpaque, TError:
		return nil // placeholders/error markers unify with anything

	case TIdent:
		o, ok := t2.(TIdent)
		if ok && o.Name == a.Name {
			return nil
		}
		return &TypeMismatchError{Expected: t1, Actual: t2}

	case TProjection:
		o, ok := t2.(TProjection)
		if ok && samePath(a.Path, o.Path) {
			return nil
		}
		return &TypeMismatchError{Expected: t1, Actual: t2}

	case TAlias:
		o, ok := t2.(TAlias)
		if ok && o.Ref.Group == a.Ref.Group && o.Ref.Index == a.Ref.Index {
			return nil
		}
		if !ok {
			return &TypeMismatchError{Expected: t1, Actual: t2}
		}
		return nil

	case TApp:
		o, ok := t2.(TApp)
		if !ok {
			return &TypeMismatchError{Expected: t1, Actual: t2}
		}
		if len(a.Args) != len(o.Args) {
			return &ArityMismatchError{Context: "type application", Expected: len(a.Args), Got: len(o.Args)}
		}
		if err := u.unify(a.Head, o.Head, b); err != nil {
			return err
		}
		for i := range a.Args {
			if err := u.unify(a.Args[i], o.Args[i], b); err != nil {
				return err
			}
		}
		return nil

	case TFunction:
		o, ok := t2.(TFunction)
		if !ok {
			return &TypeMismatchError{Expected: t1, Actual: t2}
		}
		if a.Arg != o.Arg {
			return &TypeMismatchError{Context: "implicit/explicit argument mismatch", Expected: t1, Actual: t2}
		}
		if err := u.unify(a.Domain, o.Domain, b); err != nil {
			return err
		}
		return u.unify(a.Range, o.Range, b)

	case TRecord:
		o, ok := t2.(TRecord)
		if !ok {
			return &TypeMismatchError{Expected: t1, Actual: t2}
		}
		return u.unifyRow(a.Row, o.Row, b)

	case TVariant:
		o, ok := t2.(TVariant)
		if !ok {
			return &TypeMismatchError{Expected: t1, Actual: t2}
		}
		return u.unifyRow(a.Row, o.Row, b)

	case TEffect:
		o, ok := t2.(TEffect)
		if !ok {
			return &TypeMismatchError{Expected: t1, Actual: t2}
		}
		return u.unifyRow(a.Row, o.Row, b)

	case TEmptyRow:
		_, ok := t2.(TEmptyRow)
		if ok {
			return nil
		}
		return &TypeMismatchError{Expected: t1, Actual: t2}

	case TExtendRow:
		return u.unifyRow(a, t2, b)

	case TForall:
		// Two foralls unify alpha-equivalently by skolemizing both
		// bodies with the same fresh skolems, then unifying structurally.
		o, ok := t2.(TForall)
		if !ok || len(a.Params) != len(o.Params) {
			return &TypeMismatchError{Expected: t1, Actual: t2}
		}
		sub1, sub2 := Subst{}, Subst{}
		for i, p := range a.Params {
			sk := u.IDs.FreshSkolem("f", p.KindVal)
			sub1[p.ID] = sk
			sub2[o.Params[i].ID] = sk
		}
		return u.unify(sub1.Apply(a.Body), sub2.Apply(o.Body), b)

	default:
		return &TypeMismatchError{Expected: t1, Actual: t2}
	}
}

func samePath(a, b []symbols.Symbol) bool {
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

// unifyRow implements the five-step row-unification algorithm from
// spec §4.3.
func (u *Unifier) unifyRow(r1, r2 Type, b *budget) error {
	r1 = u.Find(r1)
	r2 = u.Find(r2)

	if v, ok := r1.(TVariable); ok {
		return u.Bind(v, r2)
	}
	if v, ok := r2.(TVariable); ok {
		return u.Bind(v, r1)
	}

	fields1, rest1 := flattenRow(r1)
	fields2, rest2 := flattenRow(r2)

	common, only1, only2 := partitionFields(fields1, fields2)

	for _, pair := range common {
		if err := u.unify(pair[0], pair[1], b); err != nil {
			return err
		}
	}

	_, rest1Closed := rest1.(TEmptyRow)
	_, rest2Closed := rest2.(TEmptyRow)

	if rest1Closed && rest2Closed {
		if len(only1) > 0 {
			return &MissingFieldError{Row: r2, Field: only1[0].Name.String()}
		}
		if len(only2) > 0 {
			return &MissingFieldError{Row: r1, Field: only2[0].Name.String()}
		}
		return nil
	}

	rho := u.IDs.FreshVar(RowK)
	if err := u.unify(rest1, ExtendRow(nil, only2, rho), b); err != nil {
		return err
	}
	return u.unify(rest2, ExtendRow(nil, only1, rho), b)
}

// flattenRow collects the full value-field list and terminal rest of a
// row type (which must already be Find-resolved at the top level).
func flattenRow(row Type) ([]ValueField, Type) {
	var fields []ValueField
	for {
		switch r := row.(type) {
		case TExtendRow:
			fields = append(fields, r.Fields...)
			row = r.Rest
		case TEmptyRow:
			return fields, TEmptyRow{}
		default:
			return fields, row // variable, skolem or generic rest
		}
	}
}

// partitionFields splits two field lists into the pairs that share a
// name (in fields1's order) and the two disjoint remainders.
func partitionFields(fields1, fields2 []ValueField) (common [][2]Type, only1, only2 []ValueField) {
	idx2 := make(map[string]int, len(fields2))
	for i, f := range fields2 {
		idx2[f.Name.String()] = i
	}
	used2 := make(map[int]bool, len(fields2))
	for _, f1 := range fields1 {
		if i, ok := idx2[f1.Name.String()]; ok {
			common = append(common, [2]Type{f1.Typ, fields2[i].Typ})
			used2[i] = true
		} else {
			only1 = append(only1, f1)
		}
	}
	for i, f2 := range fields2 {
		if !used2[i] {
			only2 = append(only2, f2)
		}
	}
	sort.Slice(only1, func(i, j int) bool { return only1[i].Name.String() < only1[j].Name.String() })
	sort.Slice(only2, func(i, j int) bool { return only2[i].Name.String() < only2[j].Name.String() })
	return common, only1, only2
}

// Intersect computes a type that both t1 and t2 unify with, on a
// private probe Unifier so no caller's Unifier is mutated — used when the same identifier is bound in overlapping
// scopes and the checker needs a single most-general type both call
// sites agree on (spec §4.3 "Intersection").
func Intersect(ids *IDGen, t1, t2 Type) (Type, error) {
	probe := NewUnifier(ids)
	if err := probe.Unify(t1, t2); err != nil {
		return nil, err
	}
	return probe.Subst().Apply(t1), nil
}
