package types

import "sync/atomic"

// IDGen mints globally unique ids for fresh TVariable/TSkolem/TGeneric
// values. A single counter is shared across all three kinds since
// nothing requires them to be densely packed per-kind, only unique.
type IDGen struct{ next atomic.Uint64 }

// Fresh returns the next unused id.
func (g *IDGen) Fresh() uint64 { return g.next.Add(1) }

// FreshVar mints a new unification variable of the given kind.
func (g *IDGen) FreshVar(k Kind) TVariable {
	return TVariable{ID: g.Fresh(), KindVal: k}
}

// FreshSkolem mints a new rigid variable standing in for a TForall
// binder named name, of the given kind.
func (g *IDGen) FreshSkolem(name string, k Kind) TSkolem {
	return TSkolem{Name: name, ID: g.Fresh(), KindVal: k}
}

// FreshGeneric mints a new bound-parameter placeholder.
func (g *IDGen) FreshGeneric(k Kind) TGeneric {
	return TGeneric{ID: g.Fresh(), KindVal: k}
}

// FreshKVar mints a new kind variable (C3).
func (g *IDGen) FreshKVar() KVar { return KVar{ID: g.Fresh()} }

// Subst maps unification-variable ids to the type they are bound to.
// Unlike a union-find with separate parent pointers, a bound entry may
// itself mention other (bound or free) variables; Apply chases bound
// chains recursively.
type Subst map[uint64]Type

// Apply substitutes every bound variable in t, recursing through every
// constructor in the Type sum. It never unfolds TAlias — alias
// expansion is a unification-time decision (unify.go), not a
// substitution-time one, so that an un-instantiated alias reference
// keeps displaying under its own name.
func (s Subst) Apply(t Type) Type {
	return applyWithVisited(s, t, nil)
}

func applyWithVisited(s Subst, t Type, visiting map[uint64]bool) Type {
	if t == nil {
		return nil
	}
	switch typ := t.(type) {
	case TVariable:
		if visiting[typ.ID] {
			return typ // break a cycle defensively; well-formed substitutions never hit this
		}
		bound, ok := s[typ.ID]
		if !ok {
			return typ
		}
		nv := copyVisiting(visiting)
		nv[typ.ID] = true
		return applyWithVisited(s, bound, nv)
	case TGeneric:
		// Instantiation (and ApplyArgs) substitutes bound parameters by
		// their id, one shot: the replacement is taken as-is, never
		// re-walked, so an argument mentioning another binder of the
		// same Forall cannot capture. Variable and generic ids come from
		// the same IDGen, so one map serves both without collision.
		if bound, ok := s[typ.ID]; ok {
			return bound
		}
		return typ
	case THole, TOpaque, TError, TBuiltin, TSkolem, TEmptyRow, TIdent, TProjection:
		return typ
	case TForall:
		// Params are binders; applying a substitution that (by
		// construction of generalization) never targets a bound
		// TGeneric id is safe to push straight through the body.
		return TForall{Params: typ.Params, Body: applyWithVisited(s, typ.Body, visiting)}
	case TApp:
		args := make([]Type, len(typ.Args))
		for i, a := range typ.Args {
			args[i] = applyWithVisited(s, a, visiting)
		}
		return App(applyWithVisited(s, typ.Head, visiting), args...)
	case TFunction:
		return TFunction{
			Arg:    typ.Arg,
			Domain: applyWithVisited(s, typ.Domain, visiting),
			Range:  applyWithVisited(s, typ.Range, visiting),
		}
	case TRecord:
		return TRecord{Row: applyWithVisited(s, typ.Row, visiting)}
	case TVariant:
		return TVariant{Row: applyWithVisited(s, typ.Row, visiting)}
	case TEffect:
		return TEffect{Row: applyWithVisited(s, typ.Row, visiting)}
	case TExtendRow:
		fields := make([]ValueField, len(typ.Fields))
		for i, f := range typ.Fields {
			fields[i] = ValueField{Name: f.Name, Typ: applyWithVisited(s, f.Typ, visiting)}
		}
		return TExtendRow{Types: typ.Types, Fields: fields, Rest: applyWithVisited(s, typ.Rest, visiting)}
	case TAlias:
		return typ
	default:
		return t
	}
}

func copyVisiting(m map[uint64]bool) map[uint64]bool {
	n := make(map[uint64]bool, len(m)+1)
	for k, v := range m {
		n[k] = v
	}
	return n
}

// Compose returns a substitution equivalent to applying s1 then s2.
func (s1 Subst) Compose(s2 Subst) Subst {
	out := make(Subst, len(s1)+len(s2))
	for k, v := range s2 {
		out[k] = v
	}
	for k, v := range s1 {
		out[k] = s2.Apply(v)
	}
	return out
}

// FreeTypeVariables returns the (deduplicated) unification variables
// free in t.
func FreeTypeVariables(t Type) []TVariable {
	seen := map[uint64]bool{}
	var out []TVariable
	var walk func(Type)
	walk = func(t Type) {
		if t == nil {
			return
		}
		switch typ := t.(type) {
		case TVariable:
			if !seen[typ.ID] {
				seen[typ.ID] = true
				out = append(out, typ)
			}
		case TForall:
			walk(typ.Body)
		case TApp:
			walk(typ.Head)
			for _, a := range typ.Args {
				walk(a)
			}
		case TFunction:
			walk(typ.Domain)
			walk(typ.Range)
		case TRecord:
			walk(typ.Row)
		case TVariant:
			walk(typ.Row)
		case TEffect:
			walk(typ.Row)
		case TExtendRow:
			for _, f := range typ.Fields {
				walk(f.Typ)
			}
			walk(typ.Rest)
		}
	}
	walk(t)
	return out
}
