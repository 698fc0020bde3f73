package types

import (
	"fmt"

	"github.com/rowlang/rowlang/internal/symbols"
)

// KindSubst maps kind-variable ids to the kind they are bound to (C3,
// spec §4.2). Kept distinct from Subst (which maps type-variable ids to
// Types) since the two inference passes run independently: kind
// checking happens before a type is ever unified.
type KindSubst map[uint64]Kind

// ApplyKindSubst resolves every bound KVar in k.
func ApplyKindSubst(s KindSubst, k Kind) Kind {
	if k == nil {
		return nil
	}
	switch kk := k.(type) {
	case KVar:
		if replacement, ok := s[kk.ID]; ok {
			return ApplyKindSubst(s, replacement)
		}
		return kk
	case KFunc:
		return KFunc{Arg: ApplyKindSubst(s, kk.Arg), Result: ApplyKindSubst(s, kk.Result)}
	default:
		return k
	}
}

// UnifyKinds unifies two kinds, returning the substitution that makes
// them equal.
func UnifyKinds(k1, k2 Kind) (KindSubst, error) {
	s := make(KindSubst)
	if err := unifyKinds(s, k1, k2); err != nil {
		return nil, err
	}
	return s, nil
}

func unifyKinds(s KindSubst, k1, k2 Kind) error {
	k1 = ApplyKindSubst(s, k1)
	k2 = ApplyKindSubst(s, k2)

	if k1.Equal(k2) {
		return nil
	}

	if v, ok := k1.(KVar); ok {
		return bindKind(s, v.ID, k2)
	}
	if v, ok := k2.(KVar); ok {
		return bindKind(s, v.ID, k1)
	}

	if f1, ok := k1.(KFunc); ok {
		if f2, ok := k2.(KFunc); ok {
			if err := unifyKinds(s, f1.Arg, f2.Arg); err != nil {
				return err
			}
			return unifyKinds(s, f1.Result, f2.Result)
		}
	}

	return &KindMismatchError{Expected: k1, Actual: k2}
}

func bindKind(s KindSubst, id uint64, k Kind) error {
	if v, ok := k.(KVar); ok && v.ID == id {
		return nil
	}
	if kindOccurs(id, k) {
		return fmt.Errorf("recursive kind: k%d occurs in %s", id, k)
	}
	s[id] = k
	return nil
}

func kindOccurs(id uint64, k Kind) bool {
	switch kk := k.(type) {
	case KVar:
		return kk.ID == id
	case KFunc:
		return kindOccurs(id, kk.Arg) || kindOccurs(id, kk.Result)
	default:
		return false
	}
}

// KindContext tracks the kind assigned to each identifier encountered
// while checking a type, so repeated occurrences of the same TIdent or
// TProjection inside one signature agree on a kind (spec §4.2).
type KindContext struct {
	IDs       *IDGen
	identKind map[symbols.Symbol]Kind
}

// NewKindContext creates an empty context sharing the given id
// generator (so fresh kind variables don't collide with the checker's
// fresh type variables).
func NewKindContext(ids *IDGen) *KindContext {
	return &KindContext{IDs: ids, identKind: make(map[symbols.Symbol]Kind)}
}

func (kc *KindContext) freshKVar() KVar { return kc.IDs.FreshKVar() }

// InferKind infers the kind of t, returning the substitution discovered
// along the way (spec §4.2 "InferKind").
func InferKind(t Type, ctx *KindContext) (Kind, KindSubst, error) {
	subst := make(KindSubst)

	switch typ := t.(type) {
	case THole:
		return Hole, subst, nil
	case TError:
		return ErrKnd, subst, nil
	case TOpaque:
		return Star, subst, nil
	case TBuiltin:
		switch typ.Tag {
		case TagArray:
			return KFunc{Arg: Star, Result: Star}, subst, nil
		case TagFunction:
			return KFunc{Arg: Star, Result: KFunc{Arg: Star, Result: Star}}, subst, nil
		default:
			return Star, subst, nil
		}
	case TGeneric:
		return orFreshKVar(typ.KindVal, ctx), subst, nil
	case TSkolem:
		return orFreshKVar(typ.KindVal, ctx), subst, nil
	case TVariable:
		return orFreshKVar(typ.KindVal, ctx), subst, nil

	case TIdent:
		if k, ok := ctx.identKind[typ.Name]; ok {
			return k, subst, nil
		}
		kv := ctx.freshKVar()
		ctx.identKind[typ.Name] = kv
		return kv, subst, nil

	case TProjection:
		if len(typ.Path) == 0 {
			return Star, subst, nil
		}
		last := typ.Path[len(typ.Path)-1]
		if k, ok := ctx.identKind[last]; ok {
			return k, subst, nil
		}
		kv := ctx.freshKVar()
		ctx.identKind[last] = kv
		return kv, subst, nil

	case TAlias:
		params := typ.Ref.Params()
		kinds := make([]Kind, len(params)+1)
		for i, p := range params {
			kinds[i] = orFreshKVar(p.KindVal, ctx)
		}
		kinds[len(params)] = Star
		return MakeArrow(kinds...), subst, nil

	case TApp:
		return inferAppKind(typ, ctx)

	case TFunction:
		kd, sd, err := InferKind(typ.Domain, ctx)
		if err != nil {
			return nil, nil, err
		}
		subst = mergeKindSubst(subst, sd)
		if err := unifyKinds(subst, kd, Star); err != nil {
			return nil, nil, fmt.Errorf("function argument must have kind Type, got %s", ApplyKindSubst(subst, kd))
		}
		kr, sr, err := InferKind(typ.Range, ctx)
		if err != nil {
			return nil, nil, err
		}
		subst = mergeKindSubst(subst, sr)
		if err := unifyKinds(subst, kr, Star); err != nil {
			return nil, nil, fmt.Errorf("function result must have kind Type, got %s", ApplyKindSubst(subst, kr))
		}
		return Star, subst, nil

	case TForall:
		kb, sb, err := InferKind(typ.Body, ctx)
		if err != nil {
			return nil, nil, err
		}
		subst = mergeKindSubst(subst, sb)
		if err := unifyKinds(subst, kb, Star); err != nil {
			return nil, nil, fmt.Errorf("quantified type must have kind Type, got %s", ApplyKindSubst(subst, kb))
		}
		return Star, subst, nil

	case TRecord:
		return checkRowKind(typ.Row, ctx, subst)
	case TVariant:
		return checkRowKind(typ.Row, ctx, subst)
	case TEffect:
		return checkRowKind(typ.Row, ctx, subst)

	case TEmptyRow:
		return RowK, subst, nil

	case TExtendRow:
		for _, f := range typ.Fields {
			kf, sf, err := InferKind(f.Typ, ctx)
			if err != nil {
				return nil, nil, err
			}
			subst = mergeKindSubst(subst, sf)
			if err := unifyKinds(subst, kf, Star); err != nil {
				return nil, nil, fmt.Errorf("field %s must have kind Type, got %s", f.Name, ApplyKindSubst(subst, kf))
			}
		}
		kr, sr, err := InferKind(typ.Rest, ctx)
		if err != nil {
			return nil, nil, err
		}
		subst = mergeKindSubst(subst, sr)
		if err := unifyKinds(subst, kr, RowK); err != nil {
			return nil, nil, fmt.Errorf("row tail must have kind Row, got %s", ApplyKindSubst(subst, kr))
		}
		return RowK, subst, nil

	default:
		return Star, subst, nil
	}
}

func checkRowKind(row Type, ctx *KindContext, subst KindSubst) (Kind, KindSubst, error) {
	k, s, err := InferKind(row, ctx)
	if err != nil {
		return nil, nil, err
	}
	subst = mergeKindSubst(subst, s)
	if err := unifyKinds(subst, k, RowK); err != nil {
		return nil, nil, fmt.Errorf("record/variant/effect body must have kind Row, got %s", ApplyKindSubst(subst, k))
	}
	return Star, subst, nil
}

func inferAppKind(t TApp, ctx *KindContext) (Kind, KindSubst, error) {
	kHead, subst, err := InferKind(t.Head, ctx)
	if err != nil {
		return nil, nil, err
	}
	for _, arg := range t.Args {
		kArg, sArg, err := InferKind(arg, ctx)
		if err != nil {
			return nil, nil, err
		}
		subst = mergeKindSubst(subst, sArg)

		kRet := ctx.freshKVar()
		expected := KFunc{Arg: ApplyKindSubst(subst, kArg), Result: kRet}
		lhs := ApplyKindSubst(subst, kHead)
		if err := unifyKinds(subst, lhs, expected); err != nil {
			return nil, nil, fmt.Errorf("kind mismatch applying type: %w", err)
		}
		kHead = kRet
	}
	return ApplyKindSubst(subst, kHead), subst, nil
}

func orFreshKVar(k Kind, ctx *KindContext) Kind {
	if k != nil {
		return k
	}
	return ctx.freshKVar()
}

func mergeKindSubst(s1, s2 KindSubst) KindSubst {
	out := make(KindSubst, len(s1)+len(s2))
	for k, v := range s1 {
		out[k] = v
	}
	for k, v := range s2 {
		out[k] = v
	}
	return out
}

// CheckKind is the package entry point: infer t's kind from scratch,
// defaulting any kind variable left unconstrained to Type.
func CheckKind(t Type, ids *IDGen) (Kind, error) {
	ctx := NewKindContext(ids)
	k, s, err := InferKind(t, ctx)
	if err != nil {
		return nil, err
	}
	var defaultKVars func(Kind) Kind
	defaultKVars = func(k Kind) Kind {
		switch kk := k.(type) {
		case KVar:
			return Star
		case KFunc:
			return KFunc{Arg: defaultKVars(kk.Arg), Result: defaultKVars(kk.Result)}
		default:
			return k
		}
	}
	return defaultKVars(ApplyKindSubst(s, k)), nil
}
