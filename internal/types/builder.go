package types

import (
	"strconv"

	"github.com/rowlang/rowlang/internal/symbols"
)

// TypeCache holds interned handles for the handful of primitive types
// that appear constantly (Int, Float, String, unit, EmptyRow, ...) so
// callers can share a single value instead of reallocating the
// corresponding struct at every call site (spec §4.1 "The interner
// maintains a TypeCache of these primitives for fast reuse").
// Interning here is a cache, not an identity requirement — Type values
// still compare by Equal, never by pointer/interface identity.
type TypeCache struct {
	Int, Float, Byte, Char, String Type
	Unit                           Type
	EmptyRow                       Type
}

// NewTypeCache builds the shared primitive cache.
func NewTypeCache() *TypeCache {
	return &TypeCache{
		Int:      TBuiltin{Tag: TagInt},
		Float:    TBuiltin{Tag: TagFloat},
		Byte:     TBuiltin{Tag: TagByte},
		Char:     TBuiltin{Tag: TagChar},
		String:   TBuiltin{Tag: TagString},
		Unit:     Record(TEmptyRow{}),
		EmptyRow: TEmptyRow{},
	}
}

// Array builds Array<elem> = App(Builtin(Array), [elem]).
func Array(elem Type) Type {
	return TApp{Head: TBuiltin{Tag: TagArray}, Args: []Type{elem}}
}

// Function builds an explicit-argument arrow domain -> range.
func Function(domain, rng Type) Type {
	return TFunction{Arg: Explicit, Domain: domain, Range: rng}
}

// ImplicitFunction builds an implicit-argument arrow {domain} -> range.
func ImplicitFunction(domain, rng Type) Type {
	return TFunction{Arg: Implicit, Domain: domain, Range: rng}
}

// Curry builds a right-associated chain of explicit arrows from a
// sequence of argument types and a final result type.
func Curry(args []Type, result Type) Type {
	t := result
	for i := len(args) - 1; i >= 0; i-- {
		t = Function(args[i], t)
	}
	return t
}

// App builds a type application, flattening left-associated chains so
// App(App(f, [a]), [b]) normalizes to App(f, [a, b]) (spec §4.1).
func App(head Type, args ...Type) Type {
	if len(args) == 0 {
		return head
	}
	if inner, ok := head.(TApp); ok {
		merged := make([]Type, 0, len(inner.Args)+len(args))
		merged = append(merged, inner.Args...)
		merged = append(merged, args...)
		return TApp{Head: inner.Head, Args: merged}
	}
	return TApp{Head: head, Args: args}
}

// Forall quantifies body over params.
func Forall(params []TGeneric, body Type) Type {
	if len(params) == 0 {
		return body
	}
	return TForall{Params: params, Body: body}
}

// Builtin returns the nullary builtin type for tag.
func Builtin(tag BuiltinTag) Type { return TBuiltin{Tag: tag} }

// Tuple builds an anonymous product as a closed record whose fields are
// named by position ("0", "1", ...). Variant constructor arguments are
// represented this way so a constructor's signature is itself an
// ordinary row, letting TestTag/GetOffset reuse the same field-access
// machinery records use (spec §3 constructors; no separate tuple
// primitive is named, so this reuses the row system rather than adding
// one).
func Tuple(in *symbols.Interner, elems []Type) Type {
	fields := make([]ValueField, len(elems))
	for i, t := range elems {
		fields[i] = ValueField{Name: in.InternLocal(strconv.Itoa(i)), Typ: t}
	}
	return Record(ExtendRow(nil, fields, TEmptyRow{}))
}

// BoolVariant builds the conventional two-constructor boolean variant
// `[ False | True ]` that every comparison/test primitive's result
// type unifies with, and that the `if`/guard condition types check
// against: the language has no dedicated boolean primitive (spec §3's
// builtins are String/Byte/Char/Int/Float/Array/Function only), so
// Bool is an ordinary nullary-constructor variant like any
// user-defined one. False is listed before True so a caller
// publishing these as runtime constructors in declaration order
// assigns tag 0 to False and tag 1 to True, matching the VM's own
// vBool encoding.
func BoolVariant(in *symbols.Interner) Type {
	return Variant(ExtendRow(nil, []ValueField{
		{Name: in.InternLocal("False"), Typ: Record(TEmptyRow{})},
		{Name: in.InternLocal("True"), Typ: Record(TEmptyRow{})},
	}, TEmptyRow{}))
}

// SplitApp extracts the head constructor and the full accumulated
// argument list from a (possibly already-flat) application, so callers
// don't need to special-case "is this a TApp or a bare head" (spec
// §4.1 "split_app").
func SplitApp(t Type) (head Type, args []Type) {
	if app, ok := t.(TApp); ok {
		return app.Head, app.Args
	}
	return t, nil
}

// ArgIter walks a curried TFunction chain and returns the argument
// types in declaration order together with the final result type.
func ArgIter(t Type) (args []Type, result Type) {
	for {
		fn, ok := t.(TFunction)
		if !ok {
			return args, t
		}
		args = append(args, fn.Domain)
		t = fn.Range
	}
}

// ForallScopeIter returns the ordered binder list of a TForall, or nil
// if t is not universally quantified.
func ForallScopeIter(t Type) []TGeneric {
	if f, ok := t.(TForall); ok {
		return f.Params
	}
	return nil
}

// ApplyArgs substitutes args for a TForall's params in its body,
// supporting partial application when trailing parameters still appear
// in argument (rather than applied) position — the leftover params
// become a smaller TForall around the partially-applied body (spec
// §4.1 "apply_args").
func ApplyArgs(t Type, args []Type) Type {
	forall, ok := t.(TForall)
	if !ok {
		if len(args) == 0 {
			return t
		}
		return App(t, args...)
	}
	n := len(args)
	if n > len(forall.Params) {
		n = len(forall.Params)
	}
	subst := make(Subst, n)
	for i := 0; i < n; i++ {
		subst[forall.Params[i].ID] = args[i]
	}
	body := subst.Apply(forall.Body)
	if n == len(forall.Params) {
		if n < len(args) {
			return App(body, args[n:]...)
		}
		return body
	}
	return TForall{Params: forall.Params[n:], Body: body}
}
