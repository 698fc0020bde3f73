package check

import (
	"github.com/rowlang/rowlang/internal/ast"
	"github.com/rowlang/rowlang/internal/symbols"
	"github.com/rowlang/rowlang/internal/types"
)

// checkTypeBinding resolves a `type A = ... and B = ...` declaration
// group into a published types.AliasGroup (spec §1 "TypeBinding nodes
// with placeholder aliases" — the checker's job is exactly this
// resolution). Variant members additionally register each constructor
// both as an ordinary (curried, possibly generalized) function binding
// in the enclosing scope and in the checker's own ctors table, which
// pattern-checking needs to recover constructor arity and the
// variant's full type.
func (c *Checker) checkTypeBinding(tb *ast.TypeBinding) {
	names := make(map[symbols.Symbol]int, len(tb.Members))
	for i, m := range tb.Members {
		if _, dup := names[m.Name]; dup {
			c.addError(&DuplicateTypeDefinitionError{Name: m.Name.String(), At: tb.Span()})
			continue
		}
		names[m.Name] = i
	}

	group := types.NewAliasGroup(make([]types.AliasData, len(tb.Members)), tb.Opaque)

	resolve := func(t types.Type) types.Type {
		return c.resolveSelfRef(t, names, group)
	}

	members := make([]types.AliasData, len(tb.Members))
	for i, m := range tb.Members {
		var body types.Type
		switch {
		case m.Constructors != nil:
			body = c.buildVariantRow(m, resolve)
		case m.Body != nil:
			body = resolve(m.Body)
		default:
			body = types.TEmptyRow{}
		}
		members[i] = types.AliasData{Name: m.Name, Params: m.Params, Body: body}
	}
	group.Members = members

	for i, m := range tb.Members {
		ref := types.AliasRef{Group: group, Index: i}
		c.bindAlias(m.Name, ref)
		if m.Constructors != nil {
			c.registerConstructors(m, ref, resolve)
		}
	}
}

// buildVariantRow turns a variant member's constructor list into a
// Variant-kinded row, one field per constructor whose type is the
// Tuple of its (self-ref-resolved) argument types (spec §3
// constructors reusing the row/record machinery, builder.go's Tuple
// doc comment).
func (c *Checker) buildVariantRow(m ast.TypeBindingMember, resolve func(types.Type) types.Type) types.Type {
	fields := make([]types.ValueField, len(m.Constructors))
	for i, ctor := range m.Constructors {
		argTypes := make([]types.Type, len(ctor.ArgTypes))
		for j, a := range ctor.ArgTypes {
			argTypes[j] = resolve(a)
		}
		fields[i] = types.ValueField{Name: ctor.Name, Typ: types.Tuple(c.Interner, argTypes)}
	}
	return types.Variant(types.ExtendRow(nil, fields, types.TEmptyRow{}))
}

// registerConstructors binds every constructor of a variant member as
// a curried function in the current scope (e.g. `Cons : forall a. a ->
// List a -> List a`) and records its arity/argument types for pattern
// checking.
func (c *Checker) registerConstructors(m ast.TypeBindingMember, ref types.AliasRef, resolve func(types.Type) types.Type) {
	variantType := types.Type(types.Alias(ref))
	if len(m.Params) > 0 {
		variantType = types.App(variantType, paramsToArgs(m.Params)...)
	}
	for _, ctor := range m.Constructors {
		argTypes := make([]types.Type, len(ctor.ArgTypes))
		for i, a := range ctor.ArgTypes {
			argTypes[i] = resolve(a)
		}
		c.ctors[ctor.Name] = ctorInfo{Params: m.Params, ArgTypes: argTypes, VariantType: variantType}
		c.ctorOrder = append(c.ctorOrder, ctor.Name)

		fnType := types.Curry(argTypes, variantType)
		if len(m.Params) > 0 {
			fnType = types.Forall(m.Params, fnType)
		}
		c.bind(ctor.Name, fnType)
	}
}

func paramsToArgs(params []types.TGeneric) []types.Type {
	args := make([]types.Type, len(params))
	for i, p := range params {
		args[i] = p
	}
	return args
}

// resolveSelfRef replaces any TIdent referring to a name declared in
// this same binding group with a TAlias pointing back into group,
// tying the recursive knot the way alias.go's NewAliasGroup doc
// comment describes (mutually recursive variants, scenario 3).
func (c *Checker) resolveSelfRef(t types.Type, names map[symbols.Symbol]int, group *types.AliasGroup) types.Type {
	switch n := t.(type) {
	case types.TIdent:
		if idx, ok := names[n.Name]; ok {
			return types.TAlias{Ref: types.AliasRef{Group: group, Index: idx}}
		}
		if ref, ok := c.lookupAlias(n.Name); ok {
			return types.Alias(ref)
		}
		c.addError(&UndefinedTypeError{Name: n.Name.String()})
		return types.TError{}
	case types.TApp:
		args := make([]types.Type, len(n.Args))
		for i, a := range n.Args {
			args[i] = c.resolveSelfRef(a, names, group)
		}
		return types.App(c.resolveSelfRef(n.Head, names, group), args...)
	case types.TFunction:
		return types.TFunction{Arg: n.Arg, Domain: c.resolveSelfRef(n.Domain, names, group), Range: c.resolveSelfRef(n.Range, names, group)}
	case types.TRecord:
		return types.Record(c.resolveSelfRef(n.Row, names, group))
	case types.TVariant:
		return types.Variant(c.resolveSelfRef(n.Row, names, group))
	case types.TEffect:
		return types.Effect(c.resolveSelfRef(n.Row, names, group))
	case types.TExtendRow:
		fields := make([]types.ValueField, len(n.Fields))
		for i, f := range n.Fields {
			fields[i] = types.ValueField{Name: f.Name, Typ: c.resolveSelfRef(f.Typ, names, group)}
		}
		return types.ExtendRow(n.Types, fields, c.resolveSelfRef(n.Rest, names, group))
	case types.TForall:
		return types.Forall(n.Params, c.resolveSelfRef(n.Body, names, group))
	default:
		return t
	}
}

// UndefinedTypeError re-exposes internal/types' own error for use from
// the checker's alias-resolution path without importing a second
// error taxonomy for the same condition.
type UndefinedTypeError = types.UndefinedTypeError
