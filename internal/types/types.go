// Package types implements C1 (shared type representation), C3 (kind
// checker) and C4 (substitution/unifier) from the specification: a
// kinded, row-polymorphic type system with hash-consed primitives,
// generalization machinery and a union-find substitution.
package types

import (
	"fmt"
	"strings"

	"github.com/rowlang/rowlang/internal/config"
	"github.com/rowlang/rowlang/internal/symbols"
)

// Type is the closed sum of every type-level constructor in the
// language (spec §3). Like the teacher's Type/Instruction sums, this
// is a sealed interface matched with type switches rather than an
// inheritance hierarchy — isType is unexported so no outside package
// can add a constructor.
type Type interface {
	String() string
	isType()
}

// BuiltinTag enumerates the primitive nullary/unary type constructors.
type BuiltinTag int

const (
	TagString BuiltinTag = iota
	TagByte
	TagChar
	TagInt
	TagFloat
	TagArray    // higher-kinded: Array : Type -> Type
	TagFunction // higher-kinded, applied via App; Function carries ArgKind separately
)

func (t BuiltinTag) String() string {
	switch t {
	case TagString:
		return "String"
	case TagByte:
		return "Byte"
	case TagChar:
		return "Char"
	case TagInt:
		return "Int"
	case TagFloat:
		return "Float"
	case TagArray:
		return "Array"
	case TagFunction:
		return "Function"
	default:
		return "<unknown builtin>"
	}
}

// ArgKind distinguishes an ordinary argument from one resolved by
// implicit elaboration (spec §3 "Function(argKind, domain, range)").
type ArgKind int

const (
	Explicit ArgKind = iota
	Implicit
)

// THole is a placeholder awaiting ascription (parser output before the
// checker assigns it a real type).
type THole struct{}

func (THole) isType()        {}
func (THole) String() string { return "_" }

// TOpaque marks a type whose representation is intentionally hidden
// (an abstract exported type).
type TOpaque struct{ Name string }

func (t TOpaque) isType()        {}
func (t TOpaque) String() string { return t.Name }

// TError is the marker type substituted for an expression whose type
// could not be determined because of an earlier error (spec §4.4
// "Error recovery").
type TError struct{}

func (TError) isType()        {}
func (TError) String() string { return "<type error>" }

// TBuiltin is one of the primitive type constructors.
type TBuiltin struct{ Tag BuiltinTag }

func (t TBuiltin) isType()        {}
func (t TBuiltin) String() string { return t.Tag.String() }

// TGeneric is a bound type parameter — either standing as a binder
// inside a TForall's Params list, or appearing in a body referring
// back to that binder (spec §3 "Generic{id, kind}").
type TGeneric struct {
	ID      uint64
	KindVal Kind
}

func (t TGeneric) isType() {}
func (t TGeneric) String() string {
	if config.IsTestMode {
		return "g?"
	}
	return fmt.Sprintf("g%d", t.ID)
}

// TSkolem is a rigid variable produced by skolemizing a TForall binder
// during checking; unlike TGeneric it never unifies except with
// itself (spec glossary: "never bound by unification").
type TSkolem struct {
	Name    string
	ID      uint64
	KindVal Kind
}

func (t TSkolem) isType() {}
func (t TSkolem) String() string {
	if config.IsTestMode {
		return "$" + t.Name + "?"
	}
	return fmt.Sprintf("$%s_%d", t.Name, t.ID)
}

// TVariable is a unification variable; equality and hashing are by ID
// only (spec §3).
type TVariable struct {
	ID      uint64
	KindVal Kind
}

func (t TVariable) isType() {}
func (t TVariable) String() string {
	if config.IsTestMode {
		return "t?"
	}
	return fmt.Sprintf("t%d", t.ID)
}

// TForall is a universally quantified type scheme.
type TForall struct {
	Params []TGeneric
	Body   Type
}

func (t TForall) isType() {}
func (t TForall) String() string {
	names := make([]string, len(t.Params))
	for i, p := range t.Params {
		names[i] = p.String()
	}
	return fmt.Sprintf("forall %s. %s", strings.Join(names, " "), t.Body)
}

// TApp is a type application with one or more arguments, left
// associated: App(App(f, [a]), [b]) is flattened to App(f, [a, b]) by
// the App constructor helper in builder.go.
type TApp struct {
	Head Type
	Args []Type
}

func (t TApp) isType() {}
func (t TApp) String() string {
	args := make([]string, len(t.Args))
	for i, a := range t.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("(%s %s)", t.Head, strings.Join(args, " "))
}

// TFunction is the (possibly implicit) arrow sugar for
// App(Function, [domain, range]) that also records whether the
// argument is implicit, for the elaborator (spec §3).
type TFunction struct {
	Arg    ArgKind
	Domain Type
	Range  Type
}

func (t TFunction) isType() {}
func (t TFunction) String() string {
	if t.Arg == Implicit {
		return fmt.Sprintf("{%s} -> %s", t.Domain, t.Range)
	}
	return fmt.Sprintf("%s -> %s", t.Domain, t.Range)
}

// TRecord, TVariant and TEffect are the three row-kinded constructors.
type TRecord struct{ Row Type }

func (t TRecord) isType()        {}
func (t TRecord) String() string { return "{ " + rowBody(t.Row) + " }" }

type TVariant struct{ Row Type }

func (t TVariant) isType()        {}
func (t TVariant) String() string { return "[ " + rowBody(t.Row) + " ]" }

type TEffect struct{ Row Type }

func (t TEffect) isType()        {}
func (t TEffect) String() string { return "<" + rowBody(t.Row) + ">" }

// TIdent is an unresolved identifier as produced by the parser, before
// the checker resolves it to a TAlias.
type TIdent struct{ Name symbols.Symbol }

func (t TIdent) isType()        {}
func (t TIdent) String() string { return t.Name.String() }

// TProjection is a dotted path through a module's type (first-class
// module projection, e.g. M.T).
type TProjection struct{ Path []symbols.Symbol }

func (t TProjection) isType() {}
func (t TProjection) String() string {
	parts := make([]string, len(t.Path))
	for i, s := range t.Path {
		parts[i] = s.Name
	}
	return strings.Join(parts, ".")
}

// TAlias is a reference into a (possibly mutually recursive) alias
// group; see alias.go.
type TAlias struct{ Ref AliasRef }

func (t TAlias) isType()        {}
func (t TAlias) String() string { return t.Ref.Name().String() }

func rowBody(row Type) string {
	if row == nil {
		return ""
	}
	return row.String()
}
