// Package ast defines the typed-AST contract the type-checker (C5) and
// compiler (C6) consume. The parser that produces these nodes is out
// of scope (spec §1); this package only fixes the shape it hands over:
// expressions and patterns carrying Span positions, plus TypeBinding
// declarations with placeholder (unresolved) aliases, matching the
// contract funxy's own ast package exposes to its compiler.
//
// Like the teacher's ast_core.go, every node is a closed sum matched by
// type switch rather than a class hierarchy: Expr and Pattern are
// sealed via an unexported marker method, and every constructor is used
// by pointer so nodes are valid map keys for the checker's
// resolution/type side-tables (mirroring funxy's
// Compiler.SetResolutionMap/SetTypeMap).
package ast

import (
	"github.com/rowlang/rowlang/internal/symbols"
	"github.com/rowlang/rowlang/internal/token"
	"github.com/rowlang/rowlang/internal/types"
)

// Expr is the closed sum of expression forms (spec §4.4).
type Expr interface {
	Span() token.Span
	exprNode()
}

// Pattern is the closed sum of pattern forms matched against a
// scrutinee (spec §4.4 "Pattern match branches").
type Pattern interface {
	Span() token.Span
	patternNode()
}

// Param is a lambda parameter: a bound name, whether it is resolved
// implicitly (spec §4.4 "Implicit arguments"), and an optional source
// annotation (types.THole{} when unannotated).
type Param struct {
	Name       symbols.Symbol
	Implicit   bool
	Annotation types.Type
}

// --- Literals -------------------------------------------------------

type IntLit struct {
	SpanVal token.Span
	Value   int64
}

type FloatLit struct {
	SpanVal token.Span
	Value   float64
}

type ByteLit struct {
	SpanVal token.Span
	Value   byte
}

type CharLit struct {
	SpanVal token.Span
	Value   rune
}

type StringLit struct {
	SpanVal token.Span
	Value   string
}

func (e *IntLit) Span() token.Span    { return e.SpanVal }
func (e *FloatLit) Span() token.Span  { return e.SpanVal }
func (e *ByteLit) Span() token.Span   { return e.SpanVal }
func (e *CharLit) Span() token.Span   { return e.SpanVal }
func (e *StringLit) Span() token.Span { return e.SpanVal }

func (*IntLit) exprNode()    {}
func (*FloatLit) exprNode()  {}
func (*ByteLit) exprNode()   {}
func (*CharLit) exprNode()   {}
func (*StringLit) exprNode() {}

// --- Variables, application, abstraction ----------------------------

// Var is an identifier reference; the checker resolves it against the
// lexical/global environment and records its type in the checker's
// type side-table rather than mutating this node (spec §4.4 "Output").
type Var struct {
	SpanVal token.Span
	Name    symbols.Symbol
}

func (e *Var) Span() token.Span { return e.SpanVal }
func (*Var) exprNode()          {}

// Lambda is a (possibly multi-parameter, curried) function literal.
type Lambda struct {
	SpanVal token.Span
	Params  []Param
	Body    Expr
}

func (e *Lambda) Span() token.Span { return e.SpanVal }
func (*Lambda) exprNode()          {}

// App is a single-argument function application; multi-argument calls
// are represented as nested App nodes over a curried Function type,
// matching the curried Function(domain, range) type representation.
type App struct {
	SpanVal token.Span
	Func    Expr
	Arg     Expr
}

func (e *App) Span() token.Span { return e.SpanVal }
func (*App) exprNode()          {}

// --- Binding forms ---------------------------------------------------

// Let is a non-recursive binding: `let name = value in body`, or, when
// Pat is non-nil, a pattern binding `let (a, b) = value in body`.
type Let struct {
	SpanVal    token.Span
	Name       symbols.Symbol
	Pat        Pattern
	Annotation types.Type
	Value      Expr
	Body       Expr
}

func (e *Let) Span() token.Span { return e.SpanVal }
func (*Let) exprNode()          {}

// RecBinding is one member of a `let rec f = ... and g = ...` group.
type RecBinding struct {
	Name  symbols.Symbol
	Value Expr
}

// LetRec is a mutually recursive binding group (spec §4.4 "Recursive
// let groups").
type LetRec struct {
	SpanVal  token.Span
	Bindings []RecBinding
	Body     Expr
}

func (e *LetRec) Span() token.Span { return e.SpanVal }
func (*LetRec) exprNode()          {}

// --- Control flow and data construction ------------------------------

type If struct {
	SpanVal token.Span
	Cond    Expr
	Then    Expr
	Else    Expr
}

func (e *If) Span() token.Span { return e.SpanVal }
func (*If) exprNode()          {}

// RecordFieldInit is one `name = value` entry in a record literal.
type RecordFieldInit struct {
	Name  symbols.Symbol
	Value Expr
}

// RecordLit constructs a record value, optionally extending a base
// record (spec §4.4 "Record literals").
type RecordLit struct {
	SpanVal token.Span
	Base    Expr // nil unless this is a `{ ...base, f = v }` extension
	Fields  []RecordFieldInit
}

func (e *RecordLit) Span() token.Span { return e.SpanVal }
func (*RecordLit) exprNode()          {}

// FieldAccess is `e.f` (spec §4.4 "Field access").
type FieldAccess struct {
	SpanVal token.Span
	Record  Expr
	Field   symbols.Symbol
}

func (e *FieldAccess) Span() token.Span { return e.SpanVal }
func (*FieldAccess) exprNode()          {}

// ArrayLit constructs a homogeneous array value.
type ArrayLit struct {
	SpanVal  token.Span
	Elements []Expr
}

func (e *ArrayLit) Span() token.Span { return e.SpanVal }
func (*ArrayLit) exprNode()          {}

// MatchCase is one `pattern [when guard] -> body` alternative.
type MatchCase struct {
	Pat   Pattern
	Guard Expr // nil if unguarded
	Body  Expr
}

// Match type-checks the scrutinee, then each alternative's pattern
// against the scrutinee's type before its body (spec §4.4).
type Match struct {
	SpanVal   token.Span
	Scrutinee Expr
	Cases     []MatchCase
}

func (e *Match) Span() token.Span { return e.SpanVal }
func (*Match) exprNode()          {}

// Do is `do bind; body`: bind is evaluated first and its value
// discarded, then body produces the result (see DESIGN.md's
// do-sequencing decision for why this is plain sequencing rather than
// a flat_map rewrite).
type Do struct {
	SpanVal token.Span
	Bind    Expr
	Body    Expr
}

func (e *Do) Span() token.Span { return e.SpanVal }
func (*Do) exprNode()          {}

// Ascription carries an explicit user-written type annotation
// (`e : T`); the checker unifies the inferred type of Value with
// Annotation.
type Ascription struct {
	SpanVal    token.Span
	Value      Expr
	Annotation types.Type
}

func (e *Ascription) Span() token.Span { return e.SpanVal }
func (*Ascription) exprNode()          {}

// --- Patterns ---------------------------------------------------------

type PWildcard struct{ SpanVal token.Span }

func (p *PWildcard) Span() token.Span { return p.SpanVal }
func (*PWildcard) patternNode()       {}

type PVar struct {
	SpanVal token.Span
	Name    symbols.Symbol
}

func (p *PVar) Span() token.Span { return p.SpanVal }
func (*PVar) patternNode()       {}

// PLiteral matches a scalar literal exactly.
type PLiteral struct {
	SpanVal token.Span
	Value   Expr // one of IntLit/FloatLit/ByteLit/CharLit/StringLit
}

func (p *PLiteral) Span() token.Span { return p.SpanVal }
func (*PLiteral) patternNode()       {}

// PatternField is one `name = pattern` entry in a record pattern.
type PatternField struct {
	Name    symbols.Symbol
	Pattern Pattern
}

// PatternTypeField binds a record's nested type-alias field to a local
// alias name in the match arm's scope (spec §4.4 "Record patterns ...
// Type fields bound in the pattern introduce alias bindings").
type PatternTypeField struct {
	Name symbols.Symbol
	Bind symbols.Symbol
}

// PRecord destructures a record. RestBind, if non-nil, binds the
// remaining (unmatched) fields to a row-polymorphic record.
type PRecord struct {
	SpanVal    token.Span
	Fields     []PatternField
	TypeFields []PatternTypeField
	RestBind   *symbols.Symbol
}

func (p *PRecord) Span() token.Span { return p.SpanVal }
func (*PRecord) patternNode()       {}

// PVariant matches a variant constructor application, e.g. `Cons x xs`.
type PVariant struct {
	SpanVal token.Span
	Ctor    symbols.Symbol
	Args    []Pattern
}

func (p *PVariant) Span() token.Span { return p.SpanVal }
func (*PVariant) patternNode()       {}

// PAs binds the whole matched value to Name in addition to matching
// Inner (`x @ Cons _ _`).
type PAs struct {
	SpanVal token.Span
	Name    symbols.Symbol
	Inner   Pattern
}

func (p *PAs) Span() token.Span { return p.SpanVal }
func (*PAs) patternNode()       {}

// --- Top-level declarations -------------------------------------------

// VariantConstructor is one `| Name T1 T2` alternative of a variant
// type declaration; ArgTypes may reference the enclosing
// TypeBindingMember's own Params or Name (recursive variants, spec
// scenario 3).
type VariantConstructor struct {
	Name     symbols.Symbol
	ArgTypes []types.Type
}

// TypeBindingMember is one member of a (possibly mutually recursive)
// `type A = ... and B = ...` group — the parser-contract placeholder
// the checker resolves into a published types.AliasGroup (spec §1
// "TypeBinding nodes with placeholder aliases").
type TypeBindingMember struct {
	Name         symbols.Symbol
	Params       []types.TGeneric
	Body         types.Type           // structural body, or nil if Constructors is set
	Constructors []VariantConstructor // non-nil for a variant declaration
}

// TypeBinding is a top-level type declaration group.
type TypeBinding struct {
	SpanVal token.Span
	Members []TypeBindingMember
	Opaque  bool
}

func (t *TypeBinding) Span() token.Span { return t.SpanVal }

// Decl is a top-level program item: either a TypeBinding or a
// top-level constant/function binding expressed as a Let/LetRec whose
// Body is nil (the program's remaining declarations play that role).
type Decl interface {
	Span() token.Span
}

// Program is the root node the façade's pipeline (C12) receives in
// place of parser output (spec §4.9 "parse(src) -> ast").
type Program struct {
	File  string
	Decls []Decl
}
