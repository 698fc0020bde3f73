package check

import (
	"fmt"

	"github.com/rowlang/rowlang/internal/symbols"
	"github.com/rowlang/rowlang/internal/token"
	"github.com/rowlang/rowlang/internal/types"
)

// The errors below round out spec §7's "Type errors"/"Rename errors"
// taxonomy with the members internal/types doesn't already cover
// (TypeMismatch, Occurs, MissingField live in internal/types since the
// unifier raises them directly; everything that only the checker
// itself can detect lives here).

// UndefinedVariableError is raised when an identifier resolves to
// neither a lexical binding, a local type-binding constructor, nor the
// global environment.
type UndefinedVariableError struct {
	Name string
	At   token.Span
}

func (e *UndefinedVariableError) Error() string {
	return fmt.Sprintf("%s: undefined variable %q", e.At, e.Name)
}

// UndefinedFieldError is raised by field access / record pattern
// checking when a name is not among a record's known fields (spec §4.4
// "unknown fields produce UndefinedField").
type UndefinedFieldError struct {
	RecordType types.Type
	Field      string
	At         token.Span
}

func (e *UndefinedFieldError) Error() string {
	return fmt.Sprintf("%s: %s has no field %q", e.At, e.RecordType, e.Field)
}

// NotAFunctionError is raised when an application's head does not
// unify with any Function arrow.
type NotAFunctionError struct {
	Got types.Type
	At  token.Span
}

func (e *NotAFunctionError) Error() string {
	return fmt.Sprintf("%s: cannot apply a value of type %s", e.At, e.Got)
}

// DuplicateTypeDefinitionError is raised when a `type` binding group
// declares the same name twice, or when the same name is already
// published as a different alias in the global environment.
type DuplicateTypeDefinitionError struct {
	Name string
	At   token.Span
}

func (e *DuplicateTypeDefinitionError) Error() string {
	return fmt.Sprintf("%s: type %q is already defined", e.At, e.Name)
}

// PatternArgumentCountMismatchError is raised when a variant pattern
// supplies a different number of sub-patterns than the constructor's
// declared arity.
type PatternArgumentCountMismatchError struct {
	Ctor           string
	Expected, Got int
	At             token.Span
}

func (e *PatternArgumentCountMismatchError) Error() string {
	return fmt.Sprintf("%s: constructor %q expects %d argument(s), pattern supplies %d",
		e.At, e.Ctor, e.Expected, e.Got)
}

// AmbiguousImplicitError is raised when more than one candidate in the
// implicit-resolution environment matches an implicit parameter's type
// equally well and the resolution order (spec §9 Open Question 3:
// innermost scope first, then lexical order) still leaves a tie within
// the same scope.
type AmbiguousImplicitError struct {
	Want       types.Type
	Candidates []string
	At         token.Span
}

func (e *AmbiguousImplicitError) Error() string {
	return fmt.Sprintf("%s: ambiguous implicit argument of type %s (candidates: %v)", e.At, e.Want, e.Candidates)
}

// UnresolvedImplicitError is raised when no candidate in scope unifies
// with an implicit parameter's type.
type UnresolvedImplicitError struct {
	Want types.Type
	At   token.Span
}

func (e *UnresolvedImplicitError) Error() string {
	return fmt.Sprintf("%s: no implicit value of type %s in scope", e.At, e.Want)
}

// DuplicateBindingError is a rename error: the same name bound twice
// in one scope (spec §7 "Rename errors: duplicate binding in the same
// scope").
type DuplicateBindingError struct {
	Name symbols.Symbol
	At   token.Span
}

func (e *DuplicateBindingError) Error() string {
	return fmt.Sprintf("%s: %q is already bound in this scope", e.At, e.Name.String())
}

// UnsupportedNestedPatternError is raised when a constructor or record
// pattern's sub-pattern is itself refutable (a nested constructor,
// literal, or record pattern rather than a plain variable or
// wildcard). internal/compiler only ever compiles flattened
// sub-patterns (bindSubPattern), so the checker rejects deeper nesting
// up front with a spanned diagnostic instead of letting it surface as
// a bare compiler error.
type UnsupportedNestedPatternError struct {
	At token.Span
}

func (e *UnsupportedNestedPatternError) Error() string {
	return fmt.Sprintf("%s: nested patterns inside a constructor or record field must be a variable or wildcard", e.At)
}

// NonExhaustiveMatchWarning is not a hard error (spec §9 Open Question
// 1: "this spec does not mandate compile-time exhaustiveness"); the
// checker collects it alongside (not mixed into) the hard error list,
// and the compiler always emits the runtime PanicNonExhaustive
// fallback regardless of whether this warning fired.
type NonExhaustiveMatchWarning struct {
	Missing []string
	At      token.Span
}

func (w *NonExhaustiveMatchWarning) Error() string {
	return fmt.Sprintf("%s: non-exhaustive match, missing case(s): %v", w.At, w.Missing)
}
