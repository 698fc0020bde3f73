package types

import "fmt"

// KindMismatchError is raised by the kind checker (C3) when two kinds
// cannot be unified.
type KindMismatchError struct {
	Expected, Actual Kind
}

func (e *KindMismatchError) Error() string {
	return fmt.Sprintf("kind mismatch: expected %s, got %s", e.Expected, e.Actual)
}

// UndefinedTypeError is raised by the kind checker when a TIdent names
// no known type.
type UndefinedTypeError struct{ Name string }

func (e *UndefinedTypeError) Error() string { return fmt.Sprintf("undefined type: %s", e.Name) }

// OccursError is raised by Bind when a variable would have to contain
// itself (e.g. unifying `a` with `List a`).
type OccursError struct {
	Var TVariable
	In  Type
}

func (e *OccursError) Error() string {
	return fmt.Sprintf("infinite type: %s occurs in %s", e.Var, e.In)
}

// TypeMismatchError is the generic "these two types cannot be made
// equal" failure.
type TypeMismatchError struct {
	Expected, Actual Type
	Context          string
}

func (e *TypeMismatchError) Error() string {
	if e.Context == "" {
		return fmt.Sprintf("type mismatch: expected %s, got %s", e.Expected, e.Actual)
	}
	return fmt.Sprintf("type mismatch in %s: expected %s, got %s", e.Context, e.Expected, e.Actual)
}

// MissingFieldError is raised during row unification when two closed
// rows disagree on membership (spec §4.3 step 4).
type MissingFieldError struct {
	Row   Type
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("row %s is missing field %s", e.Row, e.Field)
}

// ArityMismatchError covers tuple-length and argument-count mismatches
// discovered during unification.
type ArityMismatchError struct {
	Context        string
	Expected, Got int
}

func (e *ArityMismatchError) Error() string {
	return fmt.Sprintf("%s: expected %d, got %d", e.Context, e.Expected, e.Got)
}
