package types

import "fmt"

// Kind is the "type of a type" (C1/C3). The closed set is
// { Type, Row, Hole, Error, Function(Kind,Kind), Variable(id) } — see
// spec §3 "Kinds". Kinds are small enough that value semantics (no
// interning) are used; Equal performs structural comparison.
type Kind interface {
	String() string
	Equal(Kind) bool
	isKind()
}

// KType is the kind of proper, inhabited types (Int, List Int, ...).
type KType struct{}

func (KType) String() string    { return "Type" }
func (KType) isKind()           {}
func (k KType) Equal(o Kind) bool {
	_, ok := o.(KType)
	return ok
}

// KRow is the kind of rows — only valid inside Record/Variant/Effect
// constructors (spec invariant: "Type and Row are distinct; rows are
// only valid inside record/variant constructors").
type KRow struct{}

func (KRow) String() string { return "Row" }
func (KRow) isKind()        {}
func (k KRow) Equal(o Kind) bool {
	_, ok := o.(KRow)
	return ok
}

// KHole is the kind of a type awaiting ascription; it unifies with
// anything so kind-checking can proceed past parser placeholders.
type KHole struct{}

func (KHole) String() string { return "?" }
func (KHole) isKind()        {}
func (k KHole) Equal(Kind) bool { return true }

// KError marks a kind that could not be determined because an earlier
// kind error was already reported; it also unifies with anything so a
// single kind mistake doesn't cascade into spurious follow-on errors.
type KError struct{}

func (KError) String() string { return "<kind error>" }
func (KError) isKind()        {}
func (k KError) Equal(Kind) bool { return true }

// KFunc is the kind of a type constructor, e.g. List : Type -> Type.
type KFunc struct {
	Arg    Kind
	Result Kind
}

func (k KFunc) String() string { return fmt.Sprintf("(%s -> %s)", k.Arg, k.Result) }
func (k KFunc) isKind()        {}
func (k KFunc) Equal(o Kind) bool {
	if _, ok := o.(KHole); ok {
		return true
	}
	other, ok := o.(KFunc)
	if !ok {
		return false
	}
	return k.Arg.Equal(other.Arg) && k.Result.Equal(other.Result)
}

// KVar is a kind variable produced during kind inference (C3); it is
// resolved to a concrete kind by KindSubst, or defaulted to KType if
// left unconstrained (spec §4.2).
type KVar struct {
	ID uint64
}

func (k KVar) String() string { return fmt.Sprintf("k%d", k.ID) }
func (k KVar) isKind()        {}
func (k KVar) Equal(o Kind) bool {
	other, ok := o.(KVar)
	return ok && other.ID == k.ID
}

// MakeArrow builds a right-associated chain of kinds, e.g.
// MakeArrow(Type, Type, Type) == Type -> (Type -> Type).
func MakeArrow(ks ...Kind) Kind {
	if len(ks) == 0 {
		return Star
	}
	if len(ks) == 1 {
		return ks[0]
	}
	return KFunc{Arg: ks[0], Result: MakeArrow(ks[1:]...)}
}

// Star and RowK are the two proper kinds most constructors return.
var (
	Star   Kind = KType{}
	RowK   Kind = KRow{}
	Hole   Kind = KHole{}
	ErrKnd Kind = KError{}
)
