package types

import (
	"fmt"
	"strings"

	"github.com/rowlang/rowlang/internal/symbols"
)

// ValueField is a named value-typed row entry (spec §3 "Fields").
type ValueField struct {
	Name symbols.Symbol
	Typ  Type
}

// TypeField is a named nested-alias row entry, used for first-class
// modules that bundle types alongside values (spec §3).
type TypeField struct {
	Name symbols.Symbol
	Typ  AliasRef
}

// TEmptyRow terminates a row's rest chain with "no more fields".
type TEmptyRow struct{}

func (TEmptyRow) isType()        {}
func (TEmptyRow) String() string { return "" }

// TExtendRow is one link of a row: a list of nested type aliases, a
// list of value fields, and a rest that is either TEmptyRow or a
// row-kinded variable/skolem/generic (spec invariant 3).
type TExtendRow struct {
	Types  []TypeField
	Fields []ValueField
	Rest   Type
}

func (TExtendRow) isType() {}
func (t TExtendRow) String() string {
	var parts []string
	for _, f := range t.Types {
		parts = append(parts, "type "+f.Name.String())
	}
	for _, f := range t.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Name, f.Typ))
	}
	body := strings.Join(parts, ", ")
	switch rest := t.Rest.(type) {
	case nil, TEmptyRow:
		return body
	default:
		if body == "" {
			return "| " + rest.String()
		}
		return body + " | " + rest.String()
	}
}

// RowIter yields the value fields of a (possibly nested) row in
// order, following Rest links until it reaches a non-TExtendRow tail.
// It does not flatten across Alias — callers that want alias-expanded
// iteration should resolve aliases first.
func RowIter(row Type) []ValueField {
	var out []ValueField
	for {
		ext, ok := row.(TExtendRow)
		if !ok {
			return out
		}
		out = append(out, ext.Fields...)
		row = ext.Rest
	}
}

// TypeFieldIter yields the nested type-alias fields of a row, in the
// same left-to-right order as RowIter does for value fields.
func TypeFieldIter(row Type) []TypeField {
	var out []TypeField
	for {
		ext, ok := row.(TExtendRow)
		if !ok {
			return out
		}
		out = append(out, ext.Types...)
		row = ext.Rest
	}
}

// RowRest returns the open tail of a row: TEmptyRow, or a
// variable/skolem/generic of kind Row.
func RowRest(row Type) Type {
	for {
		ext, ok := row.(TExtendRow)
		if !ok {
			if row == nil {
				return TEmptyRow{}
			}
			return row
		}
		row = ext.Rest
	}
}

// ExtendRow prepends fields/types onto rest, the row constructor from
// the C1 constructor library (spec §4.1).
func ExtendRow(typeFields []TypeField, valueFields []ValueField, rest Type) Type {
	if rest == nil {
		rest = TEmptyRow{}
	}
	if len(typeFields) == 0 && len(valueFields) == 0 {
		return rest
	}
	return TExtendRow{Types: typeFields, Fields: valueFields, Rest: rest}
}

// Record, Variant and Effect are the row-kinded type constructors.
func Record(row Type) Type  { return TRecord{Row: row} }
func Variant(row Type) Type { return TVariant{Row: row} }
func Effect(row Type) Type  { return TEffect{Row: row} }
