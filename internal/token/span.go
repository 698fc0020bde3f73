// Package token defines the source-position contract the parser
// (an external collaborator, out of scope for this module) attaches
// to every AST node it produces.
package token

import "fmt"

// Span is a half-open byte range into a single source file, identified
// by line/column for human-readable diagnostics.
type Span struct {
	File      string
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
	StartByte int
	EndByte   int
}

// String renders a span the way the teacher's diagnostics format
// source positions: "file:line:col".
func (s Span) String() string {
	if s.File == "" {
		return fmt.Sprintf("%d:%d", s.StartLine, s.StartCol)
	}
	return fmt.Sprintf("%s:%d:%d", s.File, s.StartLine, s.StartCol)
}

// Merge returns the smallest span covering both a and b. Used by the
// checker/compiler when synthesizing a span for a desugared node.
func Merge(a, b Span) Span {
	if a == (Span{}) {
		return b
	}
	if b == (Span{}) {
		return a
	}
	merged := a
	if b.EndByte > a.EndByte {
		merged.EndByte = b.EndByte
		merged.EndLine = b.EndLine
		merged.EndCol = b.EndCol
	}
	if b.StartByte < a.StartByte {
		merged.StartByte = b.StartByte
		merged.StartLine = b.StartLine
		merged.StartCol = b.StartCol
	}
	return merged
}
