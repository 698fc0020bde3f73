// Package config holds process-wide toggles shared across the type
// checker, compiler and VM.
package config

// IsTestMode normalizes fresh type/kind variable names (t1, t2, k3, ...)
// to a stable placeholder so golden-style String() comparisons in tests
// don't depend on allocation order.
var IsTestMode = false

// AliasUnfoldDepth bounds how many times the unifier will unfold a
// recursive type alias while trying to unify it against a structural
// type before giving up (see internal/types/unify.go).
const AliasUnfoldDepth = 32

// GCGrowthFactor multiplies the GC's soft allocation threshold after
// each collection; the new threshold does not depend on live size.
const GCGrowthFactor = 2.0

// GCInitialThreshold is the number of bytes a freshly created heap may
// allocate before its first collection.
const GCInitialThreshold = 1 << 20 // 1 MiB

// MaxFrameCount bounds the VM call stack depth; exceeding it raises
// StackOverflow rather than growing unbounded.
const MaxFrameCount = 1 << 16

// InitialStackSize is the number of Value slots the operand stack
// starts with; the backing array grows as needed from there.
const InitialStackSize = 2048
