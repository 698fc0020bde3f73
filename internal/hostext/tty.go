package hostext

import (
	"os"

	"github.com/mattn/go-isatty"

	"github.com/rowlang/rowlang/internal/global"
	"github.com/rowlang/rowlang/internal/symbols"
	"github.com/rowlang/rowlang/internal/types"
	"github.com/rowlang/rowlang/internal/vm"
)

// RegisterTTY publishes io.isTerminal : Unit -> Bool, true when
// standard output is attached to an interactive terminal, using
// github.com/mattn/go-isatty — the teacher's own terminal-detection
// dependency (_examples/funvibe-funxy/internal/evaluator/
// builtins_term.go checks both isatty.IsTerminal and
// isatty.IsCygwinTerminal so Windows' Cygwin/MSYS ptys still read as a
// terminal). Nothing in cmd/rowlang calls it; its repl subcommand
// reports that it is unsupported. in must be the same Interner the pipeline's prelude
// registration used, so the Bool row this binding's type mentions
// interns "False"/"True" to the same symbols.
func RegisterTTY(e *global.Env, in *symbols.Interner) {
	typ := types.Function(unitType(), types.BoolVariant(in))
	e.RegisterExtern("io.isTerminal", typ, 1, func(_ *vm.Thread, _ []vm.Value) (vm.Value, error) {
		fd := os.Stdout.Fd()
		isTTY := isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
		return boolValue(isTTY), nil
	})
}

// boolValue renders a Go bool as the VTag encoding internal/global's
// registerBool publishes (tag 0 = False, tag 1 = True).
func boolValue(b bool) vm.Value {
	if b {
		return vm.VTag{ID: 1}
	}
	return vm.VTag{ID: 0}
}
