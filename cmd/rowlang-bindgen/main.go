// Command rowlang-bindgen generates RegisterExtern boilerplate from a
// YAML config naming exported Go functions with the extern signature —
// the scaled-down analogue of the teacher's funxy.yaml ext pipeline
// (cmd/funxy's ext subcommands over internal/ext), driving
// internal/bindgen's load-verify-render steps. Dispatch is a plain
// os.Args switch, same as cmd/rowlang.
package main

import (
	"fmt"
	"os"

	"github.com/rowlang/rowlang/internal/bindgen"
)

const (
	exitOK       = 0
	exitGenErr   = 1
	exitUsageErr = 3
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s <bindgen.yaml>\n", os.Args[0])
		return exitUsageErr
	}
	if err := bindgen.Generate(args[0]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitGenErr
	}
	return exitOK
}
