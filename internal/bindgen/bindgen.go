// Package bindgen generates RegisterExtern boilerplate for host
// bindings: given a small YAML config naming exported Go functions
// with the vm.ExternFn signature, it verifies each one against the
// package's real type information (golang.org/x/tools/go/packages, the
// teacher's own introspection dependency — internal/ext/inspector.go
// loads bound packages the same way) and emits a Go source file whose
// RegisterGenerated publishes them all through global.Env's ordinary
// registration surface. It is the scaled-down analogue of the
// teacher's funxy.yaml -> inspector -> codegen pipeline
// (internal/ext/{config.go,inspector.go,codegen.go}): a config file in
// place of funxy.yaml, one generated registration file in place of a
// whole generated host binary.
package bindgen

import (
	"bytes"
	"fmt"
	"go/types"
	"os"

	"golang.org/x/tools/go/packages"
	"gopkg.in/yaml.v3"
)

// Config is the bindgen input file, the shape internal/ext/config.go
// gives funxy.yaml scaled down to this tool's single concern.
type Config struct {
	// Package is the Go import path (or ./relative pattern) to inspect.
	Package string `yaml:"package"`

	// OutPackage is the package clause of the generated file; it must
	// be the package the bound functions themselves live in, since the
	// generated registrations reference them unqualified.
	OutPackage string `yaml:"out_package"`

	// Out is the generated file's path. Defaults to bindings_gen.go.
	Out string `yaml:"out,omitempty"`

	Binds []Bind `yaml:"binds"`
}

// Bind names one exported Go function to register as an extern.
type Bind struct {
	// Go is the exported function name; it must have the vm.ExternFn
	// signature, checked against the loaded package's type info.
	Go string `yaml:"go"`

	// Name is the global name the extern is registered under.
	Name string `yaml:"name"`

	// Arity is the extern's declared argument count.
	Arity int `yaml:"arity"`
}

// LoadConfig reads and validates a bindgen config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("bindgen: %s: %w", path, err)
	}
	if cfg.Package == "" {
		return nil, fmt.Errorf("bindgen: %s: missing package", path)
	}
	if cfg.OutPackage == "" {
		return nil, fmt.Errorf("bindgen: %s: missing out_package", path)
	}
	if cfg.Out == "" {
		cfg.Out = "bindings_gen.go"
	}
	if len(cfg.Binds) == 0 {
		return nil, fmt.Errorf("bindgen: %s: no binds declared", path)
	}
	for i, b := range cfg.Binds {
		if b.Go == "" || b.Name == "" {
			return nil, fmt.Errorf("bindgen: %s: bind %d needs both go and name", path, i)
		}
		if b.Arity < 1 {
			return nil, fmt.Errorf("bindgen: %s: bind %q needs arity >= 1 (a niladic extern takes an explicit Unit argument)", path, b.Name)
		}
	}
	return &cfg, nil
}

const (
	threadType = "*github.com/rowlang/rowlang/internal/vm.Thread"
	valuesType = "[]github.com/rowlang/rowlang/internal/vm.Value"
	valueType  = "github.com/rowlang/rowlang/internal/vm.Value"
)

// Inspect loads cfg.Package and checks every bound function exists,
// is exported, and carries the vm.ExternFn signature — the same
// load-then-verify step inspector.go performs before the teacher's
// codegen ever runs, so a typo in the config fails here with a named
// error instead of surfacing as a compile error in generated code.
func Inspect(cfg *Config) error {
	pcfg := &packages.Config{
		Mode: packages.NeedName |
			packages.NeedTypes |
			packages.NeedTypesInfo |
			packages.NeedImports |
			packages.NeedDeps,
	}
	pkgs, err := packages.Load(pcfg, cfg.Package)
	if err != nil {
		return fmt.Errorf("bindgen: loading %s: %w", cfg.Package, err)
	}
	if packages.PrintErrors(pkgs) > 0 {
		return fmt.Errorf("bindgen: package %s did not load cleanly", cfg.Package)
	}
	if len(pkgs) != 1 {
		return fmt.Errorf("bindgen: pattern %s matched %d packages, want exactly one", cfg.Package, len(pkgs))
	}
	scope := pkgs[0].Types.Scope()
	for _, b := range cfg.Binds {
		obj := scope.Lookup(b.Go)
		if obj == nil {
			return fmt.Errorf("bindgen: %s has no top-level %s", cfg.Package, b.Go)
		}
		fn, ok := obj.(*types.Func)
		if !ok {
			return fmt.Errorf("bindgen: %s.%s is not a function", cfg.Package, b.Go)
		}
		if !fn.Exported() {
			return fmt.Errorf("bindgen: %s.%s is not exported", cfg.Package, b.Go)
		}
		if !isExternFn(fn.Type().(*types.Signature)) {
			return fmt.Errorf("bindgen: %s.%s does not have the extern signature func(*vm.Thread, []vm.Value) (vm.Value, error)", cfg.Package, b.Go)
		}
	}
	return nil
}

func isExternFn(sig *types.Signature) bool {
	if sig.Params().Len() != 2 || sig.Results().Len() != 2 || sig.Variadic() {
		return false
	}
	return sig.Params().At(0).Type().String() == threadType &&
		sig.Params().At(1).Type().String() == valuesType &&
		sig.Results().At(0).Type().String() == valueType &&
		sig.Results().At(1).Type().String() == "error"
}

// Render emits the generated registration file. The extern's rowlang
// type cannot be derived from its Go signature (every extern is
// func(*vm.Thread, []vm.Value) (vm.Value, error) regardless of its
// language-level type), so RegisterGenerated takes a typeOf callback
// the embedder supplies at publish time.
func Render(cfg *Config) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "// Code generated by rowlang-bindgen; DO NOT EDIT.\n\n")
	fmt.Fprintf(&buf, "package %s\n\n", cfg.OutPackage)
	fmt.Fprintf(&buf, "import (\n")
	fmt.Fprintf(&buf, "\t\"github.com/rowlang/rowlang/internal/global\"\n")
	fmt.Fprintf(&buf, "\t\"github.com/rowlang/rowlang/internal/types\"\n")
	fmt.Fprintf(&buf, ")\n\n")
	fmt.Fprintf(&buf, "// RegisterGenerated publishes every bound extern into e. typeOf\n")
	fmt.Fprintf(&buf, "// supplies each extern's type at publish time, keyed by its\n")
	fmt.Fprintf(&buf, "// registered name.\n")
	fmt.Fprintf(&buf, "func RegisterGenerated(e *global.Env, typeOf func(name string) types.Type) {\n")
	for _, b := range cfg.Binds {
		fmt.Fprintf(&buf, "\te.RegisterExtern(%q, typeOf(%q), %d, %s)\n", b.Name, b.Name, b.Arity, b.Go)
	}
	fmt.Fprintf(&buf, "}\n")
	return buf.Bytes()
}

// Generate is the whole pipeline: load config, verify against the real
// package, write the registration file.
func Generate(configPath string) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}
	if err := Inspect(cfg); err != nil {
		return err
	}
	return os.WriteFile(cfg.Out, Render(cfg), 0o644)
}
