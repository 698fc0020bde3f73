package bindgen

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bindgen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigParsesAndDefaults(t *testing.T) {
	path := writeConfig(t, `
package: ./internal/hostext
out_package: hostext
binds:
  - go: UUIDV4
    name: uuid.v4
    arity: 1
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "./internal/hostext", cfg.Package)
	require.Equal(t, "hostext", cfg.OutPackage)
	require.Equal(t, "bindings_gen.go", cfg.Out, "out defaults when omitted")
	require.Len(t, cfg.Binds, 1)
	require.Equal(t, Bind{Go: "UUIDV4", Name: "uuid.v4", Arity: 1}, cfg.Binds[0])
}

func TestLoadConfigRejectsMissingFields(t *testing.T) {
	for name, body := range map[string]string{
		"no package":     "out_package: x\nbinds: [{go: F, name: f, arity: 1}]\n",
		"no out_package": "package: ./x\nbinds: [{go: F, name: f, arity: 1}]\n",
		"no binds":       "package: ./x\nout_package: x\n",
		"zero arity":     "package: ./x\nout_package: x\nbinds: [{go: F, name: f, arity: 0}]\n",
		"nameless bind":  "package: ./x\nout_package: x\nbinds: [{go: F, arity: 1}]\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, body))
			require.Error(t, err)
		})
	}
}

// TestRenderEmitsOneRegistrationPerBind checks the generated file's
// shape without running the go/packages load (Inspect's job): package
// clause, the two fixed imports, and one RegisterExtern line per bind
// in declaration order.
func TestRenderEmitsOneRegistrationPerBind(t *testing.T) {
	cfg := &Config{
		Package:    "./internal/hostext",
		OutPackage: "hostext",
		Out:        "bindings_gen.go",
		Binds: []Bind{
			{Go: "UUIDV4", Name: "uuid.v4", Arity: 1},
			{Go: "YamlDecode", Name: "yaml.decode", Arity: 1},
		},
	}
	src := string(Render(cfg))
	require.Contains(t, src, "// Code generated by rowlang-bindgen; DO NOT EDIT.")
	require.Contains(t, src, "package hostext\n")
	require.Contains(t, src, `"github.com/rowlang/rowlang/internal/global"`)
	require.Contains(t, src, `"github.com/rowlang/rowlang/internal/types"`)
	require.Contains(t, src, `e.RegisterExtern("uuid.v4", typeOf("uuid.v4"), 1, UUIDV4)`)
	require.Contains(t, src, `e.RegisterExtern("yaml.decode", typeOf("yaml.decode"), 1, YamlDecode)`)
	require.Less(t, strings.Index(src, `e.RegisterExtern("uuid.v4"`), strings.Index(src, `e.RegisterExtern("yaml.decode"`),
		"registrations follow bind declaration order")
}
