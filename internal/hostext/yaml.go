package hostext

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/rowlang/rowlang/internal/global"
	"github.com/rowlang/rowlang/internal/symbols"
	"github.com/rowlang/rowlang/internal/types"
	"github.com/rowlang/rowlang/internal/vm"
)

// yamlCtorArgs names the seven nullary/unary constructors of the
// dynamic value tree yaml.decode produces, in the declaration order
// their tags are minted in, paired with their argument type (built
// lazily against the recursive YamlValue type) — mirroring a user
// `type` declaration's variant row (internal/check/types_decl.go's
// buildVariantRow) closely enough that pattern-matching against it
// feels like matching any other variant.
func yamlCtorArgs(in *symbols.Interner, self types.Type) []struct {
	Name string
	Args []types.Type
} {
	boolT := types.BoolVariant(in)
	intT := types.Builtin(types.TagInt)
	floatT := types.Builtin(types.TagFloat)
	stringT := types.Builtin(types.TagString)
	entryT := types.Tuple(in, []types.Type{stringT, self})
	return []struct {
		Name string
		Args []types.Type
	}{
		{"YNull", nil},
		{"YBool", []types.Type{boolT}},
		{"YInt", []types.Type{intT}},
		{"YFloat", []types.Type{floatT}},
		{"YString", []types.Type{stringT}},
		{"YList", []types.Type{types.Array(self)}},
		{"YRecord", []types.Type{types.Array(entryT)}},
	}
}

// yamlValueType builds the recursive variant
// `[ YNull | YBool Bool | YInt Int | YFloat Float | YString String
//    | YList (Array YamlValue) | YRecord (Array (String, YamlValue)) ]`
// the same way internal/check/types_decl.go ties a recursive `type`
// declaration's knot: a fresh AliasGroup whose single member's body
// references the group through a TAlias before the group is ever
// returned.
func yamlValueType(in *symbols.Interner) types.Type {
	group := types.NewAliasGroup(make([]types.AliasData, 1), false)
	self := types.Alias(types.AliasRef{Group: group, Index: 0})

	fields := make([]types.ValueField, 0, 7)
	for _, c := range yamlCtorArgs(in, self) {
		fields = append(fields, types.ValueField{Name: in.InternLocal(c.Name), Typ: types.Tuple(in, c.Args)})
	}
	body := types.Variant(types.ExtendRow(nil, fields, types.TEmptyRow{}))
	group.Members[0] = types.AliasData{Name: in.InternLocal("YamlValue"), Body: body}
	return self
}

// RegisterYAML publishes yaml.decode : String -> YamlValue using
// gopkg.in/yaml.v3 — the teacher's own config-loading dependency
// (_examples/funvibe-funxy/internal/evaluator/builtins_yaml.go's
// yamlDecode, and internal/ext/config.go's Config/Dep structs) — and
// mints the seven YamlValue constructor tags/globals the same way
// internal/global.registerBool mints Bool's.
func RegisterYAML(e *global.Env, in *symbols.Interner) {
	valueT := yamlValueType(in)
	for _, c := range yamlCtorArgs(in, valueT) {
		tag := e.DefineTag(c.Name)
		fnType := types.Curry(c.Args, valueT)
		if len(c.Args) == 0 {
			e.Define(c.Name, fnType, vm.VTag{ID: tag}, global.Metadata{Builtin: true})
		} else {
			e.Define(c.Name, fnType, constructorValue(tag, len(c.Args)), global.Metadata{Builtin: true})
		}
	}

	typ := types.Function(types.Builtin(types.TagString), valueT)
	e.RegisterExtern("yaml.decode", typ, 1, func(t *vm.Thread, args []vm.Value) (vm.Value, error) {
		str, ok := args[0].(*vm.StringObj)
		if !ok {
			return nil, &HostTypeError{Want: "String", Extern: "yaml.decode"}
		}
		var doc any
		if err := yaml.Unmarshal([]byte(str.Data), &doc); err != nil {
			return nil, fmt.Errorf("yaml.decode: %w", err)
		}
		return yamlToValue(t, e, doc)
	})
}

// yamlToValue converts a Go value produced by yaml.Unmarshal (nil,
// bool, int, float64, string, []any, map[string]any) into a YamlValue
// DataObj tree, the runtime-value analogue of funxy's inferFromYaml
// (builtins_yaml.go) adapted to this project's Data/Array encoding
// instead of Funxy's Record/List Objects. A map key or scalar
// yaml.Unmarshal handed back in some other Go type is reported rather
// than papered over, matching inferFromYaml's own "unsupported YAML
// value type" error.
func yamlToValue(t *vm.Thread, e *global.Env, v any) (vm.Value, error) {
	tagOf := func(name string) uint32 { tag, _ := e.TagOf(name); return tag }
	track := func(o vm.Object) vm.Object { t.Track(o); return o }
	switch x := v.(type) {
	case nil:
		return vm.VTag{ID: tagOf("YNull")}, nil
	case bool:
		return track(&vm.DataObj{Tag: tagOf("YBool"), Fields: []vm.Value{boolValue(x)}}).(vm.Value), nil
	case int:
		return track(&vm.DataObj{Tag: tagOf("YInt"), Fields: []vm.Value{vm.VInt(x)}}).(vm.Value), nil
	case float64:
		return track(&vm.DataObj{Tag: tagOf("YFloat"), Fields: []vm.Value{vm.VFloat(x)}}).(vm.Value), nil
	case string:
		str := &vm.StringObj{Data: x}
		t.Track(str)
		return track(&vm.DataObj{Tag: tagOf("YString"), Fields: []vm.Value{str}}).(vm.Value), nil
	case []any:
		elems := make([]vm.Value, len(x))
		for i, item := range x {
			elem, err := yamlToValue(t, e, item)
			if err != nil {
				return nil, err
			}
			elems[i] = elem
		}
		arr := &vm.ArrayObj{Kind: vm.ElemValue, Values: elems}
		t.Track(arr)
		return track(&vm.DataObj{Tag: tagOf("YList"), Fields: []vm.Value{arr}}).(vm.Value), nil
	case map[string]any:
		entries := make([]vm.Value, 0, len(x))
		for k, item := range x {
			val, err := yamlToValue(t, e, item)
			if err != nil {
				return nil, err
			}
			key := &vm.StringObj{Data: k}
			t.Track(key)
			entries = append(entries, track(&vm.DataObj{Fields: []vm.Value{key, val}}).(vm.Value))
		}
		arr := &vm.ArrayObj{Kind: vm.ElemValue, Values: entries}
		t.Track(arr)
		return track(&vm.DataObj{Tag: tagOf("YRecord"), Fields: []vm.Value{arr}}).(vm.Value), nil
	default:
		return nil, fmt.Errorf("yaml.decode: unsupported YAML value type %T", x)
	}
}

// CacheManifest is the precompiled-bytecode cache's on-disk index
// (spec §6 "Persisted state": "the optional precompiled-bytecode cache
// writes to a host-chosen directory with one file per module, keyed by
// module name plus source hash"). It is the one piece of this project
// that round-trips through yaml.v3's Marshal as well as Unmarshal,
// grounded on internal/ext/config.go's Config/Dep YAML structs.
type CacheManifest struct {
	Entries map[string]CacheEntry `yaml:"entries"`
}

// CacheEntry names the compiled-bytecode file cached for one (module
// name, source hash) pair.
type CacheEntry struct {
	SourceHash string `yaml:"source_hash"`
	File       string `yaml:"file"`
}

// Key builds the manifest lookup key for a module name and its source
// hash (changed source has a different hash and so a different key, so
// an entry recorded for the old source is never found under it).
func Key(module, sourceHash string) string { return module + "@" + sourceHash }

// LoadManifest reads manifest.yaml from dir, returning an empty
// manifest if it does not exist yet (a fresh cache directory is not an
// error).
func LoadManifest(dir string) (*CacheManifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, "manifest.yaml"))
	if os.IsNotExist(err) {
		return &CacheManifest{Entries: map[string]CacheEntry{}}, nil
	}
	if err != nil {
		return nil, err
	}
	var m CacheManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("cache manifest: %w", err)
	}
	if m.Entries == nil {
		m.Entries = map[string]CacheEntry{}
	}
	return &m, nil
}

// Save writes m back to manifest.yaml in dir.
func (m *CacheManifest) Save(dir string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("cache manifest: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "manifest.yaml"), data, 0o644)
}

// HostTypeError is raised by a hostext extern whose argument didn't
// carry the runtime representation its checker-visible type promised
// (never reachable if the checker actually ran over the call site; it
// guards an extern invoked by a host embedder that skipped type
// checking).
type HostTypeError struct {
	Extern, Want string
}

func (e *HostTypeError) Error() string {
	return fmt.Sprintf("%s: expected a %s argument", e.Extern, e.Want)
}
